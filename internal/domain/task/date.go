package task

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire format of a calendar date (ISO 8601, day precision).
const DateLayout = "2006-01-02"

// Date is a calendar day. It carries no time-of-day semantics; the
// underlying instant is always midnight UTC.
type Date struct {
	t time.Time
}

// NewDate returns the calendar date y-m-d. Out-of-range values are
// normalized the way time.Date normalizes them.
func NewDate(y int, m time.Month, d int) Date {
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// Today returns the current calendar date in the local time zone.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a calendar date. It accepts the canonical YYYY-MM-DD form
// and, for data written by older clients, full RFC 3339 timestamps.
//
// A UTC timestamp is taken to be a local midnight serialized with
// toISOString, so it is rounded to the nearest UTC day; that recovers the
// picked day for any offset within ±12h. A timestamp with an explicit
// non-zero offset is truncated to the day in that offset.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{t: t}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q", s)
	}
	if _, offset := t.Zone(); offset == 0 {
		return DateOf(t.UTC().Add(12 * time.Hour)), nil
	}
	return DateOf(t), nil
}

// Time returns the date as midnight UTC.
func (d Date) Time() time.Time { return d.t }

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool { return d.t.IsZero() }

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

// Equal reports whether d and o are the same calendar day.
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// String formats the date as YYYY-MM-DD.
func (d Date) String() string { return d.t.Format(DateLayout) }

// MarshalJSON encodes the date as a YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a date string in any format accepted by ParseDate.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
