package task

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Strob0t/TaskFlow/internal/domain"
)

// MaxTitleLength is the maximum title length in characters.
const MaxTitleLength = 100

// Field names used in FieldErrors.
const (
	FieldTitle      = "title"
	FieldDueDate    = "dueDate"
	FieldImportance = "importance"
)

// Form is the raw, unvalidated payload submitted by the add and edit forms.
type Form struct {
	Title      string `json:"title"`
	DueDate    string `json:"dueDate,omitempty"`
	Importance string `json:"importance"`
}

// ValidationError carries field-level messages for a rejected form.
// It matches domain.ErrValidation with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", domain.ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return domain.ErrValidation }

// ValidateCreate validates a form for a new task. In addition to the edit
// rules, a due date may not lie before today.
func (f Form) ValidateCreate(today Date) (Draft, error) {
	return f.validate(&today)
}

// ValidateEdit validates a form for an existing task.
func (f Form) ValidateEdit() (Draft, error) {
	return f.validate(nil)
}

func (f Form) validate(notBefore *Date) (Draft, error) {
	fields := make(map[string]string)
	var d Draft

	d.Title = strings.TrimSpace(f.Title)
	switch {
	case d.Title == "":
		fields[FieldTitle] = "Title cannot be empty."
	case utf8.RuneCountInString(d.Title) > MaxTitleLength:
		fields[FieldTitle] = "Title is too long."
	}

	d.Importance = Importance(f.Importance)
	if !d.Importance.Valid() {
		fields[FieldImportance] = "Importance must be low, medium or high."
	}

	if due := strings.TrimSpace(f.DueDate); due != "" {
		parsed, err := ParseDate(due)
		switch {
		case err != nil:
			fields[FieldDueDate] = "Due date is not a valid date."
		case notBefore != nil && parsed.Before(*notBefore):
			fields[FieldDueDate] = "Due date must not be in the past."
		default:
			d.DueDate = &parsed
		}
	}

	if len(fields) > 0 {
		return Draft{}, &ValidationError{Fields: fields}
	}
	return d, nil
}
