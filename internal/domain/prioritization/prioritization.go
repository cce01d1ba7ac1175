// Package prioritization defines the request/response contract of a
// prioritization round with the remote scoring service.
package prioritization

import (
	"errors"
	"fmt"
	"math"

	"github.com/Strob0t/TaskFlow/internal/domain/task"
)

// ErrRemote wraps failures of the remote prioritization call itself.
var ErrRemote = errors.New("remote prioritization failed")

// ErrInvalidResponse indicates the remote service answered with data that
// does not match the result schema.
var ErrInvalidResponse = errors.New("invalid prioritization response")

// User-facing messages surfaced after a round.
const (
	MessageSuccess = "Your tasks have been prioritized by AI."
	MessageNoTasks = "No tasks to prioritize."
	MessageFailed  = "Failed to prioritize tasks using AI. Please try again later."
)

// Input is the per-task payload sent to the remote service.
type Input struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	DueDate    string          `json:"dueDate,omitempty"`
	Importance task.Importance `json:"importance"`
	Completed  bool            `json:"completed"`
}

// Result is the per-task score returned by the remote service.
type Result struct {
	ID            string  `json:"id"`
	PriorityScore float64 `json:"priorityScore"`
	Reasoning     string  `json:"reasoning"`
}

// Outcome is the user-visible result of a round.
type Outcome struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
	Results []Result `json:"results,omitempty"`
}

// BuildInputs converts the task set into the request payload, one entry per
// task in store order.
func BuildInputs(tasks []task.Task) []Input {
	out := make([]Input, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		out[i] = Input{
			ID:         t.ID,
			Title:      t.Title,
			Importance: t.Importance,
			Completed:  t.Completed,
		}
		if t.DueDate != nil {
			out[i].DueDate = t.DueDate.String()
		}
	}
	return out
}

// rawResult mirrors Result with optional fields so that missing keys can be
// told apart from zero values.
type rawResult struct {
	ID            *string  `json:"id"`
	PriorityScore *float64 `json:"priorityScore"`
	Reasoning     *string  `json:"reasoning"`
}

// Validate checks results returned by any prioritizer: every item needs an id
// and a finite score. Scores are not range-checked.
func Validate(results []Result) error {
	for i := range results {
		r := &results[i]
		if r.ID == "" {
			return fmt.Errorf("item %d: missing id: %w", i, ErrInvalidResponse)
		}
		if math.IsNaN(r.PriorityScore) || math.IsInf(r.PriorityScore, 0) {
			return fmt.Errorf("item %d (%s): priorityScore is not a finite number: %w", i, r.ID, ErrInvalidResponse)
		}
	}
	return nil
}

// validateRaw checks decoded results against the response schema: every
// item needs an id, a numeric score and a reasoning string.
func validateRaw(raw []rawResult) ([]Result, error) {
	out := make([]Result, 0, len(raw))
	for i, r := range raw {
		switch {
		case r.ID == nil || *r.ID == "":
			return nil, fmt.Errorf("item %d: missing id: %w", i, ErrInvalidResponse)
		case r.PriorityScore == nil:
			return nil, fmt.Errorf("item %d (%s): missing priorityScore: %w", i, *r.ID, ErrInvalidResponse)
		case r.Reasoning == nil:
			return nil, fmt.Errorf("item %d (%s): missing reasoning: %w", i, *r.ID, ErrInvalidResponse)
		}
		out = append(out, Result{ID: *r.ID, PriorityScore: *r.PriorityScore, Reasoning: *r.Reasoning})
	}
	if err := Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}
