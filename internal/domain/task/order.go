package task

import (
	"fmt"
	"slices"

	"github.com/Strob0t/TaskFlow/internal/domain"
)

// View selects which tasks a list shows.
type View string

const (
	ViewPending   View = "pending"
	ViewCompleted View = "completed"
	ViewAll       View = "all"
)

// ParseView converts a query value to a View. An empty string yields the
// pending view, which is the default tab.
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case "":
		return ViewPending, nil
	case ViewPending, ViewCompleted, ViewAll:
		return v, nil
	}
	return "", fmt.Errorf("unknown view %q: %w", s, domain.ErrValidation)
}

// Includes reports whether t belongs to the view.
func (v View) Includes(t *Task) bool {
	switch v {
	case ViewPending:
		return !t.Completed
	case ViewCompleted:
		return t.Completed
	default:
		return true
	}
}

// Counts holds the live task count of each view.
type Counts struct {
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	All       int `json:"all"`
}

// Count tallies tasks per view.
func Count(tasks []Task) Counts {
	var c Counts
	for i := range tasks {
		if tasks[i].Completed {
			c.Completed++
		} else {
			c.Pending++
		}
	}
	c.All = len(tasks)
	return c
}

// Filter returns the tasks that belong to the view, in their original order.
// The input slice is not modified.
func Filter(tasks []Task, v View) []Task {
	out := make([]Task, 0, len(tasks))
	for i := range tasks {
		if v.Includes(&tasks[i]) {
			out = append(out, tasks[i])
		}
	}
	return out
}

// Compare orders two tasks for display. Incomplete tasks come first; within
// the same completion state a higher priority score wins when both are
// scored, otherwise an earlier due date wins when both are dated, otherwise
// a dated task precedes an undated one. Any other pair compares equal.
func Compare(a, b *Task) int {
	if a.Completed != b.Completed {
		if a.Completed {
			return 1
		}
		return -1
	}
	if a.Scored() && b.Scored() {
		switch {
		case *a.PriorityScore > *b.PriorityScore:
			return -1
		case *a.PriorityScore < *b.PriorityScore:
			return 1
		}
		return 0
	}
	switch {
	case a.DueDate != nil && b.DueDate != nil:
		return a.DueDate.Time().Compare(b.DueDate.Time())
	case a.DueDate != nil:
		return -1
	case b.DueDate != nil:
		return 1
	}
	return 0
}

// Sort returns a copy of tasks in display order. The sort is stable, so
// tasks that compare equal keep their relative order.
func Sort(tasks []Task) []Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b Task) int { return Compare(&a, &b) })
	return out
}

// Ordered filters tasks by view and sorts the result for display.
func Ordered(tasks []Task, v View) []Task {
	return Sort(Filter(tasks, v))
}
