// Package task defines the Task domain entity, its form validation and the
// display ordering used by every view.
package task

// Importance is the user-assigned priority tier of a task.
type Importance string

const (
	ImportanceLow    Importance = "low"
	ImportanceMedium Importance = "medium"
	ImportanceHigh   Importance = "high"
)

// Valid reports whether i is one of the enumerated importance levels.
func (i Importance) Valid() bool {
	switch i {
	case ImportanceLow, ImportanceMedium, ImportanceHigh:
		return true
	}
	return false
}

// Task is a single to-do item.
//
// PriorityScore and Reasoning are written together by a prioritization
// round; a task is considered scored when PriorityScore is non-nil.
type Task struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	DueDate       *Date      `json:"dueDate,omitempty"`
	Importance    Importance `json:"importance"`
	Completed     bool       `json:"completed"`
	PriorityScore *float64   `json:"priorityScore,omitempty"`
	Reasoning     string     `json:"reasoning,omitempty"`
}

// Scored reports whether the task carries a priority score.
func (t *Task) Scored() bool {
	return t.PriorityScore != nil
}

// Draft holds the validated, normalized fields captured by the task form.
// It is the payload for both creating and editing a task.
type Draft struct {
	Title      string
	DueDate    *Date
	Importance Importance
}

// Apply overwrites the form-owned fields of t with the draft. Completion
// state and prioritization fields are left untouched.
func (d Draft) Apply(t *Task) {
	t.Title = d.Title
	t.Importance = d.Importance
	if d.DueDate != nil {
		due := *d.DueDate
		t.DueDate = &due
	} else {
		t.DueDate = nil
	}
}
