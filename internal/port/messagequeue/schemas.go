package messagequeue

// TasksChangedPayload is the schema for taskflow.tasks.changed messages.
type TasksChangedPayload struct {
	Seq       uint64 `json:"seq"`
	Op        string `json:"op"`
	TaskID    string `json:"task_id,omitempty"`
	Pending   int    `json:"pending"`
	Completed int    `json:"completed"`
}

// TasksPrioritizedPayload is the schema for taskflow.tasks.prioritized messages.
type TasksPrioritizedPayload struct {
	Submitted  int     `json:"submitted"`
	Scored     int     `json:"scored"`
	DurationMS int64   `json:"duration_ms"`
	TopTaskID  string  `json:"top_task_id,omitempty"`
	TopScore   float64 `json:"top_score,omitempty"`
}
