// Package broadcast defines the port for pushing task list events to connected clients.
package broadcast

import (
	"context"

	"github.com/Strob0t/TaskFlow/internal/domain/task"
)

// Event types pushed to clients.
const (
	EventTasksChanged     = "tasks.changed"
	EventTasksPrioritized = "tasks.prioritized"
)

// Operations reported in TasksChangedEvent.
const (
	OpAdd    = "add"
	OpEdit   = "edit"
	OpToggle = "toggle"
	OpDelete = "delete"
	OpMerge  = "merge"
)

// TasksChangedEvent is broadcast after every task list mutation. Seq grows
// by one per mutation of the emitting process; a client that sees a lower
// Seq than one it already holds can drop the event.
type TasksChangedEvent struct {
	Seq    uint64      `json:"seq"`
	Op     string      `json:"op"`
	TaskID string      `json:"taskId,omitempty"`
	Counts task.Counts `json:"counts"`
}

// TasksPrioritizedEvent is broadcast after a successful prioritization round.
type TasksPrioritizedEvent struct {
	Count     int     `json:"count"`
	TopTaskID string  `json:"topTaskId,omitempty"`
	TopScore  float64 `json:"topScore,omitempty"`
}

// Broadcaster sends real-time events to all connected clients.
type Broadcaster interface {
	// BroadcastEvent sends a typed event to all connected clients.
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}

// Nop discards all events.
type Nop struct{}

func (Nop) BroadcastEvent(context.Context, string, any) {}
