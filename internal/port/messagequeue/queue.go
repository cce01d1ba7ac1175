// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Handler processes a message received from the queue. The context carries
// the publisher's request id when one was set.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing task list events to downstream
// consumers.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject and
	// returns a function that stops delivery.
	Subscribe(ctx context.Context, subject string, handler Handler) (func(), error)

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subject constants for NATS subjects used by TaskFlow.
const (
	SubjectTasksChanged     = "taskflow.tasks.changed"
	SubjectTasksPrioritized = "taskflow.tasks.prioritized"
	SubjectTasksAll         = "taskflow.tasks.>"
)

// Nop is a Queue that drops every message. It stands in when no broker is
// configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, []byte) error { return nil }
func (Nop) Close() error                                  { return nil }
func (Nop) IsConnected() bool                             { return false }

func (Nop) Subscribe(context.Context, string, Handler) (func(), error) {
	return func() {}, nil
}
