package service

import (
	"context"
	"errors"
	"sync"

	"github.com/Strob0t/TaskFlow/internal/domain/prioritization"
	"github.com/Strob0t/TaskFlow/internal/port/kvstore"
	"github.com/Strob0t/TaskFlow/internal/port/messagequeue"
)

var errBackend = errors.New("backend unavailable")

type published struct {
	subject string
	data    []byte
}

// mockQueue implements messagequeue.Queue for testing.
type mockQueue struct {
	mu         sync.Mutex
	published  []published
	publishErr error
}

func (q *mockQueue) Publish(_ context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.publishErr != nil {
		return q.publishErr
	}
	q.published = append(q.published, published{subject, data})
	return nil
}

func (q *mockQueue) Subscribe(_ context.Context, _ string, _ messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (q *mockQueue) Close() error      { return nil }
func (q *mockQueue) IsConnected() bool { return true }

func (q *mockQueue) subjects() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.published))
	for i, p := range q.published {
		out[i] = p.subject
	}
	return out
}

type hubEvent struct {
	eventType string
	payload   any
}

// mockHub records broadcast events.
type mockHub struct {
	mu     sync.Mutex
	events []hubEvent
}

func (h *mockHub) BroadcastEvent(_ context.Context, eventType string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, hubEvent{eventType, payload})
}

func (h *mockHub) types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.events))
	for i, e := range h.events {
		out[i] = e.eventType
	}
	return out
}

// flakyStore wraps a Memory store and fails operations on demand.
type flakyStore struct {
	*kvstore.Memory
	mu      sync.Mutex
	failSet bool
	failGet bool
	sets    int
}

func newFlakyStore() *flakyStore {
	return &flakyStore{Memory: kvstore.NewMemory()}
}

func (f *flakyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	fail := f.failGet
	f.mu.Unlock()
	if fail {
		return nil, false, errBackend
	}
	return f.Memory.Get(ctx, key)
}

func (f *flakyStore) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	f.sets++
	fail := f.failSet
	f.mu.Unlock()
	if fail {
		return errBackend
	}
	return f.Memory.Set(ctx, key, value)
}

func (f *flakyStore) setCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets
}

// mockScorer implements prioritizer.Prioritizer.
type mockScorer struct {
	mu      sync.Mutex
	calls   int
	inputs  []prioritization.Input
	results []prioritization.Result
	err     error
	// block, when set, is waited on before returning; started is closed on entry.
	block   chan struct{}
	started chan struct{}
	ctxErr  error
}

func (m *mockScorer) Prioritize(ctx context.Context, in []prioritization.Input) ([]prioritization.Result, error) {
	m.mu.Lock()
	m.calls++
	m.inputs = in
	started, block := m.started, m.block
	m.mu.Unlock()

	if started != nil {
		close(started)
	}
	if block != nil {
		<-block
	}

	m.mu.Lock()
	m.ctxErr = ctx.Err()
	m.mu.Unlock()
	return m.results, m.err
}

func (m *mockScorer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
