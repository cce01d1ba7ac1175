package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	cfotel "github.com/Strob0t/TaskFlow/internal/adapter/otel"
	"github.com/Strob0t/TaskFlow/internal/domain/prioritization"
	"github.com/Strob0t/TaskFlow/internal/domain/task"
	"github.com/Strob0t/TaskFlow/internal/port/broadcast"
	"github.com/Strob0t/TaskFlow/internal/port/kvstore"
	"github.com/Strob0t/TaskFlow/internal/port/messagequeue"
)

// TaskStore owns the canonical task list. It is loaded from the slot store
// at construction, re-read before every mutation so writes made by another
// process (the CLI next to a running server) are kept, and written back in
// full afterwards. Mutations never fail because of persistence: write errors
// are logged and the in-memory list stays authoritative until a write
// succeeds again.
type TaskStore struct {
	mu    sync.Mutex
	tasks []task.Task
	dirty bool // last write failed; memory holds changes the slot lacks
	seq   uint64

	// emitMu is taken before mu is released so change events leave in
	// mutation order.
	emitMu sync.Mutex

	slots kvstore.Store
	key   string

	hub     broadcast.Broadcaster
	queue   messagequeue.Queue
	metrics *cfotel.Metrics

	now   func() time.Time
	newID func() string
}

// NewTaskStore creates a TaskStore and loads the list stored under key.
// A missing slot yields an empty list; so does unreadable content, which is
// logged and left in place until the next mutation overwrites it.
func NewTaskStore(ctx context.Context, slots kvstore.Store, key string) *TaskStore {
	s := &TaskStore{
		tasks: []task.Task{},
		slots: slots,
		key:   key,
		hub:   broadcast.Nop{},
		queue: messagequeue.Nop{},
		now:   time.Now,
		newID: uuid.NewString,
	}
	s.load(ctx)
	return s
}

// SetBroadcaster attaches the live-update hub.
func (s *TaskStore) SetBroadcaster(b broadcast.Broadcaster) { s.hub = b }

// SetQueue attaches the message queue that receives change events.
func (s *TaskStore) SetQueue(q messagequeue.Queue) { s.queue = q }

// SetMetrics attaches metric instruments.
func (s *TaskStore) SetMetrics(m *cfotel.Metrics) { s.metrics = m }

func (s *TaskStore) load(ctx context.Context) {
	if tasks, ok := s.read(ctx, kvstore.Get); ok {
		s.tasks = tasks
		slog.InfoContext(ctx, "tasks loaded", "key", s.key, "count", len(tasks))
	}
}

// refresh replaces the in-memory list with the stored one. It must be called
// with s.mu held. A failed read, a missing or unreadable slot, or an unsaved
// local change keeps the in-memory list.
func (s *TaskStore) refresh(ctx context.Context) {
	if s.dirty {
		return
	}
	if tasks, ok := s.read(ctx, kvstore.GetFresh); ok {
		s.tasks = tasks
	}
}

func (s *TaskStore) read(ctx context.Context, get func(context.Context, kvstore.Store, string) ([]byte, bool, error)) ([]task.Task, bool) {
	data, ok, err := get(ctx, s.slots, s.key)
	if err != nil {
		slog.ErrorContext(ctx, "load tasks failed", "key", s.key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	tasks, err := task.Decode(data)
	if err != nil {
		slog.ErrorContext(ctx, "stored tasks are unreadable", "key", s.key, "error", err)
		return nil, false
	}
	return tasks, true
}

// Reload re-reads the stored list, picking up writes made by other
// processes since the last mutation.
func (s *TaskStore) Reload(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh(ctx)
}

// Today returns the current calendar day on the store's clock.
func (s *TaskStore) Today() task.Date {
	return task.DateOf(s.now())
}

// Add appends a new incomplete task built from the draft.
func (s *TaskStore) Add(ctx context.Context, d task.Draft) task.Task {
	t := task.Task{ID: s.newID()}
	d.Apply(&t)

	s.mu.Lock()
	s.refresh(ctx)
	s.tasks = append(s.tasks, t)
	s.commitAndNotify(ctx, broadcast.OpAdd, t.ID)
	return t
}

// ToggleComplete flips the completion state of the task with the given id.
// It reports false and changes nothing when the id is unknown.
func (s *TaskStore) ToggleComplete(ctx context.Context, id string) (task.Task, bool) {
	s.mu.Lock()
	s.refresh(ctx)
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return task.Task{}, false
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	t := s.tasks[i]
	s.commitAndNotify(ctx, broadcast.OpToggle, id)
	return t, true
}

// Delete removes the task with the given id. Unknown ids are a no-op; the
// result reports whether anything was removed.
func (s *TaskStore) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	s.refresh(ctx)
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.tasks = slices.Delete(s.tasks, i, i+1)
	s.commitAndNotify(ctx, broadcast.OpDelete, id)
	return true
}

// Edit overwrites title, due date and importance of the task with the given
// id. Completion state and prioritization fields are preserved.
func (s *TaskStore) Edit(ctx context.Context, id string, d task.Draft) (task.Task, bool) {
	s.mu.Lock()
	s.refresh(ctx)
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return task.Task{}, false
	}
	d.Apply(&s.tasks[i])
	t := s.tasks[i]
	s.commitAndNotify(ctx, broadcast.OpEdit, id)
	return t, true
}

// MergePriorities writes score and reasoning onto every task whose id
// appears in results. Other tasks, and results for unknown ids, are left
// alone. It returns the number of tasks updated.
func (s *TaskStore) MergePriorities(ctx context.Context, results []prioritization.Result) int {
	byID := make(map[string]prioritization.Result, len(results))
	for _, r := range results {
		byID[r.ID] = r
	}

	s.mu.Lock()
	s.refresh(ctx)
	merged := 0
	for i := range s.tasks {
		r, ok := byID[s.tasks[i].ID]
		if !ok {
			continue
		}
		score := r.PriorityScore
		s.tasks[i].PriorityScore = &score
		s.tasks[i].Reasoning = r.Reasoning
		merged++
	}
	s.commitAndNotify(ctx, broadcast.OpMerge, "")
	return merged
}

// List returns the tasks of a view in display order.
func (s *TaskStore) List(v task.View) []task.Task {
	return task.Ordered(s.Snapshot(), v)
}

// Get returns the task with the given id.
func (s *TaskStore) Get(id string) (task.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		return s.tasks[i], true
	}
	return task.Task{}, false
}

// Counts returns the live count of each view.
func (s *TaskStore) Counts() task.Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return task.Count(s.tasks)
}

// Snapshot returns a copy of the full list in store order.
func (s *TaskStore) Snapshot() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks)
}

// index must be called with s.mu held.
func (s *TaskStore) index(id string) int {
	return slices.IndexFunc(s.tasks, func(t task.Task) bool { return t.ID == id })
}

// commitAndNotify persists the list and emits the change event. It must be
// called with s.mu held and releases it; events leave in the order the
// mutations were applied.
func (s *TaskStore) commitAndNotify(ctx context.Context, op, id string) {
	counts := s.commit(ctx)
	s.seq++
	seq := s.seq

	s.emitMu.Lock()
	s.mu.Unlock()
	defer s.emitMu.Unlock()

	s.changed(ctx, seq, op, id, counts)
}

// commit writes the whole list to the slot store. It must be called with
// s.mu held so writes land in mutation order. The write is detached from
// ctx cancellation: a client hanging up must not lose its change.
func (s *TaskStore) commit(ctx context.Context) task.Counts {
	counts := task.Count(s.tasks)

	data, err := task.Encode(s.tasks)
	if err != nil {
		slog.ErrorContext(ctx, "encode tasks failed", "error", err)
		s.persistFailed(ctx)
		return counts
	}

	wctx, span := cfotel.StartPersistSpan(context.WithoutCancel(ctx), s.key, len(data))
	defer span.End()
	if err := s.slots.Set(wctx, s.key, data); err != nil {
		span.RecordError(err)
		slog.ErrorContext(ctx, "save tasks failed", "key", s.key, "error", err)
		s.persistFailed(ctx)
		return counts
	}
	s.dirty = false
	return counts
}

func (s *TaskStore) persistFailed(ctx context.Context) {
	s.dirty = true
	if s.metrics != nil {
		s.metrics.PersistFailures.Add(ctx, 1)
	}
}

// changed fans a mutation out to live clients and the message queue.
func (s *TaskStore) changed(ctx context.Context, seq uint64, op, id string, counts task.Counts) {
	if s.metrics != nil {
		s.metrics.TaskMutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
	}

	s.hub.BroadcastEvent(ctx, broadcast.EventTasksChanged, broadcast.TasksChangedEvent{
		Seq:    seq,
		Op:     op,
		TaskID: id,
		Counts: counts,
	})

	data, err := json.Marshal(messagequeue.TasksChangedPayload{
		Seq:       seq,
		Op:        op,
		TaskID:    id,
		Pending:   counts.Pending,
		Completed: counts.Completed,
	})
	if err != nil {
		return
	}
	if err := s.queue.Publish(ctx, messagequeue.SubjectTasksChanged, data); err != nil {
		slog.WarnContext(ctx, "publish tasks changed failed", "op", op, "error", err)
	}
}
