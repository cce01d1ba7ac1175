package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	cfotel "github.com/Strob0t/TaskFlow/internal/adapter/otel"
	"github.com/Strob0t/TaskFlow/internal/domain"
	"github.com/Strob0t/TaskFlow/internal/domain/prioritization"
	"github.com/Strob0t/TaskFlow/internal/port/broadcast"
	"github.com/Strob0t/TaskFlow/internal/port/kvstore"
	"github.com/Strob0t/TaskFlow/internal/port/messagequeue"
	"github.com/Strob0t/TaskFlow/internal/port/prioritizer"
)

// LastRoundKey is the slot holding the most recent successful round.
const LastRoundKey = "prioritization:last"

// MessageInFlight is shown when a second round is requested while one is
// outstanding.
const MessageInFlight = "Tasks are already being prioritized."

// Round is the record kept of the last successful prioritization.
type Round struct {
	At         time.Time               `json:"at"`
	Submitted  int                     `json:"submitted"`
	Merged     int                     `json:"merged"`
	DurationMS int64                   `json:"durationMs"`
	Results    []prioritization.Result `json:"results"`
}

// PrioritizationService runs prioritization rounds against the remote
// scorer and merges the scores into the TaskStore. At most one round is
// outstanding at a time.
type PrioritizationService struct {
	store  *TaskStore
	scorer prioritizer.Prioritizer
	slots  kvstore.Store

	hub     broadcast.Broadcaster
	queue   messagequeue.Queue
	metrics *cfotel.Metrics

	inFlight atomic.Bool
	now      func() time.Time
}

// NewPrioritizationService creates the service. slots receives the record
// of the last successful round.
func NewPrioritizationService(store *TaskStore, scorer prioritizer.Prioritizer, slots kvstore.Store) *PrioritizationService {
	return &PrioritizationService{
		store:  store,
		scorer: scorer,
		slots:  slots,
		hub:    broadcast.Nop{},
		queue:  messagequeue.Nop{},
		now:    time.Now,
	}
}

// SetBroadcaster attaches the live-update hub.
func (s *PrioritizationService) SetBroadcaster(b broadcast.Broadcaster) { s.hub = b }

// SetQueue attaches the message queue that receives round events.
func (s *PrioritizationService) SetQueue(q messagequeue.Queue) { s.queue = q }

// SetMetrics attaches metric instruments.
func (s *PrioritizationService) SetMetrics(m *cfotel.Metrics) { s.metrics = m }

// InFlight reports whether a round is outstanding.
func (s *PrioritizationService) InFlight() bool { return s.inFlight.Load() }

// Prioritize scores every task in the store. The returned Outcome always
// carries the user-facing message; the error tells callers what went wrong:
// domain.ErrInFlight, domain.ErrNoTasks, prioritization.ErrRemote or
// prioritization.ErrInvalidResponse. On any error the store is unchanged.
//
// Once issued the remote call is not cancelled by ctx; the transport
// timeout bounds it.
func (s *PrioritizationService) Prioritize(ctx context.Context) (prioritization.Outcome, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return prioritization.Outcome{Error: MessageInFlight}, domain.ErrInFlight
	}
	defer s.inFlight.Store(false)

	s.store.Reload(ctx)
	snapshot := s.store.Snapshot()
	if len(snapshot) == 0 {
		s.record(ctx, "empty", 0, 0)
		return prioritization.Outcome{Error: prioritization.MessageNoTasks}, domain.ErrNoTasks
	}

	inputs := prioritization.BuildInputs(snapshot)
	rctx, span := cfotel.StartPrioritizeSpan(context.WithoutCancel(ctx), len(inputs))
	defer span.End()

	start := s.now()
	results, err := s.scorer.Prioritize(rctx, inputs)
	if err == nil {
		err = prioritization.Validate(results)
	}
	elapsed := s.now().Sub(start)

	if err != nil {
		if !errors.Is(err, prioritization.ErrRemote) && !errors.Is(err, prioritization.ErrInvalidResponse) {
			err = fmt.Errorf("%w: %w", prioritization.ErrRemote, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "prioritization failed")
		slog.ErrorContext(ctx, "prioritization failed", "tasks", len(inputs), "duration", elapsed, "error", err)
		s.record(rctx, "failed", elapsed, 0)
		return prioritization.Outcome{Error: prioritization.MessageFailed}, fmt.Errorf("prioritize: %w", err)
	}

	merged := s.store.MergePriorities(rctx, results)
	span.SetAttributes(attribute.Int("tasks.merged", merged))
	slog.InfoContext(ctx, "tasks prioritized", "submitted", len(inputs), "scored", len(results), "merged", merged, "duration", elapsed)

	s.record(rctx, "success", elapsed, merged)
	s.saveRound(rctx, Round{
		At:         start.UTC(),
		Submitted:  len(inputs),
		Merged:     merged,
		DurationMS: elapsed.Milliseconds(),
		Results:    results,
	})
	s.announce(rctx, len(inputs), elapsed, results)

	return prioritization.Outcome{
		Success: true,
		Message: prioritization.MessageSuccess,
		Results: results,
	}, nil
}

// LastRound returns the most recent successful round, if any was recorded.
func (s *PrioritizationService) LastRound(ctx context.Context) (Round, bool, error) {
	data, ok, err := s.slots.Get(ctx, LastRoundKey)
	if err != nil || !ok {
		return Round{}, false, err
	}
	var r Round
	if err := json.Unmarshal(data, &r); err != nil {
		return Round{}, false, fmt.Errorf("decode last round: %w", err)
	}
	return r, true, nil
}

func (s *PrioritizationService) saveRound(ctx context.Context, r Round) {
	data, err := json.Marshal(r)
	if err != nil {
		slog.ErrorContext(ctx, "encode last round failed", "error", err)
		return
	}
	if err := s.slots.Set(ctx, LastRoundKey, data); err != nil {
		slog.ErrorContext(ctx, "save last round failed", "error", err)
	}
}

func (s *PrioritizationService) record(ctx context.Context, outcome string, elapsed time.Duration, scored int) {
	if s.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	s.metrics.Prioritizations.Add(ctx, 1, attrs)
	if elapsed > 0 {
		s.metrics.PrioritizationDuration.Record(ctx, elapsed.Seconds(), attrs)
	}
	if scored > 0 {
		s.metrics.TasksScored.Add(ctx, int64(scored))
	}
}

func (s *PrioritizationService) announce(ctx context.Context, submitted int, elapsed time.Duration, results []prioritization.Result) {
	var top prioritization.Result
	for i, r := range results {
		if i == 0 || r.PriorityScore > top.PriorityScore {
			top = r
		}
	}

	s.hub.BroadcastEvent(ctx, broadcast.EventTasksPrioritized, broadcast.TasksPrioritizedEvent{
		Count:     len(results),
		TopTaskID: top.ID,
		TopScore:  top.PriorityScore,
	})

	data, err := json.Marshal(messagequeue.TasksPrioritizedPayload{
		Submitted:  submitted,
		Scored:     len(results),
		DurationMS: elapsed.Milliseconds(),
		TopTaskID:  top.ID,
		TopScore:   top.PriorityScore,
	})
	if err != nil {
		return
	}
	if err := s.queue.Publish(ctx, messagequeue.SubjectTasksPrioritized, data); err != nil {
		slog.WarnContext(ctx, "publish tasks prioritized failed", "error", err)
	}
}
