package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/Strob0t/TaskFlow/internal/domain"
	"github.com/Strob0t/TaskFlow/internal/domain/prioritization"
	"github.com/Strob0t/TaskFlow/internal/domain/task"
	"github.com/Strob0t/TaskFlow/internal/port/broadcast"
	"github.com/Strob0t/TaskFlow/internal/port/kvstore"
	"github.com/Strob0t/TaskFlow/internal/port/messagequeue"
)

func newPrioritization(t *testing.T, scorer *mockScorer) (*PrioritizationService, *TaskStore, *kvstore.Memory) {
	t.Helper()
	slots := kvstore.NewMemory()
	store := newStore(t, slots)
	return NewPrioritizationService(store, scorer, slots), store, slots
}

func TestPrioritizeEmptySet(t *testing.T) {
	scorer := &mockScorer{}
	svc, store, slots := newPrioritization(t, scorer)

	out, err := svc.Prioritize(context.Background())
	if !errors.Is(err, domain.ErrNoTasks) {
		t.Fatalf("expected ErrNoTasks, got %v", err)
	}
	if out.Success || out.Error != prioritization.MessageNoTasks {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if scorer.callCount() != 0 {
		t.Fatal("remote service must not be called for an empty set")
	}
	if store.Counts().All != 0 {
		t.Fatal("store must stay empty")
	}
	if _, ok, _ := slots.Get(context.Background(), slotKey); ok {
		t.Fatal("empty round must not write the task slot")
	}
	if svc.InFlight() {
		t.Fatal("guard must be released")
	}
}

func TestPrioritizeSuccess(t *testing.T) {
	scorer := &mockScorer{}
	svc, store, _ := newPrioritization(t, scorer)
	hub, queue := &mockHub{}, &mockQueue{}
	svc.SetBroadcaster(hub)
	svc.SetQueue(queue)
	ctx := context.Background()

	a := store.Add(ctx, draft("A", task.ImportanceLow, date(2026, 3, 1)))
	b := store.Add(ctx, draft("B", task.ImportanceHigh, nil))
	store.ToggleComplete(ctx, b.ID)
	scorer.results = []prioritization.Result{
		{ID: a.ID, PriorityScore: 30, Reasoning: "later"},
		{ID: b.ID, PriorityScore: 95, Reasoning: "done already"},
	}

	out, err := svc.Prioritize(ctx)
	if err != nil {
		t.Fatalf("Prioritize: %v", err)
	}
	if !out.Success || out.Message != prioritization.MessageSuccess || len(out.Results) != 2 {
		t.Fatalf("unexpected outcome %+v", out)
	}

	if len(scorer.inputs) != 2 || scorer.inputs[0].DueDate != "2026-03-01" || !scorer.inputs[1].Completed {
		t.Fatalf("unexpected inputs %+v", scorer.inputs)
	}

	gotA, _ := store.Get(a.ID)
	if gotA.PriorityScore == nil || *gotA.PriorityScore != 30 || gotA.Reasoning != "later" {
		t.Fatalf("a not merged: %+v", gotA)
	}

	round, ok, err := svc.LastRound(ctx)
	if err != nil || !ok {
		t.Fatalf("LastRound: ok=%v err=%v", ok, err)
	}
	if round.Submitted != 2 || round.Merged != 2 || len(round.Results) != 2 {
		t.Fatalf("unexpected round %+v", round)
	}

	var prioritized *broadcast.TasksPrioritizedEvent
	for _, e := range hub.events {
		if e.eventType == broadcast.EventTasksPrioritized {
			ev := e.payload.(broadcast.TasksPrioritizedEvent)
			prioritized = &ev
		}
	}
	if prioritized == nil || prioritized.Count != 2 || prioritized.TopTaskID != b.ID {
		t.Fatalf("unexpected prioritized event %+v", prioritized)
	}
	if subj := queue.subjects(); len(subj) != 1 || subj[0] != messagequeue.SubjectTasksPrioritized {
		t.Fatalf("queue subjects = %v", subj)
	}
}

func TestPrioritizeRemoteFailureLeavesStore(t *testing.T) {
	scorer := &mockScorer{err: errBackend}
	svc, store, slots := newPrioritization(t, scorer)
	ctx := context.Background()
	store.Add(ctx, draft("A", task.ImportanceLow, nil))
	before, _, _ := slots.Get(ctx, slotKey)

	out, err := svc.Prioritize(ctx)
	if !errors.Is(err, prioritization.ErrRemote) {
		t.Fatalf("expected ErrRemote, got %v", err)
	}
	if out.Success || out.Error != prioritization.MessageFailed {
		t.Fatalf("unexpected outcome %+v", out)
	}
	after, _, _ := slots.Get(ctx, slotKey)
	if string(before) != string(after) {
		t.Fatal("failed round must not touch the slot")
	}
	if _, ok, _ := svc.LastRound(ctx); ok {
		t.Fatal("failed round must not be recorded")
	}
	if svc.InFlight() {
		t.Fatal("guard must be released after failure")
	}
}

func TestPrioritizeInvalidResultsLeavesStore(t *testing.T) {
	tests := []struct {
		name    string
		results []prioritization.Result
	}{
		{"missing id", []prioritization.Result{{PriorityScore: 10, Reasoning: "x"}}},
		{"nan score", []prioritization.Result{{ID: "a", PriorityScore: math.NaN(), Reasoning: "x"}}},
		{"infinite score", []prioritization.Result{{ID: "a", PriorityScore: math.Inf(1), Reasoning: "x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := &mockScorer{}
			svc, store, _ := newPrioritization(t, scorer)
			a := store.Add(context.Background(), draft("A", task.ImportanceLow, nil))
			for i := range tt.results {
				if tt.results[i].ID == "a" {
					tt.results[i].ID = a.ID
				}
			}
			scorer.results = tt.results

			out, err := svc.Prioritize(context.Background())
			if !errors.Is(err, prioritization.ErrInvalidResponse) {
				t.Fatalf("expected ErrInvalidResponse, got %v", err)
			}
			if out.Error != prioritization.MessageFailed {
				t.Fatalf("unexpected outcome %+v", out)
			}
			if got, _ := store.Get(a.ID); got.Scored() {
				t.Fatal("invalid round must not merge")
			}
		})
	}
}

func TestPrioritizeOutOfRangeScoreAccepted(t *testing.T) {
	scorer := &mockScorer{}
	svc, store, _ := newPrioritization(t, scorer)
	a := store.Add(context.Background(), draft("A", task.ImportanceLow, nil))
	scorer.results = []prioritization.Result{{ID: a.ID, PriorityScore: 250, Reasoning: "very"}}

	if _, err := svc.Prioritize(context.Background()); err != nil {
		t.Fatalf("Prioritize: %v", err)
	}
	if got, _ := store.Get(a.ID); got.PriorityScore == nil || *got.PriorityScore != 250 {
		t.Fatalf("score not merged as given: %+v", got)
	}
}

func TestPrioritizeSubsetLeavesOthers(t *testing.T) {
	scorer := &mockScorer{}
	svc, store, _ := newPrioritization(t, scorer)
	ctx := context.Background()
	a := store.Add(ctx, draft("A", task.ImportanceLow, nil))
	b := store.Add(ctx, draft("B", task.ImportanceLow, nil))
	scorer.results = []prioritization.Result{{ID: a.ID, PriorityScore: 60, Reasoning: "r"}}

	if _, err := svc.Prioritize(ctx); err != nil {
		t.Fatalf("Prioritize: %v", err)
	}
	if got, _ := store.Get(b.ID); got.Scored() || got.Reasoning != "" {
		t.Fatalf("unscored task changed: %+v", got)
	}
}

func TestPrioritizeRejectsConcurrentRound(t *testing.T) {
	scorer := &mockScorer{block: make(chan struct{}), started: make(chan struct{})}
	svc, store, _ := newPrioritization(t, scorer)
	a := store.Add(context.Background(), draft("A", task.ImportanceLow, nil))
	scorer.results = []prioritization.Result{{ID: a.ID, PriorityScore: 1, Reasoning: "r"}}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Prioritize(context.Background())
		done <- err
	}()
	<-scorer.started

	if !svc.InFlight() {
		t.Fatal("expected a round in flight")
	}
	out, err := svc.Prioritize(context.Background())
	if !errors.Is(err, domain.ErrInFlight) {
		t.Fatalf("expected ErrInFlight, got %v", err)
	}
	if out.Error != MessageInFlight {
		t.Fatalf("unexpected outcome %+v", out)
	}

	close(scorer.block)
	if err := <-done; err != nil {
		t.Fatalf("first round: %v", err)
	}
	if scorer.callCount() != 1 {
		t.Fatalf("remote calls = %d, want 1", scorer.callCount())
	}

	scorer.mu.Lock()
	scorer.block, scorer.started = nil, nil
	scorer.mu.Unlock()
	if _, err := svc.Prioritize(context.Background()); err != nil {
		t.Fatalf("guard not released: %v", err)
	}
}

func TestPrioritizeIgnoresCallerCancellation(t *testing.T) {
	scorer := &mockScorer{block: make(chan struct{}), started: make(chan struct{})}
	svc, store, _ := newPrioritization(t, scorer)
	a := store.Add(context.Background(), draft("A", task.ImportanceLow, nil))
	scorer.results = []prioritization.Result{{ID: a.ID, PriorityScore: 77, Reasoning: "r"}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.Prioritize(ctx)
		done <- err
	}()
	<-scorer.started
	cancel()
	close(scorer.block)

	if err := <-done; err != nil {
		t.Fatalf("Prioritize: %v", err)
	}
	scorer.mu.Lock()
	ctxErr := scorer.ctxErr
	scorer.mu.Unlock()
	if ctxErr != nil {
		t.Fatalf("remote call saw cancellation: %v", ctxErr)
	}
	if got, _ := store.Get(a.ID); got.PriorityScore == nil || *got.PriorityScore != 77 {
		t.Fatal("result must be merged after caller went away")
	}
}

func TestLastRoundMissing(t *testing.T) {
	svc, _, _ := newPrioritization(t, &mockScorer{})
	if _, ok, err := svc.LastRound(context.Background()); ok || err != nil {
		t.Fatalf("expected no round, got ok=%v err=%v", ok, err)
	}
}
