package prioritization

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Strob0t/TaskFlow/internal/domain/task"
)

func TestBuildInputs(t *testing.T) {
	due := task.NewDate(2025, time.July, 4)
	tasks := []task.Task{
		{ID: "a", Title: "Fireworks", DueDate: &due, Importance: task.ImportanceHigh},
		{ID: "b", Title: "Sleep", Importance: task.ImportanceLow, Completed: true},
	}

	got := BuildInputs(tasks)
	if len(got) != 2 {
		t.Fatalf("expected 2 inputs, got %d", len(got))
	}
	if got[0].DueDate != "2025-07-04" {
		t.Errorf("expected ISO date, got %q", got[0].DueDate)
	}
	if got[1].DueDate != "" || !got[1].Completed || got[1].Importance != task.ImportanceLow {
		t.Errorf("unexpected input %+v", got[1])
	}
}

func TestParseResults(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"bare array", `[{"id":"a","priorityScore":80,"reasoning":"due soon"}]`, 1},
		{"fenced", "```json\n[{\"id\":\"a\",\"priorityScore\":80,\"reasoning\":\"x\"},{\"id\":\"b\",\"priorityScore\":10.5,\"reasoning\":\"y\"}]\n```", 2},
		{"prose around", "Here you go:\n[{\"id\":\"a\",\"priorityScore\":1,\"reasoning\":\"\"}]\nHope this helps.", 1},
		{"wrapped object", `{"tasks":[{"id":"a","priorityScore":5,"reasoning":"r"}]}`, 1},
		{"empty array", `[]`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResults(tt.content)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("expected %d results, got %d", tt.want, len(got))
			}
		})
	}
}

func TestParseResultsRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no json", "I cannot help with that."},
		{"missing id", `[{"priorityScore":80,"reasoning":"x"}]`},
		{"missing score", `[{"id":"a","reasoning":"x"}]`},
		{"string score", `[{"id":"a","priorityScore":"80","reasoning":"x"}]`},
		{"missing reasoning", `[{"id":"a","priorityScore":80}]`},
		{"object without array", `{"id":"a","priorityScore":80,"reasoning":"x"}`},
		{"ambiguous object", `{"a":[],"b":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResults(tt.content)
			if !errors.Is(err, ErrInvalidResponse) {
				t.Fatalf("expected ErrInvalidResponse, got %v", err)
			}
		})
	}
}

func TestParseResultsDoesNotRangeCheck(t *testing.T) {
	got, err := ParseResults(`[{"id":"a","priorityScore":250,"reasoning":"very"}]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].PriorityScore != 250 {
		t.Fatalf("expected score to pass through, got %v", got[0].PriorityScore)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate([]Result{{ID: "a", PriorityScore: 1}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Validate([]Result{{PriorityScore: 1}}); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse for empty id, got %v", err)
	}
	if err := Validate([]Result{{ID: "a", PriorityScore: math.NaN()}}); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse for NaN, got %v", err)
	}
}
