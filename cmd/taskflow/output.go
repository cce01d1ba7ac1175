package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/Strob0t/TaskFlow/internal/domain/task"
)

// printer renders command results as an aligned table on a terminal and as
// JSON when output is piped or --json is set.
type printer struct {
	w    io.Writer
	json bool
}

func newPrinter(forceJSON bool) *printer {
	return &printer{
		w:    os.Stdout,
		json: forceJSON || !term.IsTerminal(int(os.Stdout.Fd())), //nolint:gosec // fd fits in int
	}
}

func (p *printer) tasks(tasks []task.Task, counts task.Counts) error {
	if p.json {
		return p.encode(struct {
			Tasks  []task.Task `json:"tasks"`
			Counts task.Counts `json:"counts"`
		}{tasks, counts})
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDUE\tIMPORTANCE\tDONE\tSCORE\tREASONING")
	for i := range tasks {
		t := &tasks[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Title, dueString(t), t.Importance, doneMark(t.Completed), scoreString(t), t.Reasoning)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(p.w, "\n%d pending, %d completed, %d total\n", counts.Pending, counts.Completed, counts.All)
	return err
}

func (p *printer) task(t task.Task) error {
	if p.json {
		return p.encode(t)
	}
	return p.tasks([]task.Task{t}, task.Count([]task.Task{t}))
}

func (p *printer) message(msg string) error {
	if p.json {
		return p.encode(map[string]string{"message": msg})
	}
	_, err := fmt.Fprintln(p.w, msg)
	return err
}

func (p *printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func dueString(t *task.Task) string {
	if t.DueDate == nil {
		return "-"
	}
	return t.DueDate.String()
}

func scoreString(t *task.Task) string {
	if !t.Scored() {
		return "-"
	}
	return strconv.FormatFloat(*t.PriorityScore, 'f', -1, 64)
}

func doneMark(done bool) string {
	if done {
		return "x"
	}
	return ""
}
