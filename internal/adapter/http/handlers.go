package http

import (
	"net/http"

	"github.com/Strob0t/TaskFlow/internal/domain"
	"github.com/Strob0t/TaskFlow/internal/domain/task"
	"github.com/Strob0t/TaskFlow/internal/service"
)

// BreakerReporter exposes the circuit breaker state of the LLM client.
type BreakerReporter interface {
	BreakerState() string
}

// Handlers holds the services backing the REST API.
type Handlers struct {
	Tasks       *service.TaskStore
	Prioritizer *service.PrioritizationService
	LLM         BreakerReporter
	// Backend names the persistence backend for /health.
	Backend string
}

type listResponse struct {
	View   task.View   `json:"view"`
	Tasks  []task.Task `json:"tasks"`
	Counts task.Counts `json:"counts"`
}

type prioritizeResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Tasks   []task.Task `json:"tasks,omitempty"`
	Counts  task.Counts `json:"counts"`
}

type healthResponse struct {
	Status       string `json:"status"`
	Storage      string `json:"storage"`
	LLMBreaker   string `json:"llm_breaker"`
	Prioritizing bool   `json:"prioritizing"`
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	breaker := "none"
	if h.LLM != nil {
		breaker = h.LLM.BreakerState()
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:       "ok",
		Storage:      h.Backend,
		LLMBreaker:   breaker,
		Prioritizing: h.Prioritizer != nil && h.Prioritizer.InFlight(),
	})
}

// ListTasks handles GET /api/v1/tasks?view=pending|completed|all.
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	view, err := task.ParseView(r.URL.Query().Get("view"))
	if err != nil {
		writeDomainError(w, r, err, "invalid view")
		return
	}
	writeJSON(w, http.StatusOK, listResponse{
		View:   view,
		Tasks:  h.Tasks.List(view),
		Counts: h.Tasks.Counts(),
	})
}

// CreateTask handles POST /api/v1/tasks.
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	form, ok := readJSON[task.Form](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	draft, err := form.ValidateCreate(h.Tasks.Today())
	if err != nil {
		writeDomainError(w, r, err, "invalid task")
		return
	}
	writeJSON(w, http.StatusCreated, h.Tasks.Add(r.Context(), draft))
}

// GetTask handles GET /api/v1/tasks/{id}.
func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	t, ok := h.Tasks.Get(urlParam(r, "id"))
	if !ok {
		writeDomainError(w, r, domain.ErrNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// UpdateTask handles PUT /api/v1/tasks/{id}.
func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	form, ok := readJSON[task.Form](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	draft, err := form.ValidateEdit()
	if err != nil {
		writeDomainError(w, r, err, "invalid task")
		return
	}
	t, found := h.Tasks.Edit(r.Context(), urlParam(r, "id"), draft)
	if !found {
		writeDomainError(w, r, domain.ErrNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ToggleTask handles POST /api/v1/tasks/{id}/toggle.
func (h *Handlers) ToggleTask(w http.ResponseWriter, r *http.Request) {
	t, found := h.Tasks.ToggleComplete(r.Context(), urlParam(r, "id"))
	if !found {
		writeDomainError(w, r, domain.ErrNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DeleteTask handles DELETE /api/v1/tasks/{id}. Unknown ids are a no-op.
func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	h.Tasks.Delete(r.Context(), urlParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// PrioritizeTasks handles POST /api/v1/tasks/prioritize.
func (h *Handlers) PrioritizeTasks(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.Prioritizer.Prioritize(r.Context())
	if err != nil {
		status := errorStatus(err)
		if status == http.StatusInternalServerError {
			writeInternalError(w, r, err)
			return
		}
		writeJSON(w, status, prioritizeResponse{
			Success: false,
			Error:   outcome.Error,
			Counts:  h.Tasks.Counts(),
		})
		return
	}
	writeJSON(w, http.StatusOK, prioritizeResponse{
		Success: true,
		Message: outcome.Message,
		Tasks:   h.Tasks.List(task.ViewAll),
		Counts:  h.Tasks.Counts(),
	})
}

// LastPrioritization handles GET /api/v1/tasks/prioritize/last.
func (h *Handlers) LastPrioritization(w http.ResponseWriter, r *http.Request) {
	round, ok, err := h.Prioritizer.LastRound(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no prioritization round recorded")
		return
	}
	writeJSON(w, http.StatusOK, round)
}
