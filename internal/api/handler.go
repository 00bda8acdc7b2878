package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taskherd/taskherd/internal/scheduler"
	"github.com/taskherd/taskherd/internal/task"
)

type Handler struct {
	sched *scheduler.Scheduler
}

func NewHandler(s *scheduler.Scheduler) *Handler {
	return &Handler{sched: s}
}

type CreateTaskRequest struct {
	ID           string                 `json:"id"`
	Title        string                 `json:"title"`
	Description  string                 `json:"description"`
	Priority     string                 `json:"priority"`
	Dependencies []string               `json:"dependencies"`
	Capabilities []string               `json:"capabilities"`
	Input        map[string]interface{} `json:"input"`
	EstimatedMS  int                    `json:"estimated_ms"`
	Metadata     map[string]interface{} `json:"metadata"`
}

type RescheduleRequest struct {
	Priority string `json:"priority"`
}

type CompleteRequest struct {
	Success bool `json:"success"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "title is required")
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	priority := task.Priority(req.Priority)
	if priority == "" {
		priority = task.PriorityMedium
	}

	t := &task.Task{
		ID:                id,
		Title:             req.Title,
		Description:       req.Description,
		Priority:          priority,
		Dependencies:      req.Dependencies,
		Capabilities:      req.Capabilities,
		Input:             req.Input,
		EstimatedDuration: time.Duration(req.EstimatedMS) * time.Millisecond,
		Metadata:          req.Metadata,
	}

	if err := h.sched.ScheduleTask(t); err != nil {
		var dup *scheduler.DuplicateTaskError
		if errors.As(err, &dup) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, _ := h.sched.GetTask(id)
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	t, ok := h.sched.GetTask(id)
	if !ok {
		respondError(w, http.StatusNotFound, "task not found")
		return
	}

	respondJSON(w, http.StatusOK, t)
}

// ListTasks returns all tracked tasks grouped by collection, or a single
// collection when ?state=queued|active|completed is given.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	switch state := r.URL.Query().Get("state"); state {
	case "queued":
		respondJSON(w, http.StatusOK, h.sched.GetQueuedTasks())
	case "active":
		respondJSON(w, http.StatusOK, h.sched.GetActiveTasks())
	case "completed":
		respondJSON(w, http.StatusOK, h.sched.GetCompletedTasks())
	case "":
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"queued":    h.sched.GetQueuedTasks(),
			"active":    h.sched.GetActiveTasks(),
			"completed": h.sched.GetCompletedTasks(),
		})
	default:
		respondError(w, http.StatusBadRequest, "unknown state: "+state)
	}
}

func (h *Handler) CancelTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !h.sched.CancelTask(id) {
		respondError(w, http.StatusNotFound, "task not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RescheduleTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !h.sched.RescheduleTask(id, task.Priority(req.Priority)) {
		respondError(w, http.StatusNotFound, "task not queued")
		return
	}

	t, _ := h.sched.GetTask(id)
	respondJSON(w, http.StatusOK, t)
}

// CompleteTask reports an outcome for an active task. Normally the runner
// does this; the endpoint exists for externally executed tasks.
func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !h.sched.OnTaskCompleted(id, req.Success) {
		respondError(w, http.StatusNotFound, "task not active")
		return
	}

	t, _ := h.sched.GetTask(id)
	respondJSON(w, http.StatusOK, t)
}

func (h *Handler) ValidateTasks(w http.ResponseWriter, r *http.Request) {
	if err := h.sched.ValidateDependencies(); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.sched.GetQueueStats())
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
