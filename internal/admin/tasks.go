package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/clickwage/backend/internal/models"
	"github.com/clickwage/backend/internal/tasks"
)

// --- GET /admin/tasks ---

type taskPageResponse struct {
	Tasks      []*models.Task `json:"tasks"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
}

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)
	status := r.URL.Query().Get("status")

	list, pages, err := h.TaskTable.List(r.Context(), status, page, perPage)
	if err != nil {
		h.Logger.Error("list tasks failed", "error", err)
		http.Error(w, `{"error":"list tasks failed"}`, http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*models.Task{}
	}
	writeJSON(w, http.StatusOK, taskPageResponse{Tasks: list, Page: page, TotalPages: pages})
}

// --- GET /admin/tasks/{id} ---

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, `{"error":"invalid task id"}`, http.StatusBadRequest)
		return
	}
	task, err := h.Tasks.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"task not found"}`, http.StatusNotFound)
			return
		}
		h.Logger.Error("get task failed", "error", err)
		http.Error(w, `{"error":"get task failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// --- PUT /admin/tasks/{id} ---

type updateTaskRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Link         string `json:"link"`
	TimerSeconds int    `json:"timer_seconds"`
}

// UpdateTask edits the presentational fields only. Reward and budget
// are immutable once a task exists.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, `{"error":"invalid task id"}`, http.StatusBadRequest)
		return
	}
	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	err := h.Tasks.UpdateDetails(r.Context(), id, req.Title, req.Description, req.Link, req.TimerSeconds)
	if err != nil {
		h.writeTaskError(w, "update task", err)
		return
	}
	task, err := h.Tasks.GetByID(r.Context(), id)
	if err != nil {
		h.Logger.Error("reload task failed", "error", err)
		http.Error(w, `{"error":"update task failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// --- POST /admin/tasks/{id}/{approve,reject,pause,activate} ---

func (h *Handler) ApproveTask(w http.ResponseWriter, r *http.Request) {
	h.transitionTask(w, r, "approve task", func(r *http.Request) error {
		id, ok := pathID(r)
		if !ok {
			return errBadID
		}
		return h.Tasks.Approve(r.Context(), id)
	})
}

type rejectTaskRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) RejectTask(w http.ResponseWriter, r *http.Request) {
	var req rejectTaskRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	h.transitionTask(w, r, "reject task", func(r *http.Request) error {
		id, ok := pathID(r)
		if !ok {
			return errBadID
		}
		return h.Tasks.Reject(r.Context(), id, req.Reason)
	})
}

func (h *Handler) PauseTask(w http.ResponseWriter, r *http.Request) {
	h.transitionTask(w, r, "pause task", func(r *http.Request) error {
		id, ok := pathID(r)
		if !ok {
			return errBadID
		}
		return h.Tasks.Pause(r.Context(), id)
	})
}

func (h *Handler) ActivateTask(w http.ResponseWriter, r *http.Request) {
	h.transitionTask(w, r, "activate task", func(r *http.Request) error {
		id, ok := pathID(r)
		if !ok {
			return errBadID
		}
		return h.Tasks.Activate(r.Context(), id)
	})
}

func (h *Handler) transitionTask(w http.ResponseWriter, r *http.Request, op string, apply func(*http.Request) error) {
	if err := apply(r); err != nil {
		h.writeTaskError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeTaskError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, errBadID):
		http.Error(w, `{"error":"invalid task id"}`, http.StatusBadRequest)
	case errors.Is(err, tasks.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case isInvalidTransition(err):
		writeInvalidTransition(w)
	case errors.Is(err, pgx.ErrNoRows):
		http.Error(w, `{"error":"task not found"}`, http.StatusNotFound)
	default:
		h.Logger.Error(op+" failed", "error", err)
		http.Error(w, `{"error":"`+op+` failed"}`, http.StatusInternalServerError)
	}
}
