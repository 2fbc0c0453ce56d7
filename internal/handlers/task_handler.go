package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clickwage/backend/internal/completions"
	"github.com/clickwage/backend/internal/middleware"
	"github.com/clickwage/backend/internal/models"
	"github.com/clickwage/backend/internal/tasks"
)

const defaultPerPage = 20

// TaskRegistry is the task service surface the handler drives.
type TaskRegistry interface {
	Create(ctx context.Context, publisherID uuid.UUID, p tasks.CreateParams) (*models.Task, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
}

// TaskBrowser is the read side: feeds and publisher listings.
type TaskBrowser interface {
	ListAvailable(ctx context.Context, userID uuid.UUID, page, perPage int) ([]*models.Task, int, error)
	ListByPublisher(ctx context.Context, publisherID uuid.UUID) ([]*models.Task, error)
}

// Completer records a task completion and credits the reward.
type Completer interface {
	Complete(ctx context.Context, userID, taskID uuid.UUID) (*models.Completion, error)
}

// TaskHandler serves the user-facing task endpoints.
type TaskHandler struct {
	Registry  TaskRegistry
	Browser   TaskBrowser
	Completer Completer
	Logger    *slog.Logger
}

// --- POST /tasks ---

type publishTaskRequest struct {
	Title               string `json:"title"`
	Description         string `json:"description"`
	Link                string `json:"link"`
	RewardPerClickCents int64  `json:"reward_per_click_cents"`
	TotalBudgetCents    int64  `json:"total_budget_cents"`
	MaxCompletions      *int   `json:"max_completions"`
	TimerSeconds        int    `json:"timer_seconds"`
}

// PublishTask handles POST /tasks. The platform budget/reward limits
// are enforced upstream by the publish-limits middleware.
func (h *TaskHandler) PublishTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req publishTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}

	task, err := h.Registry.Create(r.Context(), user.ID, tasks.CreateParams{
		Title:          req.Title,
		Description:    req.Description,
		Link:           req.Link,
		RewardCents:    req.RewardPerClickCents,
		BudgetCents:    req.TotalBudgetCents,
		MaxCompletions: req.MaxCompletions,
		TimerSeconds:   req.TimerSeconds,
	})
	if err != nil {
		if errors.Is(err, tasks.ErrValidation) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		h.Logger.Error("publish task failed", "error", err)
		http.Error(w, `{"error":"publish task failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// --- GET /tasks/available ---

type taskPageResponse struct {
	Tasks      []*models.Task `json:"tasks"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
}

func (h *TaskHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	page, perPage := pagination(r)
	list, pages, err := h.Browser.ListAvailable(r.Context(), user.ID, page, perPage)
	if err != nil {
		h.Logger.Error("list available tasks failed", "error", err)
		http.Error(w, `{"error":"list tasks failed"}`, http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*models.Task{}
	}
	writeJSON(w, http.StatusOK, taskPageResponse{Tasks: list, Page: page, TotalPages: pages})
}

// --- GET /tasks/mine ---

func (h *TaskHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	list, err := h.Browser.ListByPublisher(r.Context(), user.ID)
	if err != nil {
		h.Logger.Error("list published tasks failed", "error", err)
		http.Error(w, `{"error":"list tasks failed"}`, http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*models.Task{}
	}
	writeJSON(w, http.StatusOK, list)
}

// --- GET /tasks/{id} ---

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid task id"}`, http.StatusBadRequest)
		return
	}
	task, err := h.Registry.GetByID(r.Context(), id)
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

// --- POST /tasks/{id}/complete ---

type completeResponse struct {
	CompletionID string `json:"completion_id"`
	TaskID       string `json:"task_id"`
	RewardCents  int64  `json:"reward_cents"`
}

// CompleteTask handles POST /tasks/{id}/complete, the server-side gate
// for the click reward. The claim either fully succeeds (completion
// row, budget decrement, wallet credit) or not at all.
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	taskID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid task id"}`, http.StatusBadRequest)
		return
	}

	completion, err := h.Completer.Complete(r.Context(), user.ID, taskID)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			http.Error(w, `{"error":"task not found"}`, http.StatusNotFound)
		case errors.Is(err, completions.ErrOwnTask):
			http.Error(w, `{"error":"cannot complete your own task"}`, http.StatusForbidden)
		case errors.Is(err, completions.ErrAlreadyCompleted):
			http.Error(w, `{"error":"task already completed"}`, http.StatusConflict)
		case errors.Is(err, completions.ErrTaskNotActive):
			http.Error(w, `{"error":"task is not active"}`, http.StatusConflict)
		case errors.Is(err, completions.ErrBudgetExhausted):
			http.Error(w, `{"error":"task budget exhausted"}`, http.StatusConflict)
		default:
			h.Logger.Error("complete task failed", "task_id", taskID, "error", err)
			http.Error(w, `{"error":"complete task failed"}`, http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, completeResponse{
		CompletionID: completion.ID.String(),
		TaskID:       completion.TaskID.String(),
		RewardCents:  completion.RewardCents,
	})
}

// --- helpers ---

func pagination(r *http.Request) (page, perPage int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = defaultPerPage
	}
	return page, perPage
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
