package dashboard

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/clickwage/backend/internal/ledger"
	"github.com/clickwage/backend/internal/middleware"
	"github.com/clickwage/backend/internal/repository"
)

const recentCompletionsLimit = 10

// Handler serves the user and admin dashboard aggregates. Everything is
// read-only and assembled from the repositories directly.
type Handler struct {
	wallets     *ledger.Repository
	tasks       *repository.TaskRepo
	completions *repository.CompletionRepo
	stats       *repository.StatsRepo
	log         *slog.Logger
}

func NewHandler(
	wallets *ledger.Repository,
	tasks *repository.TaskRepo,
	completions *repository.CompletionRepo,
	stats *repository.StatsRepo,
	log *slog.Logger,
) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{wallets: wallets, tasks: tasks, completions: completions, stats: stats, log: log}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GET /dashboard
func (h *Handler) UserDashboard(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	ctx := r.Context()

	wallet, err := h.wallets.GetByUserID(ctx, user.ID)
	if err != nil {
		h.log.Error("dashboard wallet load failed", "user_id", user.ID, "error", err)
		http.Error(w, `{"error":"dashboard failed"}`, http.StatusInternalServerError)
		return
	}
	recent, err := h.completions.ListRecentByUser(ctx, user.ID, recentCompletionsLimit)
	if err != nil {
		h.log.Error("dashboard completions load failed", "error", err)
		http.Error(w, `{"error":"dashboard failed"}`, http.StatusInternalServerError)
		return
	}
	if recent == nil {
		recent = []*repository.RecentWithTitle{}
	}
	published, err := h.tasks.ListByPublisher(ctx, user.ID)
	if err != nil {
		h.log.Error("dashboard published tasks load failed", "error", err)
		http.Error(w, `{"error":"dashboard failed"}`, http.StatusInternalServerError)
		return
	}
	available, err := h.tasks.CountAvailable(ctx, user.ID)
	if err != nil {
		h.log.Error("dashboard available count failed", "error", err)
		http.Error(w, `{"error":"dashboard failed"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"wallet":             wallet,
		"recent_completions": recent,
		"published_tasks":    len(published),
		"available_tasks":    available,
	})
}

// GET /admin/dashboard
func (h *Handler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.stats.Users(ctx)
	if err != nil {
		h.log.Error("admin dashboard user stats failed", "error", err)
		http.Error(w, `{"error":"dashboard failed"}`, http.StatusInternalServerError)
		return
	}
	tasks, err := h.stats.Tasks(ctx)
	if err != nil {
		h.log.Error("admin dashboard task stats failed", "error", err)
		http.Error(w, `{"error":"dashboard failed"}`, http.StatusInternalServerError)
		return
	}
	finances, err := h.stats.Finances(ctx)
	if err != nil {
		h.log.Error("admin dashboard finance stats failed", "error", err)
		http.Error(w, `{"error":"dashboard failed"}`, http.StatusInternalServerError)
		return
	}
	completions, err := h.stats.Completions(ctx)
	if err != nil {
		h.log.Error("admin dashboard completion stats failed", "error", err)
		http.Error(w, `{"error":"dashboard failed"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users":       users,
		"tasks":       tasks,
		"finances":    finances,
		"completions": completions,
	})
}
