package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clickwage/backend/internal/middleware"
	"github.com/clickwage/backend/internal/models"
	"github.com/clickwage/backend/internal/tasks"
	"github.com/clickwage/backend/internal/transactions"
)

// UserStore is the user moderation surface.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, status, search string, page, perPage int) ([]*models.User, int, error)
	SetSuspended(ctx context.Context, id uuid.UUID, suspended bool) (bool, error)
	SetAdmin(ctx context.Context, id uuid.UUID, admin bool) (bool, error)
}

// Adjuster is the manual balance correction surface: a transaction, the
// wallet lookup, and the signed adjustment.
type Adjuster interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	WalletIDByUserID(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (uuid.UUID, error)
}

// Ledger applies the signed adjustment inside the transaction.
type Ledger interface {
	Adjust(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, signedCents int64, reason string, actor uuid.UUID) (int64, error)
}

// TaskModeration is the task registry surface admins drive.
type TaskModeration interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	Approve(ctx context.Context, id uuid.UUID) error
	Reject(ctx context.Context, id uuid.UUID, reason string) error
	Activate(ctx context.Context, id uuid.UUID) error
	Pause(ctx context.Context, id uuid.UUID) error
	UpdateDetails(ctx context.Context, id uuid.UUID, title, description, link string, timerSeconds int) error
}

// TaskLister is the admin task table.
type TaskLister interface {
	List(ctx context.Context, status string, page, perPage int) ([]*models.Task, int, error)
}

// TransactionModeration is the deposit/withdrawal state machine surface.
type TransactionModeration interface {
	ConfirmDeposit(ctx context.Context, actorID, depositID uuid.UUID) (*models.Deposit, error)
	RejectDeposit(ctx context.Context, actorID, depositID uuid.UUID) (*models.Deposit, error)
	ApproveWithdrawal(ctx context.Context, actorID, withdrawalID uuid.UUID) (*models.Withdrawal, error)
	MarkWithdrawalPaid(ctx context.Context, actorID, withdrawalID uuid.UUID) (*models.Withdrawal, error)
	RejectWithdrawal(ctx context.Context, actorID, withdrawalID uuid.UUID) (*models.Withdrawal, error)
}

// TransactionLister reads deposits and withdrawals for the admin tables.
type TransactionLister interface {
	GetDeposit(ctx context.Context, id uuid.UUID) (*models.Deposit, error)
	ListDeposits(ctx context.Context, status string, page, perPage int) ([]*models.Deposit, int, error)
	GetWithdrawal(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	ListWithdrawals(ctx context.Context, status string, page, perPage int) ([]*models.Withdrawal, int, error)
}

// SettingsStore is the platform configuration key/value store.
type SettingsStore interface {
	GetAll(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
}

// Handler is the moderation gateway. Every route behind it is wrapped
// in RequireAdmin; the authenticated admin is the actor stamped on any
// ledger mutation these operations trigger.
type Handler struct {
	Users        UserStore
	Adjuster     Adjuster
	Ledger       Ledger
	Tasks        TaskModeration
	TaskTable    TaskLister
	Transactions TransactionModeration
	TxTable      TransactionLister
	Settings     SettingsStore
	Logger       *slog.Logger
}

// actor returns the admin driving the request. RequireAdmin guarantees
// it is present and an admin.
func actor(r *http.Request) *models.User {
	return middleware.UserFromCtx(r.Context())
}

func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	return id, err == nil
}

func pagination(r *http.Request) (page, perPage int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeInvalidTransition(w http.ResponseWriter) {
	http.Error(w, `{"error":"invalid state transition"}`, http.StatusConflict)
}

func isInvalidTransition(err error) bool {
	return errors.Is(err, tasks.ErrInvalidTransition) || errors.Is(err, transactions.ErrInvalidTransition)
}

// --- GET /admin/settings ---

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Settings.GetAll(r.Context())
	if err != nil {
		h.Logger.Error("get settings failed", "error", err)
		http.Error(w, `{"error":"get settings failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// --- PUT /admin/settings ---

func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	for key, value := range body {
		if err := h.Settings.Set(r.Context(), key, value); err != nil {
			h.Logger.Error("set setting failed", "key", key, "error", err)
			http.Error(w, `{"error":"update settings failed"}`, http.StatusInternalServerError)
			return
		}
	}
	settings, err := h.Settings.GetAll(r.Context())
	if err != nil {
		h.Logger.Error("get settings failed", "error", err)
		http.Error(w, `{"error":"get settings failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
