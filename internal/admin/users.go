package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/clickwage/backend/internal/ledger"
	"github.com/clickwage/backend/internal/models"
)

// --- GET /admin/users ---

type userPageResponse struct {
	Users      []*models.User `json:"users"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)
	status := r.URL.Query().Get("status")
	search := r.URL.Query().Get("search")

	list, pages, err := h.Users.List(r.Context(), status, search, page, perPage)
	if err != nil {
		h.Logger.Error("list users failed", "error", err)
		http.Error(w, `{"error":"list users failed"}`, http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*models.User{}
	}
	writeJSON(w, http.StatusOK, userPageResponse{Users: list, Page: page, TotalPages: pages})
}

// --- GET /admin/users/{id} ---

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, `{"error":"invalid user id"}`, http.StatusBadRequest)
		return
	}
	user, err := h.Users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
			return
		}
		h.Logger.Error("get user failed", "error", err)
		http.Error(w, `{"error":"get user failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// --- POST /admin/users/{id}/{suspend,unsuspend,make-admin,remove-admin} ---

func (h *Handler) SetSuspended(suspended bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.setUserFlag(w, r, func(r *http.Request) (bool, error) {
			id, ok := pathID(r)
			if !ok {
				return false, errBadID
			}
			return h.Users.SetSuspended(r.Context(), id, suspended)
		})
	}
}

func (h *Handler) SetAdmin(admin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.setUserFlag(w, r, func(r *http.Request) (bool, error) {
			id, ok := pathID(r)
			if !ok {
				return false, errBadID
			}
			return h.Users.SetAdmin(r.Context(), id, admin)
		})
	}
}

var errBadID = errors.New("invalid id")

func (h *Handler) setUserFlag(w http.ResponseWriter, r *http.Request, apply func(*http.Request) (bool, error)) {
	applied, err := apply(r)
	if err != nil {
		if errors.Is(err, errBadID) {
			http.Error(w, `{"error":"invalid user id"}`, http.StatusBadRequest)
			return
		}
		h.Logger.Error("update user flag failed", "error", err)
		http.Error(w, `{"error":"update user failed"}`, http.StatusInternalServerError)
		return
	}
	if !applied {
		// Either the user doesn't exist or the flag already holds.
		writeInvalidTransition(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- POST /admin/users/{id}/adjust-balance ---

type adjustBalanceRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Note        string `json:"note"`
}

type adjustBalanceResponse struct {
	BalanceCents int64 `json:"balance_cents"`
}

// AdjustBalance applies a signed manual correction to a user's wallet.
// The adjustment and its ledger entry land in one transaction, with the
// acting admin recorded on the entry.
func (h *Handler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r)
	if !ok {
		http.Error(w, `{"error":"invalid user id"}`, http.StatusBadRequest)
		return
	}
	var req adjustBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}

	tx, err := h.Adjuster.Begin(r.Context())
	if err != nil {
		h.Logger.Error("begin adjust tx failed", "error", err)
		http.Error(w, `{"error":"adjust balance failed"}`, http.StatusInternalServerError)
		return
	}
	defer tx.Rollback(r.Context())

	walletID, err := h.Adjuster.WalletIDByUserID(r.Context(), tx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
			return
		}
		h.Logger.Error("resolve wallet failed", "error", err)
		http.Error(w, `{"error":"adjust balance failed"}`, http.StatusInternalServerError)
		return
	}

	balance, err := h.Ledger.Adjust(r.Context(), tx, walletID, req.AmountCents, models.AdjustmentReason(req.Note), actor(r).ID)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidAmount):
			http.Error(w, `{"error":"amount_cents must be non-zero"}`, http.StatusBadRequest)
		case errors.Is(err, ledger.ErrInsufficientFunds):
			http.Error(w, `{"error":"insufficient funds"}`, http.StatusPaymentRequired)
		default:
			h.Logger.Error("adjust balance failed", "error", err)
			http.Error(w, `{"error":"adjust balance failed"}`, http.StatusInternalServerError)
		}
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		h.Logger.Error("commit adjust tx failed", "error", err)
		http.Error(w, `{"error":"adjust balance failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, adjustBalanceResponse{BalanceCents: balance})
}
