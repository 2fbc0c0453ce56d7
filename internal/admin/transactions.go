package admin

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clickwage/backend/internal/models"
)

// --- GET /admin/deposits ---

type depositPageResponse struct {
	Deposits   []*models.Deposit `json:"deposits"`
	Page       int               `json:"page"`
	TotalPages int               `json:"total_pages"`
}

func (h *Handler) ListDeposits(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)
	status := r.URL.Query().Get("status")

	list, pages, err := h.TxTable.ListDeposits(r.Context(), status, page, perPage)
	if err != nil {
		h.Logger.Error("list deposits failed", "error", err)
		http.Error(w, `{"error":"list deposits failed"}`, http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*models.Deposit{}
	}
	writeJSON(w, http.StatusOK, depositPageResponse{Deposits: list, Page: page, TotalPages: pages})
}

// --- GET /admin/deposits/{id} ---

func (h *Handler) GetDeposit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, `{"error":"invalid deposit id"}`, http.StatusBadRequest)
		return
	}
	deposit, err := h.TxTable.GetDeposit(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"deposit not found"}`, http.StatusNotFound)
			return
		}
		h.Logger.Error("get deposit failed", "error", err)
		http.Error(w, `{"error":"get deposit failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, deposit)
}

// --- POST /admin/deposits/{id}/{confirm,reject} ---

func (h *Handler) ConfirmDeposit(w http.ResponseWriter, r *http.Request) {
	h.moderateDeposit(w, r, "confirm deposit", h.Transactions.ConfirmDeposit)
}

func (h *Handler) RejectDeposit(w http.ResponseWriter, r *http.Request) {
	h.moderateDeposit(w, r, "reject deposit", h.Transactions.RejectDeposit)
}

func (h *Handler) moderateDeposit(w http.ResponseWriter, r *http.Request, op string, apply func(ctx context.Context, actorID, id uuid.UUID) (*models.Deposit, error)) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, `{"error":"invalid deposit id"}`, http.StatusBadRequest)
		return
	}
	deposit, err := apply(r.Context(), actor(r).ID, id)
	if err != nil {
		h.writeTransactionError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, deposit)
}

// --- GET /admin/withdrawals ---

type withdrawalPageResponse struct {
	Withdrawals []*models.Withdrawal `json:"withdrawals"`
	Page        int                  `json:"page"`
	TotalPages  int                  `json:"total_pages"`
}

func (h *Handler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)
	status := r.URL.Query().Get("status")

	list, pages, err := h.TxTable.ListWithdrawals(r.Context(), status, page, perPage)
	if err != nil {
		h.Logger.Error("list withdrawals failed", "error", err)
		http.Error(w, `{"error":"list withdrawals failed"}`, http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*models.Withdrawal{}
	}
	writeJSON(w, http.StatusOK, withdrawalPageResponse{Withdrawals: list, Page: page, TotalPages: pages})
}

// --- GET /admin/withdrawals/{id} ---

func (h *Handler) GetWithdrawal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, `{"error":"invalid withdrawal id"}`, http.StatusBadRequest)
		return
	}
	withdrawal, err := h.TxTable.GetWithdrawal(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"withdrawal not found"}`, http.StatusNotFound)
			return
		}
		h.Logger.Error("get withdrawal failed", "error", err)
		http.Error(w, `{"error":"get withdrawal failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, withdrawal)
}

// --- POST /admin/withdrawals/{id}/{approve,mark-paid,reject} ---

func (h *Handler) ApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.moderateWithdrawal(w, r, "approve withdrawal", h.Transactions.ApproveWithdrawal)
}

func (h *Handler) MarkWithdrawalPaid(w http.ResponseWriter, r *http.Request) {
	h.moderateWithdrawal(w, r, "mark withdrawal paid", h.Transactions.MarkWithdrawalPaid)
}

func (h *Handler) RejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.moderateWithdrawal(w, r, "reject withdrawal", h.Transactions.RejectWithdrawal)
}

func (h *Handler) moderateWithdrawal(w http.ResponseWriter, r *http.Request, op string, apply func(ctx context.Context, actorID, id uuid.UUID) (*models.Withdrawal, error)) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, `{"error":"invalid withdrawal id"}`, http.StatusBadRequest)
		return
	}
	withdrawal, err := apply(r.Context(), actor(r).ID, id)
	if err != nil {
		h.writeTransactionError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, withdrawal)
}

func (h *Handler) writeTransactionError(w http.ResponseWriter, op string, err error) {
	switch {
	case isInvalidTransition(err):
		writeInvalidTransition(w)
	case errors.Is(err, pgx.ErrNoRows):
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	default:
		h.Logger.Error(op+" failed", "error", err)
		http.Error(w, `{"error":"`+op+` failed"}`, http.StatusInternalServerError)
	}
}
