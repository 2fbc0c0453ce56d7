package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/clickwage/backend/internal/ledger"
	"github.com/clickwage/backend/internal/middleware"
	"github.com/clickwage/backend/internal/models"
	"github.com/clickwage/backend/internal/transactions"
)

// TransactionProcessor is the user side of the deposit/withdrawal state
// machines.
type TransactionProcessor interface {
	SubmitDeposit(ctx context.Context, userID uuid.UUID, amountCents int64, networkSymbol string, txHash *string) (*models.Deposit, error)
	RequestWithdrawal(ctx context.Context, userID uuid.UUID, amountCents int64, networkSymbol, walletAddress string) (*models.Withdrawal, error)
}

// TransactionBrowser lists a user's own requests.
type TransactionBrowser interface {
	ListDepositsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Deposit, error)
	ListWithdrawalsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Withdrawal, error)
}

type TransactionHandler struct {
	Processor TransactionProcessor
	Browser   TransactionBrowser
	Logger    *slog.Logger
}

// --- POST /deposits ---

type submitDepositRequest struct {
	AmountCents     int64   `json:"amount_cents"`
	Network         string  `json:"network"`
	TransactionHash *string `json:"transaction_hash"`
}

func (h *TransactionHandler) SubmitDeposit(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req submitDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	deposit, err := h.Processor.SubmitDeposit(r.Context(), user.ID, req.AmountCents, req.Network, req.TransactionHash)
	if err != nil {
		h.writeTransactionError(w, "submit deposit", err)
		return
	}
	writeJSON(w, http.StatusCreated, deposit)
}

// --- GET /deposits/mine ---

func (h *TransactionHandler) MyDeposits(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	list, err := h.Browser.ListDepositsByUser(r.Context(), user.ID)
	if err != nil {
		h.Logger.Error("list deposits failed", "error", err)
		http.Error(w, `{"error":"list deposits failed"}`, http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*models.Deposit{}
	}
	writeJSON(w, http.StatusOK, list)
}

// --- POST /withdrawals ---

type requestWithdrawalRequest struct {
	AmountCents   int64  `json:"amount_cents"`
	Network       string `json:"network"`
	WalletAddress string `json:"wallet_address"`
}

func (h *TransactionHandler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req requestWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	withdrawal, err := h.Processor.RequestWithdrawal(r.Context(), user.ID, req.AmountCents, req.Network, req.WalletAddress)
	if err != nil {
		h.writeTransactionError(w, "request withdrawal", err)
		return
	}
	writeJSON(w, http.StatusCreated, withdrawal)
}

// --- GET /withdrawals/mine ---

func (h *TransactionHandler) MyWithdrawals(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	list, err := h.Browser.ListWithdrawalsByUser(r.Context(), user.ID)
	if err != nil {
		h.Logger.Error("list withdrawals failed", "error", err)
		http.Error(w, `{"error":"list withdrawals failed"}`, http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*models.Withdrawal{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *TransactionHandler) writeTransactionError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		http.Error(w, `{"error":"amount must be positive"}`, http.StatusBadRequest)
	case errors.Is(err, transactions.ErrBelowMinimum):
		http.Error(w, `{"error":"amount below network minimum"}`, http.StatusBadRequest)
	case errors.Is(err, transactions.ErrMissingAddress):
		http.Error(w, `{"error":"wallet address required"}`, http.StatusBadRequest)
	case errors.Is(err, transactions.ErrNetworkUnavailable):
		http.Error(w, `{"error":"network unavailable"}`, http.StatusBadRequest)
	case errors.Is(err, ledger.ErrInsufficientFunds):
		http.Error(w, `{"error":"insufficient funds"}`, http.StatusPaymentRequired)
	default:
		h.Logger.Error(op+" failed", "error", err)
		http.Error(w, `{"error":"`+op+` failed"}`, http.StatusInternalServerError)
	}
}
