package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/clickwage/backend/internal/middleware"
	"github.com/clickwage/backend/internal/models"
)

const ledgerHistoryLimit = 50

// WalletStore is the read surface for the wallet view.
type WalletStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	ListEntriesByWalletID(ctx context.Context, walletID uuid.UUID, limit int) ([]*models.LedgerEntry, error)
}

// WalletHandler serves GET /wallet: the balance, lifetime counters, and
// recent ledger history in one response.
type WalletHandler struct {
	Wallets WalletStore
	Logger  *slog.Logger
}

type walletResponse struct {
	Wallet  *models.Wallet        `json:"wallet"`
	Entries []*models.LedgerEntry `json:"entries"`
}

func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	wallet, err := h.Wallets.GetByUserID(r.Context(), user.ID)
	if err != nil {
		h.Logger.Error("get wallet failed", "user_id", user.ID, "error", err)
		http.Error(w, `{"error":"get wallet failed"}`, http.StatusInternalServerError)
		return
	}
	entries, err := h.Wallets.ListEntriesByWalletID(r.Context(), wallet.ID, ledgerHistoryLimit)
	if err != nil {
		h.Logger.Error("list ledger entries failed", "wallet_id", wallet.ID, "error", err)
		http.Error(w, `{"error":"get wallet failed"}`, http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []*models.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, walletResponse{Wallet: wallet, Entries: entries})
}
