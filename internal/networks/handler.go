package networks

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clickwage/backend/internal/models"
)

type NetworkRequest struct {
	Name               string `json:"name"`
	Symbol             string `json:"symbol"`
	Currency           string `json:"currency"`
	WalletAddress      string `json:"wallet_address"`
	IsActive           bool   `json:"is_active"`
	MinDepositCents    int64  `json:"min_deposit_cents"`
	MinWithdrawalCents int64  `json:"min_withdrawal_cents"`
	DepositFeeCents    int64  `json:"deposit_fee_cents"`
	WithdrawalFeeCents int64  `json:"withdrawal_fee_cents"`
}

type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

// ListActive is the public endpoint users hit when picking a rail for a
// deposit or withdrawal.
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListActive(r.Context())
	if err != nil {
		h.log.Error("list networks failed", "error", err)
		http.Error(w, "list networks failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

// Admin endpoints below.

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListAll(r.Context())
	if err != nil {
		h.log.Error("list networks failed", "error", err)
		http.Error(w, "list networks failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req NetworkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	network, err := h.svc.Create(r.Context(), params(req))
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			http.Error(w, "invalid network config", http.StatusBadRequest)
		case errors.Is(err, ErrDuplicateSymbol):
			http.Error(w, "network symbol already exists", http.StatusConflict)
		default:
			h.log.Error("create network failed", "error", err)
			http.Error(w, "create network failed", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, network)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid network id", http.StatusBadRequest)
		return
	}
	var req NetworkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	network, err := h.svc.Update(r.Context(), id, params(req))
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			http.Error(w, "invalid network config", http.StatusBadRequest)
		case errors.Is(err, ErrDuplicateSymbol):
			http.Error(w, "network symbol already exists", http.StatusConflict)
		case errors.Is(err, pgx.ErrNoRows) || errors.Is(err, ErrNotFound):
			http.Error(w, "network not found", http.StatusNotFound)
		default:
			h.log.Error("update network failed", "error", err)
			http.Error(w, "update network failed", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, network)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid network id", http.StatusBadRequest)
		return
	}
	applied, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		h.log.Error("delete network failed", "error", err)
		http.Error(w, "delete network failed", http.StatusInternalServerError)
		return
	}
	if !applied {
		http.Error(w, "network not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func params(req NetworkRequest) Params {
	return Params{
		Name:               req.Name,
		Symbol:             req.Symbol,
		Currency:           req.Currency,
		WalletAddress:      req.WalletAddress,
		IsActive:           req.IsActive,
		MinDepositCents:    req.MinDepositCents,
		MinWithdrawalCents: req.MinWithdrawalCents,
		DepositFeeCents:    req.DepositFeeCents,
		WithdrawalFeeCents: req.WithdrawalFeeCents,
	}
}

func nonNil(list []*models.CryptoNetwork) []*models.CryptoNetwork {
	if list == nil {
		return []*models.CryptoNetwork{}
	}
	return list
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
