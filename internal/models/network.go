package models

import (
	"time"

	"github.com/google/uuid"
)

// CryptoNetwork is an admin-configured payment rail. Pure configuration,
// no lifecycle beyond CRUD.
type CryptoNetwork struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Symbol             string    `json:"symbol"`
	Currency           string    `json:"currency"`
	WalletAddress      string    `json:"wallet_address"`
	IsActive           bool      `json:"is_active"`
	MinDepositCents    int64     `json:"min_deposit_cents"`
	MinWithdrawalCents int64     `json:"min_withdrawal_cents"`
	DepositFeeCents    int64     `json:"deposit_fee_cents"`
	WithdrawalFeeCents int64     `json:"withdrawal_fee_cents"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
