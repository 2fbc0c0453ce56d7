package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Wallet is the per-user running balance plus lifetime counters. All
// amounts are integer cents. Mutated only through ledger operations.
type Wallet struct {
	ID                  uuid.UUID `json:"id"`
	UserID              uuid.UUID `json:"user_id"`
	BalanceCents        int64     `json:"balance_cents"`
	TotalEarnedCents    int64     `json:"total_earned_cents"`
	TotalDepositedCents int64     `json:"total_deposited_cents"`
	TotalWithdrawnCents int64     `json:"total_withdrawn_cents"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Ledger entry reason kinds. The full reason string is "<kind>:<entity id>"
// except for adjustments, which carry a free-form admin note.
const (
	EntryTaskCompletion   = "task_completion"
	EntryDeposit          = "deposit"
	EntryWithdrawal       = "withdrawal"
	EntryWithdrawalRefund = "withdrawal_refund"
	EntryAdjustment       = "adjustment"
)

// LedgerEntry is the immutable audit record of one balance change.
// DeltaCents is signed; BalanceAfterCents is the wallet balance the
// mutation left behind.
type LedgerEntry struct {
	ID                uuid.UUID `json:"id"`
	WalletID          uuid.UUID `json:"wallet_id"`
	DeltaCents        int64     `json:"delta_cents"`
	Reason            string    `json:"reason"`
	BalanceAfterCents int64     `json:"balance_after_cents"`
	ActorID           uuid.UUID `json:"actor_id"`
	CreatedAt         time.Time `json:"created_at"`
}

func TaskCompletionReason(taskID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", EntryTaskCompletion, taskID)
}

func DepositReason(depositID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", EntryDeposit, depositID)
}

func WithdrawalReason(withdrawalID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", EntryWithdrawal, withdrawalID)
}

func WithdrawalRefundReason(withdrawalID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", EntryWithdrawalRefund, withdrawalID)
}

func AdjustmentReason(note string) string {
	if note == "" {
		return EntryAdjustment
	}
	return fmt.Sprintf("%s:%s", EntryAdjustment, note)
}
