package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clickwage/backend/internal/models"
)

// ErrInsufficientFunds is returned when a debit or negative adjustment
// would take the wallet balance below zero.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrInvalidAmount is returned for zero or negative credit/debit amounts.
var ErrInvalidAmount = errors.New("amount must be positive")

// Counter selects which lifetime counter a credit bumps alongside the
// balance. total_withdrawn is bumped separately at payout time because
// no balance change happens then.
type Counter int

const (
	CounterNone Counter = iota
	CounterEarned
	CounterDeposited
)

// WalletRepo is the minimal wallet store interface for ledger operations.
// Both mutations run as single conditional statements so concurrent
// calls against one wallet serialize on the row.
type WalletRepo interface {
	Credit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amountCents int64, counter Counter) (newBalance int64, err error)
	Debit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amountCents int64) (newBalance int64, err error)
	BumpWithdrawn(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amountCents int64) error
}

// EntryRepo appends immutable ledger entries.
type EntryRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, e *models.LedgerEntry) error
}

// Service owns every wallet balance mutation. Each successful call
// updates the balance and appends exactly one ledger entry inside the
// caller's transaction, so a crash between the two is impossible.
type Service struct {
	Wallets WalletRepo
	Entries EntryRepo
}

func NewService(wallets WalletRepo, entries EntryRepo) *Service {
	return &Service{Wallets: wallets, Entries: entries}
}

// Credit adds amountCents to the wallet and appends an entry. Call
// within a transaction.
func (s *Service) Credit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amountCents int64, counter Counter, reason string, actor uuid.UUID) (int64, error) {
	if amountCents <= 0 {
		return 0, ErrInvalidAmount
	}
	newBalance, err := s.Wallets.Credit(ctx, tx, walletID, amountCents, counter)
	if err != nil {
		return 0, err
	}
	return newBalance, s.append(ctx, tx, walletID, amountCents, reason, newBalance, actor)
}

// Debit removes amountCents from the wallet if the balance covers it,
// and appends an entry. Returns ErrInsufficientFunds otherwise, leaving
// state unchanged. Call within a transaction.
func (s *Service) Debit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amountCents int64, reason string, actor uuid.UUID) (int64, error) {
	if amountCents <= 0 {
		return 0, ErrInvalidAmount
	}
	newBalance, err := s.Wallets.Debit(ctx, tx, walletID, amountCents)
	if err != nil {
		return 0, err
	}
	return newBalance, s.append(ctx, tx, walletID, -amountCents, reason, newBalance, actor)
}

// Adjust is the privileged admin variant: signedCents may be negative,
// but the resulting balance must stay non-negative.
func (s *Service) Adjust(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, signedCents int64, reason string, actor uuid.UUID) (int64, error) {
	if signedCents == 0 {
		return 0, ErrInvalidAmount
	}
	if signedCents > 0 {
		return s.Credit(ctx, tx, walletID, signedCents, CounterNone, reason, actor)
	}
	return s.Debit(ctx, tx, walletID, -signedCents, reason, actor)
}

// MarkWithdrawn bumps total_withdrawn without touching the balance; the
// balance was already debited when the withdrawal was requested.
func (s *Service) MarkWithdrawn(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amountCents int64) error {
	if amountCents <= 0 {
		return ErrInvalidAmount
	}
	return s.Wallets.BumpWithdrawn(ctx, tx, walletID, amountCents)
}

func (s *Service) append(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, delta int64, reason string, balanceAfter int64, actor uuid.UUID) error {
	return s.Entries.CreateTx(ctx, tx, &models.LedgerEntry{
		ID:                uuid.New(),
		WalletID:          walletID,
		DeltaCents:        delta,
		Reason:            reason,
		BalanceAfterCents: balanceAfter,
		ActorID:           actor,
	})
}
