package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clickwage/backend/internal/models"
)

// Repository is the pgx-backed wallet and ledger-entry store. It
// implements WalletRepo and EntryRepo.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// CreateWallet inserts the wallet for a new user inside the caller's
// transaction (registration creates user and wallet atomically).
func (r *Repository) CreateWallet(ctx context.Context, tx pgx.Tx, w *models.Wallet) error {
	return tx.QueryRow(ctx, `
		INSERT INTO wallets (id, user_id, balance_cents, total_earned_cents, total_deposited_cents, total_withdrawn_cents)
		VALUES ($1, $2, 0, 0, 0, 0)
		RETURNING created_at, updated_at
	`, w.ID, w.UserID).Scan(&w.CreatedAt, &w.UpdatedAt)
}

func (r *Repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var w models.Wallet
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, balance_cents, total_earned_cents, total_deposited_cents, total_withdrawn_cents, created_at, updated_at
		FROM wallets WHERE user_id = $1
	`, userID).Scan(&w.ID, &w.UserID, &w.BalanceCents, &w.TotalEarnedCents, &w.TotalDepositedCents, &w.TotalWithdrawnCents, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// WalletIDByUserID resolves the wallet for a user inside a transaction.
func (r *Repository) WalletIDByUserID(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM wallets WHERE user_id = $1`, userID).Scan(&id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Credit adds to the balance, bumping the lifetime counter the caller
// selected in the same statement.
func (r *Repository) Credit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amountCents int64, counter Counter) (int64, error) {
	var query string
	switch counter {
	case CounterEarned:
		query = `
			UPDATE wallets SET balance_cents = balance_cents + $1, total_earned_cents = total_earned_cents + $1, updated_at = now()
			WHERE id = $2 RETURNING balance_cents`
	case CounterDeposited:
		query = `
			UPDATE wallets SET balance_cents = balance_cents + $1, total_deposited_cents = total_deposited_cents + $1, updated_at = now()
			WHERE id = $2 RETURNING balance_cents`
	default:
		query = `
			UPDATE wallets SET balance_cents = balance_cents + $1, updated_at = now()
			WHERE id = $2 RETURNING balance_cents`
	}
	var newBalance int64
	if err := tx.QueryRow(ctx, query, amountCents, walletID).Scan(&newBalance); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Debit deducts conditionally: the WHERE clause makes the balance check
// and the deduction one atomic statement, so two concurrent debits that
// together exceed the balance cannot both succeed.
func (r *Repository) Debit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amountCents int64) (int64, error) {
	var newBalance int64
	err := tx.QueryRow(ctx, `
		UPDATE wallets SET balance_cents = balance_cents - $1, updated_at = now()
		WHERE id = $2 AND balance_cents >= $1
		RETURNING balance_cents
	`, amountCents, walletID).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrInsufficientFunds
	}
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (r *Repository) BumpWithdrawn(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amountCents int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE wallets SET total_withdrawn_cents = total_withdrawn_cents + $1, updated_at = now() WHERE id = $2
	`, amountCents, walletID)
	return err
}

func (r *Repository) CreateTx(ctx context.Context, tx pgx.Tx, e *models.LedgerEntry) error {
	return tx.QueryRow(ctx, `
		INSERT INTO ledger_entries (id, wallet_id, delta_cents, reason, balance_after_cents, actor_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, e.ID, e.WalletID, e.DeltaCents, e.Reason, e.BalanceAfterCents, e.ActorID).Scan(&e.CreatedAt)
}

func (r *Repository) ListEntriesByWalletID(ctx context.Context, walletID uuid.UUID, limit int) ([]*models.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, wallet_id, delta_cents, reason, balance_after_cents, actor_id, created_at
		FROM ledger_entries WHERE wallet_id = $1 ORDER BY created_at DESC LIMIT $2
	`, walletID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.WalletID, &e.DeltaCents, &e.Reason, &e.BalanceAfterCents, &e.ActorID, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
