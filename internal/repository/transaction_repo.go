package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clickwage/backend/internal/models"
)

const depositColumns = `id, user_id, amount_cents, currency, network, tx_hash, status, created_at, updated_at`
const withdrawalColumns = `id, user_id, amount_cents, currency, network, wallet_address, status, created_at, updated_at`

// TransactionRepo stores deposit and withdrawal requests. State
// transitions are conditional updates so duplicate admin clicks land on
// a terminal or already-advanced row as a reported no-op.
type TransactionRepo struct {
	pool *pgxpool.Pool
}

func NewTransactionRepo(pool *pgxpool.Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// --- deposits ---

func scanDeposit(row pgx.Row) (*models.Deposit, error) {
	var d models.Deposit
	err := row.Scan(&d.ID, &d.UserID, &d.AmountCents, &d.Currency, &d.Network, &d.TxHash, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *TransactionRepo) CreateDeposit(ctx context.Context, d *models.Deposit) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO deposits (id, user_id, amount_cents, currency, network, tx_hash, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, d.ID, d.UserID, d.AmountCents, d.Currency, d.Network, d.TxHash, d.Status).Scan(&d.CreatedAt, &d.UpdatedAt)
}

func (r *TransactionRepo) GetDeposit(ctx context.Context, id uuid.UUID) (*models.Deposit, error) {
	return scanDeposit(r.pool.QueryRow(ctx, `SELECT `+depositColumns+` FROM deposits WHERE id = $1`, id))
}

// GetDepositForUpdate locks the deposit row inside a transaction.
func (r *TransactionRepo) GetDepositForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Deposit, error) {
	return scanDeposit(tx.QueryRow(ctx, `SELECT `+depositColumns+` FROM deposits WHERE id = $1 FOR UPDATE`, id))
}

func (r *TransactionRepo) TransitionDeposit(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to string) (bool, error) {
	result, err := tx.Exec(ctx, `
		UPDATE deposits SET status = $3, updated_at = now() WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *TransactionRepo) ListDepositsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Deposit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+depositColumns+` FROM deposits WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDeposits(rows)
}

func (r *TransactionRepo) ListDeposits(ctx context.Context, status string, page, perPage int) ([]*models.Deposit, int, error) {
	if page < 1 {
		page = 1
	}
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM deposits WHERE ($1 = '' OR status = $1)
	`, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+depositColumns+` FROM deposits WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, status, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list, err := collectDeposits(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, pageCount(total, perPage), nil
}

func collectDeposits(rows pgx.Rows) ([]*models.Deposit, error) {
	var list []*models.Deposit
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// --- withdrawals ---

func scanWithdrawal(row pgx.Row) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := row.Scan(&w.ID, &w.UserID, &w.AmountCents, &w.Currency, &w.Network, &w.WalletAddress, &w.Status, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// CreateWithdrawalTx inserts inside the caller's transaction: request
// creation and the balance debit are one atomic unit.
func (r *TransactionRepo) CreateWithdrawalTx(ctx context.Context, tx pgx.Tx, w *models.Withdrawal) error {
	return tx.QueryRow(ctx, `
		INSERT INTO withdrawals (id, user_id, amount_cents, currency, network, wallet_address, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, w.ID, w.UserID, w.AmountCents, w.Currency, w.Network, w.WalletAddress, w.Status).Scan(&w.CreatedAt, &w.UpdatedAt)
}

func (r *TransactionRepo) GetWithdrawal(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	return scanWithdrawal(r.pool.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id))
}

func (r *TransactionRepo) GetWithdrawalForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Withdrawal, error) {
	return scanWithdrawal(tx.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1 FOR UPDATE`, id))
}

func (r *TransactionRepo) TransitionWithdrawal(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to string) (bool, error) {
	result, err := tx.Exec(ctx, `
		UPDATE withdrawals SET status = $3, updated_at = now() WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// TransitionWithdrawalFromEither covers rejection, allowed from both
// pending and approved.
func (r *TransactionRepo) TransitionWithdrawalFromEither(ctx context.Context, tx pgx.Tx, id uuid.UUID, fromA, fromB, to string) (bool, error) {
	result, err := tx.Exec(ctx, `
		UPDATE withdrawals SET status = $4, updated_at = now() WHERE id = $1 AND status IN ($2, $3)
	`, id, fromA, fromB, to)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *TransactionRepo) ListWithdrawalsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Withdrawal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawals WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWithdrawals(rows)
}

func (r *TransactionRepo) ListWithdrawals(ctx context.Context, status string, page, perPage int) ([]*models.Withdrawal, int, error) {
	if page < 1 {
		page = 1
	}
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM withdrawals WHERE ($1 = '' OR status = $1)
	`, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawals WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, status, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list, err := collectWithdrawals(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, pageCount(total, perPage), nil
}

func collectWithdrawals(rows pgx.Rows) ([]*models.Withdrawal, error) {
	var list []*models.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, w)
	}
	return list, rows.Err()
}

func pageCount(total, perPage int) int {
	pages := (total + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	return pages
}
