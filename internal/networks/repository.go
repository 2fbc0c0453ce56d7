package networks

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clickwage/backend/internal/models"
)

const networkColumns = `id, name, symbol, currency, wallet_address, is_active,
	min_deposit_cents, min_withdrawal_cents, deposit_fee_cents, withdrawal_fee_cents,
	created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanNetwork(row pgx.Row) (*models.CryptoNetwork, error) {
	var n models.CryptoNetwork
	err := row.Scan(&n.ID, &n.Name, &n.Symbol, &n.Currency, &n.WalletAddress, &n.IsActive,
		&n.MinDepositCents, &n.MinWithdrawalCents, &n.DepositFeeCents, &n.WithdrawalFeeCents,
		&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *Repository) Create(ctx context.Context, n *models.CryptoNetwork) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO crypto_networks (
			id, name, symbol, currency, wallet_address, is_active,
			min_deposit_cents, min_withdrawal_cents, deposit_fee_cents, withdrawal_fee_cents
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, n.ID, n.Name, n.Symbol, n.Currency, n.WalletAddress, n.IsActive,
		n.MinDepositCents, n.MinWithdrawalCents, n.DepositFeeCents, n.WithdrawalFeeCents,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
}

func (r *Repository) Update(ctx context.Context, n *models.CryptoNetwork) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE crypto_networks SET
			name = $2, symbol = $3, currency = $4, wallet_address = $5, is_active = $6,
			min_deposit_cents = $7, min_withdrawal_cents = $8,
			deposit_fee_cents = $9, withdrawal_fee_cents = $10,
			updated_at = now()
		WHERE id = $1
	`, n.ID, n.Name, n.Symbol, n.Currency, n.WalletAddress, n.IsActive,
		n.MinDepositCents, n.MinWithdrawalCents, n.DepositFeeCents, n.WithdrawalFeeCents)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM crypto_networks WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.CryptoNetwork, error) {
	return scanNetwork(r.pool.QueryRow(ctx, `SELECT `+networkColumns+` FROM crypto_networks WHERE id = $1`, id))
}

func (r *Repository) GetBySymbol(ctx context.Context, symbol string) (*models.CryptoNetwork, error) {
	return scanNetwork(r.pool.QueryRow(ctx, `SELECT `+networkColumns+` FROM crypto_networks WHERE symbol = $1`, symbol))
}

// ListActive returns the rails users can currently pick from.
func (r *Repository) ListActive(ctx context.Context) ([]*models.CryptoNetwork, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+networkColumns+` FROM crypto_networks WHERE is_active ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNetworks(rows)
}

// ListAll is the admin view, disabled rails included.
func (r *Repository) ListAll(ctx context.Context) ([]*models.CryptoNetwork, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+networkColumns+` FROM crypto_networks ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNetworks(rows)
}

func collectNetworks(rows pgx.Rows) ([]*models.CryptoNetwork, error) {
	var list []*models.CryptoNetwork
	for rows.Next() {
		n, err := scanNetwork(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}
