package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clickwage/backend/internal/models"
)

const userColumns = `id, email, username, password_hash, is_admin, is_suspended, created_at, updated_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.IsSuspended, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateTx inserts a user inside the caller's transaction; registration
// creates the user and its wallet atomically.
func (r *UserRepo) CreateTx(ctx context.Context, tx pgx.Tx, u *models.User) error {
	return tx.QueryRow(ctx, `
		INSERT INTO users (id, email, username, password_hash, is_admin, is_suspended)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, u.ID, u.Email, u.Username, u.PasswordHash, u.IsAdmin, u.IsSuspended).Scan(&u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1
	`, id, hash)
	return err
}

// SetSuspended and SetAdmin are conditional so a repeated admin click
// reports no-op instead of rewriting the row.
func (r *UserRepo) SetSuspended(ctx context.Context, id uuid.UUID, suspended bool) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET is_suspended = $2, updated_at = now() WHERE id = $1 AND is_suspended <> $2
	`, id, suspended)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *UserRepo) SetAdmin(ctx context.Context, id uuid.UUID, admin bool) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET is_admin = $2, updated_at = now() WHERE id = $1 AND is_admin <> $2
	`, id, admin)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// List returns users for the admin table. status filters: "" (all),
// "active", "suspended", "admin".
func (r *UserRepo) List(ctx context.Context, status, search string, page, perPage int) ([]*models.User, int, error) {
	if page < 1 {
		page = 1
	}
	const where = `
		WHERE ($1 = ''
		       OR ($1 = 'active' AND NOT is_suspended)
		       OR ($1 = 'suspended' AND is_suspended)
		       OR ($1 = 'admin' AND is_admin))
		  AND ($2 = '' OR username ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%')`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users `+where, status, search).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users `+where+`
		ORDER BY created_at DESC LIMIT $3 OFFSET $4
	`, status, search, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var list []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	pages := (total + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	return list, pages, nil
}
