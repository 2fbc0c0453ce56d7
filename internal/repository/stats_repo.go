package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Admin dashboard aggregates. Everything here is re-derived from the
// base tables on each query; no cached counters.

type UserStats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Suspended int `json:"suspended"`
	Admins    int `json:"admins"`
}

type TaskStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

type FinanceStats struct {
	TotalDepositsCents    int64 `json:"total_deposits_cents"`
	TotalWithdrawalsCents int64 `json:"total_withdrawals_cents"`
	TotalBalanceCents     int64 `json:"total_balance_cents"`
	TotalEarnedCents      int64 `json:"total_earned_cents"`
	PendingDeposits       int   `json:"pending_deposits"`
	PendingWithdrawals    int   `json:"pending_withdrawals"`
}

type CompletionStats struct {
	Total int `json:"total"`
	Today int `json:"today"`
}

type StatsRepo struct {
	pool *pgxpool.Pool
}

func NewStatsRepo(pool *pgxpool.Pool) *StatsRepo {
	return &StatsRepo{pool: pool}
}

func (r *StatsRepo) Users(ctx context.Context) (*UserStats, error) {
	var s UserStats
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE NOT is_suspended),
			COUNT(*) FILTER (WHERE is_suspended),
			COUNT(*) FILTER (WHERE is_admin)
		FROM users
	`).Scan(&s.Total, &s.Active, &s.Suspended, &s.Admins)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StatsRepo) Tasks(ctx context.Context) (*TaskStats, error) {
	var s TaskStats
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'approved' AND is_active),
			COUNT(*) FILTER (WHERE status = 'completed')
		FROM tasks
	`).Scan(&s.Total, &s.Pending, &s.Active, &s.Completed)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StatsRepo) Finances(ctx context.Context) (*FinanceStats, error) {
	var s FinanceStats
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_deposited_cents), 0),
			COALESCE(SUM(total_withdrawn_cents), 0),
			COALESCE(SUM(balance_cents), 0),
			COALESCE(SUM(total_earned_cents), 0)
		FROM wallets
	`).Scan(&s.TotalDepositsCents, &s.TotalWithdrawalsCents, &s.TotalBalanceCents, &s.TotalEarnedCents)
	if err != nil {
		return nil, err
	}
	err = r.pool.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM deposits WHERE status = 'pending'),
			(SELECT COUNT(*) FROM withdrawals WHERE status = 'pending')
	`).Scan(&s.PendingDeposits, &s.PendingWithdrawals)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StatsRepo) Completions(ctx context.Context) (*CompletionStats, error) {
	var s CompletionStats
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE completed_at >= CURRENT_DATE)
		FROM completions
	`).Scan(&s.Total, &s.Today)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
