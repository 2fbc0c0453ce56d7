package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clickwage/backend/internal/models"
)

// ErrDuplicateCompletion is returned when the unique (user_id, task_id)
// index rejects a second completion of the same task.
var ErrDuplicateCompletion = errors.New("task already completed by user")

type CompletionRepo struct {
	pool *pgxpool.Pool
}

func NewCompletionRepo(pool *pgxpool.Pool) *CompletionRepo {
	return &CompletionRepo{pool: pool}
}

// CreateTx inserts a completion inside the caller's transaction. The
// unique index is the double-claim guard; SQLSTATE 23505 maps to
// ErrDuplicateCompletion.
func (r *CompletionRepo) CreateTx(ctx context.Context, tx pgx.Tx, c *models.Completion) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO completions (id, user_id, task_id, reward_cents)
		VALUES ($1, $2, $3, $4)
		RETURNING completed_at
	`, c.ID, c.UserID, c.TaskID, c.RewardCents).Scan(&c.CompletedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateCompletion
	}
	return err
}

// RecentWithTitle is a completion joined with its task's title for the
// dashboard's recent-activity list.
type RecentWithTitle struct {
	models.Completion
	TaskTitle string `json:"task_title"`
}

func (r *CompletionRepo) ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*RecentWithTitle, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.user_id, c.task_id, c.reward_cents, c.completed_at, t.title
		FROM completions c
		JOIN tasks t ON t.id = c.task_id
		WHERE c.user_id = $1
		ORDER BY c.completed_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*RecentWithTitle
	for rows.Next() {
		var rc RecentWithTitle
		if err := rows.Scan(&rc.ID, &rc.UserID, &rc.TaskID, &rc.RewardCents, &rc.CompletedAt, &rc.TaskTitle); err != nil {
			return nil, err
		}
		list = append(list, &rc)
	}
	return list, rows.Err()
}
