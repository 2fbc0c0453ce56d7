package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clickwage/backend/internal/models"
)

const taskColumns = `id, publisher_id, title, description, link, reward_per_click_cents, total_budget_cents,
	remaining_budget_cents, max_completions, current_completions, status, is_active, timer_seconds, reject_reason,
	created_at, updated_at`

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.PublisherID, &t.Title, &t.Description, &t.Link, &t.RewardPerClickCents,
		&t.TotalBudgetCents, &t.RemainingBudgetCents, &t.MaxCompletions, &t.CurrentCompletions,
		&t.Status, &t.IsActive, &t.TimerSeconds, &t.RejectReason, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepo) Create(ctx context.Context, t *models.Task) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO tasks (id, publisher_id, title, description, link, reward_per_click_cents, total_budget_cents,
			remaining_budget_cents, max_completions, current_completions, status, is_active, timer_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`, t.ID, t.PublisherID, t.Title, t.Description, t.Link, t.RewardPerClickCents, t.TotalBudgetCents,
		t.RemainingBudgetCents, t.MaxCompletions, t.CurrentCompletions, t.Status, t.IsActive, t.TimerSeconds).
		Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
}

// GetByIDForUpdate locks the task row. Call within a transaction; the
// completion engine relies on this to serialize budget mutations.
func (r *TaskRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Task, error) {
	return scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id))
}

// TransitionStatus applies from -> to as one conditional statement.
// Returns false when the task was not in the source state.
func (r *TaskRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to string, active bool, rejectReason *string) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE tasks SET status = $3, is_active = $4, reject_reason = COALESCE($5, reject_reason), updated_at = now()
		WHERE id = $1 AND status = $2
	`, id, from, to, active, rejectReason)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// SetActive toggles the pause flag; only approved tasks have one.
func (r *TaskRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE tasks SET is_active = $2, updated_at = now()
		WHERE id = $1 AND status = 'approved'
	`, id, active)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// UpdateDetails edits presentational fields on tasks that are still live.
func (r *TaskRepo) UpdateDetails(ctx context.Context, id uuid.UUID, title, description, link string, timerSeconds int) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE tasks SET title = $2, description = $3, link = $4, timer_seconds = $5, updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'approved')
	`, id, title, description, link, timerSeconds)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// ApplyCompletion decrements the budget and bumps the completion count
// inside the caller's transaction. markCompleted also closes the task.
func (r *TaskRepo) ApplyCompletion(ctx context.Context, tx pgx.Tx, id uuid.UUID, rewardCents int64, markCompleted bool) error {
	_, err := tx.Exec(ctx, `
		UPDATE tasks SET remaining_budget_cents = remaining_budget_cents - $2,
			current_completions = current_completions + 1,
			status = CASE WHEN $3 THEN 'completed' ELSE status END,
			is_active = CASE WHEN $3 THEN FALSE ELSE is_active END,
			updated_at = now()
		WHERE id = $1
	`, id, rewardCents, markCompleted)
	return err
}

// CloseExhausted is the periodic backstop for tasks that slipped past
// the inline auto-completion. Returns the number of tasks closed.
func (r *TaskRepo) CloseExhausted(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE tasks SET status = 'completed', is_active = FALSE, updated_at = now()
		WHERE status = 'approved'
		  AND (remaining_budget_cents < reward_per_click_cents
		       OR (max_completions IS NOT NULL AND current_completions >= max_completions))
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// ListAvailable returns approved, active, fundable tasks the user has
// not completed and does not own. Pages are 1-based.
func (r *TaskRepo) ListAvailable(ctx context.Context, userID uuid.UUID, page, perPage int) ([]*models.Task, int, error) {
	if page < 1 {
		page = 1
	}
	const available = `
		FROM tasks t
		WHERE t.status = 'approved' AND t.is_active
		  AND t.remaining_budget_cents >= t.reward_per_click_cents
		  AND t.publisher_id <> $1
		  AND NOT EXISTS (SELECT 1 FROM completions c WHERE c.task_id = t.id AND c.user_id = $1)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) `+available, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.publisher_id, t.title, t.description, t.link, t.reward_per_click_cents, t.total_budget_cents,
			t.remaining_budget_cents, t.max_completions, t.current_completions, t.status, t.is_active, t.timer_seconds,
			t.reject_reason, t.created_at, t.updated_at
		`+available+`
		ORDER BY t.created_at DESC LIMIT $2 OFFSET $3`, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list, err := collectTasks(rows)
	if err != nil {
		return nil, 0, err
	}
	pages := (total + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	return list, pages, nil
}

// CountAvailable is the dashboard's available-task counter.
func (r *TaskRepo) CountAvailable(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM tasks t
		WHERE t.status = 'approved' AND t.is_active
		  AND t.remaining_budget_cents >= t.reward_per_click_cents
		  AND t.publisher_id <> $1
		  AND NOT EXISTS (SELECT 1 FROM completions c WHERE c.task_id = t.id AND c.user_id = $1)
	`, userID).Scan(&n)
	return n, err
}

func (r *TaskRepo) ListByPublisher(ctx context.Context, publisherID uuid.UUID) ([]*models.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE publisher_id = $1 ORDER BY created_at DESC
	`, publisherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

// List returns tasks for the admin table, optionally filtered by status.
func (r *TaskRepo) List(ctx context.Context, status string, page, perPage int) ([]*models.Task, int, error) {
	if page < 1 {
		page = 1
	}
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM tasks WHERE ($1 = '' OR status = $1)
	`, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, status, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list, err := collectTasks(rows)
	if err != nil {
		return nil, 0, err
	}
	pages := (total + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	return list, pages, nil
}

func collectTasks(rows pgx.Rows) ([]*models.Task, error) {
	var list []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
