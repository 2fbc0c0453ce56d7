package completions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clickwage/backend/internal/ledger"
	"github.com/clickwage/backend/internal/models"
	"github.com/clickwage/backend/internal/repository"
)

var (
	// ErrAlreadyCompleted: the (user, task) pair already has a completion.
	ErrAlreadyCompleted = errors.New("task already completed")
	// ErrTaskNotActive: the task is not approved and active.
	ErrTaskNotActive = errors.New("task is not active")
	// ErrBudgetExhausted: the task cannot fund another click.
	ErrBudgetExhausted = errors.New("task budget exhausted")
	// ErrOwnTask: publishers cannot complete their own tasks.
	ErrOwnTask = errors.New("cannot complete own task")
)

// TaskStore is the task access the engine needs: a row lock to
// serialize budget mutations, and the budget/count update.
type TaskStore interface {
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Task, error)
	ApplyCompletion(ctx context.Context, tx pgx.Tx, id uuid.UUID, rewardCents int64, markCompleted bool) error
}

// CompletionStore inserts completions; the store reports duplicates as
// repository.ErrDuplicateCompletion.
type CompletionStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, c *models.Completion) error
}

// WalletResolver maps a user to their wallet inside the transaction.
type WalletResolver interface {
	WalletIDByUserID(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (uuid.UUID, error)
}

// Ledger is the credit operation the engine triggers on success.
type Ledger interface {
	Credit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amountCents int64, counter ledger.Counter, reason string, actor uuid.UUID) (int64, error)
}

// TxBeginner abstracts transaction creation so tests don't need a pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service records a user's completion of a task exactly once. The
// eligibility checks, completion insert, budget decrement, wallet
// credit, and any auto-close all run in one transaction.
type Service struct {
	Pool        TxBeginner
	Tasks       TaskStore
	Completions CompletionStore
	Wallets     WalletResolver
	Ledger      Ledger
}

func NewService(pool TxBeginner, tasks TaskStore, completions CompletionStore, wallets WalletResolver, ledger Ledger) *Service {
	return &Service{Pool: pool, Tasks: tasks, Completions: completions, Wallets: wallets, Ledger: ledger}
}

// Complete validates the task under a row lock, inserts the completion,
// applies the budget decrement, and credits the user's wallet with the
// snapshotted reward. The client-side timer is not consulted; this call
// is the sole gate.
func (s *Service) Complete(ctx context.Context, userID, taskID uuid.UUID) (*models.Completion, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	task, err := s.Tasks.GetByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}
	if task.PublisherID == userID {
		return nil, ErrOwnTask
	}
	if task.Status != models.TaskStatusApproved || !task.IsActive {
		return nil, ErrTaskNotActive
	}
	if task.Exhausted() {
		return nil, ErrBudgetExhausted
	}

	completion := &models.Completion{
		ID:          uuid.New(),
		UserID:      userID,
		TaskID:      taskID,
		RewardCents: task.RewardPerClickCents,
	}
	if err := s.Completions.CreateTx(ctx, tx, completion); err != nil {
		if errors.Is(err, repository.ErrDuplicateCompletion) {
			return nil, ErrAlreadyCompleted
		}
		return nil, err
	}

	// Does this completion exhaust the task? Checked against the state
	// after the decrement, inside the same transaction.
	remaining := task.RemainingBudgetCents - task.RewardPerClickCents
	done := remaining < task.RewardPerClickCents
	if task.MaxCompletions != nil && task.CurrentCompletions+1 >= *task.MaxCompletions {
		done = true
	}
	if err := s.Tasks.ApplyCompletion(ctx, tx, taskID, task.RewardPerClickCents, done); err != nil {
		return nil, err
	}

	walletID, err := s.Wallets.WalletIDByUserID(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Ledger.Credit(ctx, tx, walletID, task.RewardPerClickCents, ledger.CounterEarned, models.TaskCompletionReason(taskID), userID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return completion, nil
}
