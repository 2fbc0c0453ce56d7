package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
)

// Interval is how often the sweep re-checks approved tasks. The
// completion engine closes exhausted tasks inline, so the sweep only
// has to catch tasks drained by out-of-band balance corrections.
const Interval = 5 * time.Minute

type BudgetSweepArgs struct{}

func (BudgetSweepArgs) Kind() string { return "budget_sweep" }

// TaskCloser is the slice of the task registry the sweep drives.
type TaskCloser interface {
	CloseExhausted(ctx context.Context) (int64, error)
}

type BudgetSweepWorker struct {
	river.WorkerDefaults[BudgetSweepArgs]
	tasks  TaskCloser
	logger *slog.Logger
}

func NewBudgetSweepWorker(tasks TaskCloser, logger *slog.Logger) *BudgetSweepWorker {
	return &BudgetSweepWorker{tasks: tasks, logger: logger}
}

func (w *BudgetSweepWorker) Work(ctx context.Context, _ *river.Job[BudgetSweepArgs]) error {
	closed, err := w.tasks.CloseExhausted(ctx)
	if err != nil {
		return fmt.Errorf("close exhausted tasks: %w", err)
	}
	if closed > 0 {
		w.logger.Info("budget sweep closed tasks", "count", closed)
	}
	return nil
}

// PeriodicJob schedules the sweep, including one run at startup to
// catch anything that drained while the service was down.
func PeriodicJob() *river.PeriodicJob {
	return river.NewPeriodicJob(
		river.PeriodicInterval(Interval),
		func() (river.JobArgs, *river.InsertOpts) {
			return BudgetSweepArgs{}, nil
		},
		&river.PeriodicJobOpts{RunOnStart: true},
	)
}
