package completions

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clickwage/backend/internal/ledger"
	"github.com/clickwage/backend/internal/models"
	"github.com/clickwage/backend/internal/repository"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

// --- noopTx satisfies pgx.Tx; only Commit/Rollback are called. ---

type noopTx struct{}

func (noopTx) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }
func (noopTx) Commit(context.Context) error          { return nil }
func (noopTx) Rollback(context.Context) error        { return nil }
func (noopTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (noopTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (noopTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (noopTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (noopTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (noopTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (noopTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (noopTx) Conn() *pgx.Conn { return nil }

type mockPool struct{}

func (mockPool) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }

// --- task store ---

type mockTasks struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*models.Task
}

func newMockTasks(ts ...*models.Task) *mockTasks {
	m := &mockTasks{tasks: make(map[uuid.UUID]*models.Task)}
	for _, t := range ts {
		m.tasks[t.ID] = t
	}
	return m
}

func (m *mockTasks) GetByIDForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (m *mockTasks) ApplyCompletion(_ context.Context, _ pgx.Tx, id uuid.UUID, reward int64, markCompleted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return fmt.Errorf("task %s not found", id)
	}
	t.RemainingBudgetCents -= reward
	t.CurrentCompletions++
	if markCompleted {
		t.Status = models.TaskStatusCompleted
		t.IsActive = false
	}
	return nil
}

func (m *mockTasks) get(id uuid.UUID) models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.tasks[id]
}

// --- completion store: enforces the (user, task) uniqueness invariant ---

type mockCompletions struct {
	mu   sync.Mutex
	seen map[string]bool
	all  []*models.Completion
}

func newMockCompletions() *mockCompletions {
	return &mockCompletions{seen: make(map[string]bool)}
}

func (m *mockCompletions) CreateTx(_ context.Context, _ pgx.Tx, c *models.Completion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := c.UserID.String() + "/" + c.TaskID.String()
	if m.seen[key] {
		return repository.ErrDuplicateCompletion
	}
	m.seen[key] = true
	cp := *c
	m.all = append(m.all, &cp)
	return nil
}

// --- wallet resolver + recording ledger ---

type mockWalletResolver struct {
	byUser map[uuid.UUID]uuid.UUID
}

func (m *mockWalletResolver) WalletIDByUserID(_ context.Context, _ pgx.Tx, userID uuid.UUID) (uuid.UUID, error) {
	id, ok := m.byUser[userID]
	if !ok {
		return uuid.Nil, pgx.ErrNoRows
	}
	return id, nil
}

type creditCall struct {
	walletID uuid.UUID
	amount   int64
	counter  ledger.Counter
	reason   string
	actor    uuid.UUID
}

type mockLedger struct {
	mu      sync.Mutex
	credits []creditCall
}

func (m *mockLedger) Credit(_ context.Context, _ pgx.Tx, walletID uuid.UUID, amount int64, counter ledger.Counter, reason string, actor uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credits = append(m.credits, creditCall{walletID, amount, counter, reason, actor})
	return amount, nil
}

func (m *mockLedger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.credits)
}

// ---------------------------------------------------------------------------
// Fixture helpers
// ---------------------------------------------------------------------------

func activeTask(publisher uuid.UUID, reward, budget int64) *models.Task {
	return &models.Task{
		ID:                   uuid.New(),
		PublisherID:          publisher,
		Title:                "Visit our landing page",
		RewardPerClickCents:  reward,
		TotalBudgetCents:     budget,
		RemainingBudgetCents: budget,
		Status:               models.TaskStatusApproved,
		IsActive:             true,
	}
}

func newEngine(tasks *mockTasks, comps *mockCompletions, led *mockLedger, users ...uuid.UUID) *Service {
	resolver := &mockWalletResolver{byUser: make(map[uuid.UUID]uuid.UUID)}
	for _, u := range users {
		resolver.byUser[u] = uuid.New()
	}
	return NewService(mockPool{}, tasks, comps, resolver, led)
}

// ---------------------------------------------------------------------------
// 1. Successful completion: snapshot reward, decrement budget, credit.
// ---------------------------------------------------------------------------

func TestComplete_Success(t *testing.T) {
	publisher := uuid.New()
	user := uuid.New()
	task := activeTask(publisher, 500, 2000)

	tasks := newMockTasks(task)
	comps := newMockCompletions()
	led := &mockLedger{}
	svc := newEngine(tasks, comps, led, user)

	c, err := svc.Complete(context.Background(), user, task.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if c.RewardCents != 500 {
		t.Errorf("reward snapshot: got %d, want 500", c.RewardCents)
	}

	after := tasks.get(task.ID)
	if after.RemainingBudgetCents != 1500 {
		t.Errorf("remaining budget: got %d, want 1500", after.RemainingBudgetCents)
	}
	if after.CurrentCompletions != 1 {
		t.Errorf("completions: got %d, want 1", after.CurrentCompletions)
	}
	if after.Status != models.TaskStatusApproved {
		t.Errorf("task should remain approved with budget left, got %s", after.Status)
	}

	if led.count() != 1 {
		t.Fatalf("ledger credits: got %d, want 1", led.count())
	}
	credit := led.credits[0]
	if credit.amount != 500 {
		t.Errorf("credit amount: got %d, want 500", credit.amount)
	}
	if credit.counter != ledger.CounterEarned {
		t.Error("completion credit must bump total_earned")
	}
	if credit.reason != models.TaskCompletionReason(task.ID) {
		t.Errorf("credit reason: got %q", credit.reason)
	}
	if credit.actor != user {
		t.Error("credit actor should be the completing user")
	}
}

// ---------------------------------------------------------------------------
// 2. Double claim: second call fails with ErrAlreadyCompleted and
//    produces no further ledger mutation.
// ---------------------------------------------------------------------------

func TestComplete_AlreadyCompleted(t *testing.T) {
	publisher := uuid.New()
	user := uuid.New()
	task := activeTask(publisher, 100, 1000)

	tasks := newMockTasks(task)
	comps := newMockCompletions()
	led := &mockLedger{}
	svc := newEngine(tasks, comps, led, user)

	ctx := context.Background()
	if _, err := svc.Complete(ctx, user, task.ID); err != nil {
		t.Fatalf("first Complete: %v", err)
	}
	if _, err := svc.Complete(ctx, user, task.ID); err != ErrAlreadyCompleted {
		t.Fatalf("second Complete: expected ErrAlreadyCompleted, got %v", err)
	}
	if led.count() != 1 {
		t.Errorf("ledger credits after double claim: got %d, want 1", led.count())
	}
}

// ---------------------------------------------------------------------------
// 3. Budget exhaustion: budget 1000 / reward 500 closes after the 2nd
//    completion; a 3rd attempt fails with ErrBudgetExhausted.
// ---------------------------------------------------------------------------

func TestComplete_BudgetExhaustion(t *testing.T) {
	publisher := uuid.New()
	u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()
	task := activeTask(publisher, 500, 1000)

	tasks := newMockTasks(task)
	comps := newMockCompletions()
	led := &mockLedger{}
	svc := newEngine(tasks, comps, led, u1, u2, u3)

	ctx := context.Background()
	if _, err := svc.Complete(ctx, u1, task.ID); err != nil {
		t.Fatalf("completion 1: %v", err)
	}
	if got := tasks.get(task.ID); got.Status != models.TaskStatusApproved {
		t.Errorf("after 1st: status %s, want approved", got.Status)
	}

	if _, err := svc.Complete(ctx, u2, task.ID); err != nil {
		t.Fatalf("completion 2: %v", err)
	}
	after := tasks.get(task.ID)
	if after.Status != models.TaskStatusCompleted {
		t.Errorf("after 2nd: status %s, want completed", after.Status)
	}
	if after.RemainingBudgetCents != 0 {
		t.Errorf("after 2nd: remaining %d, want 0", after.RemainingBudgetCents)
	}

	// The task is now completed, so the not-active check fires first;
	// an approved-but-exhausted row would report ErrBudgetExhausted.
	if _, err := svc.Complete(ctx, u3, task.ID); err != ErrTaskNotActive && err != ErrBudgetExhausted {
		t.Fatalf("completion 3: expected terminal refusal, got %v", err)
	}
	if led.count() != 2 {
		t.Errorf("ledger credits: got %d, want 2", led.count())
	}
}

// ---------------------------------------------------------------------------
// 4. max_completions cap closes the task even with budget remaining.
// ---------------------------------------------------------------------------

func TestComplete_MaxCompletionsCap(t *testing.T) {
	publisher := uuid.New()
	u1, u2 := uuid.New(), uuid.New()
	task := activeTask(publisher, 100, 10000)
	one := 1
	task.MaxCompletions = &one

	tasks := newMockTasks(task)
	comps := newMockCompletions()
	led := &mockLedger{}
	svc := newEngine(tasks, comps, led, u1, u2)

	ctx := context.Background()
	if _, err := svc.Complete(ctx, u1, task.ID); err != nil {
		t.Fatalf("completion 1: %v", err)
	}
	if got := tasks.get(task.ID); got.Status != models.TaskStatusCompleted {
		t.Errorf("status after cap hit: %s, want completed", got.Status)
	}
	if _, err := svc.Complete(ctx, u2, task.ID); err == nil {
		t.Fatal("completion past the cap must fail")
	}
}

// ---------------------------------------------------------------------------
// 5. Eligibility refusals: paused, pending, own task.
// ---------------------------------------------------------------------------

func TestComplete_Refusals(t *testing.T) {
	publisher := uuid.New()
	user := uuid.New()

	paused := activeTask(publisher, 100, 1000)
	paused.IsActive = false
	pending := activeTask(publisher, 100, 1000)
	pending.Status = models.TaskStatusPending
	pending.IsActive = false
	own := activeTask(publisher, 100, 1000)

	tasks := newMockTasks(paused, pending, own)
	comps := newMockCompletions()
	led := &mockLedger{}
	svc := newEngine(tasks, comps, led, user, publisher)

	ctx := context.Background()
	if _, err := svc.Complete(ctx, user, paused.ID); err != ErrTaskNotActive {
		t.Errorf("paused: expected ErrTaskNotActive, got %v", err)
	}
	if _, err := svc.Complete(ctx, user, pending.ID); err != ErrTaskNotActive {
		t.Errorf("pending: expected ErrTaskNotActive, got %v", err)
	}
	if _, err := svc.Complete(ctx, publisher, own.ID); err != ErrOwnTask {
		t.Errorf("own task: expected ErrOwnTask, got %v", err)
	}
	if _, err := svc.Complete(ctx, user, uuid.New()); err != pgx.ErrNoRows {
		t.Errorf("missing task: expected pgx.ErrNoRows, got %v", err)
	}
	if led.count() != 0 {
		t.Errorf("no refusal may credit the wallet, got %d credits", led.count())
	}
}

// ---------------------------------------------------------------------------
// 6. Budget arithmetic invariant:
//    remaining == total - completions * reward after any sequence.
// ---------------------------------------------------------------------------

func TestComplete_BudgetArithmetic(t *testing.T) {
	publisher := uuid.New()
	task := activeTask(publisher, 300, 1000)

	users := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	tasks := newMockTasks(task)
	comps := newMockCompletions()
	led := &mockLedger{}
	svc := newEngine(tasks, comps, led, users...)

	ctx := context.Background()
	var succeeded int
	for _, u := range users {
		if _, err := svc.Complete(ctx, u, task.ID); err == nil {
			succeeded++
		}
	}
	// 1000 / 300 funds exactly 3 clicks.
	if succeeded != 3 {
		t.Fatalf("successful completions: got %d, want 3", succeeded)
	}
	after := tasks.get(task.ID)
	want := task.TotalBudgetCents - int64(after.CurrentCompletions)*task.RewardPerClickCents
	if after.RemainingBudgetCents != want {
		t.Errorf("remaining budget: got %d, want %d", after.RemainingBudgetCents, want)
	}
	if after.Status != models.TaskStatusCompleted {
		t.Errorf("status: got %s, want completed (100 cents left < reward)", after.Status)
	}
}
