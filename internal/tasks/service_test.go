package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clickwage/backend/internal/models"
)

type mockRepo struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*models.Task
}

func newMockRepo() *mockRepo {
	return &mockRepo{tasks: make(map[uuid.UUID]*models.Task)}
}

func (m *mockRepo) Create(_ context.Context, t *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tasks[t.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (m *mockRepo) TransitionStatus(_ context.Context, id uuid.UUID, from, to string, active bool, rejectReason *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.Status != from {
		return false, nil
	}
	t.Status = to
	t.IsActive = active
	if rejectReason != nil {
		t.RejectReason = rejectReason
	}
	return true, nil
}

func (m *mockRepo) SetActive(_ context.Context, id uuid.UUID, active bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.Status != models.TaskStatusApproved {
		return false, nil
	}
	t.IsActive = active
	return true, nil
}

func (m *mockRepo) UpdateDetails(_ context.Context, id uuid.UUID, title, description, link string, timerSeconds int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || (t.Status != models.TaskStatusPending && t.Status != models.TaskStatusApproved) {
		return false, nil
	}
	t.Title, t.Description, t.Link, t.TimerSeconds = title, description, link, timerSeconds
	return true, nil
}

func (m *mockRepo) CloseExhausted(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, t := range m.tasks {
		if t.Status == models.TaskStatusApproved && t.Exhausted() {
			t.Status = models.TaskStatusCompleted
			t.IsActive = false
			n++
		}
	}
	return n, nil
}

func validParams() CreateParams {
	return CreateParams{
		Title:        "Visit our landing page",
		Description:  "Stay 30 seconds",
		Link:         "https://example.com/landing",
		RewardCents:  500,
		BudgetCents:  5000,
		TimerSeconds: 30,
	}
}

func mustCreate(t *testing.T, svc *Service, publisher uuid.UUID) *models.Task {
	t.Helper()
	task, err := svc.Create(context.Background(), publisher, validParams())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return task
}

func TestCreate(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	publisher := uuid.New()

	task := mustCreate(t, svc, publisher)
	if task.Status != models.TaskStatusPending {
		t.Errorf("status: got %s, want pending", task.Status)
	}
	if task.IsActive {
		t.Error("new task must not be active before approval")
	}
	if task.RemainingBudgetCents != task.TotalBudgetCents {
		t.Errorf("remaining budget: got %d, want %d", task.RemainingBudgetCents, task.TotalBudgetCents)
	}
	if task.PublisherID != publisher {
		t.Error("publisher not recorded")
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	publisher := uuid.New()
	zero := 0

	cases := []struct {
		name   string
		mutate func(*CreateParams)
	}{
		{"empty title", func(p *CreateParams) { p.Title = "  " }},
		{"empty link", func(p *CreateParams) { p.Link = "" }},
		{"zero reward", func(p *CreateParams) { p.RewardCents = 0 }},
		{"negative reward", func(p *CreateParams) { p.RewardCents = -100 }},
		{"budget below reward", func(p *CreateParams) { p.BudgetCents = 400 }},
		{"zero max completions", func(p *CreateParams) { p.MaxCompletions = &zero }},
		{"negative timer", func(p *CreateParams) { p.TimerSeconds = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validParams()
			tc.mutate(&p)
			if _, err := svc.Create(context.Background(), publisher, p); !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestApproveReject(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()
	publisher := uuid.New()

	task := mustCreate(t, svc, publisher)
	if err := svc.Approve(ctx, task.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	got, _ := svc.GetByID(ctx, task.ID)
	if got.Status != models.TaskStatusApproved || !got.IsActive {
		t.Errorf("after approve: status=%s active=%v", got.Status, got.IsActive)
	}

	// Approve is one-shot; rejecting an approved task is also refused.
	if err := svc.Approve(ctx, task.ID); err != ErrInvalidTransition {
		t.Errorf("second approve: expected ErrInvalidTransition, got %v", err)
	}
	if err := svc.Reject(ctx, task.ID, "late"); err != ErrInvalidTransition {
		t.Errorf("reject after approve: expected ErrInvalidTransition, got %v", err)
	}

	other := mustCreate(t, svc, publisher)
	if err := svc.Reject(ctx, other.ID, "link is dead"); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	got, _ = svc.GetByID(ctx, other.ID)
	if got.Status != models.TaskStatusRejected {
		t.Errorf("after reject: status=%s", got.Status)
	}
	if got.RejectReason == nil || *got.RejectReason != "link is dead" {
		t.Error("reject reason not recorded")
	}
	if err := svc.Approve(ctx, other.ID); err != ErrInvalidTransition {
		t.Errorf("approve after reject: expected ErrInvalidTransition, got %v", err)
	}
}

func TestActivatePause(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	task := mustCreate(t, svc, uuid.New())

	// Pending tasks can't be toggled.
	if err := svc.Pause(ctx, task.ID); err != ErrInvalidTransition {
		t.Errorf("pause pending: expected ErrInvalidTransition, got %v", err)
	}

	if err := svc.Approve(ctx, task.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := svc.Pause(ctx, task.ID); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	got, _ := svc.GetByID(ctx, task.ID)
	if got.IsActive {
		t.Error("task still active after pause")
	}
	if err := svc.Activate(ctx, task.ID); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	got, _ = svc.GetByID(ctx, task.ID)
	if !got.IsActive {
		t.Error("task not active after activate")
	}
}

func TestUpdateDetails(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	task := mustCreate(t, svc, uuid.New())
	if err := svc.UpdateDetails(ctx, task.ID, "New title", "new desc", "https://example.com/v2", 45); err != nil {
		t.Fatalf("UpdateDetails: %v", err)
	}
	got, _ := svc.GetByID(ctx, task.ID)
	if got.Title != "New title" || got.Link != "https://example.com/v2" || got.TimerSeconds != 45 {
		t.Error("details not updated")
	}
	if got.RewardPerClickCents != 500 || got.TotalBudgetCents != 5000 {
		t.Error("reward and budget must be immutable")
	}

	if err := svc.UpdateDetails(ctx, task.ID, "", "", "x", 0); !errors.Is(err, ErrValidation) {
		t.Errorf("empty title: expected ErrValidation, got %v", err)
	}

	// Rejected tasks are frozen.
	frozen := mustCreate(t, svc, uuid.New())
	if err := svc.Reject(ctx, frozen.ID, ""); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if err := svc.UpdateDetails(ctx, frozen.ID, "t", "", "https://x", 0); err != ErrInvalidTransition {
		t.Errorf("edit rejected task: expected ErrInvalidTransition, got %v", err)
	}
}

func TestCloseExhausted(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	drained := mustCreate(t, svc, uuid.New())
	if err := svc.Approve(ctx, drained.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	repo.mu.Lock()
	repo.tasks[drained.ID].RemainingBudgetCents = 300 // below the 500 reward
	repo.mu.Unlock()

	healthy := mustCreate(t, svc, uuid.New())
	if err := svc.Approve(ctx, healthy.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	n, err := svc.CloseExhausted(ctx)
	if err != nil {
		t.Fatalf("CloseExhausted: %v", err)
	}
	if n != 1 {
		t.Fatalf("closed: got %d, want 1", n)
	}
	got, _ := svc.GetByID(ctx, drained.ID)
	if got.Status != models.TaskStatusCompleted || got.IsActive {
		t.Errorf("drained task: status=%s active=%v", got.Status, got.IsActive)
	}
	got, _ = svc.GetByID(ctx, healthy.ID)
	if got.Status != models.TaskStatusApproved {
		t.Errorf("healthy task must be untouched, got %s", got.Status)
	}
}
