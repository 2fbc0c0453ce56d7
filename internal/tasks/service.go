package tasks

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/clickwage/backend/internal/models"
)

// ErrInvalidTransition is returned when a task is not in the source
// state an operation expects (e.g. approving a task twice).
var ErrInvalidTransition = errors.New("task is not in the expected state")

// ErrValidation is returned for malformed task specs, before any mutation.
var ErrValidation = errors.New("invalid task")

// Repo is the task store interface the registry needs. Conditional
// mutations report whether they applied, so duplicate admin clicks
// surface as ErrInvalidTransition instead of silently re-running.
type Repo interface {
	Create(ctx context.Context, t *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to string, active bool, rejectReason *string) (bool, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, title, description, link string, timerSeconds int) (bool, error)
	CloseExhausted(ctx context.Context) (int64, error)
}

type CreateParams struct {
	Title          string
	Description    string
	Link           string
	RewardCents    int64
	BudgetCents    int64
	MaxCompletions *int
	TimerSeconds   int
}

type Service struct {
	repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

// Create publishes a task in pending state. The publisher's wallet is
// not debited here; budget is spent per completion.
func (s *Service) Create(ctx context.Context, publisherID uuid.UUID, p CreateParams) (*models.Task, error) {
	p.Title = strings.TrimSpace(p.Title)
	p.Link = strings.TrimSpace(p.Link)
	switch {
	case p.Title == "":
		return nil, errValidation("title is required")
	case p.Link == "":
		return nil, errValidation("link is required")
	case p.RewardCents <= 0:
		return nil, errValidation("reward_per_click_cents must be > 0")
	case p.BudgetCents < p.RewardCents:
		return nil, errValidation("total_budget_cents must cover at least one click")
	case p.MaxCompletions != nil && *p.MaxCompletions <= 0:
		return nil, errValidation("max_completions must be > 0 when set")
	case p.TimerSeconds < 0:
		return nil, errValidation("timer_seconds must be >= 0")
	}

	t := &models.Task{
		ID:                   uuid.New(),
		PublisherID:          publisherID,
		Title:                p.Title,
		Description:          p.Description,
		Link:                 p.Link,
		RewardPerClickCents:  p.RewardCents,
		TotalBudgetCents:     p.BudgetCents,
		RemainingBudgetCents: p.BudgetCents,
		MaxCompletions:       p.MaxCompletions,
		Status:               models.TaskStatusPending,
		IsActive:             false,
		TimerSeconds:         p.TimerSeconds,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Approve moves pending -> approved and activates the task.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) error {
	applied, err := s.repo.TransitionStatus(ctx, id, models.TaskStatusPending, models.TaskStatusApproved, true, nil)
	if err != nil {
		return err
	}
	if !applied {
		return ErrInvalidTransition
	}
	return nil
}

// Reject moves pending -> rejected. One-shot, like Approve.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason string) error {
	var rp *string
	if reason != "" {
		rp = &reason
	}
	applied, err := s.repo.TransitionStatus(ctx, id, models.TaskStatusPending, models.TaskStatusRejected, false, rp)
	if err != nil {
		return err
	}
	if !applied {
		return ErrInvalidTransition
	}
	return nil
}

// Activate and Pause toggle the orthogonal active flag on approved tasks.
func (s *Service) Activate(ctx context.Context, id uuid.UUID) error {
	return s.setActive(ctx, id, true)
}

func (s *Service) Pause(ctx context.Context, id uuid.UUID) error {
	return s.setActive(ctx, id, false)
}

func (s *Service) setActive(ctx context.Context, id uuid.UUID, active bool) error {
	applied, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return err
	}
	if !applied {
		return ErrInvalidTransition
	}
	return nil
}

// UpdateDetails edits the presentational fields of a task. Reward and
// budget are immutable after creation; changing them would break the
// remaining_budget accounting.
func (s *Service) UpdateDetails(ctx context.Context, id uuid.UUID, title, description, link string, timerSeconds int) error {
	title = strings.TrimSpace(title)
	link = strings.TrimSpace(link)
	if title == "" || link == "" {
		return errValidation("title and link are required")
	}
	if timerSeconds < 0 {
		return errValidation("timer_seconds must be >= 0")
	}
	applied, err := s.repo.UpdateDetails(ctx, id, title, description, link, timerSeconds)
	if err != nil {
		return err
	}
	if !applied {
		return ErrInvalidTransition
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	return s.repo.GetByID(ctx, id)
}

// CloseExhausted completes approved tasks whose remaining budget can no
// longer fund a click. The completion engine already closes tasks
// inline; this is the periodic backstop.
func (s *Service) CloseExhausted(ctx context.Context) (int64, error) {
	return s.repo.CloseExhausted(ctx)
}

func errValidation(msg string) error {
	return &validationError{msg: msg}
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Is(target error) bool { return target == ErrValidation }
