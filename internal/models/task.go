package models

import (
	"time"

	"github.com/google/uuid"
)

// Task status enum. pending -> approved|rejected is an admin one-shot;
// approved -> completed is automatic when the budget or completion cap
// is exhausted. is_active is only meaningful while approved.
const (
	TaskStatusPending   = "pending"
	TaskStatusApproved  = "approved"
	TaskStatusRejected  = "rejected"
	TaskStatusCompleted = "completed"
)

type Task struct {
	ID                   uuid.UUID `json:"id"`
	PublisherID          uuid.UUID `json:"publisher_id"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	Link                 string    `json:"link"`
	RewardPerClickCents  int64     `json:"reward_per_click_cents"`
	TotalBudgetCents     int64     `json:"total_budget_cents"`
	RemainingBudgetCents int64     `json:"remaining_budget_cents"`
	MaxCompletions       *int      `json:"max_completions,omitempty"`
	CurrentCompletions   int       `json:"current_completions"`
	Status               string    `json:"status"`
	IsActive             bool      `json:"is_active"`
	TimerSeconds         int       `json:"timer_seconds"`
	RejectReason         *string   `json:"reject_reason,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Exhausted reports whether the task can no longer fund a single click.
func (t *Task) Exhausted() bool {
	if t.RemainingBudgetCents < t.RewardPerClickCents {
		return true
	}
	return t.MaxCompletions != nil && t.CurrentCompletions >= *t.MaxCompletions
}
