package models

import (
	"time"

	"github.com/google/uuid"
)

// Completion records one user's fulfillment of one task. RewardCents is
// a snapshot of the task's reward at completion time. A (user, task)
// pair completes at most once, enforced by a unique index.
type Completion struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	TaskID      uuid.UUID `json:"task_id"`
	RewardCents int64     `json:"reward_cents"`
	CompletedAt time.Time `json:"completed_at"`
}
