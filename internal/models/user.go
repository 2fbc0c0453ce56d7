package models

import (
	"time"

	"github.com/google/uuid"
)

// SystemActorID is the ledger actor recorded for mutations the platform
// performs on its own (e.g. the budget-exhaustion sweep).
var SystemActorID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	IsSuspended  bool      `json:"is_suspended"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
