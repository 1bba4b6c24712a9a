package models

import (
	"time"

	"github.com/google/uuid"
)

// Account roles.
const (
	RoleUser     = "user"
	RoleOperator = "operator"
)

type Account struct {
	ID           uuid.UUID `json:"id"`
	DeviceID     string    `json:"-"`
	Nickname     string    `json:"nickname"`
	Role         string    `json:"role"`
	PasswordHash *string   `json:"-"`
	BalanceCents int64     `json:"balance_cents"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
