package models

import (
	"time"

	"github.com/google/uuid"
)

// Withdrawal request statuses. pending is the only non-terminal state.
const (
	WithdrawalPending  = "pending"
	WithdrawalApproved = "approved"
	WithdrawalRejected = "rejected"
)

type WithdrawalRequest struct {
	ID              uuid.UUID  `json:"id"`
	AccountID       uuid.UUID  `json:"account_id"`
	AmountCents     int64      `json:"amount_cents"`
	EvidenceURI     string     `json:"evidence_uri"`
	Method          string     `json:"method"`
	Status          string     `json:"status"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
}
