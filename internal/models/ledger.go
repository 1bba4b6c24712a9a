package models

import (
	"time"

	"github.com/google/uuid"
)

// Ledger entry types. Every balance mutation writes exactly one entry.
const (
	EntryAdReward         = "ad_reward"
	EntryTaskReward       = "task_reward"
	EntryWithdrawalHold   = "withdrawal_hold"
	EntryWithdrawalRefund = "withdrawal_refund"
)

// One-time task identifiers known to the reward catalog.
const (
	TaskSubscribeChannel = "subscribe_channel"
	TaskSurveyBerries    = "survey_berries"
)

type LedgerEntry struct {
	ID                uuid.UUID  `json:"id"`
	AccountID         uuid.UUID  `json:"account_id"`
	EntryType         string     `json:"entry_type"`
	AmountCents       int64      `json:"amount_cents"`
	BalanceAfterCents int64      `json:"balance_after_cents"`
	RefID             *uuid.UUID `json:"ref_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Signed returns the delta the entry applied to its account balance.
// Holds deduct, everything else adds.
func (e *LedgerEntry) Signed() int64 {
	if e.EntryType == EntryWithdrawalHold {
		return -e.AmountCents
	}
	return e.AmountCents
}
