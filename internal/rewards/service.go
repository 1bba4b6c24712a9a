// Package rewards grants ad-view and one-time task rewards against the
// ledger. A task reward is one atomic unit: membership mark and credit
// commit together or not at all.
package rewards

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/berryfarm/backend/internal/models"
)

// ErrUnknownTask is returned for a task id outside the catalog.
var ErrUnknownTask = errors.New("unknown task")

// Ledger is the subset of ledger operations the reward engine composes.
type Ledger interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Credit(ctx context.Context, accountID uuid.UUID, amountCents int64, entryType string, refID *uuid.UUID) (int64, error)
	CreditTx(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amountCents int64, entryType string, refID *uuid.UUID) (int64, error)
	MarkTaskCompleteTx(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, taskID string) error
}

type Config struct {
	AdRewardMinCents int64
	AdRewardMaxCents int64
	// TaskRewards maps one-time task ids to their fixed reward.
	TaskRewards map[string]int64
}

type Service struct {
	ledger Ledger
	cfg    Config
}

func NewService(ledger Ledger, cfg Config) *Service {
	return &Service{ledger: ledger, cfg: cfg}
}

// GrantAdReward credits a uniformly random amount from the configured
// range and returns the new balance. Repeatable without limit.
func (s *Service) GrantAdReward(ctx context.Context, accountID uuid.UUID) (int64, error) {
	return s.ledger.Credit(ctx, accountID, s.rollAdReward(), models.EntryAdReward, nil)
}

// GrantTaskReward marks the one-time task complete and credits its fixed
// reward in one transaction. A replay, sequential or concurrent, fails
// with ledger.ErrAlreadyCompleted and leaves the balance untouched.
func (s *Service) GrantTaskReward(ctx context.Context, accountID uuid.UUID, taskID string) (int64, error) {
	amount, ok := s.cfg.TaskRewards[taskID]
	if !ok {
		return 0, ErrUnknownTask
	}
	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if err := s.ledger.MarkTaskCompleteTx(ctx, tx, accountID, taskID); err != nil {
		return 0, err
	}
	newBalance, err := s.ledger.CreditTx(ctx, tx, accountID, amount, models.EntryTaskReward, nil)
	if err != nil {
		return 0, err
	}
	return newBalance, tx.Commit(ctx)
}

func (s *Service) rollAdReward() int64 {
	span := s.cfg.AdRewardMaxCents - s.cfg.AdRewardMinCents
	if span <= 0 {
		return s.cfg.AdRewardMinCents
	}
	return s.cfg.AdRewardMinCents + rand.Int64N(span+1)
}
