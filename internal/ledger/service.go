// Package ledger owns every balance mutation. Each mutation is a single
// conditional UPDATE at the store plus an audit entry, committed together,
// so concurrent callers can never lose an update.
package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Service interface {
	Balance(ctx context.Context, accountID uuid.UUID) (int64, error)
	Credit(ctx context.Context, accountID uuid.UUID, amountCents int64, entryType string, refID *uuid.UUID) (int64, error)
	Debit(ctx context.Context, accountID uuid.UUID, amountCents int64, entryType string, refID *uuid.UUID) (int64, error)

	// Tx-scoped primitives for callers composing larger atomic units.
	Begin(ctx context.Context) (pgx.Tx, error)
	CreditTx(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amountCents int64, entryType string, refID *uuid.UUID) (int64, error)
	DebitExactTx(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amountCents int64, entryType string, refID *uuid.UUID) (int64, error)
	MarkTaskCompleteTx(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, taskID string) error
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) Service {
	return &service{repo: repo}
}

var _ Service = (*service)(nil)

func (s *service) Balance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	return s.repo.Balance(ctx, accountID)
}

func (s *service) Credit(ctx context.Context, accountID uuid.UUID, amountCents int64, entryType string, refID *uuid.UUID) (int64, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)
	newBalance, err := s.repo.CreditTx(ctx, tx, accountID, amountCents, entryType, refID)
	if err != nil {
		return 0, err
	}
	return newBalance, tx.Commit(ctx)
}

func (s *service) Debit(ctx context.Context, accountID uuid.UUID, amountCents int64, entryType string, refID *uuid.UUID) (int64, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)
	newBalance, err := s.repo.DebitTx(ctx, tx, accountID, amountCents, entryType, refID)
	if err != nil {
		return 0, err
	}
	return newBalance, tx.Commit(ctx)
}

func (s *service) Begin(ctx context.Context) (pgx.Tx, error) {
	return s.repo.Begin(ctx)
}

func (s *service) CreditTx(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amountCents int64, entryType string, refID *uuid.UUID) (int64, error) {
	return s.repo.CreditTx(ctx, tx, accountID, amountCents, entryType, refID)
}

func (s *service) DebitExactTx(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amountCents int64, entryType string, refID *uuid.UUID) (int64, error) {
	return s.repo.DebitExactTx(ctx, tx, accountID, amountCents, entryType, refID)
}

func (s *service) MarkTaskCompleteTx(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, taskID string) error {
	return s.repo.MarkTaskCompleteTx(ctx, tx, accountID, taskID)
}

// ErrInsufficientFunds is returned when a debit would take the balance below zero.
var ErrInsufficientFunds = errInsufficientFunds

// ErrAlreadyCompleted is returned when a one-time task is replayed.
var ErrAlreadyCompleted = errAlreadyCompleted

// ErrAmountMismatch is returned when a full-balance debit races a concurrent mutation.
var ErrAmountMismatch = errAmountMismatch
