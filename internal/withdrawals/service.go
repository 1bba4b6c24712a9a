// Package withdrawals runs the withdrawal state machine: submit places a
// full-balance hold and a pending request in one transaction; approve and
// reject are terminal, guarded by the pending status so no request can be
// resolved twice.
package withdrawals

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/berryfarm/backend/internal/ledger"
	"github.com/berryfarm/backend/internal/models"
)

var (
	// ErrMinimumNotMet is returned when the amount is below the caller's minimum.
	ErrMinimumNotMet = errors.New("amount below withdrawal minimum")
	// ErrEvidenceMissing is returned when the evidence URI does not resolve
	// to a stored upload.
	ErrEvidenceMissing = errors.New("evidence upload not found")
	// ErrInvalidState is returned when approving or rejecting a request
	// that is no longer pending.
	ErrInvalidState = errors.New("request is not pending")
)

// Ledger is the subset of ledger operations the workflow composes.
type Ledger interface {
	DebitExactTx(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amountCents int64, entryType string, refID *uuid.UUID) (int64, error)
	CreditTx(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amountCents int64, entryType string, refID *uuid.UUID) (int64, error)
}

// EvidenceChecker confirms an evidence URI is retrievable before any debit.
type EvidenceChecker interface {
	Exists(ctx context.Context, uri string) (bool, error)
}

// Requests is the repository surface the service needs; split out so
// tests run against an in-memory implementation.
type Requests interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	CreateTx(ctx context.Context, tx pgx.Tx, req *models.WithdrawalRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	Approve(ctx context.Context, id uuid.UUID) (bool, error)
	RejectTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, reason *string) (uuid.UUID, int64, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.WithdrawalRequest, error)
	ListQueue(ctx context.Context, status string) ([]*QueueItem, error)
}

// MinimumPolicy resolves the withdrawal minimum for an account.
type MinimumPolicy func(accountID uuid.UUID) int64

type Service struct {
	repo     Requests
	ledger   Ledger
	evidence EvidenceChecker
	minimum  MinimumPolicy
}

func NewService(repo Requests, ledger Ledger, evidence EvidenceChecker, minimum MinimumPolicy) *Service {
	return &Service{repo: repo, ledger: ledger, evidence: evidence, minimum: minimum}
}

// Submit validates the request, then holds the amount and persists the
// pending request as one atomic unit. The amount must equal the current
// balance (full-balance withdrawal only).
func (s *Service) Submit(ctx context.Context, accountID uuid.UUID, amountCents int64, evidenceURI, method string) (uuid.UUID, error) {
	if amountCents < s.minimum(accountID) {
		return uuid.Nil, ErrMinimumNotMet
	}
	found, err := s.evidence.Exists(ctx, evidenceURI)
	if err != nil {
		return uuid.Nil, fmt.Errorf("check evidence: %w", err)
	}
	if !found {
		return uuid.Nil, ErrEvidenceMissing
	}

	req := &models.WithdrawalRequest{
		ID:          uuid.New(),
		AccountID:   accountID,
		AmountCents: amountCents,
		EvidenceURI: evidenceURI,
		Method:      method,
		Status:      models.WithdrawalPending,
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := s.ledger.DebitExactTx(ctx, tx, accountID, amountCents, models.EntryWithdrawalHold, &req.ID); err != nil {
		return uuid.Nil, err
	}
	if err := s.repo.CreateTx(ctx, tx, req); err != nil {
		return uuid.Nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, err
	}
	return req.ID, nil
}

// Approve finalizes a pending request. The held amount stays spent, so
// there is no balance effect.
func (s *Service) Approve(ctx context.Context, requestID uuid.UUID) error {
	ok, err := s.repo.Approve(ctx, requestID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidState
	}
	return nil
}

// Reject refunds the held amount and records the terminal state in one
// transaction. The pending-status guard runs first, so a retry after a
// failed commit can never refund twice.
func (s *Service) Reject(ctx context.Context, requestID uuid.UUID, reason *string) error {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	accountID, amountCents, err := s.repo.RejectTx(ctx, tx, requestID, reason)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrInvalidState
	}
	if err != nil {
		return err
	}
	if _, err := s.ledger.CreditTx(ctx, tx, accountID, amountCents, models.EntryWithdrawalRefund, &requestID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Get returns a single request by id.
func (s *Service) Get(ctx context.Context, requestID uuid.UUID) (*models.WithdrawalRequest, error) {
	return s.repo.GetByID(ctx, requestID)
}

// ListByAccount returns the caller's withdrawal history, newest first.
func (s *Service) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.WithdrawalRequest, error) {
	return s.repo.ListByAccount(ctx, accountID)
}

// ListQueue returns the moderation view: pending first, then newest first.
func (s *Service) ListQueue(ctx context.Context, status string) ([]*QueueItem, error) {
	return s.repo.ListQueue(ctx, status)
}

// Re-exported ledger sentinels so handler code matches within one package.
var (
	ErrInsufficientFunds = ledger.ErrInsufficientFunds
	ErrAmountMismatch    = ledger.ErrAmountMismatch
)
