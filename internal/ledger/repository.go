package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/berryfarm/backend/internal/models"
)

var (
	errInsufficientFunds = errors.New("insufficient funds")
	errAlreadyCompleted  = errors.New("task already completed")
	errAmountMismatch    = errors.New("amount does not match current balance")
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// Balance returns the current balance in cents.
func (r *Repository) Balance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var cents int64
	err := r.pool.QueryRow(ctx,
		`SELECT balance_cents FROM accounts WHERE id = $1`, accountID).Scan(&cents)
	return cents, err
}

// CreditTx atomically increases the balance and records a ledger entry.
// The increment happens at the store, never as read-then-write.
func (r *Repository) CreditTx(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amountCents int64, entryType string, refID *uuid.UUID) (int64, error) {
	var newBalance int64
	err := tx.QueryRow(ctx, `
		UPDATE accounts SET balance_cents = balance_cents + $1, updated_at = now()
		WHERE id = $2
		RETURNING balance_cents
	`, amountCents, accountID).Scan(&newBalance)
	if err != nil {
		return 0, err
	}
	if err := r.insertEntry(ctx, tx, accountID, entryType, amountCents, newBalance, refID); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// DebitTx atomically decreases the balance only if it covers amountCents.
func (r *Repository) DebitTx(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amountCents int64, entryType string, refID *uuid.UUID) (int64, error) {
	var newBalance int64
	err := tx.QueryRow(ctx, `
		UPDATE accounts SET balance_cents = balance_cents - $1, updated_at = now()
		WHERE id = $2 AND balance_cents >= $1
		RETURNING balance_cents
	`, amountCents, accountID).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, errInsufficientFunds
	}
	if err != nil {
		return 0, err
	}
	if err := r.insertEntry(ctx, tx, accountID, entryType, amountCents, newBalance, refID); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// DebitExactTx debits only when the balance equals amountCents exactly
// (full-balance withdrawal). Distinguishes "not enough" from "balance
// moved since the caller read it".
func (r *Repository) DebitExactTx(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amountCents int64, entryType string, refID *uuid.UUID) (int64, error) {
	var newBalance int64
	err := tx.QueryRow(ctx, `
		UPDATE accounts SET balance_cents = balance_cents - $1, updated_at = now()
		WHERE id = $2 AND balance_cents = $1
		RETURNING balance_cents
	`, amountCents, accountID).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		var current int64
		if err := tx.QueryRow(ctx,
			`SELECT balance_cents FROM accounts WHERE id = $1`, accountID).Scan(&current); err != nil {
			return 0, err
		}
		if current < amountCents {
			return 0, errInsufficientFunds
		}
		return 0, errAmountMismatch
	}
	if err != nil {
		return 0, err
	}
	if err := r.insertEntry(ctx, tx, accountID, entryType, amountCents, newBalance, refID); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// MarkTaskCompleteTx sets one-time-task membership. The insert is the
// atomicity guard: a concurrent duplicate hits the conflict and reports
// errAlreadyCompleted without touching anything else.
func (r *Repository) MarkTaskCompleteTx(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, taskID string) error {
	result, err := tx.Exec(ctx, `
		INSERT INTO task_completions (account_id, task_id)
		VALUES ($1, $2)
		ON CONFLICT (account_id, task_id) DO NOTHING
	`, accountID, taskID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return errAlreadyCompleted
	}
	return nil
}

// CompletedTasks returns the account's one-time-task set.
func (r *Repository) CompletedTasks(ctx context.Context, accountID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT task_id FROM task_completions WHERE account_id = $1 ORDER BY created_at
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tasks []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ListEntries returns the account's ledger history, newest first.
func (r *Repository) ListEntries(ctx context.Context, accountID uuid.UUID) ([]*models.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, entry_type, amount_cents, balance_after_cents, ref_id, created_at
		FROM ledger_entries WHERE account_id = $1 ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.AccountID, &e.EntryType, &e.AmountCents, &e.BalanceAfterCents, &e.RefID, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

func (r *Repository) insertEntry(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, entryType string, amountCents, balanceAfter int64, refID *uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO ledger_entries (id, account_id, entry_type, amount_cents, balance_after_cents, ref_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New(), accountID, entryType, amountCents, balanceAfter, refID)
	return err
}
