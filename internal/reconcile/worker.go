// Package reconcile carries the periodic background jobs: a ledger audit
// that checks every balance against the sum of its entries, and a sweep
// that clears uploads nothing ever came to reference.
package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
)

type LedgerAuditArgs struct{}

func (LedgerAuditArgs) Kind() string { return "ledger_audit" }

// LedgerAuditWorker verifies, per account, that balance_cents equals the
// signed sum of ledger entries. Drift means a mutation bypassed the
// ledger; it is logged, never silently corrected.
type LedgerAuditWorker struct {
	river.WorkerDefaults[LedgerAuditArgs]
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewLedgerAuditWorker(pool *pgxpool.Pool, log *slog.Logger) *LedgerAuditWorker {
	if log == nil {
		log = slog.Default()
	}
	return &LedgerAuditWorker{pool: pool, log: log}
}

func (w *LedgerAuditWorker) Work(ctx context.Context, job *river.Job[LedgerAuditArgs]) error {
	rows, err := w.pool.Query(ctx, `
		SELECT a.id, a.balance_cents, COALESCE(SUM(
			CASE WHEN e.entry_type = 'withdrawal_hold' THEN -e.amount_cents ELSE e.amount_cents END
		), 0) AS ledger_sum
		FROM accounts a
		LEFT JOIN ledger_entries e ON e.account_id = a.id
		GROUP BY a.id, a.balance_cents
		HAVING a.balance_cents <> COALESCE(SUM(
			CASE WHEN e.entry_type = 'withdrawal_hold' THEN -e.amount_cents ELSE e.amount_cents END
		), 0)
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	drifted := 0
	for rows.Next() {
		var accountID uuid.UUID
		var balance, ledgerSum int64
		if err := rows.Scan(&accountID, &balance, &ledgerSum); err != nil {
			return err
		}
		drifted++
		w.log.Error("ledger drift detected",
			"account_id", accountID, "balance_cents", balance, "ledger_sum_cents", ledgerSum)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if drifted == 0 {
		w.log.Info("ledger audit clean")
	}
	return nil
}

type EvidenceSweepArgs struct{}

func (EvidenceSweepArgs) Kind() string { return "evidence_sweep" }

// OrphanSweeper is the uploads surface the sweep needs.
type OrphanSweeper interface {
	SweepOrphans(ctx context.Context, cutoff time.Time) (int64, error)
}

// EvidenceSweepWorker deletes uploads that are older than a day and were
// never attached to a withdrawal request or support message. Uploads
// happen before submission, so an abandoned submission leaves one behind.
type EvidenceSweepWorker struct {
	river.WorkerDefaults[EvidenceSweepArgs]
	sweeper OrphanSweeper
	log     *slog.Logger
}

func NewEvidenceSweepWorker(sweeper OrphanSweeper, log *slog.Logger) *EvidenceSweepWorker {
	if log == nil {
		log = slog.Default()
	}
	return &EvidenceSweepWorker{sweeper: sweeper, log: log}
}

func (w *EvidenceSweepWorker) Work(ctx context.Context, job *river.Job[EvidenceSweepArgs]) error {
	removed, err := w.sweeper.SweepOrphans(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		return err
	}
	if removed > 0 {
		w.log.Info("swept orphaned uploads", "count", removed)
	}
	return nil
}
