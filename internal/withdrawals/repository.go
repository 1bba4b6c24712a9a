package withdrawals

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/berryfarm/backend/internal/models"
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

// CreateTx inserts a pending request inside the caller's transaction, so
// the insert commits together with the balance hold.
func (r *Repository) CreateTx(ctx context.Context, tx pgx.Tx, req *models.WithdrawalRequest) error {
	return tx.QueryRow(ctx, `
		INSERT INTO withdrawal_requests (id, account_id, amount_cents, evidence_uri, method, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, req.ID, req.AccountID, req.AmountCents, req.EvidenceURI, req.Method, req.Status).Scan(&req.CreatedAt)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest
	err := r.pool.QueryRow(ctx, `
		SELECT id, account_id, amount_cents, evidence_uri, method, status, rejection_reason, created_at, resolved_at
		FROM withdrawal_requests WHERE id = $1
	`, id).Scan(&req.ID, &req.AccountID, &req.AmountCents, &req.EvidenceURI, &req.Method, &req.Status, &req.RejectionReason, &req.CreatedAt, &req.ResolvedAt)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Approve flips pending → approved. Zero rows means the request was not
// pending: the guard doubles as the two-moderator concurrency control.
func (r *Repository) Approve(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE withdrawal_requests SET status = $2, resolved_at = now()
		WHERE id = $1 AND status = $3
	`, id, models.WithdrawalApproved, models.WithdrawalPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RejectTx flips pending → rejected inside the caller's transaction and
// returns the owner and held amount for the refund. pgx.ErrNoRows means
// the request was not pending.
func (r *Repository) RejectTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, reason *string) (accountID uuid.UUID, amountCents int64, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE withdrawal_requests SET status = $2, rejection_reason = $3, resolved_at = now()
		WHERE id = $1 AND status = $4
		RETURNING account_id, amount_cents
	`, id, models.WithdrawalRejected, reason, models.WithdrawalPending).Scan(&accountID, &amountCents)
	return accountID, amountCents, err
}

func (r *Repository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.WithdrawalRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, amount_cents, evidence_uri, method, status, rejection_reason, created_at, resolved_at
		FROM withdrawal_requests WHERE account_id = $1 ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, err
	}
	return scanRequests(rows)
}

// QueueItem is a withdrawal request annotated with the owner's nickname
// for the moderation view.
type QueueItem struct {
	models.WithdrawalRequest
	Nickname string
}

// ListQueue returns requests for moderation: pending first, then newest
// first. A status filter narrows the result.
func (r *Repository) ListQueue(ctx context.Context, status string) ([]*QueueItem, error) {
	query := `
		SELECT w.id, w.account_id, w.amount_cents, w.evidence_uri, w.method, w.status,
		       w.rejection_reason, w.created_at, w.resolved_at, a.nickname
		FROM withdrawal_requests w
		JOIN accounts a ON a.id = w.account_id`
	args := []any{}
	if status != "" {
		query += ` WHERE w.status = $1`
		args = append(args, status)
	}
	query += `
		ORDER BY (w.status = 'pending') DESC, w.created_at DESC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*QueueItem
	for rows.Next() {
		var item QueueItem
		if err := rows.Scan(&item.ID, &item.AccountID, &item.AmountCents, &item.EvidenceURI, &item.Method,
			&item.Status, &item.RejectionReason, &item.CreatedAt, &item.ResolvedAt, &item.Nickname); err != nil {
			return nil, err
		}
		list = append(list, &item)
	}
	return list, rows.Err()
}

func scanRequests(rows pgx.Rows) ([]*models.WithdrawalRequest, error) {
	defer rows.Close()
	var list []*models.WithdrawalRequest
	for rows.Next() {
		var req models.WithdrawalRequest
		if err := rows.Scan(&req.ID, &req.AccountID, &req.AmountCents, &req.EvidenceURI, &req.Method,
			&req.Status, &req.RejectionReason, &req.CreatedAt, &req.ResolvedAt); err != nil {
			return nil, err
		}
		list = append(list, &req)
	}
	return list, rows.Err()
}
