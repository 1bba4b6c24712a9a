package support

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/berryfarm/backend/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends a message. IDs are ULIDs so the log sorts by id as well
// as by created_at.
func (r *Repository) Insert(ctx context.Context, m *models.SupportMessage) error {
	m.ID = ulid.Make().String()
	return r.pool.QueryRow(ctx, `
		INSERT INTO support_messages (id, account_id, is_operator_reply, content, image_uri)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, m.ID, m.AccountID, m.IsOperatorReply, m.Content, m.ImageURI).Scan(&m.CreatedAt)
}

// ListByAccount returns the account's thread, oldest first.
func (r *Repository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.SupportMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, is_operator_reply, content, image_uri, created_at
		FROM support_messages WHERE account_id = $1 ORDER BY created_at ASC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.SupportMessage
	for rows.Next() {
		var m models.SupportMessage
		if err := rows.Scan(&m.ID, &m.AccountID, &m.IsOperatorReply, &m.Content, &m.ImageURI, &m.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// ListThreads aggregates the flat log into one row per account carrying
// its latest message, most recent thread first.
func (r *Repository) ListThreads(ctx context.Context) ([]*models.SupportThread, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.account_id, a.nickname, t.content, t.created_at
		FROM (
			SELECT DISTINCT ON (account_id) account_id, content, created_at
			FROM support_messages
			ORDER BY account_id, created_at DESC
		) t
		JOIN accounts a ON a.id = t.account_id
		ORDER BY t.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.SupportThread
	for rows.Next() {
		var t models.SupportThread
		if err := rows.Scan(&t.AccountID, &t.Nickname, &t.LastMessage, &t.LastTimestamp); err != nil {
			return nil, err
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}
