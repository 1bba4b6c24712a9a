// Package uploads stores evidence screenshots and chat images: binary in,
// durable URI out. Rows live in Postgres next to everything else so an
// upload is retrievable the instant the insert commits.
package uploads

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no upload matches the id or URI.
var ErrNotFound = errors.New("upload not found")

type Upload struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	ContentType string
	Bytes       []byte
	CreatedAt   time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Store persists the payload and returns its serving URI.
func (r *Repository) Store(ctx context.Context, accountID uuid.UUID, contentType string, data []byte) (string, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO uploads (id, account_id, content_type, bytes)
		VALUES ($1, $2, $3, $4)
	`, id, accountID, contentType, data)
	if err != nil {
		return "", err
	}
	return URIFor(id), nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Upload, error) {
	var u Upload
	err := r.pool.QueryRow(ctx, `
		SELECT id, account_id, content_type, bytes, created_at FROM uploads WHERE id = $1
	`, id).Scan(&u.ID, &u.AccountID, &u.ContentType, &u.Bytes, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Exists reports whether the URI points at a stored upload. Withdrawal
// submission uses this to confirm evidence is retrievable before any debit.
func (r *Repository) Exists(ctx context.Context, uri string) (bool, error) {
	id, ok := ParseURI(uri)
	if !ok {
		return false, nil
	}
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM uploads WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// SweepOrphans deletes uploads older than cutoff that no withdrawal
// request or support message references. Returns the number removed.
func (r *Repository) SweepOrphans(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM uploads u
		WHERE u.created_at < $1
		  AND NOT EXISTS (SELECT 1 FROM withdrawal_requests w WHERE w.evidence_uri = '/uploads/' || u.id::text)
		  AND NOT EXISTS (SELECT 1 FROM support_messages m WHERE m.image_uri = '/uploads/' || u.id::text)
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// URIFor renders the serving path for an upload id.
func URIFor(id uuid.UUID) string {
	return "/uploads/" + id.String()
}

// ParseURI extracts the upload id from a serving path.
func ParseURI(uri string) (uuid.UUID, bool) {
	rest, ok := strings.CutPrefix(uri, "/uploads/")
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
