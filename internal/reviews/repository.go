// Package reviews stores one immutable review per account. The
// one-per-account rule is enforced at write time.
package reviews

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/berryfarm/backend/internal/models"
)

// ErrAlreadyReviewed is returned when the account has a review on file.
var ErrAlreadyReviewed = errors.New("account already submitted a review")

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a review unless the account already has one. The unique
// constraint on account_id is the guard, so a concurrent duplicate loses
// cleanly.
func (r *Repository) Create(ctx context.Context, rev *models.Review) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO reviews (id, account_id, display_name, content, rating)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id) DO NOTHING
	`, rev.ID, rev.AccountID, rev.DisplayName, rev.Content, rev.Rating)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyReviewed
	}
	return nil
}

// List returns all reviews, newest first.
func (r *Repository) List(ctx context.Context) ([]*models.Review, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, display_name, content, rating, created_at
		FROM reviews ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Review
	for rows.Next() {
		var rev models.Review
		if err := rows.Scan(&rev.ID, &rev.AccountID, &rev.DisplayName, &rev.Content, &rev.Rating, &rev.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &rev)
	}
	return list, rows.Err()
}
