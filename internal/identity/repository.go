package identity

import (
	"context"
	"errors"

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

const accountColumns = `id, device_id, nickname, role, password_hash, balance_cents, created_at, updated_at`

// ResolveByDevice returns the account bound to deviceID, creating it with
// a zero balance on first contact. The upsert makes concurrent first
// contacts from the same device converge on a single row.
func (r *Repository) ResolveByDevice(ctx context.Context, deviceID, defaultNickname string) (*models.Account, error) {
	var a models.Account
	err := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (id, device_id, nickname, role, balance_cents)
		VALUES ($1, $2, $3, $4, 0)
		ON CONFLICT (device_id) DO UPDATE SET updated_at = now()
		RETURNING `+accountColumns,
		uuid.New(), deviceID, defaultNickname, models.RoleUser,
	).Scan(&a.ID, &a.DeviceID, &a.Nickname, &a.Role, &a.PasswordHash, &a.BalanceCents, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var a models.Account
	err := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id,
	).Scan(&a.ID, &a.DeviceID, &a.Nickname, &a.Role, &a.PasswordHash, &a.BalanceCents, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetOperatorByNickname returns nil when no operator account matches.
func (r *Repository) GetOperatorByNickname(ctx context.Context, nickname string) (*models.Account, error) {
	var a models.Account
	err := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE nickname = $1 AND role = $2`,
		nickname, models.RoleOperator,
	).Scan(&a.ID, &a.DeviceID, &a.Nickname, &a.Role, &a.PasswordHash, &a.BalanceCents, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) UpdateNickname(ctx context.Context, id uuid.UUID, nickname string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE accounts SET nickname = $2, updated_at = now() WHERE id = $1`, id, nickname)
	return err
}

// SeedOperator inserts an operator account if one with this nickname does
// not exist yet. Used at startup for the bootstrap moderator.
func (r *Repository) SeedOperator(ctx context.Context, nickname, passwordHash string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (id, device_id, nickname, role, password_hash, balance_cents)
		VALUES ($1, $2, $3, $4, $5, 0)
		ON CONFLICT (device_id) DO NOTHING
	`, uuid.New(), "operator:"+nickname, nickname, models.RoleOperator, passwordHash)
	return err
}
