// Package leaderboard ranks accounts by balance. Results are cached in
// Redis for a short TTL; any cache trouble falls through to the store.
package leaderboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	cacheKey = "leaderboard:top"
	cacheTTL = 30 * time.Second
)

type Entry struct {
	Nickname     string `json:"nickname"`
	BalanceCents int64  `json:"balance_cents"`
}

// Ranks is the store surface the service needs.
type Ranks interface {
	Top(ctx context.Context, limit int) ([]Entry, error)
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Top returns user accounts ordered by balance, highest first. Operator
// accounts never appear.
func (r *Repository) Top(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT nickname, balance_cents FROM accounts
		WHERE role = 'user'
		ORDER BY balance_cents DESC, created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Nickname, &e.BalanceCents); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

type Service struct {
	repo  Ranks
	cache *redis.Client // nil disables caching
	log   *slog.Logger
}

func NewService(repo Ranks, cache *redis.Client, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, cache: cache, log: log}
}

// Top serves from cache when it can; the store stays authoritative.
func (s *Service) Top(ctx context.Context, limit int) ([]Entry, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var list []Entry
			if json.Unmarshal(cached, &list) == nil && len(list) >= limit {
				return list[:limit], nil
			}
		}
	}

	list, err := s.repo.Top(ctx, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(list); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, cacheTTL).Err(); err != nil {
				s.log.Warn("leaderboard cache write failed", "error", err)
			}
		}
	}
	return list, nil
}
