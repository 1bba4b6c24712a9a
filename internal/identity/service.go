package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/berryfarm/backend/internal/models"
)

// ErrInvalidCredentials is returned for a failed operator login.
var ErrInvalidCredentials = errors.New("invalid credentials")

type Service interface {
	// ResolveDevice establishes the stable anonymous identity for a device
	// and returns the account plus a bearer token. Idempotent per device.
	ResolveDevice(ctx context.Context, deviceID string) (*models.Account, string, error)
	// Login authenticates an operator by nickname and password.
	Login(ctx context.Context, nickname, password string) (string, error)
	ValidateToken(ctx context.Context, token string) (uuid.UUID, string, error)
	Get(ctx context.Context, accountID uuid.UUID) (*models.Account, error)
	UpdateNickname(ctx context.Context, accountID uuid.UUID, nickname string) (*models.Account, error)
}

type service struct {
	repo   *Repository
	secret []byte
}

func NewService(repo *Repository, jwtSecret string) *service {
	return &service{repo: repo, secret: []byte(jwtSecret)}
}

var _ Service = (*service)(nil)

type claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

func (s *service) ResolveDevice(ctx context.Context, deviceID string) (*models.Account, string, error) {
	acc, err := s.repo.ResolveByDevice(ctx, deviceID, defaultNickname())
	if err != nil {
		return nil, "", err
	}
	token, err := s.issueToken(acc.ID, acc.Role)
	if err != nil {
		return nil, "", err
	}
	return acc, token, nil
}

func (s *service) Login(ctx context.Context, nickname, password string) (string, error) {
	acc, err := s.repo.GetOperatorByNickname(ctx, nickname)
	if err != nil {
		return "", err
	}
	if acc == nil || acc.PasswordHash == nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*acc.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.issueToken(acc.ID, acc.Role)
}

func (s *service) issueToken(accountID uuid.UUID, role string) (string, error) {
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Role: role,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString(s.secret)
}

func (s *service) ValidateToken(ctx context.Context, token string) (uuid.UUID, string, error) {
	tok, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return uuid.Nil, "", err
	}
	c, ok := tok.Claims.(*claims)
	if !ok || !tok.Valid {
		return uuid.Nil, "", errors.New("invalid token")
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, "", err
	}
	return id, c.Role, nil
}

func (s *service) Get(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	return s.repo.GetByID(ctx, accountID)
}

func (s *service) UpdateNickname(ctx context.Context, accountID uuid.UUID, nickname string) (*models.Account, error) {
	if err := s.repo.UpdateNickname(ctx, accountID, nickname); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, accountID)
}

// SeedOperator hashes the password and inserts the bootstrap operator row
// if it is not there yet.
func (s *service) SeedOperator(ctx context.Context, nickname, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.SeedOperator(ctx, nickname, string(hash))
}

func defaultNickname() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return "user_" + hex.EncodeToString(b)
}
