// Package support is the append-only per-user message log plus the
// operator inbox built over it. Messages are never edited or deleted.
package support

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/berryfarm/backend/internal/models"
)

var (
	// ErrEmptyMessage is returned when the content is blank.
	ErrEmptyMessage = errors.New("message content is empty")
	// ErrImageMissing is returned when the image URI does not resolve to a
	// stored upload.
	ErrImageMissing = errors.New("image upload not found")
)

// Messages is the repository surface the service needs.
type Messages interface {
	Insert(ctx context.Context, m *models.SupportMessage) error
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.SupportMessage, error)
	ListThreads(ctx context.Context) ([]*models.SupportThread, error)
}

// ImageChecker confirms an attached image URI is retrievable.
type ImageChecker interface {
	Exists(ctx context.Context, uri string) (bool, error)
}

type Service struct {
	repo   Messages
	images ImageChecker
}

func NewService(repo Messages, images ImageChecker) *Service {
	return &Service{repo: repo, images: images}
}

// PostMessage appends a user message, optionally with an image attachment.
func (s *Service) PostMessage(ctx context.Context, accountID uuid.UUID, content string, imageURI *string) (string, error) {
	return s.post(ctx, accountID, content, imageURI, false)
}

// PostOperatorReply appends an operator reply into the same thread.
func (s *Service) PostOperatorReply(ctx context.Context, accountID uuid.UUID, content string) (string, error) {
	return s.post(ctx, accountID, content, nil, true)
}

func (s *Service) post(ctx context.Context, accountID uuid.UUID, content string, imageURI *string, operator bool) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyMessage
	}
	if imageURI != nil {
		found, err := s.images.Exists(ctx, *imageURI)
		if err != nil {
			return "", fmt.Errorf("check image: %w", err)
		}
		if !found {
			return "", ErrImageMissing
		}
	}
	m := &models.SupportMessage{
		AccountID:       accountID,
		IsOperatorReply: operator,
		Content:         content,
		ImageURI:        imageURI,
	}
	if err := s.repo.Insert(ctx, m); err != nil {
		return "", err
	}
	return m.ID, nil
}

// ListMessages returns the account's thread, oldest first.
func (s *Service) ListMessages(ctx context.Context, accountID uuid.UUID) ([]*models.SupportMessage, error) {
	return s.repo.ListByAccount(ctx, accountID)
}

// ListThreads returns the operator inbox, most recent thread first.
func (s *Service) ListThreads(ctx context.Context) ([]*models.SupportThread, error) {
	return s.repo.ListThreads(ctx)
}
