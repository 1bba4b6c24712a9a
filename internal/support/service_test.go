package support

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/berryfarm/backend/internal/models"
)

type mockMessages struct {
	mu       sync.Mutex
	messages []*models.SupportMessage
}

func (m *mockMessages) Insert(_ context.Context, msg *models.SupportMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = ulid.Make().String()
	msg.CreatedAt = time.Now()
	cp := *msg
	m.messages = append(m.messages, &cp)
	return nil
}

func (m *mockMessages) ListByAccount(_ context.Context, accountID uuid.UUID) ([]*models.SupportMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.SupportMessage
	for _, msg := range m.messages {
		if msg.AccountID == accountID {
			cp := *msg
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockMessages) ListThreads(context.Context) ([]*models.SupportThread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Latest message per account, most recent thread first.
	latest := make(map[uuid.UUID]*models.SupportMessage)
	for _, msg := range m.messages {
		if cur, ok := latest[msg.AccountID]; !ok || msg.ID > cur.ID {
			latest[msg.AccountID] = msg
		}
	}
	var out []*models.SupportThread
	for id, msg := range latest {
		out = append(out, &models.SupportThread{
			AccountID:     id,
			LastMessage:   msg.Content,
			LastTimestamp: msg.CreatedAt,
		})
	}
	return out, nil
}

type mockImages map[string]bool

func (m mockImages) Exists(_ context.Context, uri string) (bool, error) { return m[uri], nil }

func TestPostMessage(t *testing.T) {
	account := uuid.New()
	repo := &mockMessages{}
	svc := NewService(repo, mockImages{"/uploads/screenshot": true})
	ctx := context.Background()

	id, err := svc.PostMessage(ctx, account, "  my balance looks wrong  ", nil)
	if err != nil {
		t.Fatalf("PostMessage: %v", err)
	}
	if id == "" {
		t.Fatal("expected a message id")
	}

	msgs, err := svc.ListMessages(ctx, account)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("messages: got %d, want 1", len(msgs))
	}
	if msgs[0].Content != "my balance looks wrong" {
		t.Errorf("content should be trimmed: got %q", msgs[0].Content)
	}
	if msgs[0].IsOperatorReply {
		t.Error("user message must not be flagged as operator reply")
	}
}

func TestPostMessage_Validation(t *testing.T) {
	account := uuid.New()
	repo := &mockMessages{}
	svc := NewService(repo, mockImages{"/uploads/screenshot": true})
	ctx := context.Background()

	if _, err := svc.PostMessage(ctx, account, "   ", nil); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("blank content: expected ErrEmptyMessage, got %v", err)
	}
	missing := "/uploads/deleted"
	if _, err := svc.PostMessage(ctx, account, "see attached", &missing); !errors.Is(err, ErrImageMissing) {
		t.Errorf("missing image: expected ErrImageMissing, got %v", err)
	}
	if len(repo.messages) != 0 {
		t.Errorf("failed posts must not persist: got %d messages", len(repo.messages))
	}

	attached := "/uploads/screenshot"
	if _, err := svc.PostMessage(ctx, account, "see attached", &attached); err != nil {
		t.Fatalf("valid image: %v", err)
	}
}

func TestOperatorReplyJoinsThread(t *testing.T) {
	account := uuid.New()
	repo := &mockMessages{}
	svc := NewService(repo, mockImages{})
	ctx := context.Background()

	if _, err := svc.PostMessage(ctx, account, "where is my payout?", nil); err != nil {
		t.Fatalf("PostMessage: %v", err)
	}
	if _, err := svc.PostOperatorReply(ctx, account, "approved this morning, check your wallet"); err != nil {
		t.Fatalf("PostOperatorReply: %v", err)
	}

	msgs, err := svc.ListMessages(ctx, account)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("thread length: got %d, want 2", len(msgs))
	}
	if msgs[0].IsOperatorReply || !msgs[1].IsOperatorReply {
		t.Error("reply ordering: user message first, operator reply second")
	}

	threads, err := svc.ListThreads(ctx)
	if err != nil {
		t.Fatalf("ListThreads: %v", err)
	}
	if len(threads) != 1 {
		t.Fatalf("threads: got %d, want 1", len(threads))
	}
	if threads[0].LastMessage != "approved this morning, check your wallet" {
		t.Errorf("thread should surface the latest message, got %q", threads[0].LastMessage)
	}
}
