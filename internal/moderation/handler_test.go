package moderation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/berryfarm/backend/internal/models"
	"github.com/berryfarm/backend/internal/withdrawals"
)

// --- noopTx satisfies pgx.Tx for test use; only Commit/Rollback are called. ---

type noopTx struct{}

func (noopTx) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }
func (noopTx) Commit(context.Context) error          { return nil }
func (noopTx) Rollback(context.Context) error        { return nil }
func (noopTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (noopTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (noopTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (noopTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (noopTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (noopTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (noopTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (noopTx) Conn() *pgx.Conn { return nil }

type mockRequests struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*models.WithdrawalRequest
	queue    []*withdrawals.QueueItem
}

func (m *mockRequests) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }

func (m *mockRequests) CreateTx(_ context.Context, _ pgx.Tx, req *models.WithdrawalRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *req
	m.requests[req.ID] = &cp
	return nil
}

func (m *mockRequests) GetByID(_ context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *req
	return &cp, nil
}

func (m *mockRequests) Approve(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok || req.Status != models.WithdrawalPending {
		return false, nil
	}
	req.Status = models.WithdrawalApproved
	return true, nil
}

func (m *mockRequests) RejectTx(_ context.Context, _ pgx.Tx, id uuid.UUID, reason *string) (uuid.UUID, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok || req.Status != models.WithdrawalPending {
		return uuid.Nil, 0, pgx.ErrNoRows
	}
	req.Status = models.WithdrawalRejected
	req.RejectionReason = reason
	return req.AccountID, req.AmountCents, nil
}

func (m *mockRequests) ListByAccount(context.Context, uuid.UUID) ([]*models.WithdrawalRequest, error) {
	return nil, nil
}

func (m *mockRequests) ListQueue(_ context.Context, status string) ([]*withdrawals.QueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*withdrawals.QueueItem
	for _, item := range m.queue {
		if status == "" || item.Status == status {
			out = append(out, item)
		}
	}
	return out, nil
}

type mockLedger struct {
	mu       sync.Mutex
	credited int64
}

func (m *mockLedger) DebitExactTx(_ context.Context, _ pgx.Tx, _ uuid.UUID, amountCents int64, _ string, _ *uuid.UUID) (int64, error) {
	return 0, nil
}

func (m *mockLedger) CreditTx(_ context.Context, _ pgx.Tx, _ uuid.UUID, amountCents int64, _ string, _ *uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credited += amountCents
	return m.credited, nil
}

type allEvidence struct{}

func (allEvidence) Exists(context.Context, string) (bool, error) { return true, nil }

func newHandler(repo *mockRequests, led *mockLedger) *Handler {
	svc := withdrawals.NewService(repo, led, allEvidence{}, func(uuid.UUID) int64 { return 0 })
	return NewHandler(svc, nil)
}

func pendingRequest(repo *mockRequests, amount int64) uuid.UUID {
	id := uuid.New()
	repo.requests[id] = &models.WithdrawalRequest{
		ID: id, AccountID: uuid.New(), AmountCents: amount, Status: models.WithdrawalPending,
	}
	return id
}

func actionRequest(method, path, id string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.SetPathValue("id", id)
	return req
}

func TestApproveHandler(t *testing.T) {
	repo := &mockRequests{requests: make(map[uuid.UUID]*models.WithdrawalRequest)}
	led := &mockLedger{}
	handler := newHandler(repo, led)
	id := pendingRequest(repo, 100000)

	rec := httptest.NewRecorder()
	handler.Approve(rec, actionRequest(http.MethodPost, "/api/v1/moderation/withdrawals/x/approve", id.String()))
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: got %d, want 200", rec.Code)
	}
	if led.credited != 0 {
		t.Errorf("approve must not credit anything, credited %d", led.credited)
	}

	// Already resolved.
	rec = httptest.NewRecorder()
	handler.Approve(rec, actionRequest(http.MethodPost, "/api/v1/moderation/withdrawals/x/approve", id.String()))
	if rec.Code != http.StatusConflict {
		t.Errorf("second approve: got %d, want 409", rec.Code)
	}

	// Garbage id.
	rec = httptest.NewRecorder()
	handler.Approve(rec, actionRequest(http.MethodPost, "/api/v1/moderation/withdrawals/x/approve", "not-a-uuid"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: got %d, want 400", rec.Code)
	}
}

func TestRejectHandler(t *testing.T) {
	repo := &mockRequests{requests: make(map[uuid.UUID]*models.WithdrawalRequest)}
	led := &mockLedger{}
	handler := newHandler(repo, led)
	id := pendingRequest(repo, 100000)

	rec := httptest.NewRecorder()
	handler.Reject(rec, actionRequest(http.MethodPost, "/api/v1/moderation/withdrawals/x/reject", id.String()))
	if rec.Code != http.StatusOK {
		t.Fatalf("reject: got %d, want 200", rec.Code)
	}
	if led.credited != 100000 {
		t.Errorf("reject must refund the hold: credited %d, want 100000", led.credited)
	}

	// A retry must not refund again.
	rec = httptest.NewRecorder()
	handler.Reject(rec, actionRequest(http.MethodPost, "/api/v1/moderation/withdrawals/x/reject", id.String()))
	if rec.Code != http.StatusConflict {
		t.Errorf("second reject: got %d, want 409", rec.Code)
	}
	if led.credited != 100000 {
		t.Errorf("double refund: credited %d, want 100000", led.credited)
	}
}

func TestGetHandler(t *testing.T) {
	repo := &mockRequests{requests: make(map[uuid.UUID]*models.WithdrawalRequest)}
	handler := newHandler(repo, &mockLedger{})
	id := pendingRequest(repo, 100000)

	rec := httptest.NewRecorder()
	handler.Get(rec, actionRequest(http.MethodGet, "/api/v1/moderation/withdrawals/x", id.String()))
	if rec.Code != http.StatusOK {
		t.Fatalf("get: got %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.Get(rec, actionRequest(http.MethodGet, "/api/v1/moderation/withdrawals/x", uuid.NewString()))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: got %d, want 404", rec.Code)
	}
}

func TestListQueueHandler(t *testing.T) {
	repo := &mockRequests{
		requests: make(map[uuid.UUID]*models.WithdrawalRequest),
		queue: []*withdrawals.QueueItem{
			{
				WithdrawalRequest: models.WithdrawalRequest{ID: uuid.New(), AccountID: uuid.New(), AmountCents: 100000, Status: models.WithdrawalPending},
				Nickname:          "berry_fan",
			},
			{
				WithdrawalRequest: models.WithdrawalRequest{ID: uuid.New(), AccountID: uuid.New(), AmountCents: 150000, Status: models.WithdrawalApproved},
				Nickname:          "user_cafe0042",
			},
		},
	}
	handler := newHandler(repo, &mockLedger{})

	rec := httptest.NewRecorder()
	handler.ListQueue(rec, httptest.NewRequest(http.MethodGet, "/api/v1/moderation/withdrawals?status=pending", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("filtered queue: got %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ListQueue(rec, httptest.NewRequest(http.MethodGet, "/api/v1/moderation/withdrawals?status=bogus", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bogus filter: got %d, want 400", rec.Code)
	}
}
