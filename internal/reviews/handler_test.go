package reviews

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/berryfarm/backend/internal/middleware"
	"github.com/berryfarm/backend/internal/models"
)

type mockStore struct {
	mu      sync.Mutex
	reviews []*models.Review
}

func (m *mockStore) Create(_ context.Context, rev *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.reviews {
		if existing.AccountID == rev.AccountID {
			return ErrAlreadyReviewed
		}
	}
	cp := *rev
	m.reviews = append(m.reviews, &cp)
	return nil
}

func (m *mockStore) List(context.Context) ([]*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Review, len(m.reviews))
	copy(out, m.reviews)
	return out, nil
}

func createRequest(account uuid.UUID, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", strings.NewReader(body))
	return req.WithContext(middleware.WithAccount(req.Context(), account, models.RoleUser))
}

func TestCreateReview(t *testing.T) {
	account := uuid.New()
	store := &mockStore{}
	handler := NewHandler(store, nil)

	rec := httptest.NewRecorder()
	handler.Create(rec, createRequest(account, `{"display_name":"Maria","content":"paid out within a day","rating":5}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}

	// One review per account.
	rec = httptest.NewRecorder()
	handler.Create(rec, createRequest(account, `{"display_name":"Maria","content":"changed my mind","rating":1}`))
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate: got %d, want 409", rec.Code)
	}
	if len(store.reviews) != 1 {
		t.Errorf("stored reviews: got %d, want 1", len(store.reviews))
	}
}

func TestCreateReview_Validation(t *testing.T) {
	store := &mockStore{}
	handler := NewHandler(store, nil)
	account := uuid.New()

	cases := []struct {
		name string
		body string
	}{
		{"bad json", `{"rating":`},
		{"blank content", `{"display_name":"Maria","content":"   ","rating":4}`},
		{"blank name", `{"display_name":"","content":"great","rating":4}`},
		{"rating too low", `{"display_name":"Maria","content":"great","rating":0}`},
		{"rating too high", `{"display_name":"Maria","content":"great","rating":6}`},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		handler.Create(rec, createRequest(account, tc.body))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d, want 400", tc.name, rec.Code)
		}
	}
	if len(store.reviews) != 0 {
		t.Errorf("invalid payloads must not persist: got %d reviews", len(store.reviews))
	}
}

func TestListReviews(t *testing.T) {
	store := &mockStore{}
	handler := NewHandler(store, nil)

	for i, account := range []uuid.UUID{uuid.New(), uuid.New()} {
		rec := httptest.NewRecorder()
		body := fmt.Sprintf(`{"display_name":"User","content":"nice app","rating":%d}`, 3+i)
		handler.Create(rec, createRequest(account, body))
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed review %d: got %d", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reviews", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: got %d, want 200", rec.Code)
	}
	var got []ReviewResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("reviews listed: got %d, want 2", len(got))
	}
}
