package reviews

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/berryfarm/backend/internal/middleware"
	"github.com/berryfarm/backend/internal/models"
)

// Store is the repository surface the handler needs.
type Store interface {
	Create(ctx context.Context, rev *models.Review) error
	List(ctx context.Context) ([]*models.Review, error)
}

type CreateRequest struct {
	DisplayName string `json:"display_name"`
	Content     string `json:"content"`
	Rating      int    `json:"rating"`
}

type CreateResponse struct {
	ID string `json:"id"`
}

type ReviewResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Content     string `json:"content"`
	Rating      int    `json:"rating"`
	CreatedAt   string `json:"created_at"`
}

type Handler struct {
	store Store
	log   *slog.Logger
}

func NewHandler(store Store, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{store: store, log: log}
}

// Create handles POST /api/v1/reviews.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromCtx(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.Content == "" || req.DisplayName == "" {
		http.Error(w, `{"error":"display_name and content are required"}`, http.StatusBadRequest)
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		http.Error(w, `{"error":"rating must be between 1 and 5"}`, http.StatusBadRequest)
		return
	}
	rev := &models.Review{
		ID:          uuid.New(),
		AccountID:   accountID,
		DisplayName: req.DisplayName,
		Content:     req.Content,
		Rating:      req.Rating,
	}
	if err := h.store.Create(r.Context(), rev); err != nil {
		if errors.Is(err, ErrAlreadyReviewed) {
			http.Error(w, `{"error":"review already submitted"}`, http.StatusConflict)
			return
		}
		h.log.Error("create review failed", "account_id", accountID, "error", err)
		http.Error(w, `{"error":"store unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusCreated, CreateResponse{ID: rev.ID.String()})
}

// List handles GET /api/v1/reviews.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context())
	if err != nil {
		h.log.Error("list reviews failed", "error", err)
		http.Error(w, `{"error":"store unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	resp := make([]ReviewResponse, 0, len(list))
	for _, rev := range list {
		resp = append(resp, ReviewResponse{
			ID:          rev.ID.String(),
			DisplayName: rev.DisplayName,
			Content:     rev.Content,
			Rating:      rev.Rating,
			CreatedAt:   rev.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
