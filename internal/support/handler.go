package support

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/berryfarm/backend/internal/middleware"
	"github.com/berryfarm/backend/internal/models"
)

type PostMessageRequest struct {
	Content  string  `json:"content"`
	ImageURI *string `json:"image_uri,omitempty"`
}

type PostMessageResponse struct {
	ID string `json:"id"`
}

type MessageResponse struct {
	ID              string  `json:"id"`
	IsOperatorReply bool    `json:"is_operator_reply"`
	Content         string  `json:"content"`
	ImageURI        *string `json:"image_uri,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

type ThreadResponse struct {
	AccountID     string `json:"account_id"`
	Nickname      string `json:"nickname"`
	LastMessage   string `json:"last_message"`
	LastTimestamp string `json:"last_timestamp"`
}

type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

// Post handles POST /api/v1/support/messages.
func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromCtx(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	id, err := h.svc.PostMessage(r.Context(), accountID, req.Content, req.ImageURI)
	if err != nil {
		h.writePostError(w, err, accountID)
		return
	}
	writeJSON(w, http.StatusCreated, PostMessageResponse{ID: id})
}

// List handles GET /api/v1/support/messages — the caller's own thread.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromCtx(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	h.listFor(w, r, accountID)
}

// ListThreads handles GET /api/v1/moderation/support/threads (operator).
func (h *Handler) ListThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := h.svc.ListThreads(r.Context())
	if err != nil {
		h.log.Error("list support threads failed", "error", err)
		http.Error(w, `{"error":"store unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	resp := make([]ThreadResponse, 0, len(threads))
	for _, t := range threads {
		resp = append(resp, ThreadResponse{
			AccountID:     t.AccountID.String(),
			Nickname:      t.Nickname,
			LastMessage:   t.LastMessage,
			LastTimestamp: t.LastTimestamp.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListForAccount handles GET /api/v1/moderation/support/{accountId}/messages (operator).
func (h *Handler) ListForAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(r.PathValue("accountId"))
	if err != nil {
		http.Error(w, `{"error":"invalid account id"}`, http.StatusBadRequest)
		return
	}
	h.listFor(w, r, accountID)
}

// Reply handles POST /api/v1/moderation/support/{accountId}/messages (operator).
func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(r.PathValue("accountId"))
	if err != nil {
		http.Error(w, `{"error":"invalid account id"}`, http.StatusBadRequest)
		return
	}
	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	id, err := h.svc.PostOperatorReply(r.Context(), accountID, req.Content)
	if err != nil {
		h.writePostError(w, err, accountID)
		return
	}
	writeJSON(w, http.StatusCreated, PostMessageResponse{ID: id})
}

func (h *Handler) listFor(w http.ResponseWriter, r *http.Request, accountID uuid.UUID) {
	list, err := h.svc.ListMessages(r.Context(), accountID)
	if err != nil {
		h.log.Error("list support messages failed", "account_id", accountID, "error", err)
		http.Error(w, `{"error":"store unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	resp := make([]MessageResponse, 0, len(list))
	for _, m := range list {
		resp = append(resp, messageToResponse(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writePostError(w http.ResponseWriter, err error, accountID uuid.UUID) {
	switch {
	case errors.Is(err, ErrEmptyMessage):
		http.Error(w, `{"error":"message content is empty"}`, http.StatusBadRequest)
	case errors.Is(err, ErrImageMissing):
		http.Error(w, `{"error":"image upload not found"}`, http.StatusBadRequest)
	default:
		h.log.Error("post support message failed", "account_id", accountID, "error", err)
		http.Error(w, `{"error":"store unavailable"}`, http.StatusServiceUnavailable)
	}
}

func messageToResponse(m *models.SupportMessage) MessageResponse {
	return MessageResponse{
		ID:              m.ID,
		IsOperatorReply: m.IsOperatorReply,
		Content:         m.Content,
		ImageURI:        m.ImageURI,
		CreatedAt:       m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
