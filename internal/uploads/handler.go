package uploads

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/berryfarm/backend/internal/middleware"
)

type UploadResponse struct {
	URI string `json:"uri"`
}

type Handler struct {
	repo     *Repository
	maxBytes int64
	log      *slog.Logger
}

func NewHandler(repo *Repository, maxBytes int64, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{repo: repo, maxBytes: maxBytes, log: log}
}

// Store handles POST /api/v1/uploads. The body is the raw image payload;
// Content-Type is recorded as sent.
func (h *Handler) Store(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromCtx(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		http.Error(w, `{"error":"upload too large or unreadable"}`, http.StatusBadRequest)
		return
	}
	if len(data) == 0 {
		http.Error(w, `{"error":"empty upload"}`, http.StatusBadRequest)
		return
	}
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	uri, err := h.repo.Store(r.Context(), accountID, contentType, data)
	if err != nil {
		h.log.Error("store upload failed", "account_id", accountID, "error", err)
		http.Error(w, `{"error":"upload failed"}`, http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(UploadResponse{URI: uri})
}

// Serve handles GET /uploads/{id}.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	u, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		h.log.Error("serve upload failed", "upload_id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", u.ContentType)
	_, _ = w.Write(u.Bytes)
}
