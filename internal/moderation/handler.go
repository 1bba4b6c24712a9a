// Package moderation is the operator-facing surface for resolving pending
// withdrawal requests. State transitions delegate to the withdrawal
// workflow; this package only adds the queue view and role-gated HTTP.
package moderation

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/berryfarm/backend/internal/models"
	"github.com/berryfarm/backend/internal/money"
	"github.com/berryfarm/backend/internal/withdrawals"
)

type QueueItemResponse struct {
	ID              string  `json:"id"`
	AccountID       string  `json:"account_id"`
	Nickname        string  `json:"nickname,omitempty"`
	Amount          string  `json:"amount"`
	EvidenceURI     string  `json:"evidence_uri"`
	Method          string  `json:"method"`
	Status          string  `json:"status"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

type RejectRequest struct {
	Reason *string `json:"reason,omitempty"`
}

type Handler struct {
	svc *withdrawals.Service
	log *slog.Logger
}

func NewHandler(svc *withdrawals.Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

// ListQueue handles GET /api/v1/moderation/withdrawals?status=.
func (h *Handler) ListQueue(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch status {
	case "", models.WithdrawalPending, models.WithdrawalApproved, models.WithdrawalRejected:
	default:
		http.Error(w, `{"error":"invalid status filter"}`, http.StatusBadRequest)
		return
	}
	list, err := h.svc.ListQueue(r.Context(), status)
	if err != nil {
		h.log.Error("list moderation queue failed", "error", err)
		http.Error(w, `{"error":"store unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	resp := make([]QueueItemResponse, 0, len(list))
	for _, item := range list {
		resp = append(resp, QueueItemResponse{
			ID:              item.ID.String(),
			AccountID:       item.AccountID.String(),
			Nickname:        item.Nickname,
			Amount:          money.FormatCents(item.AmountCents),
			EvidenceURI:     item.EvidenceURI,
			Method:          item.Method,
			Status:          item.Status,
			RejectionReason: item.RejectionReason,
			CreatedAt:       item.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/moderation/withdrawals/{id} — the detail view
// an operator opens before resolving a request.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid request id"}`, http.StatusBadRequest)
		return
	}
	req, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"request not found"}`, http.StatusNotFound)
			return
		}
		h.log.Error("get withdrawal failed", "request_id", id, "error", err)
		http.Error(w, `{"error":"store unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, QueueItemResponse{
		ID:              req.ID.String(),
		AccountID:       req.AccountID.String(),
		Amount:          money.FormatCents(req.AmountCents),
		EvidenceURI:     req.EvidenceURI,
		Method:          req.Method,
		Status:          req.Status,
		RejectionReason: req.RejectionReason,
		CreatedAt:       req.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// Approve handles POST /api/v1/moderation/withdrawals/{id}/approve.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid request id"}`, http.StatusBadRequest)
		return
	}
	if err := h.svc.Approve(r.Context(), id); err != nil {
		if errors.Is(err, withdrawals.ErrInvalidState) {
			http.Error(w, `{"error":"request is not pending"}`, http.StatusConflict)
			return
		}
		h.log.Error("approve withdrawal failed", "request_id", id, "error", err)
		http.Error(w, `{"error":"store unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Reject handles POST /api/v1/moderation/withdrawals/{id}/reject.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid request id"}`, http.StatusBadRequest)
		return
	}
	var req RejectRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
			return
		}
	}
	if err := h.svc.Reject(r.Context(), id, req.Reason); err != nil {
		if errors.Is(err, withdrawals.ErrInvalidState) {
			http.Error(w, `{"error":"request is not pending"}`, http.StatusConflict)
			return
		}
		h.log.Error("reject withdrawal failed", "request_id", id, "error", err)
		http.Error(w, `{"error":"store unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
