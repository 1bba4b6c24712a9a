package withdrawals

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/berryfarm/backend/internal/middleware"
	"github.com/berryfarm/backend/internal/models"
	"github.com/berryfarm/backend/internal/money"
)

type SubmitRequest struct {
	Amount      string `json:"amount"`
	EvidenceURI string `json:"evidence_uri"`
	Method      string `json:"method"`
}

type SubmitResponse struct {
	ID string `json:"id"`
}

type RequestResponse struct {
	ID              string  `json:"id"`
	Amount          string  `json:"amount"`
	EvidenceURI     string  `json:"evidence_uri"`
	Method          string  `json:"method"`
	Status          string  `json:"status"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	CreatedAt       string  `json:"created_at"`
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

// Submit handles POST /api/v1/withdrawals.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromCtx(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.EvidenceURI == "" || req.Method == "" {
		http.Error(w, `{"error":"evidence_uri and method are required"}`, http.StatusBadRequest)
		return
	}
	amountCents, err := money.ParseCents(req.Amount)
	if err != nil {
		http.Error(w, `{"error":"invalid amount"}`, http.StatusBadRequest)
		return
	}

	id, err := h.svc.Submit(r.Context(), accountID, amountCents, req.EvidenceURI, req.Method)
	if err != nil {
		switch {
		case errors.Is(err, ErrMinimumNotMet):
			http.Error(w, `{"error":"amount below withdrawal minimum"}`, http.StatusBadRequest)
		case errors.Is(err, ErrEvidenceMissing):
			http.Error(w, `{"error":"evidence upload not found"}`, http.StatusBadRequest)
		case errors.Is(err, ErrInsufficientFunds):
			http.Error(w, `{"error":"insufficient funds"}`, http.StatusPaymentRequired)
		case errors.Is(err, ErrAmountMismatch):
			http.Error(w, `{"error":"amount must equal current balance"}`, http.StatusConflict)
		default:
			h.log.Error("submit withdrawal failed", "account_id", accountID, "error", err)
			http.Error(w, `{"error":"store unavailable"}`, http.StatusServiceUnavailable)
		}
		return
	}
	writeJSON(w, http.StatusCreated, SubmitResponse{ID: id.String()})
}

// List handles GET /api/v1/withdrawals — the caller's own history.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromCtx(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	list, err := h.svc.ListByAccount(r.Context(), accountID)
	if err != nil {
		h.log.Error("list withdrawals failed", "account_id", accountID, "error", err)
		http.Error(w, `{"error":"store unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	resp := make([]RequestResponse, 0, len(list))
	for _, req := range list {
		resp = append(resp, requestToResponse(req))
	}
	writeJSON(w, http.StatusOK, resp)
}

func requestToResponse(req *models.WithdrawalRequest) RequestResponse {
	return RequestResponse{
		ID:              req.ID.String(),
		Amount:          money.FormatCents(req.AmountCents),
		EvidenceURI:     req.EvidenceURI,
		Method:          req.Method,
		Status:          req.Status,
		RejectionReason: req.RejectionReason,
		CreatedAt:       req.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
