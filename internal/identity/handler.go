package identity

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/berryfarm/backend/internal/middleware"
	"github.com/berryfarm/backend/internal/models"
	"github.com/berryfarm/backend/internal/money"
)

// TaskLookup resolves an account's completed one-time tasks for display.
type TaskLookup interface {
	CompletedTasks(ctx context.Context, accountID uuid.UUID) ([]string, error)
}

type DeviceRequest struct {
	DeviceID string `json:"device_id"`
}

type LoginRequest struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

type AccountResponse struct {
	ID             string   `json:"id"`
	Nickname       string   `json:"nickname"`
	Role           string   `json:"role"`
	Balance        string   `json:"balance"`
	CompletedTasks []string `json:"completed_tasks"`
}

type ResolveResponse struct {
	Token   string          `json:"token"`
	Account AccountResponse `json:"account"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type UpdateNicknameRequest struct {
	Nickname string `json:"nickname"`
}

type Handler struct {
	svc   Service
	tasks TaskLookup
	log   *slog.Logger
}

func NewHandler(svc Service, tasks TaskLookup, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, tasks: tasks, log: log}
}

// ResolveDevice handles POST /api/v1/auth/device.
// A failure here is surfaced as 503, never as a zero-balance account.
func (h *Handler) ResolveDevice(w http.ResponseWriter, r *http.Request) {
	var req DeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	req.DeviceID = strings.TrimSpace(req.DeviceID)
	if req.DeviceID == "" {
		http.Error(w, `{"error":"device_id is required"}`, http.StatusBadRequest)
		return
	}
	acc, token, err := h.svc.ResolveDevice(r.Context(), req.DeviceID)
	if err != nil {
		h.log.Error("resolve device failed", "error", err)
		http.Error(w, `{"error":"identity unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, ResolveResponse{Token: token, Account: h.accountToResponse(r.Context(), acc)})
}

// Login handles POST /api/v1/auth/login (operators only).
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Nickname == "" || req.Password == "" {
		http.Error(w, `{"error":"missing nickname or password"}`, http.StatusBadRequest)
		return
	}
	token, err := h.svc.Login(r.Context(), req.Nickname, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
			return
		}
		h.log.Error("login failed", "error", err)
		http.Error(w, `{"error":"login failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}

// GetMe handles GET /api/v1/account/me.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromCtx(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	acc, err := h.svc.Get(r.Context(), accountID)
	if err != nil {
		h.log.Error("get account failed", "account_id", accountID, "error", err)
		http.Error(w, `{"error":"store unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, h.accountToResponse(r.Context(), acc))
}

// UpdateMe handles PATCH /api/v1/account/me.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromCtx(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req UpdateNicknameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	req.Nickname = strings.TrimSpace(req.Nickname)
	if req.Nickname == "" || len(req.Nickname) > 64 {
		http.Error(w, `{"error":"nickname must be 1-64 characters"}`, http.StatusBadRequest)
		return
	}
	acc, err := h.svc.UpdateNickname(r.Context(), accountID, req.Nickname)
	if err != nil {
		h.log.Error("update nickname failed", "account_id", accountID, "error", err)
		http.Error(w, `{"error":"update failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.accountToResponse(r.Context(), acc))
}

func (h *Handler) accountToResponse(ctx context.Context, a *models.Account) AccountResponse {
	tasks, err := h.tasks.CompletedTasks(ctx, a.ID)
	if err != nil {
		h.log.Error("completed tasks lookup failed", "account_id", a.ID, "error", err)
	}
	if tasks == nil {
		tasks = []string{}
	}
	return AccountResponse{
		ID:             a.ID.String(),
		Nickname:       a.Nickname,
		Role:           a.Role,
		Balance:        money.FormatCents(a.BalanceCents),
		CompletedTasks: tasks,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
