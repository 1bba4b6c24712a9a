package rewards

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/berryfarm/backend/internal/ledger"
	"github.com/berryfarm/backend/internal/middleware"
	"github.com/berryfarm/backend/internal/money"
)

type BalanceResponse struct {
	Balance string `json:"balance"`
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

// GrantAd handles POST /api/v1/rewards/ad.
func (h *Handler) GrantAd(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromCtx(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	newBalance, err := h.svc.GrantAdReward(r.Context(), accountID)
	if err != nil {
		h.log.Error("grant ad reward failed", "account_id", accountID, "error", err)
		http.Error(w, `{"error":"store unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{Balance: money.FormatCents(newBalance)})
}

// GrantTask handles POST /api/v1/rewards/tasks/{taskId}.
func (h *Handler) GrantTask(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromCtx(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	taskID := r.PathValue("taskId")
	newBalance, err := h.svc.GrantTaskReward(r.Context(), accountID, taskID)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownTask):
			http.Error(w, `{"error":"unknown task"}`, http.StatusNotFound)
		case errors.Is(err, ledger.ErrAlreadyCompleted):
			http.Error(w, `{"error":"task already completed"}`, http.StatusConflict)
		default:
			h.log.Error("grant task reward failed", "account_id", accountID, "task_id", taskID, "error", err)
			http.Error(w, `{"error":"store unavailable"}`, http.StatusServiceUnavailable)
		}
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{Balance: money.FormatCents(newBalance)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
