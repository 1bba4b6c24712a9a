package leaderboard

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/berryfarm/backend/internal/money"
)

const defaultLimit = 50

type EntryResponse struct {
	Rank     int    `json:"rank"`
	Nickname string `json:"nickname"`
	Balance  string `json:"balance"`
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

// Top handles GET /api/v1/leaderboard?limit=.
func (h *Handler) Top(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			http.Error(w, `{"error":"limit must be 1-200"}`, http.StatusBadRequest)
			return
		}
		limit = n
	}
	list, err := h.svc.Top(r.Context(), limit)
	if err != nil {
		h.log.Error("leaderboard failed", "error", err)
		http.Error(w, `{"error":"store unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	resp := make([]EntryResponse, 0, len(list))
	for i, e := range list {
		resp = append(resp, EntryResponse{
			Rank:     i + 1,
			Nickname: e.Nickname,
			Balance:  money.FormatCents(e.BalanceCents),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
