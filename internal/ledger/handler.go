package ledger

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/berryfarm/backend/internal/middleware"
	"github.com/berryfarm/backend/internal/models"
	"github.com/berryfarm/backend/internal/money"
)

// Entries is the repository surface the handler needs.
type Entries interface {
	ListEntries(ctx context.Context, accountID uuid.UUID) ([]*models.LedgerEntry, error)
}

type EntryResponse struct {
	ID        string `json:"id"`
	EntryType string `json:"entry_type"`
	Amount    string `json:"amount"`
	// Signed delta: holds show up negative, credits positive.
	SignedAmount string `json:"signed_amount"`
	BalanceAfter string `json:"balance_after"`
	RefID        string `json:"ref_id,omitempty"`
	CreatedAt    string `json:"created_at"`
}

type Handler struct {
	entries Entries
	log     *slog.Logger
}

func NewHandler(entries Entries, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{entries: entries, log: log}
}

// History handles GET /api/v1/account/ledger — the caller's full earning
// and withdrawal trail, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromCtx(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	list, err := h.entries.ListEntries(r.Context(), accountID)
	if err != nil {
		h.log.Error("list ledger entries failed", "account_id", accountID, "error", err)
		http.Error(w, `{"error":"store unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	resp := make([]EntryResponse, 0, len(list))
	for _, e := range list {
		item := EntryResponse{
			ID:           e.ID.String(),
			EntryType:    e.EntryType,
			Amount:       money.FormatCents(e.AmountCents),
			SignedAmount: money.FormatCents(e.Signed()),
			BalanceAfter: money.FormatCents(e.BalanceAfterCents),
			CreatedAt:    e.CreatedAt.UTC().Format(time.RFC3339),
		}
		if e.RefID != nil {
			item.RefID = e.RefID.String()
		}
		resp = append(resp, item)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
