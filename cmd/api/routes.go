package main

import (
	"net/http"

	"github.com/berryfarm/backend/internal/identity"
	"github.com/berryfarm/backend/internal/leaderboard"
	"github.com/berryfarm/backend/internal/ledger"
	"github.com/berryfarm/backend/internal/middleware"
	"github.com/berryfarm/backend/internal/moderation"
	"github.com/berryfarm/backend/internal/reviews"
	"github.com/berryfarm/backend/internal/rewards"
	"github.com/berryfarm/backend/internal/support"
	"github.com/berryfarm/backend/internal/uploads"
	"github.com/berryfarm/backend/internal/withdrawals"
)

// RegisterRoutes wires every endpoint onto the mux. Middleware chain:
// Auth -> (RequireOperator on /moderation/) -> handler.
func RegisterRoutes(
	mux *http.ServeMux,
	validator middleware.TokenValidator,
	identityHandler *identity.Handler,
	ledgerHandler *ledger.Handler,
	rewardsHandler *rewards.Handler,
	withdrawalsHandler *withdrawals.Handler,
	moderationHandler *moderation.Handler,
	supportHandler *support.Handler,
	reviewsHandler *reviews.Handler,
	leaderboardHandler *leaderboard.Handler,
	uploadsHandler *uploads.Handler,
) {
	auth := middleware.Auth(validator)
	operator := func(h http.HandlerFunc) http.Handler {
		return auth(middleware.RequireOperator(h))
	}

	// Identity.
	mux.HandleFunc("POST /api/v1/auth/device", identityHandler.ResolveDevice)
	mux.HandleFunc("POST /api/v1/auth/login", identityHandler.Login)
	mux.Handle("GET /api/v1/account/me", auth(http.HandlerFunc(identityHandler.GetMe)))
	mux.Handle("PATCH /api/v1/account/me", auth(http.HandlerFunc(identityHandler.UpdateMe)))
	mux.Handle("GET /api/v1/account/ledger", auth(http.HandlerFunc(ledgerHandler.History)))

	// Rewards.
	mux.Handle("POST /api/v1/rewards/ad", auth(http.HandlerFunc(rewardsHandler.GrantAd)))
	mux.Handle("POST /api/v1/rewards/tasks/{taskId}", auth(http.HandlerFunc(rewardsHandler.GrantTask)))

	// Withdrawals.
	mux.Handle("POST /api/v1/withdrawals", auth(http.HandlerFunc(withdrawalsHandler.Submit)))
	mux.Handle("GET /api/v1/withdrawals", auth(http.HandlerFunc(withdrawalsHandler.List)))

	// Moderation queue.
	mux.Handle("GET /api/v1/moderation/withdrawals", operator(moderationHandler.ListQueue))
	mux.Handle("GET /api/v1/moderation/withdrawals/{id}", operator(moderationHandler.Get))
	mux.Handle("POST /api/v1/moderation/withdrawals/{id}/approve", operator(moderationHandler.Approve))
	mux.Handle("POST /api/v1/moderation/withdrawals/{id}/reject", operator(moderationHandler.Reject))

	// Support channel.
	mux.Handle("GET /api/v1/support/messages", auth(http.HandlerFunc(supportHandler.List)))
	mux.Handle("POST /api/v1/support/messages", auth(http.HandlerFunc(supportHandler.Post)))
	mux.Handle("GET /api/v1/moderation/support/threads", operator(supportHandler.ListThreads))
	mux.Handle("GET /api/v1/moderation/support/{accountId}/messages", operator(supportHandler.ListForAccount))
	mux.Handle("POST /api/v1/moderation/support/{accountId}/messages", operator(supportHandler.Reply))

	// Reviews and leaderboard; reads are public.
	mux.HandleFunc("GET /api/v1/reviews", reviewsHandler.List)
	mux.Handle("POST /api/v1/reviews", auth(http.HandlerFunc(reviewsHandler.Create)))
	mux.HandleFunc("GET /api/v1/leaderboard", leaderboardHandler.Top)

	// Uploads.
	mux.Handle("POST /api/v1/uploads", auth(http.HandlerFunc(uploadsHandler.Store)))
	mux.HandleFunc("GET /uploads/{id}", uploadsHandler.Serve)
}
