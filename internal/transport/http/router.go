// Package httptransport assembles the HTTP surface: middleware chain, API
// routes, health, and metrics. Handlers stay thin; all business rules live in
// the domain services.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	householdhandler "wardbook/internal/household/handler"
	ledgerhandler "wardbook/internal/ledger/handler"
	lifecyclehandler "wardbook/internal/lifecycle/handler"
	platformmetrics "wardbook/internal/platform/metrics"
	"wardbook/internal/platform/middleware"
)

// Deps carries everything the router mounts.
type Deps struct {
	Households *householdhandler.Handler
	Ledger     *ledgerhandler.Handler
	Lifecycle  *lifecyclehandler.Handler

	TokenValidator middleware.TokenValidator
	TokenIssuer    TokenIssuer
	StaffTokenHash string
	Logger         *slog.Logger
	Metrics        *platformmetrics.Metrics
	RequestTimeout time.Duration
}

// NewRouter builds the full HTTP handler.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	if deps.RequestTimeout > 0 {
		r.Use(middleware.Timeout(deps.RequestTimeout))
	}
	if deps.Metrics != nil {
		r.Use(middleware.Latency(deps.Metrics))
	}

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Bootstrap token issuance sits outside the JWT guard; it is protected
	// by the out-of-band staff token instead.
	if deps.TokenIssuer != nil {
		r.Route("/auth", func(auth chi.Router) {
			auth.Use(middleware.ContentTypeJSON)
			auth.Use(middleware.RequireStaffToken(deps.StaffTokenHash, deps.Logger))
			auth.Post("/token", handleIssueToken(deps.TokenIssuer, deps))
		})
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)
		api.Use(middleware.RequireAuth(deps.TokenValidator, deps.Logger))

		deps.Households.Register(api)
		deps.Ledger.Register(api)
		deps.Lifecycle.Register(api)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
