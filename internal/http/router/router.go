// Package router assembles the HTTP mux and the middleware chain.
package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	linkctrl "github.com/snapcal/registrar/internal/http/controllers/link"

	"github.com/snapcal/registrar/internal/config"
	"github.com/snapcal/registrar/internal/http/helpers"
	"github.com/snapcal/registrar/internal/http/middlewares"
	"github.com/snapcal/registrar/internal/http/services"
	"github.com/snapcal/registrar/internal/ratelimit"
)

// New builds the full handler tree.
func New(cfg *config.Config, svcs *services.Services) http.Handler {
	startLimiter := ratelimit.New(cfg.Rate.StartPerMinute, cfg.Rate.StartBurst)
	// The callback is open to the internet; bucket it per client IP so
	// state guessing stays expensive.
	callbackLimiter := ratelimit.New(cfg.Rate.StartPerMinute*4, cfg.Rate.StartBurst*4)

	start := linkctrl.NewStartController(svcs.Start, startLimiter)
	callback := linkctrl.NewCallbackController(svcs.Callback)
	accounts := linkctrl.NewAccountsController(svcs.Directory)
	admin := linkctrl.NewAdminController(svcs.Admin)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/link/start", start.Start)
	mux.Handle("GET /v1/link/callback",
		middlewares.Chain(http.HandlerFunc(callback.Callback),
			middlewares.WithNoStore(),
			middlewares.WithRateLimit(callbackLimiter, nil),
		))

	mux.HandleFunc("GET /v1/identities/{externalID}/status", accounts.Status)
	mux.HandleFunc("GET /v1/identities/{externalID}/accounts", accounts.List)
	mux.HandleFunc("POST /v1/identities/{externalID}/active", accounts.SwitchActive)

	mux.Handle("POST /v1/admin/sessions/sweep",
		middlewares.Chain(http.HandlerFunc(admin.Sweep), middlewares.WithAdminKey(cfg.Server.AdminAPIKey)))

	return middlewares.Chain(mux,
		middlewares.WithRecover(),
		middlewares.WithRequestID(),
		middlewares.WithLogging(),
		middlewares.WithSecurityHeaders(),
	)
}
