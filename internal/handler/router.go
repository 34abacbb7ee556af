/*
Package handler provides the HTTP handlers and routing setup for the relaychat server.

This file defines the main Router, applying necessary middleware like logging, CORS,
and IP-based rate limiting before delegating requests to specific handlers (API and WebSocket).
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"relaychat/internal/pkg/auth/jwt"
	"relaychat/internal/pkg/limiter"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/pow"
	"relaychat/internal/pkg/resp"
)

const (
	AuthRate     = 0.2
	AuthBurst    = 5
	UpgradeRate  = 1
	UpgradeBurst = 10
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, configures CORS, and applies global and per-route middleware.
func Router(deps *AppDeps) http.Handler {
	authLimiter := limiter.NewIPRateLimiter(rate.Limit(AuthRate), AuthBurst)
	upgradeLimiter := limiter.NewIPRateLimiter(rate.Limit(UpgradeRate), UpgradeBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				// Non-browser clients do not send an Origin.
				return true
			}
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", pow.TokenHeaderKey},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("relaychat server is running"))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		stats := deps.Manager.Stats()
		resp.RespondSuccess(w, r, map[string]any{
			"status":     "ok",
			"service":    "relaychat",
			"identities": stats.Identities,
			"sessions":   stats.Sessions,
		})
	})

	wsHandler := HandleWebSocket(wsUpgrader, upgradeLimiter, deps)
	r.Get("/chat", wsHandler)
	r.Get("/ws", wsHandler)

	r.Group(func(g chi.Router) {
		g.Use(jwt.IdentityExtractorMiddleware(deps.Tokens))

		// Paths kept for clients of the first release.
		g.With(authLimiter.Middleware).Post("/register", HandleRegister(deps))
		g.Get("/user", HandleGetUser(deps))
		g.Get("/admin", HandleAdmin(deps))
		g.Post("/notify", HandleNotify(deps))

		g.Route("/api", func(api chi.Router) {
			api.Route("/auth", func(auth chi.Router) {
				auth.Use(authLimiter.Middleware)
				auth.Get("/challenge", HandleGetChallenge(deps))
				auth.Post("/challenge", HandleVerifyChallenge(deps))
				auth.Post("/register", HandleRegister(deps))
				auth.Post("/login", HandleLogin(deps))
			})

			api.Get("/user", HandleGetUser(deps))
			api.Get("/admin", HandleAdmin(deps))
			api.Post("/notify", HandleNotify(deps))
		})
	})

	return r
}
