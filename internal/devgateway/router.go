/*
Package devgateway is an in-memory stand-in for the Questify application server.

This file wires the routing table: CORS, request logging, recovery, rate
limiting on the credential endpoints, bearer-guarded API routes, and the guild
chat websocket upgrade.
*/
package devgateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"questify/internal/configs"
	"questify/internal/pkg/logx"
)

const (
	// credential endpoint budget: sustained requests per second and burst.
	credentialRate  = 1.0
	credentialBurst = 5
)

// Deps bundles what the router needs.
type Deps struct {
	Store  *MemoryStore
	Hub    *Hub
	Config *configs.AppConfig
}

// Router builds the HTTP routing table for the development gateway.
func Router(deps Deps) http.Handler {
	credentialLimiter := newIPRateLimiter(rate.Limit(credentialRate), credentialBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				// Non-browser clients send no Origin header.
				return true
			}
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "Questify Dev Gateway",
		})
	})

	r.Group(func(public chi.Router) {
		public.Use(credentialLimiter.middleware)
		public.Post("/register", handleRegister(deps.Store))
		public.Post("/token", handleToken(deps.Store, deps.Config.JWTSecret))
	})

	r.Group(func(api chi.Router) {
		api.Use(requireBearer(deps.Store, deps.Config.JWTSecret))
		api.Get("/me", handleMe(deps.Store))
		api.Get("/quests", handleListQuests(deps.Store))
		api.Post("/quests/{id}/complete", handleCompleteQuest(deps.Store))
		api.Get("/guilds/me", handleGuild())
	})

	r.Get("/ws/guild-chat", func(w http.ResponseWriter, r *http.Request) {
		conn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade guild chat connection")
			return
		}
		deps.Hub.HandleConnection(conn)
	})

	return r
}
