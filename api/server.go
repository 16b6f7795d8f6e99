/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/users/*     User registration (opening balances)
  /api/entries/*   Ledger entries
  /api/summary/*   Daily summaries
  /api/savings     Running savings
  /api/scenarios/* Demo scenario loaders (development)
  /api/health      Liveness probe

SECURITY NOTE:
  No authentication middleware. The X-User-ID header is trusted; an
  authenticating gateway in front of this service must set it.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/users", h.CreateUser)

		r.Route("/entries", func(r chi.Router) {
			r.Post("/", h.SaveEntry)
			r.Get("/", h.ListEntries)
			r.Get("/month/{yearMonth}", h.GetMonthEntries)
			r.Get("/day/{date}", h.GetDayEntries)
			r.Get("/{id}", h.GetEntry)
			r.Put("/{id}", h.UpdateEntry)
			r.Delete("/{id}", h.DeleteEntry)
		})

		r.Route("/summary", func(r chi.Router) {
			r.Get("/month/{yearMonth}", h.GetMonthSummary)
			r.Get("/day/{date}", h.GetDaySummary)
		})

		r.Get("/savings", h.GetSavings)

		// Demo scenarios, development use only
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	return r
}
