/*
server.go - HTTP router and middleware configuration

ROUTER: chi, with the standard middleware stack (request logging, panic
recovery, request IDs) and CORS for a local frontend. Authentication is
owned by the surrounding platform and not configured here.
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router with all engine routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/commissions", func(r chi.Router) {
			r.Post("/calculate", h.ComputeCommission)
			r.Get("/{agent}/{year}/{month}", h.GetCommission)
			r.Get("/{agent}/{year}/{month}/details", h.GetCommissionDetails)
			r.Post("/{agent}/{year}/{month}/advance", h.AdvanceCommission)
		})

		r.Route("/rebates", func(r chi.Router) {
			r.Post("/brand/calculate", h.ComputeBrandRebate)
			r.Post("/budget/calculate", h.ComputeBudgetRebate)
			r.Get("/{agent}/{year}/{quarter}", h.GetRebate)
		})
	})

	return r
}
