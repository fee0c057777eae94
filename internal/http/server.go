// Package http is the JSON API over the engine.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Ultramusic201/Anzu/internal/services"
)

type Server struct {
	ledger  *services.LedgerService
	rates   *services.RateService
	credits *services.CreditService
	router  chi.Router
}

func NewServer(ledger *services.LedgerService, rates *services.RateService, credits *services.CreditService) *Server {
	s := &Server{
		ledger:  ledger,
		rates:   rates,
		credits: credits,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(throttle(20, 40))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/summary", s.handleSummary)

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})

		r.Route("/rate", func(r chi.Router) {
			r.Get("/", s.handleGetRate)
			r.Put("/", s.handlePutRate)
			r.Post("/refresh", s.handleRefreshRate)
		})

		r.Route("/limits", func(r chi.Router) {
			r.Get("/", s.handleGetLimits)
			r.Put("/", s.handlePutLimits)
		})

		r.Get("/charts", s.handleCharts)
		r.Get("/donut", s.handleDonut)
		r.Get("/categories", s.handleCategories)

		r.Route("/credits", func(r chi.Router) {
			r.Get("/", s.handleListCredits)
			r.Post("/", s.handleCreateCredit)
			r.Get("/{id}/installments", s.handleListInstallments)
			r.Post("/{id}/payments", s.handlePayInstallments)
		})
	})

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}
