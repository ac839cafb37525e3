package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the command API plus the ops endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/stalls/{stallID}", func(r chi.Router) {
			r.Get("/", h.handleGetStall)
			r.Post("/claim", h.handleClaim)
			r.Post("/release", h.handleRelease)
			r.Post("/members", h.handleAddMember)
			r.Delete("/members", h.handleRemoveMember)
			r.Post("/escrow/deposit", h.handleDepositEscrow)
			r.Post("/escrow/withdraw", h.handleWithdrawEscrow)
			r.Post("/rent/pay", h.handlePayRent)
			r.Post("/products", h.handleConsign)
			r.Post("/products/{productID}/sale", h.handleSale)
		})
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/deposit", h.handleAccountDeposit)
			r.Post("/withdraw", h.handleAccountWithdraw)
			r.Get("/{persona}/balance", h.handleAccountBalance)
		})
	})

	return r
}
