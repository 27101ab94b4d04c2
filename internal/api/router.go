package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter constructs the ledger service's HTTP routes.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Identity provider login flow
	r.Get("/auth/login", h.Login)
	r.Get("/auth/callback", h.Callback)

	r.Route("/api", func(r chi.Router) {
		// Endpoints the chat watcher calls, guarded by the ingest secret
		r.Group(func(r chi.Router) {
			r.Use(h.ingestAuth)
			r.Post("/payments", h.IngestPayment)
			r.Post("/link/confirm", h.ConfirmLink)
		})

		// Dashboard session endpoints
		r.Group(func(r chi.Router) {
			r.Use(h.sessionAuth)
			r.Post("/link/unlink", h.Unlink)
		})

		// Player-facing account and game endpoints
		r.Get("/accounts/{username}", h.GetAccount)
		r.Post("/accounts/{username}/deposit", h.Deposit)
		r.Post("/accounts/{username}/withdraw", h.Withdraw)
		r.Post("/games/numberdraw", h.NumberDraw)
		r.Post("/games/cardduel", h.CardDuel)
		r.Post("/games/pegdrop", h.PegDrop)

		// Privileged surface, guarded by the admin token
		r.Group(func(r chi.Router) {
			r.Use(h.adminAuth)
			r.Get("/payments", h.ListPayments)
			r.Post("/payments/{id}/pay", h.PayPayment)
			r.Post("/payments/{id}/deny", h.DenyPayment)
			r.Get("/admin/accounts", h.ListAccounts)
			r.Post("/admin/accounts/{username}/balance", h.SetBalance)
			r.Post("/admin/accounts/{username}/adjust", h.AdjustBalance)
		})
	})

	return r
}
