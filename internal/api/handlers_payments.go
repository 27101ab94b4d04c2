package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quarryworks/craftbank/pkg/entities"
)

type ingestRequest struct {
	From   string `json:"from" validate:"required"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
}

type ingestResponse struct {
	Payment    *entities.PendingPayment `json:"payment"`
	NewBalance int64                    `json:"new_balance"`
}

// IngestPayment handles POST /api/payments
func (h *Handler) IngestPayment(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "from and a positive amount are required")
		return
	}

	result, err := h.payments.Ingest(r.Context(), req.From, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ingestResponse{
		Payment:    result.Payment,
		NewBalance: result.NewBalance,
	})
}

type payResponse struct {
	Payment *entities.PendingPayment `json:"payment"`
	Command *entities.QueuedCommand  `json:"command"`
}

// PayPayment handles POST /api/payments/{id}/pay
func (h *Handler) PayPayment(w http.ResponseWriter, r *http.Request) {
	payment, cmd, err := h.payments.Pay(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, payResponse{Payment: payment, Command: cmd})
}

// DenyPayment handles POST /api/payments/{id}/deny
func (h *Handler) DenyPayment(w http.ResponseWriter, r *http.Request) {
	if err := h.payments.Deny(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "denied"})
}

// ListPayments handles GET /api/payments
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	list, err := h.payments.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"payments": list})
}
