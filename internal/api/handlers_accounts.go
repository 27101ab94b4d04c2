package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quarryworks/craftbank/pkg/entities"
)

type amountRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

type accountResponse struct {
	Account *entities.Account `json:"account"`
}

// GetAccount handles GET /api/accounts/{username}
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.ledger.Find(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accountResponse{Account: account})
}

// Deposit handles POST /api/accounts/{username}/deposit
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "a positive amount is required")
		return
	}

	account, err := h.ledger.Deposit(r.Context(), chi.URLParam(r, "username"), req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accountResponse{Account: account})
}

type withdrawResponse struct {
	Account *entities.Account       `json:"account"`
	Command *entities.QueuedCommand `json:"command"`
}

// Withdraw handles POST /api/accounts/{username}/withdraw
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "a positive amount is required")
		return
	}

	account, cmd, err := h.ledger.Withdraw(r.Context(), chi.URLParam(r, "username"), req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, withdrawResponse{Account: account, Command: cmd})
}
