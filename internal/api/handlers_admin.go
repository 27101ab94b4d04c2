package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type setBalanceRequest struct {
	Balance int64 `json:"balance"`
}

// SetBalance handles POST /api/admin/accounts/{username}/balance
func (h *Handler) SetBalance(w http.ResponseWriter, r *http.Request) {
	var req setBalanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "balance is required")
		return
	}

	account, err := h.ledger.SetBalance(r.Context(), chi.URLParam(r, "username"), req.Balance, "admin")
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accountResponse{Account: account})
}

type adjustBalanceRequest struct {
	Delta int64 `json:"delta" validate:"required"`
}

// AdjustBalance handles POST /api/admin/accounts/{username}/adjust
func (h *Handler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	var req adjustBalanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "a non-zero delta is required")
		return
	}

	account, err := h.ledger.AdjustBalance(r.Context(), chi.URLParam(r, "username"), req.Delta, "admin")
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accountResponse{Account: account})
}

// ListAccounts handles GET /api/admin/accounts
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.ledger.ListAccounts(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}
