package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/quarryworks/craftbank/pkg/auth"
	"github.com/quarryworks/craftbank/pkg/entities"
	"github.com/quarryworks/craftbank/pkg/services/ledger"
)

// Login handles GET /auth/login by redirecting to the identity provider.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		writeError(w, http.StatusNotFound, "identity provider not configured")
		return
	}

	http.Redirect(w, r, h.provider.AuthURL(uuid.New().String()), http.StatusFound)
}

type callbackResponse struct {
	Token   string            `json:"token"`
	Code    string            `json:"code,omitempty"`    // Present when in-game confirmation is still needed
	Account *entities.Account `json:"account,omitempty"` // Present when the identity is already linked
}

// Callback handles GET /auth/callback. An already-linked identity gets an
// authenticated session straight away; a new one gets a linking code to
// type in game.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		writeError(w, http.StatusNotFound, "identity provider not configured")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing code")
		return
	}

	ident, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		// Provider failures bounce the user back to retry; the core
		// never retries on its own.
		writeError(w, http.StatusBadGateway, "identity provider error")
		return
	}

	result, err := h.linking.Begin(r.Context(), ident)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	claims := auth.SessionClaims{ExternalID: ident.ID, Tag: ident.Tag}
	if result.Account != nil {
		claims.Username = result.Account.Username
	}

	token, err := auth.MintSessionToken(h.cfg.Auth.JWTSecret, h.cfg.Auth.SessionTTL, time.Now(), claims)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, callbackResponse{
		Token:   token,
		Code:    result.Code,
		Account: result.Account,
	})
}

type confirmLinkRequest struct {
	Username string `json:"username" validate:"required"`
	Code     string `json:"code" validate:"required"`
}

// ConfirmLink handles POST /api/link/confirm, called by the chat watcher
// when a player types their code in game.
func (h *Handler) ConfirmLink(w http.ResponseWriter, r *http.Request) {
	var req confirmLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "username and code are required")
		return
	}

	account, err := h.linking.Confirm(r.Context(), req.Username, req.Code)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accountResponse{Account: account})
}

// Unlink handles POST /api/link/unlink for the logged-in session.
func (h *Handler) Unlink(w http.ResponseWriter, r *http.Request) {
	claims := sessionFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}

	account, err := h.linking.FindByIdentity(r.Context(), claims.ExternalID)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			writeError(w, http.StatusBadRequest, "identity is not linked")
			return
		}
		writeDomainError(w, err)
		return
	}

	if err := h.linking.Unlink(r.Context(), account.Username); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "unlinked"})
}
