package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/quarryworks/craftbank/pkg/auth"
)

type contextKey string

const sessionKey contextKey = "session"

// bearerToken pulls the credential out of the Authorization header.
func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}

// ingestAuth guards the endpoints the chat watcher calls with the shared
// ingestion secret.
func (h *Handler) ingestAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.CheckIngestToken(h.cfg.Auth.IngestToken, bearerToken(r)) {
			writeError(w, http.StatusUnauthorized, "invalid credential")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// adminAuth guards the privileged surface with the bcrypt-hashed admin
// token, which is distinct from the ingestion secret.
func (h *Handler) adminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.CheckAdminToken(h.cfg.Auth.AdminTokenHash, bearerToken(r)) {
			writeError(w, http.StatusUnauthorized, "invalid credential")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sessionAuth guards dashboard endpoints with the JWT minted at login and
// seeds the request context with the session claims.
func (h *Handler) sessionAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing credential")
			return
		}

		claims, err := auth.ParseSessionToken(h.cfg.Auth.JWTSecret, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid session")
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFromContext returns the claims seeded by sessionAuth.
func sessionFromContext(ctx context.Context) *auth.SessionClaims {
	claims, _ := ctx.Value(sessionKey).(*auth.SessionClaims)
	return claims
}
