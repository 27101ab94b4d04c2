package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarryworks/craftbank/internal/config"
)

func newFakeProvider(t *testing.T, discriminator string) (*OAuthProvider, *http.ServeMux) {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "at-123"})
	})

	mux.HandleFunc("/users/@me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":            "discord-123",
			"username":      "alice",
			"discriminator": discriminator,
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return NewOAuthProvider(config.IdentityConfig{
		AuthURL:     server.URL + "/oauth2/authorize",
		TokenURL:    server.URL + "/oauth2/token",
		ProfileURL:  server.URL + "/users/@me",
		ClientID:    "client-id",
		RedirectURL: "http://localhost/auth/callback",
	}), mux
}

func TestAuthURLCarriesState(t *testing.T) {
	provider, _ := newFakeProvider(t, "0")

	raw := provider.AuthURL("state-xyz")
	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	q := parsed.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "state-xyz", q.Get("state"))
}

func TestExchangeReturnsIdentity(t *testing.T) {
	provider, _ := newFakeProvider(t, "4821")

	ident, err := provider.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "discord-123", ident.ID)
	assert.Equal(t, "alice#4821", ident.Tag)
}

func TestExchangeOmitsEmptyDiscriminator(t *testing.T) {
	provider, _ := newFakeProvider(t, "0")

	ident, err := provider.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "alice", ident.Tag, "Migrated accounts have no discriminator tag")
}

func TestExchangeRejectedCode(t *testing.T) {
	provider, _ := newFakeProvider(t, "0")

	_, err := provider.Exchange(context.Background(), "bad-code")
	assert.Error(t, err)
}
