package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quarryworks/craftbank/internal/config"
	"github.com/quarryworks/craftbank/pkg/entities"
)

// OAuthProvider implements Provider against a standard authorization-code
// flow: exchange the code at the token endpoint, then fetch the profile.
type OAuthProvider struct {
	cfg    config.IdentityConfig
	client *http.Client
}

// NewOAuthProvider creates a provider from config.
func NewOAuthProvider(cfg config.IdentityConfig) *OAuthProvider {
	return &OAuthProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthURL builds the provider login URL carrying the given state
func (p *OAuthProvider) AuthURL(state string) string {
	q := url.Values{}
	q.Set("client_id", p.cfg.ClientID)
	q.Set("redirect_uri", p.cfg.RedirectURL)
	q.Set("response_type", "code")
	q.Set("scope", "identify")
	q.Set("state", state)
	return p.cfg.AuthURL + "?" + q.Encode()
}

// Exchange trades an authorization code for the identity behind it
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (entities.LinkedIdentity, error) {
	form := url.Values{}
	form.Set("client_id", p.cfg.ClientID)
	form.Set("client_secret", p.cfg.ClientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", p.cfg.RedirectURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return entities.LinkedIdentity{}, fmt.Errorf("error building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return entities.LinkedIdentity{}, fmt.Errorf("error exchanging code: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return entities.LinkedIdentity{}, fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return entities.LinkedIdentity{}, fmt.Errorf("error decoding token response: %w", err)
	}

	return p.fetchProfile(ctx, token.AccessToken)
}

func (p *OAuthProvider) fetchProfile(ctx context.Context, accessToken string) (entities.LinkedIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.ProfileURL, nil)
	if err != nil {
		return entities.LinkedIdentity{}, fmt.Errorf("error building profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return entities.LinkedIdentity{}, fmt.Errorf("error fetching profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return entities.LinkedIdentity{}, fmt.Errorf("profile endpoint returned %d", resp.StatusCode)
	}

	var profile struct {
		ID            string `json:"id"`
		Username      string `json:"username"`
		Discriminator string `json:"discriminator"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return entities.LinkedIdentity{}, fmt.Errorf("error decoding profile: %w", err)
	}

	tag := profile.Username
	if profile.Discriminator != "" && profile.Discriminator != "0" {
		tag = profile.Username + "#" + profile.Discriminator
	}

	return entities.LinkedIdentity{ID: profile.ID, Tag: tag}, nil
}
