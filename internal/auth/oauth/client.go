package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BrewReview/BR-Backend/internal/store"
)

// httpProvider performs the two-call exchange over plain HTTP with a
// timeout. Every transport or decode failure wraps store.ErrUpstreamFailure
// so the orchestrator can convert it to a failed login without losing the
// cause.
type httpProvider struct {
	cfg        Config
	httpClient *http.Client
	mapProfile func(raw map[string]interface{}) Identity
}

func newHTTPProvider(cfg Config, mapProfile func(map[string]interface{}) Identity) *httpProvider {
	return &httpProvider{
		cfg:        cfg,
		mapProfile: mapProfile,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (p *httpProvider) Name() string { return p.cfg.Name }

// AuthCodeURL builds the browser redirect that starts the flow.
func (p *httpProvider) AuthCodeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", p.cfg.ClientID)
	q.Set("redirect_uri", p.cfg.RedirectURL)
	q.Set("response_type", "code")
	q.Set("state", state)
	if len(p.cfg.Scopes) > 0 {
		q.Set("scope", strings.Join(p.cfg.Scopes, " "))
	}
	return p.cfg.AuthURL + "?" + q.Encode()
}

func (p *httpProvider) ExchangeCode(ctx context.Context, code string) (Identity, error) {
	token, err := p.exchangeToken(ctx, code)
	if err != nil {
		return Identity{}, err
	}

	raw, err := p.fetchProfile(ctx, token)
	if err != nil {
		return Identity{}, err
	}

	identity := p.mapProfile(raw)
	identity.AccessToken = token
	return identity, nil
}

func (p *httpProvider) exchangeToken(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", p.cfg.ClientID)
	form.Set("client_secret", p.cfg.ClientSecret)
	form.Set("redirect_uri", p.cfg.RedirectURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %s token request: %v", store.ErrUpstreamFailure, p.cfg.Name, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s token exchange: %v", store.ErrUpstreamFailure, p.cfg.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: %s token exchange returned %d: %s",
			store.ErrUpstreamFailure, p.cfg.Name, resp.StatusCode, string(body))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: %s token response: %v", store.ErrUpstreamFailure, p.cfg.Name, err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("%w: %s returned no access token", store.ErrUpstreamFailure, p.cfg.Name)
	}
	return payload.AccessToken, nil
}

func (p *httpProvider) fetchProfile(ctx context.Context, token string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s profile request: %v", store.ErrUpstreamFailure, p.cfg.Name, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s profile fetch: %v", store.ErrUpstreamFailure, p.cfg.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s profile fetch returned %d",
			store.ErrUpstreamFailure, p.cfg.Name, resp.StatusCode)
	}

	var raw map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %s profile response: %v", store.ErrUpstreamFailure, p.cfg.Name, err)
	}
	return raw, nil
}
