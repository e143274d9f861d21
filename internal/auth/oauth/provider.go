// Package oauth implements the authorization-code exchange against the
// social login providers. Each provider is the same two HTTP calls — code
// for token, token for profile — so one client covers them all, with a
// per-provider profile mapping for the differing JSON shapes.
package oauth

import (
	"context"
	"fmt"
)

// Identity is the provider-scoped identity claim a successful exchange
// yields. SubjectID is the provider's stable user id; DisplayName and Email
// are best-effort profile fields. AccessToken is passed through opaquely.
type Identity struct {
	SubjectID   string
	DisplayName string
	Email       string
	AccessToken string
}

// Provider exchanges an authorization code for an identity claim.
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (Identity, error)
}

// Known provider names. Anything else falls back to the OIDC profile shape.
const (
	ProviderGoogle   = "google"
	ProviderGitHub   = "github"
	ProviderFacebook = "facebook"
	ProviderLinkedIn = "linkedin"
	ProviderTwitter  = "twitter"
)

// Config holds one provider's endpoints and credentials.
type Config struct {
	Name         string
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	RedirectURL  string
	Scopes       []string
}

// Validate rejects configs that cannot complete an exchange.
func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("oauth provider config needs a name")
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("oauth provider %s needs client credentials", c.Name)
	}
	if c.TokenURL == "" || c.UserInfoURL == "" {
		return fmt.Errorf("oauth provider %s needs token and user-info endpoints", c.Name)
	}
	return nil
}

// New builds a provider client for the named service. The profile mapping
// is chosen by name; unknown names get the OIDC-standard field mapping.
func New(cfg Config) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var mapProfile func(raw map[string]interface{}) Identity
	switch cfg.Name {
	case ProviderGitHub:
		mapProfile = githubProfile
	case ProviderFacebook:
		mapProfile = facebookProfile
	case ProviderTwitter:
		mapProfile = twitterProfile
	default:
		// Google and LinkedIn both serve OIDC userinfo.
		mapProfile = oidcProfile
	}

	return newHTTPProvider(cfg, mapProfile), nil
}

func oidcProfile(raw map[string]interface{}) Identity {
	return Identity{
		SubjectID:   getString(raw, "sub"),
		DisplayName: getString(raw, "name"),
		Email:       getString(raw, "email"),
	}
}

func githubProfile(raw map[string]interface{}) Identity {
	id := getString(raw, "id")
	if id == "" {
		// GitHub serves the id as a JSON number.
		if n, ok := raw["id"].(float64); ok {
			id = fmt.Sprintf("%.0f", n)
		}
	}
	name := getString(raw, "name")
	if name == "" {
		name = getString(raw, "login")
	}
	return Identity{
		SubjectID:   id,
		DisplayName: name,
		Email:       getString(raw, "email"),
	}
}

func facebookProfile(raw map[string]interface{}) Identity {
	return Identity{
		SubjectID:   getString(raw, "id"),
		DisplayName: getString(raw, "name"),
		Email:       getString(raw, "email"),
	}
}

func twitterProfile(raw map[string]interface{}) Identity {
	// Twitter v2 wraps the profile in a "data" object.
	if data, ok := raw["data"].(map[string]interface{}); ok {
		return Identity{
			SubjectID:   getString(data, "id"),
			DisplayName: getString(data, "name"),
			Email:       getString(data, "email"),
		}
	}
	return Identity{}
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
