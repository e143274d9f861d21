// Package config loads application settings from a YAML file plus a handful
// of environment variables. Connection strings (DATABASE_URL, REDIS_ADDR,
// RABBITMQ_URL) stay in the environment; tunables and provider credentials
// live in config.yml so they can be reviewed and versioned per environment.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// OAuthProvider holds the endpoints and credentials for one OAuth2 provider.
// TokenURL exchanges an authorization code for an access token; UserInfoURL
// returns the provider's profile for that token.
type OAuthProvider struct {
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	AuthURL      string   `yaml:"auth_url"`
	TokenURL     string   `yaml:"token_url"`
	UserInfoURL  string   `yaml:"user_info_url"`
	RedirectURL  string   `yaml:"redirect_url"`
	Scopes       []string `yaml:"scopes"`
}

// TOTPConfig controls two-factor enrollment.
type TOTPConfig struct {
	Issuer       string `yaml:"issuer"`
	SecretLength int    `yaml:"secret_length"`
	PeriodSec    uint   `yaml:"period_sec"`
}

// ModerationConfig controls the auto-check pipeline and the optional
// external classifier.
type ModerationConfig struct {
	ClassifierURL     string  `yaml:"classifier_url"`
	ClassifierKey     string  `yaml:"classifier_key"`
	HateThreshold     float64 `yaml:"hate_threshold"`
	FlagHideThreshold int     `yaml:"flag_hide_threshold"`
}

// RateLimitConfig controls the per-IP login limiter.
type RateLimitConfig struct {
	LoginPerMinute float64 `yaml:"login_per_minute"`
	LoginBurst     int     `yaml:"login_burst"`
}

type Config struct {
	TOTP       TOTPConfig               `yaml:"totp"`
	Moderation ModerationConfig         `yaml:"moderation"`
	RateLimit  RateLimitConfig          `yaml:"rate_limit"`
	OAuth      map[string]OAuthProvider `yaml:"oauth"`
}

// Load reads the YAML config at path. A missing file is not an error; the
// defaults are enough to boot a dev server with password auth only.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

// PathFromEnv returns the config path from CONFIG_PATH, defaulting to
// config.yml in the working directory.
func PathFromEnv() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yml"
}

func defaults() *Config {
	cfg := &Config{}
	cfg.fillDefaults()
	return cfg
}

func (c *Config) fillDefaults() {
	if c.TOTP.Issuer == "" {
		c.TOTP.Issuer = "BrewReview"
	}
	if c.TOTP.SecretLength == 0 {
		c.TOTP.SecretLength = 42
	}
	if c.TOTP.PeriodSec == 0 {
		c.TOTP.PeriodSec = 30
	}
	if c.Moderation.HateThreshold == 0 {
		c.Moderation.HateThreshold = 0.8
	}
	if c.Moderation.FlagHideThreshold == 0 {
		c.Moderation.FlagHideThreshold = 5
	}
	if c.RateLimit.LoginPerMinute == 0 {
		c.RateLimit.LoginPerMinute = 10
	}
	if c.RateLimit.LoginBurst == 0 {
		c.RateLimit.LoginBurst = 5
	}
	if c.OAuth == nil {
		c.OAuth = map[string]OAuthProvider{}
	}
}
