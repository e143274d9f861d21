// Package twofactor implements TOTP enrollment and verification. The
// Engine owns code generation and checking; the Flow drives the user through
// setup as a plain state machine with no UI coupling.
package twofactor

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/base64"
	"fmt"
	"net/url"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// DefaultSecretLength is the size in bytes of a freshly generated shared
// secret.
const DefaultSecretLength = 42

// Engine generates and verifies time-based one-time passwords. The clock
// is injected so the verification window is testable without waiting out
// real periods.
type Engine struct {
	issuer       string
	secretLength int
	period       uint
	now          func() time.Time
}

func NewEngine(issuer string, secretLength int, period uint, now func() time.Time) *Engine {
	if secretLength <= 0 {
		secretLength = DefaultSecretLength
	}
	if period == 0 {
		period = 30
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{issuer: issuer, secretLength: secretLength, period: period, now: now}
}

// GenerateSecret returns a fresh random shared secret.
func (e *Engine) GenerateSecret() ([]byte, error) {
	secret := make([]byte, e.secretLength)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate totp secret: %w", err)
	}
	return secret, nil
}

// EncodeSecret renders the raw secret the way it is stored on the user
// record.
func EncodeSecret(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

// DecodeSecret reverses EncodeSecret.
func DecodeSecret(stored string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return nil, fmt.Errorf("decode stored totp secret: %w", err)
	}
	return raw, nil
}

// base32Secret renders the secret the way authenticator apps expect it.
func base32Secret(raw []byte) string {
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)
}

// ProvisioningURI builds the standard otpauth URL for QR rendering:
// otpauth://totp/{label}?secret={base32}&issuer={issuer}.
func (e *Engine) ProvisioningURI(label string, raw []byte) string {
	q := url.Values{}
	q.Set("secret", base32Secret(raw))
	q.Set("issuer", e.issuer)
	return "otpauth://totp/" + url.PathEscape(label) + "?" + q.Encode()
}

// Verify checks a six-digit code against the secret, tolerating one period
// of clock drift on each side.
func (e *Engine) Verify(code string, raw []byte) bool {
	ok, err := totp.ValidateCustom(code, base32Secret(raw), e.now().UTC(), totp.ValidateOpts{
		Period:    e.period,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// GenerateCode produces the code valid at the given instant. Used by the
// tests to probe the verification window.
func (e *Engine) GenerateCode(raw []byte, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(base32Secret(raw), at.UTC(), totp.ValidateOpts{
		Period:    e.period,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
}

// Period returns the engine's time step.
func (e *Engine) Period() time.Duration {
	return time.Duration(e.period) * time.Second
}
