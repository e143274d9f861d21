package twofactor

import (
	"strings"
	"testing"
	"time"
)

var testInstant = time.Date(2025, 6, 1, 12, 0, 15, 0, time.UTC)

func fixedEngine(t *testing.T) (*Engine, []byte) {
	t.Helper()
	engine := NewEngine("BrewReview", 0, 30, func() time.Time { return testInstant })
	secret, err := engine.GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret: %v", err)
	}
	return engine, secret
}

func TestGenerateSecretLength(t *testing.T) {
	engine := NewEngine("BrewReview", 0, 0, nil)
	secret, err := engine.GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret: %v", err)
	}
	if len(secret) != DefaultSecretLength {
		t.Errorf("len(secret) = %d, want %d", len(secret), DefaultSecretLength)
	}
}

func TestSecretRoundTrip(t *testing.T) {
	_, secret := fixedEngine(t)

	decoded, err := DecodeSecret(EncodeSecret(secret))
	if err != nil {
		t.Fatalf("DecodeSecret: %v", err)
	}
	if string(decoded) != string(secret) {
		t.Error("decoded secret differs from original")
	}
}

func TestDecodeSecretRejectsGarbage(t *testing.T) {
	if _, err := DecodeSecret("not!base64!!"); err == nil {
		t.Fatal("expected an error for malformed stored secret")
	}
}

func TestVerifyCurrentCode(t *testing.T) {
	engine, secret := fixedEngine(t)

	code, err := engine.GenerateCode(secret, testInstant)
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}
	if !engine.Verify(code, secret) {
		t.Error("expected the current code to verify")
	}
}

func TestVerifyWindowBoundaries(t *testing.T) {
	engine, secret := fixedEngine(t)
	period := engine.Period()

	cases := []struct {
		name   string
		offset time.Duration
		want   bool
	}{
		{"previous step", -period, true},
		{"next step", period, true},
		{"two steps back", -2 * period, false},
		{"two steps forward", 2 * period, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, err := engine.GenerateCode(secret, testInstant.Add(tc.offset))
			if err != nil {
				t.Fatalf("GenerateCode: %v", err)
			}
			if got := engine.Verify(code, secret); got != tc.want {
				t.Errorf("Verify(code@%v) = %v, want %v", tc.offset, got, tc.want)
			}
		})
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	engine, secret := fixedEngine(t)
	other, err := engine.GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret: %v", err)
	}

	code, err := engine.GenerateCode(other, testInstant)
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}
	if engine.Verify(code, secret) {
		t.Error("code for another secret must not verify")
	}
}

func TestVerifyRejectsMalformedCode(t *testing.T) {
	engine, secret := fixedEngine(t)

	for _, code := range []string{"", "12345", "1234567", "12a456"} {
		if engine.Verify(code, secret) {
			t.Errorf("Verify(%q) = true, want false", code)
		}
	}
}

func TestProvisioningURI(t *testing.T) {
	engine, secret := fixedEngine(t)

	uri := engine.ProvisioningURI("alice cooper", secret)

	if !strings.HasPrefix(uri, "otpauth://totp/alice%20cooper?") {
		t.Errorf("uri = %q, want otpauth prefix with escaped label", uri)
	}
	if !strings.Contains(uri, "issuer=BrewReview") {
		t.Errorf("uri = %q, want issuer parameter", uri)
	}
	if !strings.Contains(uri, "secret="+base32Secret(secret)) {
		t.Errorf("uri = %q, want base32 secret parameter", uri)
	}
	if strings.Contains(uri, "=\n") || strings.HasSuffix(base32Secret(secret), "=") {
		t.Error("secret parameter must be unpadded base32")
	}
}
