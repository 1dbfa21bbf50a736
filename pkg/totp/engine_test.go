package totp

import (
	"crypto/rand"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xlzd/gotp"
)

// stepStart is aligned to a 30-second boundary so window tests are exact.
var stepStart = time.Unix(1700000010, 0).UTC()

func TestGenerateKey(t *testing.T) {
	engine := NewEngine(WithIssuer("mentorhub"))

	key, err := engine.GenerateKey("m1@example.com")
	require.NoError(t, err)

	secret, err := DecodeSecret(key.SecretBase32)
	require.NoError(t, err)
	assert.Len(t, secret, SecretSize, "secret should carry 160 bits of entropy")

	assert.True(t, strings.HasPrefix(key.ProvisioningURI, "otpauth://totp/"))
	assert.Contains(t, key.ProvisioningURI, "mentorhub")
	assert.Contains(t, key.ProvisioningURI, "m1@example.com")
	assert.Contains(t, key.ProvisioningURI, "secret="+key.SecretBase32)
	assert.Contains(t, key.ProvisioningURI, "algorithm=SHA1")
	assert.Contains(t, key.ProvisioningURI, "digits=6")
	assert.Contains(t, key.ProvisioningURI, "period=30")
}

func TestGenerateKey_SecretsAreUnique(t *testing.T) {
	engine := NewEngine()

	first, err := engine.GenerateKey("m1@example.com")
	require.NoError(t, err)
	second, err := engine.GenerateKey("m1@example.com")
	require.NoError(t, err)

	assert.NotEqual(t, first.SecretBase32, second.SecretBase32)
}

func TestSecretRoundTrip(t *testing.T) {
	for i := 0; i < 100; i++ {
		raw := make([]byte, SecretSize)
		_, err := rand.Read(raw)
		require.NoError(t, err)

		decoded, err := DecodeSecret(EncodeSecret(raw))
		require.NoError(t, err)
		assert.Equal(t, raw, decoded, "round trip %d", i)
	}
}

func TestGenerateCode_Deterministic(t *testing.T) {
	engine := NewEngine()
	key, err := engine.GenerateKey("m1@example.com")
	require.NoError(t, err)

	first, err := engine.GenerateCode(key.SecretBase32, stepStart)
	require.NoError(t, err)
	second, err := engine.GenerateCode(key.SecretBase32, stepStart.Add(29*time.Second))
	require.NoError(t, err)

	assert.Len(t, first, 6)
	assert.Equal(t, first, second, "same time step should yield the same code")
}

func TestValidate_Window(t *testing.T) {
	engine := NewEngine()
	key, err := engine.GenerateKey("m1@example.com")
	require.NoError(t, err)

	code, err := engine.GenerateCode(key.SecretBase32, stepStart)
	require.NoError(t, err)

	tests := []struct {
		name  string
		at    time.Time
		valid bool
	}{
		{"same instant", stepStart, true},
		{"same step", stepStart.Add(25 * time.Second), true},
		{"one step ahead", stepStart.Add(30 * time.Second), true},
		{"one step behind", stepStart.Add(-30 * time.Second), true},
		{"two steps ahead", stepStart.Add(60 * time.Second), false},
		{"two steps behind", stepStart.Add(-60 * time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, engine.Validate(key.SecretBase32, code, tt.at))
		})
	}
}

func TestValidate_MalformedInput(t *testing.T) {
	engine := NewEngine()
	key, err := engine.GenerateKey("m1@example.com")
	require.NoError(t, err)

	for _, code := range []string{"", "12345", "1234567", "abcdef", "12 456", "......"} {
		t.Run(fmt.Sprintf("%q", code), func(t *testing.T) {
			assert.False(t, engine.Validate(key.SecretBase32, code, stepStart))
		})
	}
}

// Codes must match what authenticator apps produce; gotp is an independent
// TOTP implementation used here as a reference.
func TestGenerateCode_AuthenticatorCompatibility(t *testing.T) {
	engine := NewEngine()
	key, err := engine.GenerateKey("m1@example.com")
	require.NoError(t, err)

	reference := gotp.NewDefaultTOTP(key.SecretBase32)
	for i := 0; i < 5; i++ {
		at := stepStart.Add(time.Duration(i) * 30 * time.Second)
		code, err := engine.GenerateCode(key.SecretBase32, at)
		require.NoError(t, err)
		assert.Equal(t, reference.At(at.Unix()), code, "step %d", i)
	}
}

func TestEngineOptions(t *testing.T) {
	engine := NewEngine()
	assert.Equal(t, DefaultIssuer, engine.issuer)
	assert.Equal(t, uint(DefaultPeriod), engine.period)
	assert.Equal(t, uint(DefaultSkew), engine.skew)

	custom := NewEngine(WithIssuer("other"), WithPeriod(60), WithSkew(2))
	assert.Equal(t, "other", custom.issuer)
	assert.Equal(t, uint(60), custom.period)
	assert.Equal(t, uint(2), custom.skew)
}
