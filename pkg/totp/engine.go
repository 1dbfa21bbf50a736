package totp

import (
	"encoding/base32"
	"fmt"
	"log/slog"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// DefaultIssuer is the name shown in authenticator apps
	DefaultIssuer = "mentor-idm"
	// DefaultPeriod is the code validity window in seconds
	DefaultPeriod = 30
	// DefaultSkew is how many adjacent periods a code stays acceptable,
	// tolerating clock drift between the server and the authenticator device
	DefaultSkew = 1
	// SecretSize is the size of generated secrets in bytes (160 bits)
	SecretSize = 20
)

// b32NoPadding matches the RFC 3548 base32 alphabet used by authenticator
// apps; padding is stripped for manual entry.
var b32NoPadding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Key is a freshly generated shared secret together with the otpauth URI
// authenticator apps render as a QR code.
type Key struct {
	SecretBase32    string
	ProvisioningURI string
}

// Engine computes and validates 6-digit TOTP codes. Digits are fixed at six
// and the hash at SHA-1 for authenticator-app compatibility.
type Engine struct {
	issuer string
	period uint
	skew   uint
}

// Option is a functional option for configuring an Engine
type Option func(*Engine)

// WithIssuer sets the issuer embedded in provisioning URIs
func WithIssuer(issuer string) Option {
	return func(e *Engine) {
		e.issuer = issuer
	}
}

// WithPeriod sets the time-step length in seconds
func WithPeriod(period uint) Option {
	return func(e *Engine) {
		e.period = period
	}
}

// WithSkew sets the number of adjacent time steps accepted during validation
func WithSkew(skew uint) Option {
	return func(e *Engine) {
		e.skew = skew
	}
}

// NewEngine creates an Engine with the given options
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		issuer: DefaultIssuer,
		period: DefaultPeriod,
		skew:   DefaultSkew,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Issuer returns the issuer embedded in provisioning URIs.
func (e *Engine) Issuer() string {
	return e.issuer
}

// GenerateKey draws a new random shared secret for label (the account email)
// and returns it with its provisioning URI. The secret comes from the
// platform CSPRNG; the same label never yields the same secret twice.
func (e *Engine) GenerateKey(label string) (*Key, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.issuer,
		AccountName: label,
		SecretSize:  SecretSize,
		Period:      e.period,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		slog.Error("Failed to generate totp secret", "label", label, "issuer", e.issuer, "error", err)
		return nil, fmt.Errorf("failed to generate totp secret: %w", err)
	}

	return &Key{
		SecretBase32:    key.Secret(),
		ProvisioningURI: key.URL(),
	}, nil
}

// GenerateCode computes the 6-digit code for secret at the given time.
// Deterministic: the same secret and time step always yield the same code.
func (e *Engine) GenerateCode(secretBase32 string, at time.Time) (string, error) {
	code, err := totp.GenerateCodeCustom(secretBase32, at.UTC(), e.validateOpts())
	if err != nil {
		return "", fmt.Errorf("failed to generate totp code: %w", err)
	}
	return code, nil
}

// Validate reports whether code matches secret at the given time, accepting
// codes from up to skew time steps away in either direction. Malformed input
// (wrong length, non-numeric) is an ordinary mismatch: the result is false,
// never an error, and the caller cannot tell a wrong code from an expired one.
func (e *Engine) Validate(secretBase32, code string, at time.Time) bool {
	valid, err := totp.ValidateCustom(code, secretBase32, at.UTC(), e.validateOpts())
	if err != nil {
		return false
	}
	return valid
}

func (e *Engine) validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    e.period,
		Skew:      e.skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// EncodeSecret renders raw secret bytes as the base32 string shown to users.
func EncodeSecret(secret []byte) string {
	return b32NoPadding.EncodeToString(secret)
}

// DecodeSecret recovers the raw secret bytes from their base32 form.
func DecodeSecret(secretBase32 string) ([]byte, error) {
	secret, err := b32NoPadding.DecodeString(secretBase32)
	if err != nil {
		return nil, fmt.Errorf("invalid base32 secret: %w", err)
	}
	return secret, nil
}
