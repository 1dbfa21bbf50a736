package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mentorhub/mentor-idm/pkg/account"
)

// DefaultSessionExpiry is how long issued session tokens stay valid
const DefaultSessionExpiry = 15 * time.Minute

// DefaultTempTokenExpiry is how long a pending-2FA token stays valid. Long
// enough to open an authenticator app, short enough not to linger.
const DefaultTempTokenExpiry = 5 * time.Minute

// tempTokenPurpose marks a token as a pending-2FA token. Session tokens never
// carry it, so neither token kind can stand in for the other.
const tempTokenPurpose = "2fa_validation"

// ErrInvalidCredentials is returned when the email/password pair does not
// match. Unknown email and wrong password are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidTempToken is returned when a pending-2FA token is missing,
// malformed, expired, or is not a temp token at all.
var ErrInvalidTempToken = errors.New("invalid or expired two-factor token")

// Provider is the identity-provider contract: verify the password factor and
// issue sessions. The two-factor service never calls this; sequencing is the
// login flow's responsibility. The temp token is the proof that the password
// step succeeded, required before the second step may be attempted.
type Provider interface {
	VerifyPassword(ctx context.Context, email, password string) (account.Account, error)
	IssueSession(ctx context.Context, acct account.Account) (string, error)
	IssueTempToken(ctx context.Context, acct account.Account) (string, error)
	VerifyTempToken(ctx context.Context, token string) (uuid.UUID, error)
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hashedPassword string) (bool, error)
}

// BcryptHasher implements PasswordHasher using bcrypt
type BcryptHasher struct{}

// Hash implements PasswordHasher.Hash
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// Verify implements PasswordHasher.Verify
func (h *BcryptHasher) Verify(password, hashedPassword string) (bool, error) {
	if password == "" || hashedPassword == "" {
		return false, errors.New("password and hashed password cannot be empty")
	}

	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil // Password doesn't match, but not an error
		}
		return false, err
	}
	return true, nil
}

// LocalProvider implements Provider against the local account store with
// bcrypt password hashes and HS256 session tokens.
type LocalProvider struct {
	accounts        *account.Service
	hasher          PasswordHasher
	jwtSecret       []byte
	issuer          string
	sessionExpiry   time.Duration
	tempTokenExpiry time.Duration
}

// Option is a functional option for configuring LocalProvider
type Option func(*LocalProvider)

// WithHasher sets the password hasher
func WithHasher(hasher PasswordHasher) Option {
	return func(p *LocalProvider) {
		p.hasher = hasher
	}
}

// WithIssuer sets the token issuer claim
func WithIssuer(issuer string) Option {
	return func(p *LocalProvider) {
		p.issuer = issuer
	}
}

// WithSessionExpiry sets the session token lifetime
func WithSessionExpiry(expiry time.Duration) Option {
	return func(p *LocalProvider) {
		p.sessionExpiry = expiry
	}
}

// WithTempTokenExpiry sets the pending-2FA token lifetime
func WithTempTokenExpiry(expiry time.Duration) Option {
	return func(p *LocalProvider) {
		p.tempTokenExpiry = expiry
	}
}

// NewLocalProvider creates a LocalProvider with the given options
func NewLocalProvider(accounts *account.Service, jwtSecret string, opts ...Option) *LocalProvider {
	p := &LocalProvider{
		accounts:        accounts,
		hasher:          &BcryptHasher{},
		jwtSecret:       []byte(jwtSecret),
		issuer:          "mentor-idm",
		sessionExpiry:   DefaultSessionExpiry,
		tempTokenExpiry: DefaultTempTokenExpiry,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Hasher returns the configured password hasher, shared with signup so new
// accounts hash passwords the same way sign-in verifies them.
func (p *LocalProvider) Hasher() PasswordHasher {
	return p.hasher
}

// VerifyPassword checks the email/password pair against the account store
func (p *LocalProvider) VerifyPassword(ctx context.Context, email, password string) (account.Account, error) {
	acct, err := p.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return account.Account{}, ErrInvalidCredentials
		}
		return account.Account{}, fmt.Errorf("failed to look up account: %w", err)
	}

	match, err := p.hasher.Verify(password, acct.PasswordHash)
	if err != nil {
		return account.Account{}, fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		slog.Warn("Password verification failed", "accountId", acct.ID)
		return account.Account{}, ErrInvalidCredentials
	}

	return acct, nil
}

// IssueSession creates a signed session token for an authenticated account
func (p *LocalProvider) IssueSession(ctx context.Context, acct account.Account) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"iss":   p.issuer,
		"sub":   acct.ID.String(),
		"email": acct.Email,
		"role":  string(acct.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(p.sessionExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// IssueTempToken creates the short-lived token handed out after a successful
// password step when a second factor is still owed. It carries no session
// rights; its only use is unlocking the 2FA verification step.
func (p *LocalProvider) IssueTempToken(ctx context.Context, acct account.Account) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"iss":     p.issuer,
		"sub":     acct.ID.String(),
		"purpose": tempTokenPurpose,
		"iat":     now.Unix(),
		"exp":     now.Add(p.tempTokenExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign temp token: %w", err)
	}
	return signed, nil
}

// VerifyTempToken checks a pending-2FA token and returns the account it was
// issued for. Session tokens are rejected: they lack the purpose claim.
func (p *LocalProvider) VerifyTempToken(ctx context.Context, tokenStr string) (uuid.UUID, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return p.jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer(p.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return uuid.Nil, ErrInvalidTempToken
	}

	if purpose, _ := claims["purpose"].(string); purpose != tempTokenPurpose {
		return uuid.Nil, ErrInvalidTempToken
	}

	sub, _ := claims["sub"].(string)
	accountID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrInvalidTempToken
	}
	return accountID, nil
}
