package signup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mentorhub/mentor-idm/pkg/account"
	"github.com/mentorhub/mentor-idm/pkg/identity"
	"github.com/mentorhub/mentor-idm/pkg/totp"
	"github.com/mentorhub/mentor-idm/pkg/twofa"
)

// DefaultMinPasswordLength is the minimum accepted password length
const DefaultMinPasswordLength = 8

// SignupService handles account registration. Mentor accounts get their
// two-factor credential created in the same call, so a mentor never exists
// without one.
type SignupService struct {
	accounts            *account.Service
	twoFaService        twofa.TwoFactorService
	hasher              identity.PasswordHasher
	registrationEnabled bool
	minPasswordLength   int
}

// SignupResult is the outcome of a successful registration. TwoFactorSetup
// is only present for roles that require 2FA and is the single place the
// secret is ever handed out.
type SignupResult struct {
	Account        account.Account
	TwoFactorSetup *totp.Key
}

// Option is a functional option for configuring SignupService
type Option func(*SignupService)

// WithTwoFactorService sets the two-factor service
func WithTwoFactorService(service twofa.TwoFactorService) Option {
	return func(s *SignupService) {
		s.twoFaService = service
	}
}

// WithHasher sets the password hasher
func WithHasher(hasher identity.PasswordHasher) Option {
	return func(s *SignupService) {
		s.hasher = hasher
	}
}

// WithRegistrationEnabled sets whether self-service registration is allowed
func WithRegistrationEnabled(enabled bool) Option {
	return func(s *SignupService) {
		s.registrationEnabled = enabled
	}
}

// WithMinPasswordLength sets the minimum password length
func WithMinPasswordLength(length int) Option {
	return func(s *SignupService) {
		s.minPasswordLength = length
	}
}

// NewSignupService creates a new SignupService with the given options
func NewSignupService(accounts *account.Service, opts ...Option) *SignupService {
	s := &SignupService{
		accounts:            accounts,
		twoFaService:        twofa.NewNoOpTwoFactorService(),
		hasher:              &identity.BcryptHasher{},
		registrationEnabled: true,
		minPasswordLength:   DefaultMinPasswordLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup registers a new account and, for mentors, begins 2FA enrollment
func (s *SignupService) Signup(ctx context.Context, email, password, role string) (SignupResult, error) {
	if !s.registrationEnabled {
		return SignupResult{}, ErrRegistrationDisabled
	}

	parsedRole, err := account.ParseRole(role)
	if err != nil {
		return SignupResult{}, err
	}

	if len(password) < s.minPasswordLength {
		return SignupResult{}, ErrPasswordTooShort{MinLength: s.minPasswordLength}
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return SignupResult{}, fmt.Errorf("failed to hash password: %w", err)
	}

	acct, err := s.accounts.CreateAccount(ctx, email, parsedRole, hash)
	if err != nil {
		return SignupResult{}, err
	}

	result := SignupResult{Account: acct}

	if parsedRole.RequiresTwoFactor() {
		key, err := s.twoFaService.BeginEnrollment(ctx, acct.ID, acct.Email)
		if err != nil {
			return SignupResult{}, fmt.Errorf("failed to begin 2FA enrollment: %w", err)
		}
		result.TwoFactorSetup = key
	}

	slog.Info("Registered account", "accountId", acct.ID, "role", parsedRole)
	return result, nil
}
