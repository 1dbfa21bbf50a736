package twofa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mentorhub/mentor-idm/pkg/account"
	"github.com/mentorhub/mentor-idm/pkg/totp"
)

// TwoFactorService is the enrollment and verification contract consumed by
// the HTTP layer and the login flow.
type TwoFactorService interface {
	BeginEnrollment(ctx context.Context, accountID uuid.UUID, label string) (*totp.Key, error)
	CompleteEnrollment(ctx context.Context, accountID uuid.UUID, code string) error
	Status(ctx context.Context, accountID uuid.UUID) (Status, error)
	CheckRequiresTwoFactor(ctx context.Context, accountID uuid.UUID) (bool, error)
	VerifySignIn(ctx context.Context, accountID uuid.UUID, code string) error
}

// AccountGetter is the slice of the account service this package needs.
type AccountGetter interface {
	GetAccount(ctx context.Context, id uuid.UUID) (account.Account, error)
}

// Status reports the 2FA posture of an account. Required is true only when
// the role demands a second factor AND an enabled credential exists; an
// abandoned setup surfaces as SetupPending rather than silently skipping 2FA.
type Status struct {
	Required     bool `json:"required"`
	Enabled      bool `json:"enabled"`
	SetupPending bool `json:"setupPending"`
}

// TwoFaService implements TwoFactorService
type TwoFaService struct {
	repo     Repository
	accounts AccountGetter
	engine   *totp.Engine
	now      func() time.Time
}

// Option is a functional option for configuring TwoFaService
type Option func(*TwoFaService)

// WithEngine sets the TOTP engine
func WithEngine(engine *totp.Engine) Option {
	return func(s *TwoFaService) {
		s.engine = engine
	}
}

// WithClock sets the time source, used by tests to pin the validation window
func WithClock(now func() time.Time) Option {
	return func(s *TwoFaService) {
		s.now = now
	}
}

// NewTwoFaService creates a new TwoFaService with the given options
func NewTwoFaService(repo Repository, accounts AccountGetter, opts ...Option) *TwoFaService {
	s := &TwoFaService{
		repo:     repo,
		accounts: accounts,
		engine:   totp.NewEngine(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BeginEnrollment issues a fresh secret for the account and persists the
// credential in pending state. The returned key is the only time the secret
// leaves this package. An empty label falls back to the account email.
func (s *TwoFaService) BeginEnrollment(ctx context.Context, accountID uuid.UUID, label string) (*totp.Key, error) {
	acct, err := s.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if label == "" {
		label = acct.Email
	}

	key, err := s.engine.GenerateKey(label)
	if err != nil {
		return nil, err
	}

	cred := Credential{
		AccountID: accountID,
		Secret:    key.SecretBase32,
		Enabled:   false,
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.CreateCredential(ctx, cred); err != nil {
		if errors.Is(err, ErrCredentialAlreadyExists) {
			slog.Warn("Enrollment requested but credential exists", "accountId", accountID)
			return nil, ErrCredentialAlreadyExists
		}
		return nil, fmt.Errorf("failed to create credential: %w", err)
	}

	slog.Info("Began 2FA enrollment", "accountId", accountID)
	return key, nil
}

// CompleteEnrollment validates the setup code and enables the credential.
// Idempotent once enabled: a valid code keeps returning success and the state
// never moves backward.
func (s *TwoFaService) CompleteEnrollment(ctx context.Context, accountID uuid.UUID, code string) error {
	cred, err := s.repo.GetCredential(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			return ErrNoPendingCredential
		}
		return fmt.Errorf("failed to get credential: %w", err)
	}

	if !s.engine.Validate(cred.Secret, code, s.now()) {
		return ErrInvalidCode
	}

	if err := s.repo.EnableCredential(ctx, accountID, s.now()); err != nil {
		return fmt.Errorf("failed to enable credential: %w", err)
	}

	slog.Info("Completed 2FA enrollment", "accountId", accountID)
	return nil
}

// Status reports whether the account must present a second factor at sign-in
func (s *TwoFaService) Status(ctx context.Context, accountID uuid.UUID) (Status, error) {
	acct, err := s.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return Status{}, err
	}

	if !acct.Role.RequiresTwoFactor() {
		return Status{}, nil
	}

	cred, err := s.repo.GetCredential(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			return Status{SetupPending: true}, nil
		}
		return Status{}, fmt.Errorf("failed to get credential: %w", err)
	}

	if !cred.Enabled {
		return Status{SetupPending: true}, nil
	}
	return Status{Required: true, Enabled: true}, nil
}

// CheckRequiresTwoFactor is a convenience over Status
func (s *TwoFaService) CheckRequiresTwoFactor(ctx context.Context, accountID uuid.UUID) (bool, error) {
	status, err := s.Status(ctx, accountID)
	if err != nil {
		return false, err
	}
	return status.Required, nil
}

// VerifySignIn validates the second factor during sign-in. The caller must
// have completed password verification with the identity provider first; this
// service never authenticates the account identity itself, and on success the
// caller finishes session issuance.
func (s *TwoFaService) VerifySignIn(ctx context.Context, accountID uuid.UUID, code string) error {
	cred, err := s.repo.GetCredential(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			slog.Warn("Sign-in verification without credential", "accountId", accountID)
			return ErrCredentialNotEnabled
		}
		return fmt.Errorf("failed to get credential: %w", err)
	}

	if !cred.Enabled {
		return ErrCredentialNotEnabled
	}

	if !s.engine.Validate(cred.Secret, code, s.now()) {
		return ErrInvalidCode
	}
	return nil
}
