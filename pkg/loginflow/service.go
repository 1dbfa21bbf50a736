package loginflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mentorhub/mentor-idm/pkg/account"
	"github.com/mentorhub/mentor-idm/pkg/identity"
	"github.com/mentorhub/mentor-idm/pkg/twofa"
)

// Outcome is the state a login attempt lands in after the password step
type Outcome string

const (
	// OutcomeSuccess means a session was issued
	OutcomeSuccess Outcome = "success"
	// OutcomeTwoFactorRequired means the password matched and the client must
	// now submit a TOTP code before a session is issued
	OutcomeTwoFactorRequired Outcome = "two_factor_required"
	// OutcomeTwoFactorSetupIncomplete means the account should be 2FA-gated
	// but enrollment was never completed. A session is still issued so the
	// owner can finish setup, and the flag tells the client to steer them
	// there instead of silently skipping 2FA.
	OutcomeTwoFactorSetupIncomplete Outcome = "two_factor_setup_incomplete"
)

// Result is the outcome of a login step. TwoFactorToken is only set when the
// outcome is OutcomeTwoFactorRequired; the client must echo it back on the
// second step as proof the password step succeeded.
type Result struct {
	Outcome        Outcome   `json:"status"`
	AccountID      uuid.UUID `json:"accountId"`
	SessionToken   string    `json:"sessionToken,omitempty"`
	TwoFactorToken string    `json:"twoFactorToken,omitempty"`
}

// LoginFlowService sequences the two factors: the identity provider verifies
// the password and issues sessions, the two-factor service judges codes. The
// 2FA step is never reachable without a successful password step first.
type LoginFlowService struct {
	provider     identity.Provider
	twoFaService twofa.TwoFactorService
	accounts     *account.Service
}

// NewLoginFlowService creates a new LoginFlowService
func NewLoginFlowService(provider identity.Provider, twoFaService twofa.TwoFactorService, accounts *account.Service) *LoginFlowService {
	return &LoginFlowService{
		provider:     provider,
		twoFaService: twoFaService,
		accounts:     accounts,
	}
}

// Login runs the password step and decides whether a second factor is needed
func (s *LoginFlowService) Login(ctx context.Context, email, password string) (Result, error) {
	acct, err := s.provider.VerifyPassword(ctx, email, password)
	if err != nil {
		return Result{}, err
	}

	status, err := s.twoFaService.Status(ctx, acct.ID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to check 2FA status: %w", err)
	}

	if status.Required {
		tempToken, err := s.provider.IssueTempToken(ctx, acct)
		if err != nil {
			return Result{}, fmt.Errorf("failed to issue temp token: %w", err)
		}
		slog.Info("2FA required for login, proceed to verification", "accountId", acct.ID)
		return Result{Outcome: OutcomeTwoFactorRequired, AccountID: acct.ID, TwoFactorToken: tempToken}, nil
	}

	token, err := s.provider.IssueSession(ctx, acct)
	if err != nil {
		return Result{}, fmt.Errorf("failed to issue session: %w", err)
	}

	if status.SetupPending {
		slog.Warn("Login with incomplete 2FA setup", "accountId", acct.ID)
		return Result{Outcome: OutcomeTwoFactorSetupIncomplete, AccountID: acct.ID, SessionToken: token}, nil
	}
	return Result{Outcome: OutcomeSuccess, AccountID: acct.ID, SessionToken: token}, nil
}

// VerifyTwoFactor runs the second step and completes session issuance with
// the identity provider. The temp token from the password step is mandatory;
// a code alone, however correct, never reaches the credential check, so the
// 2FA step stays unreachable without a successful password step first.
func (s *LoginFlowService) VerifyTwoFactor(ctx context.Context, tempToken, code string) (Result, error) {
	accountID, err := s.provider.VerifyTempToken(ctx, tempToken)
	if err != nil {
		return Result{}, err
	}

	if err := s.twoFaService.VerifySignIn(ctx, accountID, code); err != nil {
		return Result{}, err
	}

	acct, err := s.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to get account: %w", err)
	}

	token, err := s.provider.IssueSession(ctx, acct)
	if err != nil {
		return Result{}, fmt.Errorf("failed to issue session: %w", err)
	}

	return Result{Outcome: OutcomeSuccess, AccountID: accountID, SessionToken: token}, nil
}
