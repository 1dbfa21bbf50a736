package twofa

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mentorhub/mentor-idm/pkg/totp"
)

// NoOpTwoFactorService is a no-op implementation of TwoFactorService. It lets
// callers that depend on TwoFactorService run with 2FA switched off: status
// checks report nothing required, everything else reports not configured.
type NoOpTwoFactorService struct{}

// NewNoOpTwoFactorService creates a new no-op two-factor service
func NewNoOpTwoFactorService() TwoFactorService {
	return &NoOpTwoFactorService{}
}

func (n *NoOpTwoFactorService) BeginEnrollment(ctx context.Context, accountID uuid.UUID, label string) (*totp.Key, error) {
	return nil, fmt.Errorf("two-factor authentication not configured")
}

func (n *NoOpTwoFactorService) CompleteEnrollment(ctx context.Context, accountID uuid.UUID, code string) error {
	return fmt.Errorf("two-factor authentication not configured")
}

func (n *NoOpTwoFactorService) Status(ctx context.Context, accountID uuid.UUID) (Status, error) {
	return Status{}, nil // Nothing required, nothing pending
}

func (n *NoOpTwoFactorService) CheckRequiresTwoFactor(ctx context.Context, accountID uuid.UUID) (bool, error) {
	return false, nil
}

func (n *NoOpTwoFactorService) VerifySignIn(ctx context.Context, accountID uuid.UUID, code string) error {
	return fmt.Errorf("two-factor authentication not configured")
}
