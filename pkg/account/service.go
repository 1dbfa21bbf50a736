package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service exposes account lookups and creation over a Repository.
type Service struct {
	repo Repository
}

// NewService creates a new account service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateAccount creates a new account with a fresh id. The password hash is
// produced by the identity layer; this service never sees plaintext passwords.
func (s *Service) CreateAccount(ctx context.Context, email string, role Role, passwordHash string) (Account, error) {
	acct := Account{
		ID:           uuid.New(),
		Email:        email,
		Role:         role,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.CreateAccount(ctx, acct); err != nil {
		return Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	slog.Info("Created account", "accountId", acct.ID, "role", acct.Role)
	return acct, nil
}

// GetAccount retrieves an account by id
func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (Account, error) {
	return s.repo.GetAccount(ctx, id)
}

// GetAccountByEmail retrieves an account by email
func (s *Service) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	return s.repo.GetAccountByEmail(ctx, email)
}
