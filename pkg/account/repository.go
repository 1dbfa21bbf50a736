package account

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mentorhub/mentor-idm/pkg/kvstore"
)

// Repository defines the interface for account persistence
type Repository interface {
	CreateAccount(ctx context.Context, acct Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (Account, error)
	GetAccountByEmail(ctx context.Context, email string) (Account, error)
}

// KVRepository implements Repository on top of the key-value store. Records
// live under "account:{id}" with an "account:email:{email}" index pointing
// back at the id.
type KVRepository struct {
	store kvstore.Store
}

// NewKVRepository creates a key-value backed account repository
func NewKVRepository(store kvstore.Store) *KVRepository {
	return &KVRepository{store: store}
}

func accountKey(id uuid.UUID) string {
	return "account:" + id.String()
}

func emailKey(email string) string {
	return "account:email:" + strings.ToLower(email)
}

// CreateAccount persists a new account. The email index is claimed first so
// two concurrent signups with the same email cannot both succeed.
func (r *KVRepository) CreateAccount(ctx context.Context, acct Account) error {
	if err := r.store.SetIfAbsent(ctx, emailKey(acct.Email), []byte(acct.ID.String())); err != nil {
		if err == kvstore.ErrKeyExists {
			return ErrEmailAlreadyExists{Email: acct.Email}
		}
		return fmt.Errorf("failed to claim email index: %w", err)
	}

	data, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	if err := r.store.SetIfAbsent(ctx, accountKey(acct.ID), data); err != nil {
		if err == kvstore.ErrKeyExists {
			return fmt.Errorf("account already exists: %s", acct.ID)
		}
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

// GetAccount retrieves an account by id
func (r *KVRepository) GetAccount(ctx context.Context, id uuid.UUID) (Account, error) {
	data, found, err := r.store.Get(ctx, accountKey(id))
	if err != nil {
		return Account{}, fmt.Errorf("failed to get account: %w", err)
	}
	if !found {
		return Account{}, ErrAccountNotFound
	}

	var acct Account
	if err := json.Unmarshal(data, &acct); err != nil {
		return Account{}, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return acct, nil
}

// GetAccountByEmail retrieves an account through the email index
func (r *KVRepository) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	data, found, err := r.store.Get(ctx, emailKey(email))
	if err != nil {
		return Account{}, fmt.Errorf("failed to get email index: %w", err)
	}
	if !found {
		return Account{}, ErrAccountNotFound
	}

	id, err := uuid.Parse(string(data))
	if err != nil {
		return Account{}, fmt.Errorf("corrupt email index for %s: %w", email, err)
	}
	return r.GetAccount(ctx, id)
}
