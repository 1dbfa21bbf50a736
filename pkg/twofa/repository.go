package twofa

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mentorhub/mentor-idm/pkg/kvstore"
)

// Repository defines the interface for credential persistence
type Repository interface {
	// CreateCredential persists a new credential. Returns
	// ErrCredentialAlreadyExists when the account already has one.
	CreateCredential(ctx context.Context, cred Credential) error
	// GetCredential retrieves the credential for an account. Returns
	// ErrCredentialNotFound when none exists.
	GetCredential(ctx context.Context, accountID uuid.UUID) (Credential, error)
	// EnableCredential flips enabled from false to true and records the
	// verification time. The transition is an atomic conditional update: a
	// credential that is already enabled is left untouched and the call is a
	// no-op, so concurrent successful verifications converge on one state.
	EnableCredential(ctx context.Context, accountID uuid.UUID, verifiedAt time.Time) error
}

// KVRepository implements Repository on top of the key-value store, one
// record per account under "2fa:{accountId}".
type KVRepository struct {
	store kvstore.Store
}

// NewKVRepository creates a key-value backed credential repository
func NewKVRepository(store kvstore.Store) *KVRepository {
	return &KVRepository{store: store}
}

func credentialKey(accountID uuid.UUID) string {
	return "2fa:" + accountID.String()
}

// CreateCredential persists a new credential record
func (r *KVRepository) CreateCredential(ctx context.Context, cred Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	if err := r.store.SetIfAbsent(ctx, credentialKey(cred.AccountID), data); err != nil {
		if err == kvstore.ErrKeyExists {
			return ErrCredentialAlreadyExists
		}
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// GetCredential retrieves the credential for an account
func (r *KVRepository) GetCredential(ctx context.Context, accountID uuid.UUID) (Credential, error) {
	data, found, err := r.store.Get(ctx, credentialKey(accountID))
	if err != nil {
		return Credential{}, fmt.Errorf("failed to get credential: %w", err)
	}
	if !found {
		return Credential{}, ErrCredentialNotFound
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return Credential{}, fmt.Errorf("failed to unmarshal credential: %w", err)
	}
	return cred, nil
}

// EnableCredential performs the one-way pending -> enabled transition
func (r *KVRepository) EnableCredential(ctx context.Context, accountID uuid.UUID, verifiedAt time.Time) error {
	return r.store.Update(ctx, credentialKey(accountID), func(current []byte) ([]byte, error) {
		if current == nil {
			return nil, ErrCredentialNotFound
		}

		var cred Credential
		if err := json.Unmarshal(current, &cred); err != nil {
			return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
		}

		if cred.Enabled {
			// Second writer loses quietly; end state is identical.
			return nil, kvstore.ErrAbortUpdate
		}

		cred.Enabled = true
		at := verifiedAt.UTC()
		cred.VerifiedAt = &at

		data, err := json.Marshal(cred)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal credential: %w", err)
		}
		return data, nil
	})
}
