package twofa

import (
	"time"

	"github.com/google/uuid"
)

// State describes where a credential sits in its lifecycle. There is no
// transition back: once enabled, a credential stays enabled.
type State string

const (
	// StateUnprovisioned means no credential exists for the account yet
	StateUnprovisioned State = "unprovisioned"
	// StatePendingVerification means a secret was issued but the owner has
	// not yet proven possession with a valid code
	StatePendingVerification State = "pending_verification"
	// StateEnabled means setup verification succeeded; the credential now
	// gates sign-in
	StateEnabled State = "enabled"
)

// Credential is the per-account TOTP enrollment record. At most one exists
// per account. The secret is handed out exactly once, in the enrollment
// response; afterwards it is only referenced internally for validation.
type Credential struct {
	AccountID  uuid.UUID  `json:"account_id"`
	Secret     string     `json:"secret"`
	Enabled    bool       `json:"enabled"`
	CreatedAt  time.Time  `json:"created_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

// State returns the lifecycle state of the credential
func (c Credential) State() State {
	if c.Enabled {
		return StateEnabled
	}
	return StatePendingVerification
}
