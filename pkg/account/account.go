package account

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role distinguishes the two kinds of platform users. Only mentors are
// required to protect their account with a second factor.
type Role string

const (
	RoleMentor Role = "mentor"
	RoleMentee Role = "mentee"
)

// ParseRole converts a raw string into a Role, rejecting anything outside the
// closed set.
func ParseRole(role string) (Role, error) {
	switch Role(role) {
	case RoleMentor, RoleMentee:
		return Role(role), nil
	default:
		return "", fmt.Errorf("invalid role: %s, must be one of: %s, %s", role, RoleMentor, RoleMentee)
	}
}

// RequiresTwoFactor reports whether accounts with this role must enroll in
// two-factor authentication.
func (r Role) RequiresTwoFactor() bool {
	return r == RoleMentor
}

// Account identifies a user of the platform. The email doubles as the TOTP
// label shown in authenticator apps.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"password_hash,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
