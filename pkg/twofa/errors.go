package twofa

import "errors"

var (
	// ErrCredentialAlreadyExists is returned when enrollment is requested for
	// an account that already holds a pending or enabled credential.
	// Overwriting silently would invalidate a working authenticator setup.
	ErrCredentialAlreadyExists = errors.New("two-factor credential already exists")

	// ErrCredentialNotFound is the repository-level miss for an account with
	// no credential record.
	ErrCredentialNotFound = errors.New("two-factor credential not found")

	// ErrNoPendingCredential is returned by enrollment completion when there
	// is no credential awaiting verification.
	ErrNoPendingCredential = errors.New("no pending two-factor credential")

	// ErrCredentialNotEnabled is returned by sign-in verification when the
	// account has no enabled credential. A pending credential is never
	// accepted for sign-in gating, only for the one-time setup verification.
	ErrCredentialNotEnabled = errors.New("two-factor credential not enabled")

	// ErrInvalidCode is returned when a submitted code fails validation. It
	// deliberately does not distinguish a wrong code from an expired one.
	ErrInvalidCode = errors.New("invalid two-factor code")
)
