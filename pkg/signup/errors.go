package signup

import (
	"errors"
	"fmt"
)

// ErrRegistrationDisabled is returned when self-service signup is turned off
var ErrRegistrationDisabled = errors.New("registration is disabled")

// ErrPasswordTooShort is returned when a password does not meet the minimum length
type ErrPasswordTooShort struct {
	MinLength int
}

func (e ErrPasswordTooShort) Error() string {
	return fmt.Sprintf("password must be at least %d characters", e.MinLength)
}
