package account

import (
	"errors"
	"fmt"
)

// ErrAccountNotFound is returned when the referenced account id does not exist
var ErrAccountNotFound = errors.New("account not found")

// ErrEmailAlreadyExists is returned when attempting to create an account with
// an email that already exists
type ErrEmailAlreadyExists struct {
	Email string
}

func (e ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already exists: %s", e.Email)
}
