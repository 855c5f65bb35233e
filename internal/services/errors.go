package services

import (
	"errors"
	"strings"
)

var (
	// ErrUnauthorized means the request carried no usable owner identity.
	ErrUnauthorized = errors.New("authentication required")
	// ErrInvalidCredentials covers both unknown usernames and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already taken")
)

// ValidationError reports rejected input. Message is the summary shown to
// the client; Details lists every violated rule when there is more than one
// rule in play.
type ValidationError struct {
	Message string
	Details []string
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Details, "; ")
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
