package authsvc

import "errors"

var (
	// ErrInvalidCredentials indicates a failed login. Unknown usernames
	// and wrong passwords produce the same error so that callers cannot
	// probe which usernames exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingToken indicates a verify call with no token supplied.
	ErrMissingToken = errors.New("missing token")
	// ErrUnauthorized indicates an unknown or expired token. The two
	// cases are deliberately indistinguishable.
	ErrUnauthorized = errors.New("invalid session")
	// ErrValidation indicates a missing required field.
	ErrValidation = errors.New("username and password are required")
)
