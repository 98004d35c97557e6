package services

import "errors"

// Error kinds, matched with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrAuth       = errors.New("unauthorized")
	ErrNotFound   = errors.New("not found")
)

var (
	ErrMissingCredentials = kindError(ErrValidation, "username and password are required")
	ErrUsernameTaken      = kindError(ErrConflict, "username already exists")
	ErrInvalidCredentials = kindError(ErrAuth, "invalid username or password")
	ErrMissingIdentity    = kindError(ErrAuth, "user id not found")
	ErrTaskNotFound       = kindError(ErrNotFound, "task not found")
)

// classified is a fixed message that unwraps to its kind.
type classified struct {
	kind error
	msg  string
}

func kindError(kind error, msg string) error {
	return &classified{kind: kind, msg: msg}
}

func (e *classified) Error() string { return e.msg }

func (e *classified) Unwrap() error { return e.kind }
