package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure. The message is shared
	// between unknown-user and wrong-password paths on purpose.
	ErrInvalidCredentials = errors.New("incorrect username or password")
	// ErrSessionNotPersisted indicates the durable session record could not
	// be written; the login still holds for the current interaction.
	ErrSessionNotPersisted = errors.New("session not persisted")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
	// ErrAccessDenied occurs when a page requires a role the user lacks.
	ErrAccessDenied = errors.New("access denied")
)
