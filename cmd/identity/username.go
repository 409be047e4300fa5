package identity

import (
	"strings"
	"unicode/utf8"

	"tasktrack/cmd/internal/apperr"
)

// MaxUsernameBytes caps stored usernames.
const MaxUsernameBytes = 255

// CheckUsername validates a username without altering it.
// Usernames are compared exactly: they are not trimmed or case-folded, so "alice"
// and "Alice" are distinct accounts.
func CheckUsername(op, username string) error {
	switch {
	case strings.TrimSpace(username) == "":
		return apperr.Invalid(op, "username is required")
	case len(username) > MaxUsernameBytes:
		return apperr.Invalid(op, "username is too long")
	case !utf8.ValidString(username):
		return apperr.Invalid(op, "username must be valid UTF-8")
	}
	return nil
}

// conflictField maps a backend constraint target to the logical field name.
func conflictField(constraint string) string {
	if strings.Contains(constraint, "username") {
		return "username"
	}
	return "unique"
}

func userNotFound(op string) error {
	return apperr.NotFoundError{Op: op, Resource: "user"}
}
