package auth

import (
	"errors"
	"strings"
)

var ErrInvalidUsername = errors.New("invalid username")

const (
	minUsernameLen = 3
	maxUsernameLen = 32
)

// SanitizeUsername normalizes a raw username: trims whitespace, lowercases,
// and strips everything outside [a-z0-9._-]. Returns ErrInvalidUsername when
// the cleaned result is too short or too long.
func SanitizeUsername(raw string) (string, error) {
	cleaned := strings.Builder{}
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			cleaned.WriteRune(r)
		}
	}

	username := cleaned.String()
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return "", ErrInvalidUsername
	}
	return username, nil
}
