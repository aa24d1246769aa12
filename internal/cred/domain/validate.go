package domain

import "errors"

// Validation reason errors. Messages are surfaced verbatim to the caller,
// so they stay human-readable.
var (
	ErrUsernameLength  = errors.New("username must be between 3 and 20 characters long")
	ErrUsernameCharset = errors.New("username can only contain alphanumeric characters and underscores")

	ErrPasswordLength    = errors.New("password must be between 6 and 50 characters long")
	ErrPasswordUppercase = errors.New("password must contain at least one uppercase letter")
	ErrPasswordLowercase = errors.New("password must contain at least one lowercase letter")
	ErrPasswordDigit     = errors.New("password must contain at least one digit")
)

// ValidateUsername checks the shape of a username: 3-20 characters,
// alphanumeric or underscore. It returns the first violated rule only.
func ValidateUsername(username string) error {
	if len(username) < 3 || len(username) > 20 {
		return ErrUsernameLength
	}
	for _, r := range username {
		if !isWordChar(r) {
			return ErrUsernameCharset
		}
	}
	return nil
}

// ValidatePassword checks password strength: 6-50 characters with at least
// one uppercase letter, one lowercase letter and one digit. Rules are
// checked in that order and the first failure wins; the length rule takes
// priority over the character-class rules.
func ValidatePassword(password string) error {
	if len(password) < 6 || len(password) > 50 {
		return ErrPasswordLength
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}

	switch {
	case !upper:
		return ErrPasswordUppercase
	case !lower:
		return ErrPasswordLowercase
	case !digit:
		return ErrPasswordDigit
	}
	return nil
}

func isWordChar(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') ||
		r == '_'
}
