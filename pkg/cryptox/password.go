package cryptox

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrHashMismatch reports that the candidate password does not match the
// stored hash. Any other error from VerifyPassword means the stored value
// could not be parsed as a bcrypt hash.
var ErrHashMismatch = errors.New("cryptox: password does not match")

// cost is the bcrypt work factor. Each hash/verify call costs tens of
// milliseconds; the value is embedded in the hash, so it can be raised
// later without invalidating stored records.
const cost = bcrypt.DefaultCost

// HashPassword derives a salted bcrypt hash of the password and returns
// its standard `$2a$...` encoding. The salt is freshly generated on every
// call, so hashing the same password twice yields two different
// encodings. The encoding never contains a comma, which keeps it safe to
// carry in the comma-separated flat user file.
//
// bcrypt rejects inputs longer than 72 bytes; password shape validation
// caps passwords at 50, so the limit is only reachable when callers skip
// validation.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("cryptox: hashing password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks password against a stored bcrypt hash using the
// salt and work factor embedded in the encoding. The comparison is
// constant time. A malformed encoding yields a parse error, never a
// panic.
func VerifyPassword(password, encoded string) error {
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrHashMismatch
	default:
		return fmt.Errorf("cryptox: invalid hash encoding: %w", err)
	}
}

// IsEncodedHash reports whether s parses as a bcrypt hash. It inspects
// structure only; a well-formed hash for the wrong password still passes.
func IsEncodedHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}
