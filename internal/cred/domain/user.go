package domain

import "time"

// DefaultRole is assigned when a registration or legacy record carries no
// explicit role. Roles are free-form strings; no enumeration is enforced.
const DefaultRole = "user"

// User is a stored credential record. PasswordHash is write-once: there is
// no change-password or delete operation in this subsystem.
type User struct {
	ID           string
	Username     string // unique per backend, case-sensitive
	PasswordHash string // bcrypt modular crypt encoding
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
