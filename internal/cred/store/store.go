package store

import (
	"context"
	"errors"

	"github.com/intelplatform/credstore/internal/cred/domain"
)

var (
	// ErrNotFound reports that no record matched the lookup.
	ErrNotFound = errors.New("store: not found")

	// ErrAlreadyExists reports a username collision on insert. Backends
	// must detect it atomically with the write itself, never with a
	// separate pre-check.
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrUnavailable reports that the backing file or database engine
	// could not be opened, read or written. It is fatal to the current
	// operation but never crashes the process.
	ErrUnavailable = errors.New("store: storage unavailable")
)

// Users is the capability interface shared by the relational and the
// legacy flat-file credential backends. Records are created and read;
// this subsystem never updates or deletes them.
type Users interface {
	// GetUserByUsername returns the record by exact, case-sensitive
	// username match, or ErrNotFound.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a new record. A username collision yields
	// ErrAlreadyExists; the check-and-insert is atomic with respect to
	// concurrent callers.
	CreateUser(ctx context.Context, u domain.User) error

	// Exists reports whether a record with the username is present.
	Exists(ctx context.Context, username string) (bool, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// Close releases any underlying resources.
	Close() error
}
