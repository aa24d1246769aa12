// Package flatfile implements the legacy credential backend: an
// append-only UTF-8 text file with one comma-separated record per line,
// `username,password_hash,role` (older two-field lines carry no role).
// Lookups are linear scans; callers should treat this backend as a
// migration source, not a growth path.
package flatfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/intelplatform/credstore/internal/cred/domain"
	"github.com/intelplatform/credstore/internal/cred/store"
)

// PlaceholderHash marks a legacy record that carried no password hash.
// It is not a valid encoded hash, so such records can never authenticate.
const PlaceholderHash = "placeholder"

// ErrFieldSeparator reports a record field containing the comma that
// delimits fields on disk. The format has no escaping, so such a record
// cannot be written without corrupting the file.
var ErrFieldSeparator = errors.New("flatfile: field contains separator")

const maxFields = 3

type Store struct {
	path string

	// mu serialises scan-and-append so two concurrent registrations of
	// the same username cannot both pass the existence check.
	mu sync.Mutex
}

// NewStore returns a flat-file store backed by path. The file is created
// lazily on first write; a missing file reads as an empty store.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the backing file.
func (s *Store) Path() string { return s.path }

func (s *Store) Close() error { return nil }

// GetUserByUsername scans the file line by line and returns the first
// record whose username field matches exactly. Lines without at least a
// username and a hash are skipped, not treated as a parse failure.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found domain.User
	err := s.scan(ctx, func(u domain.User) bool {
		if u.Username == username {
			found = u
			return false
		}
		return true
	}, false)
	if err != nil {
		return domain.User{}, err
	}
	if found.Username == "" {
		return domain.User{}, store.ErrNotFound
	}
	return found, nil
}

// Exists reports whether any line's username field matches exactly.
// O(n) in record count.
func (s *Store) Exists(ctx context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.existsLocked(ctx, username)
}

// CreateUser appends one record. The existence scan and the append happen
// under one lock, so the uniqueness invariant holds under concurrent
// registrations within this process.
func (s *Store) CreateUser(ctx context.Context, u domain.User) error {
	if strings.Contains(u.Username, ",") || strings.Contains(u.PasswordHash, ",") || strings.Contains(u.Role, ",") {
		return ErrFieldSeparator
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.existsLocked(ctx, u.Username)
	if err != nil {
		return err
	}
	if exists {
		return store.ErrAlreadyExists
	}

	role := u.Role
	if role == "" {
		role = domain.DefaultRole
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("flatfile: opening %s: %w", s.path, store.ErrUnavailable)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s,%s,%s\n", u.Username, u.PasswordHash, role); err != nil {
		return fmt.Errorf("flatfile: appending to %s: %w", s.path, store.ErrUnavailable)
	}
	return nil
}

// Count returns the number of parseable records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	err := s.scan(ctx, func(domain.User) bool {
		n++
		return true
	}, false)
	return n, err
}

// ReadAll returns every record in file order using the tolerant parse
// used during migration: a line holding only a username still yields a
// record, with PlaceholderHash and the default role filled in. A missing
// file yields an empty slice, not an error.
func (s *Store) ReadAll(ctx context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []domain.User
	err := s.scan(ctx, func(u domain.User) bool {
		records = append(records, u)
		return true
	}, true)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) existsLocked(ctx context.Context, username string) (bool, error) {
	found := false
	err := s.scan(ctx, func(u domain.User) bool {
		if u.Username == username {
			found = true
			return false
		}
		return true
	}, true)
	return found, err
}

// scan streams parsed records to fn until fn returns false or the file is
// exhausted. With tolerant set, username-only lines are reported with
// placeholder fields; otherwise they are skipped as malformed.
func (s *Store) scan(ctx context.Context, fn func(domain.User) bool, tolerant bool) error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("flatfile: opening %s: %w", s.path, store.ErrUnavailable)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		u, ok := parseLine(scanner.Text(), tolerant)
		if !ok {
			continue
		}
		if !fn(u) {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("flatfile: reading %s: %w", s.path, store.ErrUnavailable)
	}
	return nil
}

// parseLine splits a record line into at most three fields. Trailing CR
// from CRLF files is stripped. Only a leading username is guaranteed to
// parse if later fields contain commas; the format has no escaping.
func parseLine(line string, tolerant bool) (domain.User, bool) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return domain.User{}, false
	}

	fields := strings.SplitN(line, ",", maxFields)
	if len(fields) < 2 && !tolerant {
		return domain.User{}, false
	}

	u := domain.User{
		Username:     fields[0],
		PasswordHash: PlaceholderHash,
		Role:         domain.DefaultRole,
	}
	if u.Username == "" {
		return domain.User{}, false
	}
	if len(fields) > 1 && fields[1] != "" {
		u.PasswordHash = fields[1]
	}
	if len(fields) > 2 && fields[2] != "" {
		u.Role = fields[2]
	}
	return u, true
}
