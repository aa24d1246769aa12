package flatfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/intelplatform/credstore/internal/cred/domain"
	"github.com/intelplatform/credstore/internal/cred/store"
	"github.com/intelplatform/credstore/pkg/cryptox"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "users.txt"))
}

func TestCreateAndGetUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := domain.User{Username: "alice", PasswordHash: "hash-a", Role: "admin"}
	require.NoError(t, s.CreateUser(ctx, u))

	got, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)
	require.Equal(t, "hash-a", got.PasswordHash)
	require.Equal(t, "admin", got.Role)
}

func TestCreateUser_AppendsOneLinePerRecord(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateUser(ctx, domain.User{Username: "alice", PasswordHash: "h1"}))
	require.NoError(t, s.CreateUser(ctx, domain.User{Username: "bob", PasswordHash: "h2"}))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "alice,h1,user", lines[0], "empty role defaults to user")
	require.Equal(t, "bob,h2,user", lines[1])
}

func TestCreateUser_Duplicate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateUser(ctx, domain.User{Username: "alice", PasswordHash: "h1"}))

	err := s.CreateUser(ctx, domain.User{Username: "alice", PasswordHash: "h2"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestCreateUser_RejectsSeparatorInFields(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, u := range []domain.User{
		{Username: "a,b", PasswordHash: "h"},
		{Username: "ok", PasswordHash: "h,h"},
		{Username: "ok", PasswordHash: "h", Role: "admin,user"},
	} {
		err := s.CreateUser(ctx, u)
		require.ErrorIs(t, err, ErrFieldSeparator)
		require.NotErrorIs(t, err, store.ErrUnavailable,
			"a bad field value is the caller's problem, not a storage outage")
	}

	// Nothing reaches the file
	_, err := os.Stat(s.Path())
	require.True(t, os.IsNotExist(err))
}

// Real password hashes must survive the write-then-read cycle intact;
// the encoding the hasher produces contains no field separator.
func TestCreateUser_RoundTripsRealHash(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	hash, err := cryptox.HashPassword("Secret1")
	require.NoError(t, err)
	require.NoError(t, s.CreateUser(ctx, domain.User{Username: "alice", PasswordHash: hash}))

	got, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, hash, got.PasswordHash)
	require.NoError(t, cryptox.VerifyPassword("Secret1", got.PasswordHash))
}

func TestGetUserByUsername_MissingFileAndNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// Missing file reads as empty, not as a storage failure
	_, err := s.GetUserByUsername(ctx, "ghost")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.CreateUser(ctx, domain.User{Username: "alice", PasswordHash: "h"}))

	_, err = s.GetUserByUsername(ctx, "ghost")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetUserByUsername_SkipsMalformedLines(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	content := "malformed-no-separator\n\nalice,hash-a,user\n"
	require.NoError(t, os.WriteFile(s.Path(), []byte(content), 0600))

	got, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "hash-a", got.PasswordHash)

	_, err = s.GetUserByUsername(ctx, "malformed-no-separator")
	require.ErrorIs(t, err, store.ErrNotFound, "username-only lines are invisible to login lookups")
}

func TestGetUserByUsername_TwoFieldLegacyLines(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, os.WriteFile(s.Path(), []byte("bob,hash-b\n"), 0600))

	got, err := s.GetUserByUsername(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, "hash-b", got.PasswordHash)
	require.Equal(t, domain.DefaultRole, got.Role)
}

func TestGetUserByUsername_CRLF(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, os.WriteFile(s.Path(), []byte("carol,hash-c,analyst\r\n"), 0600))

	got, err := s.GetUserByUsername(ctx, "carol")
	require.NoError(t, err)
	require.Equal(t, "hash-c", got.PasswordHash)
	require.Equal(t, "analyst", got.Role)
}

func TestReadAll_TolerantParse(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	content := strings.Join([]string{
		"alice,hash-a,admin",
		"bob,hash-b",
		"carol", // username only: placeholder hash, default role
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(s.Path(), []byte(content), 0600))

	records, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)

	require.Equal(t, domain.User{Username: "alice", PasswordHash: "hash-a", Role: "admin"}, records[0])
	require.Equal(t, domain.User{Username: "bob", PasswordHash: "hash-b", Role: domain.DefaultRole}, records[1])
	require.Equal(t, domain.User{Username: "carol", PasswordHash: PlaceholderHash, Role: domain.DefaultRole}, records[2])
}

func TestReadAll_MissingFile(t *testing.T) {
	s := newTestStore(t)

	records, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestCreateUser_ConcurrentSameUsername(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	const attempts = 8
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.CreateUser(ctx, domain.User{Username: "racer", PasswordHash: "h"})
		}()
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, store.ErrAlreadyExists)
		}
	}
	require.Equal(t, 1, wins, "check-and-append must be atomic under the lock")

	n, err := s.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}
