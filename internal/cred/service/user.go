package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/intelplatform/credstore/internal/cred/domain"
	"github.com/intelplatform/credstore/internal/cred/store"
	"github.com/intelplatform/credstore/pkg/cryptox"
	"github.com/intelplatform/credstore/pkg/idx"
	"github.com/intelplatform/credstore/pkg/slogx"
)

var (
	// ErrDuplicateUser reports a registration against a taken username.
	ErrDuplicateUser = errors.New("duplicate_user")

	// ErrUserNotFound and ErrInvalidPassword are kept distinguishable so
	// the caller can give precise feedback. A hardened deployment may
	// choose to collapse them into one message at its own boundary.
	ErrUserNotFound    = errors.New("user_not_found")
	ErrInvalidPassword = errors.New("invalid_password")

	// ErrTooManyAttempts reports that the login throttle rejected the
	// attempt before any credential was checked.
	ErrTooManyAttempts = errors.New("too_many_attempts")
)

// ValidationError reports a username or password that failed shape
// validation before any storage call was made.
type ValidationError struct {
	Reason error
}

func (e *ValidationError) Error() string { return e.Reason.Error() }
func (e *ValidationError) Unwrap() error { return e.Reason }

// UserService implements registration and login on top of any credential
// backend. Duplicate detection is delegated entirely to the store's
// atomic CreateUser; there is no lookup-before-insert here.
type UserService struct {
	Store   store.Users
	Limiter *LoginLimiter // optional; nil disables throttling
}

// Register validates the credentials, hashes the password and inserts the
// record. The returned user carries the freshly minted ID.
func (s *UserService) Register(ctx context.Context, username, password, role string) (domain.User, error) {
	if err := domain.ValidateUsername(username); err != nil {
		return domain.User{}, &ValidationError{Reason: err}
	}
	if err := domain.ValidatePassword(password); err != nil {
		return domain.User{}, &ValidationError{Reason: err}
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hashing password: %w", err)
	}

	if role == "" {
		role = domain.DefaultRole
	}

	u := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}

	if err := s.Store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrDuplicateUser
		}
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user registered", slog.String("username", username), slog.String("role", role))
	return u, nil
}

// Login authenticates a username/password pair. It fails with
// ErrUserNotFound when no record matches, ErrInvalidPassword when the
// hash comparison fails, and ErrTooManyAttempts when the per-username
// throttle trips. A stored hash that cannot be parsed (e.g. a legacy
// placeholder carried over by migration) also fails as ErrInvalidPassword.
func (s *UserService) Login(ctx context.Context, username, password string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	if s.Limiter != nil && !s.Limiter.Allow(username) {
		l.Warn("login throttled", slog.String("username", username))
		return domain.User{}, ErrTooManyAttempts
	}

	u, err := s.Store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrHashMismatch) {
			// Unparseable stored hash: the record can never authenticate
			l.Warn("stored hash is not a valid encoding", slog.String("username", username))
		}
		return domain.User{}, ErrInvalidPassword
	}

	l.Info("user authenticated", slog.String("username", username))
	return u, nil
}
