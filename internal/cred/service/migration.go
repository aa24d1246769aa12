package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/intelplatform/credstore/internal/cred/store"
	"github.com/intelplatform/credstore/internal/cred/store/drivers/flatfile"
	"github.com/intelplatform/credstore/pkg/cryptox"
	"github.com/intelplatform/credstore/pkg/idx"
	"github.com/intelplatform/credstore/pkg/slogx"
)

// MigrationService moves credential records from the legacy flat file
// into the relational store, one way. The source file is never mutated,
// so the routine runs on every startup and relies on the destination's
// duplicate rejection for idempotence rather than on any watermark.
type MigrationService struct {
	Source *flatfile.Store
	Dest   store.Users
}

// Migrate inserts every legacy record that is not already present in the
// destination and returns the number of rows actually added. A missing
// source file is the normal first-run state and yields 0. Duplicates are
// skipped silently: not counted, not errors.
//
// Hashes are carried over verbatim, never re-hashed: the plaintext is
// long gone. A record whose carried value is not a parseable hash (a
// username-only line gets a placeholder) is still inserted but can never
// authenticate; it is logged so an operator can deal with it.
func (s *MigrationService) Migrate(ctx context.Context) (int, error) {
	l := slogx.FromContext(ctx)

	records, err := s.Source.ReadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading legacy file: %w", err)
	}

	migrated := 0
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return migrated, err
		}

		if !cryptox.IsEncodedHash(rec.PasswordHash) {
			l.Warn("legacy record carries an unusable password hash; it will never authenticate",
				slog.String("username", rec.Username))
		}

		rec.ID = idx.New().String()
		err := s.Dest.CreateUser(ctx, rec)
		switch {
		case err == nil:
			migrated++
		case errors.Is(err, store.ErrAlreadyExists):
			// Already migrated, or registered directly: skip silently
		default:
			return migrated, fmt.Errorf("migrating %q: %w", rec.Username, err)
		}
	}

	l.Info("legacy migration finished",
		slog.String("source", s.Source.Path()),
		slog.Int("records", len(records)),
		slog.Int("migrated", migrated))

	return migrated, nil
}
