package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/intelplatform/credstore/internal/cred/service"
	"github.com/intelplatform/credstore/internal/cred/store"
	"github.com/intelplatform/credstore/internal/cred/store/drivers/flatfile"
	"github.com/intelplatform/credstore/internal/cred/store/drivers/sqlite"
	"github.com/intelplatform/credstore/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application wires the credential subsystem together: the relational
// store, the legacy flat-file store, and the services on top of them.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     *sqlite.Store
	legacy *flatfile.Store

	userService      *service.UserService
	migrationService *service.MigrationService
}

// New initialises the application: logging, the relational store with its
// schema migrations, and the services.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "credstore",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	db, err := sqlite.NewStore(cfg.DatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema migrations: %w", err)
	}
	app.db = db
	app.legacy = flatfile.NewStore(cfg.LegacyUsersFile)

	app.userService = &service.UserService{
		Store:   db,
		Limiter: service.NewLoginLimiter(service.LoginLimit),
	}
	app.migrationService = &service.MigrationService{
		Source: app.legacy,
		Dest:   db,
	}

	return app, nil
}

// MigrateLegacy backfills the relational store from any pre-existing flat
// user file. Safe to run on every startup: the store's duplicate
// rejection makes repeated runs no-ops.
func (app *Application) MigrateLegacy(ctx context.Context) (int, error) {
	ctx = slogx.WithContext(ctx, app.logger)
	return app.migrationService.Migrate(ctx)
}

// Register validates and stores a new credential record.
func (app *Application) Register(ctx context.Context, username, password string) error {
	ctx = slogx.WithContext(ctx, app.logger)
	_, err := app.userService.Register(ctx, username, password, app.cfg.DefaultRole)
	return err
}

// Login authenticates a username/password pair.
func (app *Application) Login(ctx context.Context, username, password string) error {
	ctx = slogx.WithContext(ctx, app.logger)
	_, err := app.userService.Login(ctx, username, password)
	return err
}

// Close releases the underlying stores.
func (app *Application) Close() error {
	var errs []error
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	if app.legacy != nil {
		errs = append(errs, app.legacy.Close())
	}
	return errors.Join(errs...)
}

// Describe turns a service error into the message shown on the console.
// Storage failures are passed through; they fail the operation but never
// crash the menu loop.
func Describe(err error) string {
	var verr *service.ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &verr):
		return verr.Reason.Error()
	case errors.Is(err, service.ErrDuplicateUser):
		return "that username already exists, pick another"
	case errors.Is(err, service.ErrUserNotFound):
		return "username not found"
	case errors.Is(err, service.ErrInvalidPassword):
		return "invalid password"
	case errors.Is(err, service.ErrTooManyAttempts):
		return "too many attempts, try again later"
	case errors.Is(err, store.ErrUnavailable):
		return "storage unavailable: " + err.Error()
	default:
		return err.Error()
	}
}
