// Package migrate applies the goose SQL migrations that own the orders and outbox schema.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/heritageheaven/storefront-backend/pkg/config"
	"github.com/heritageheaven/storefront-backend/pkg/logger"
)

const DefaultDir = "pkg/migrate/migrations"

const embeddedDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Dialect maps the configured DB driver onto the goose dialect.
func Dialect(driver string) goose.Dialect {
	if driver == config.DBDriverSQLite {
		return goose.DialectSQLite3
	}
	return goose.DialectPostgres
}

// Runner wraps a goose provider bound to one database and one migrations source. Unlike
// goose's package-level API it holds no global state, so tests may run several at once.
type Runner struct {
	provider *goose.Provider
	logg     *logger.Logger
}

// NewRunner reads migrations from the root of fsys.
func NewRunner(db *sql.DB, driver string, fsys fs.FS, logg *logger.Logger) (*Runner, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	provider, err := goose.NewProvider(Dialect(driver), db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Runner{provider: provider, logg: logg}, nil
}

// Embedded runs the migrations compiled into the binary.
func Embedded(db *sql.DB, driver string, logg *logger.Logger) (*Runner, error) {
	sub, err := fs.Sub(embeddedMigrations, embeddedDir)
	if err != nil {
		return nil, err
	}
	return NewRunner(db, driver, sub, logg)
}

// FromDir runs the migrations found on disk under dir.
func FromDir(db *sql.DB, driver, dir string, logg *logger.Logger) (*Runner, error) {
	if dir == "" {
		return nil, errors.New("dir is required")
	}
	return NewRunner(db, driver, os.DirFS(dir), logg)
}

// Up applies every pending migration.
func (r *Runner) Up(ctx context.Context) error {
	results, err := r.provider.Up(ctx)
	r.report(ctx, results...)
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Down rolls back the most recent migration.
func (r *Runner) Down(ctx context.Context) error {
	result, err := r.provider.Down(ctx)
	if result != nil {
		r.report(ctx, result)
	}
	if err != nil {
		return fmt.Errorf("goose down: %w", err)
	}
	return nil
}

// Reset rolls back every applied migration.
func (r *Runner) Reset(ctx context.Context) error {
	results, err := r.provider.DownTo(ctx, 0)
	r.report(ctx, results...)
	if err != nil {
		return fmt.Errorf("goose reset: %w", err)
	}
	return nil
}

// MigrateTo moves the schema up or down to version, written as YYYYMMDDHHMMSS.
func (r *Runner) MigrateTo(ctx context.Context, version string) error {
	target, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", version, err)
	}
	current, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	var results []*goose.MigrationResult
	switch {
	case current == target:
		return nil
	case current < target:
		results, err = r.provider.UpTo(ctx, target)
	default:
		results, err = r.provider.DownTo(ctx, target)
	}
	r.report(ctx, results...)
	if err != nil {
		return fmt.Errorf("goose migrate to %d: %w", target, err)
	}
	return nil
}

// Status logs one line per known migration and returns how many are still pending.
func (r *Runner) Status(ctx context.Context) (int, error) {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return 0, fmt.Errorf("goose status: %w", err)
	}
	pending := 0
	for _, st := range statuses {
		if st.State == goose.StatePending {
			pending++
		}
		if r.logg != nil {
			r.logg.Info(r.logg.WithFields(ctx, map[string]any{
				"version":    st.Source.Version,
				"file":       st.Source.Path,
				"state":      string(st.State),
				"applied_at": st.AppliedAt,
			}), "migration status")
		}
	}
	return pending, nil
}

func (r *Runner) report(ctx context.Context, results ...*goose.MigrationResult) {
	if r.logg == nil {
		return
	}
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		r.logg.Info(r.logg.WithFields(ctx, map[string]any{
			"version":     res.Source.Version,
			"file":        res.Source.Path,
			"direction":   res.Direction,
			"duration_ms": res.Duration.Milliseconds(),
		}), "migration applied")
	}
}
