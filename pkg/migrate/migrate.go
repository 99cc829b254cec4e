package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/quotebuilder-backend/pkg/config"
)

// DefaultDir is the on-disk migrations root; each dialect has its own
// subdirectory.
const DefaultDir = "pkg/migrate/migrations"

// Goose dialect names, also used as the subdirectory names.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

//go:embed migrations/*/*.sql
var embedded embed.FS

// Dialects lists every dialect that ships migrations.
var Dialects = []string{DialectPostgres, DialectSQLite}

// DialectFor maps a configured database driver to its goose dialect.
func DialectFor(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", config.DriverPostgres:
		return DialectPostgres, nil
	case config.DriverSQLite, DialectSQLite:
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("no migrations for database driver %q", driver)
	}
}

// Source points goose at a migrations directory. An empty Dir selects the
// migrations compiled into the binary.
type Source struct {
	Dialect string
	Dir     string
}

func (s Source) prepare() (string, error) {
	if s.Dialect == "" {
		return "", fmt.Errorf("dialect is required")
	}
	if err := goose.SetDialect(s.Dialect); err != nil {
		return "", fmt.Errorf("set goose dialect: %w", err)
	}
	if s.Dir == "" {
		goose.SetBaseFS(embedded)
		return path.Join("migrations", s.Dialect), nil
	}
	goose.SetBaseFS(nil)
	return path.Join(s.Dir, s.Dialect), nil
}

// Run executes a standard goose command that requires a DB connection.
func Run(ctx context.Context, db *sql.DB, src Source, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	dir, err := src.prepare()
	if err != nil {
		return err
	}

	// RunContext prints status output to stdout (goose internal)
	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Version reports the current schema version.
func Version(db *sql.DB, src Source) (int64, error) {
	if _, err := src.prepare(); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(db)
}

// MigrateToVersion migrates up/down to the requested version by comparing current DB version.
func MigrateToVersion(ctx context.Context, db *sql.DB, src Source, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	dir, err := src.prepare()
	if err != nil {
		return err
	}
	current, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil
	case current < target:
		if err := goose.UpToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
		return nil
	default:
		if err := goose.DownToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
		return nil
	}
}
