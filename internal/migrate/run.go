// Package migrate applies the embedded SQL migrations that define the
// office-hours schema (users, courses, rosters, events, queue entries).
// Applied versions are recorded in schema_migrations, so Run is safe to call
// on every startup.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

const (
	versionTableDDL = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`

	versionAppliedQuery = `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`
	versionInsertQuery  = `INSERT INTO schema_migrations (version) VALUES ($1)`
)

// Run applies every pending migration in filename order. Each migration and
// its bookkeeping row commit in a single transaction, so a failed migration
// leaves the schema at the previous version.
func Run(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, versionTableDDL); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	files, err := migrationFiles()
	if err != nil {
		return err
	}

	logger := slog.Default().With("component", "migrations")
	for _, file := range files {
		version := strings.TrimSuffix(file, ".sql")

		applied, err := versionApplied(ctx, db, version)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", file, err)
		}
		if applied {
			continue
		}

		logger.InfoContext(ctx, "applying migration", "version", version)
		if err := applyOne(ctx, db, version, file); err != nil {
			return err
		}
	}
	return nil
}

// migrationFiles lists the embedded .sql files in lexical (version) order.
func migrationFiles() ([]string, error) {
	entries, err := schemaFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func versionApplied(ctx context.Context, db *sql.DB, version string) (bool, error) {
	var applied bool
	err := db.QueryRowContext(ctx, versionAppliedQuery, version).Scan(&applied)
	return applied, err
}

// applyOne executes one migration file and records its version in the same
// transaction.
func applyOne(ctx context.Context, db *sql.DB, version, file string) (err error) {
	ddl, err := schemaFS.ReadFile("migrations/" + file)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", file, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", file, err)
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback migration %s: %w", file, rerr))
		}
	}()

	if _, err = tx.ExecContext(ctx, string(ddl)); err != nil {
		return fmt.Errorf("exec migration %s: %w", file, err)
	}
	if _, err = tx.ExecContext(ctx, versionInsertQuery, version); err != nil {
		return fmt.Errorf("record migration %s: %w", file, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", file, err)
	}
	return nil
}
