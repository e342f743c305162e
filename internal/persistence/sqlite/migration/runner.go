package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

const createVersionTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	description TEXT NOT NULL,
	applied_at TEXT NOT NULL,
	execution_time_ms INTEGER NOT NULL
)`

// Runner applies pending migrations to a database.
type Runner struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRunner returns a Runner for db. A nil logger uses slog.Default.
func NewRunner(db *sql.DB, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{db: db, logger: logger.With("component", "migration")}
}

// Applied returns the versions already recorded, in ascending order.
func (r *Runner) Applied(ctx context.Context) ([]int, error) {
	if _, err := r.db.ExecContext(ctx, createVersionTable); err != nil {
		return nil, &Error{Operation: "create schema_migrations", Err: err}
	}

	rows, err := r.db.QueryContext(ctx, `SELECT version FROM schema_migrations ORDER BY version ASC`)
	if err != nil {
		return nil, &Error{Operation: "list applied versions", Err: err}
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, &Error{Operation: "scan applied version", Err: err}
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// Run applies every migration whose version is not yet recorded and returns
// how many were applied.
func (r *Runner) Run(ctx context.Context, migrations []Migration) (int, error) {
	applied, err := r.Applied(ctx)
	if err != nil {
		return 0, err
	}
	done := make(map[int]struct{}, len(applied))
	for _, v := range applied {
		done[v] = struct{}{}
	}

	count := 0
	for _, m := range migrations {
		if _, ok := done[m.Version]; ok {
			continue
		}
		started := time.Now()
		if err := r.apply(ctx, m, started); err != nil {
			r.logger.ErrorContext(ctx, "migration failed", "version", m.Version, "file", m.FileName, "error", err)
			return count, err
		}
		count++
		r.logger.InfoContext(ctx, "migration applied", "version", m.Version, "description", m.Description,
			"duration", time.Since(started))
	}
	return count, nil
}

func (r *Runner) apply(ctx context.Context, m Migration, started time.Time) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &Error{Version: m.Version, FileName: m.FileName, Operation: "begin transaction", Err: err}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, stmt := range splitStatements(m.SQL) {
		if _, execErr := tx.ExecContext(ctx, stmt); execErr != nil {
			return &Error{Version: m.Version, FileName: m.FileName,
				Operation: fmt.Sprintf("execute statement %d", i+1), Err: fmt.Errorf("%w: %v", ErrFailed, execErr)}
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, description, applied_at, execution_time_ms) VALUES (?, ?, ?, ?)`,
		m.Version, m.Description, time.Now().UTC().Format(time.RFC3339), time.Since(started).Milliseconds())
	if err != nil {
		return &Error{Version: m.Version, FileName: m.FileName, Operation: "record migration", Err: err}
	}

	if err = tx.Commit(); err != nil {
		return &Error{Version: m.Version, FileName: m.FileName, Operation: "commit", Err: err}
	}
	return nil
}
