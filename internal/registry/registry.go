// Package registry records generation and validation run history in a
// local SQLite database, adapted from the teacher's internal/db migration
// pattern: a schema_version table gates a sequence of forward-only
// migrations, applied once at Open.
package registry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"pyesg/internal/logger"

	_ "modernc.org/sqlite"
)

// Registry wraps a SQLite database recording run history.
type Registry struct {
	sql *sql.DB
}

func dbPath() string {
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, "pyesg.db")
	}
	exe, _ := os.Executable()
	return filepath.Join(filepath.Dir(exe), "pyesg.db")
}

// Open opens (or creates) the registry database at the working directory
// and runs any pending migrations.
func Open() (*Registry, error) {
	path := dbPath()
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open registry db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping registry db: %w", err)
	}
	r := &Registry{sql: sqlDB}
	if err := r.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate registry db: %w", err)
	}
	logger.Success("registry", fmt.Sprintf("opened %s", path))
	return r, nil
}

// Close closes the underlying database connection.
func (r *Registry) Close() error {
	return r.sql.Close()
}

func (r *Registry) migrate() error {
	version := 0
	r.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := r.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS generation_runs (
				id                  TEXT PRIMARY KEY,
				started_at          TEXT NOT NULL,
				finished_at         TEXT,
				config_path         TEXT NOT NULL,
				output_path         TEXT NOT NULL,
				random_seed         INTEGER NOT NULL,
				number_of_simulations INTEGER NOT NULL,
				number_of_projection_steps INTEGER NOT NULL,
				status              TEXT NOT NULL DEFAULT 'running',
				error_message       TEXT
			);
			CREATE INDEX IF NOT EXISTS idx_generation_runs_started ON generation_runs(started_at DESC);

			CREATE TABLE IF NOT EXISTS validation_runs (
				id              TEXT PRIMARY KEY,
				generation_run_id TEXT REFERENCES generation_runs(id),
				started_at      TEXT NOT NULL,
				finished_at     TEXT,
				config_path     TEXT NOT NULL,
				report_path     TEXT NOT NULL,
				status          TEXT NOT NULL DEFAULT 'running',
				error_message   TEXT
			);
			CREATE INDEX IF NOT EXISTS idx_validation_runs_started ON validation_runs(started_at DESC);
			CREATE INDEX IF NOT EXISTS idx_validation_runs_generation ON validation_runs(generation_run_id);

			CREATE TABLE IF NOT EXISTS validation_results (
				id                INTEGER PRIMARY KEY AUTOINCREMENT,
				validation_run_id TEXT NOT NULL REFERENCES validation_runs(id),
				asset_class_id    TEXT NOT NULL,
				analysis_id       TEXT NOT NULL,
				result_type       TEXT NOT NULL,
				results_json      TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_validation_results_run ON validation_results(validation_run_id);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		logger.Info("registry", "applied migration v1 (generation/validation run history)")
	}

	return nil
}
