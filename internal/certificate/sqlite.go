package certificate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps certificates in a local SQLite database.
type SQLiteStore struct {
	conn *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path and applies migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	s := &SQLiteStore{conn: conn, path: path}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	var version int
	if err := s.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version); err != nil {
		return err
	}

	migrations := []string{migrationV1}
	for i, migration := range migrations {
		v := i + 1
		if v <= version {
			continue
		}
		tx, err := s.conn.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migration); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration v%d failed: %w", v, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", v); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

const migrationV1 = `
CREATE TABLE IF NOT EXISTS certificates (
    id TEXT PRIMARY KEY,
    wipe_id TEXT NOT NULL,
    device_id TEXT NOT NULL,
    standard TEXT NOT NULL,
    passes INTEGER NOT NULL,
    mode TEXT NOT NULL,
    started_at TEXT NOT NULL,
    completed_at TEXT NOT NULL,
    duration_seconds REAL NOT NULL,
    generated_at TEXT NOT NULL,
    verification_code TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_certificates_wipe ON certificates(wipe_id);
CREATE INDEX IF NOT EXISTS idx_certificates_device ON certificates(device_id);
`

// Timestamps are stored as RFC 3339 text so they round-trip exactly.
const timeLayout = time.RFC3339Nano

func (s *SQLiteStore) Save(ctx context.Context, c *Certificate) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO certificates (
			id, wipe_id, device_id, standard, passes, mode,
			started_at, completed_at, duration_seconds, generated_at, verification_code
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID, c.WipeID, c.DeviceID, c.Standard, c.Passes, c.Mode,
		c.StartedAt.UTC().Format(timeLayout), c.CompletedAt.UTC().Format(timeLayout),
		c.DurationSeconds, c.GeneratedAt.UTC().Format(timeLayout), c.VerificationCode,
	)
	if err != nil {
		return fmt.Errorf("failed to insert certificate: %w", err)
	}
	return nil
}

const selectCertificate = `
	SELECT id, wipe_id, device_id, standard, passes, mode,
		started_at, completed_at, duration_seconds, generated_at, verification_code
	FROM certificates`

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Certificate, error) {
	row := s.conn.QueryRowContext(ctx, selectCertificate+" WHERE id = ?", id)
	c, err := scanCertificate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c, err
}

// List returns certificates newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]Certificate, error) {
	rows, err := s.conn.QueryContext(ctx, selectCertificate+" ORDER BY generated_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Certificate
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCertificate(row rowScanner) (*Certificate, error) {
	var c Certificate
	var started, completed, generated string
	err := row.Scan(
		&c.ID, &c.WipeID, &c.DeviceID, &c.Standard, &c.Passes, &c.Mode,
		&started, &completed, &c.DurationSeconds, &generated, &c.VerificationCode,
	)
	if err != nil {
		return nil, err
	}
	for _, f := range []struct {
		raw string
		dst *time.Time
	}{{started, &c.StartedAt}, {completed, &c.CompletedAt}, {generated, &c.GeneratedAt}} {
		t, err := time.Parse(timeLayout, f.raw)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", f.raw, err)
		}
		*f.dst = t
	}
	return &c, nil
}
