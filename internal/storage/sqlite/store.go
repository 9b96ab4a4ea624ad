// Package sqlite implements team.Store on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/bluejays/teamtrack/internal/storage/sqlite/migrations"
	"github.com/bluejays/teamtrack/internal/team"
)

const pragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

// Store persists team documents in SQLite.
type Store struct {
	db *sql.DB
}

var _ team.Store = (*Store)(nil)

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// Open opens the database at path, creating it if needed, and applies the
// embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := sql.Open("sqlite", filepath.Clean(path)+pragmas)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const profileColumns = `uid, email, name, role, weight_class, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (team.Profile, error) {
	var (
		p       team.Profile
		role    string
		created int64
	)
	if err := row.Scan(&p.UID, &p.Email, &p.Name, &role, &p.WeightClass, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return team.Profile{}, team.ErrNotFound
		}
		return team.Profile{}, err
	}
	p.Role = team.Role(role)
	p.CreatedAt = fromMillis(created)
	return p, nil
}

// GetProfile returns the profile for uid or team.ErrNotFound.
func (s *Store) GetProfile(ctx context.Context, uid string) (team.Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM users WHERE uid = ?`, uid)
	p, err := scanProfile(row)
	if err != nil && !errors.Is(err, team.ErrNotFound) {
		return team.Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, err
}

// FindProfileByEmail returns the profile registered to email or team.ErrNotFound.
func (s *Store) FindProfileByEmail(ctx context.Context, email string) (team.Profile, error) {
	if email == "" {
		return team.Profile{}, team.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM users WHERE email = ?`, email)
	p, err := scanProfile(row)
	if err != nil && !errors.Is(err, team.ErrNotFound) {
		return team.Profile{}, fmt.Errorf("failed to find profile: %w", err)
	}
	return p, err
}

// CreateProfile inserts the profile and its roster entry.
func (s *Store) CreateProfile(ctx context.Context, p team.Profile) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (`+profileColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
			p.UID, p.Email, p.Name, string(p.Role), p.WeightClass, toMillis(p.CreatedAt),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: profile %s", team.ErrConflict, p.UID)
			}
			return fmt.Errorf("failed to insert profile: %w", err)
		}
		return upsertRoster(ctx, tx, p.Entry())
	})
}

// SaveProfile updates the profile and re-syncs its roster entry.
func (s *Store) SaveProfile(ctx context.Context, p team.Profile) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET email = ?, name = ?, role = ?, weight_class = ? WHERE uid = ?`,
			p.Email, p.Name, string(p.Role), p.WeightClass, p.UID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: email %s", team.ErrConflict, p.Email)
			}
			return fmt.Errorf("failed to update profile: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
		if n == 0 {
			return team.ErrNotFound
		}
		return upsertRoster(ctx, tx, p.Entry())
	})
}

func upsertRoster(ctx context.Context, tx *sql.Tx, e team.RosterEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO roster (uid, name, email, weight_class) VALUES (?, ?, ?, ?)
		 ON CONFLICT (uid) DO UPDATE SET
		   name = excluded.name,
		   email = excluded.email,
		   weight_class = excluded.weight_class`,
		e.UID, e.Name, e.Email, e.WeightClass,
	)
	if err != nil {
		return fmt.Errorf("failed to write roster entry: %w", err)
	}
	return nil
}

// AddWeight inserts a weigh-in.
func (s *Store) AddWeight(ctx context.Context, w team.WeightLog) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO weight_logs (id, uid, logged_at, weight, notes) VALUES (?, ?, ?, ?, ?)`,
		w.ID, w.UID, toMillis(w.Date), w.Weight, w.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert weight log: %w", err)
	}
	return nil
}

// ListWeights returns weigh-ins for uid, newest first.
func (s *Store) ListWeights(ctx context.Context, uid string, limit int) ([]team.WeightLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, uid, logged_at, weight, notes FROM weight_logs
		 WHERE uid = ? ORDER BY logged_at DESC, rowid DESC LIMIT ?`,
		uid, sqlLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list weight logs: %w", err)
	}
	defer rows.Close()

	logs := []team.WeightLog{}
	for rows.Next() {
		var (
			w  team.WeightLog
			at int64
		)
		if err := rows.Scan(&w.ID, &w.UID, &at, &w.Weight, &w.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan weight log: %w", err)
		}
		w.Date = fromMillis(at)
		logs = append(logs, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list weight logs: %w", err)
	}
	return logs, nil
}

// AddFocus inserts a focus drill score.
func (s *Store) AddFocus(ctx context.Context, f team.FocusLog) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO focus_logs (id, uid, logged_at, score) VALUES (?, ?, ?, ?)`,
		f.ID, f.UID, toMillis(f.Date), f.Score,
	)
	if err != nil {
		return fmt.Errorf("failed to insert focus log: %w", err)
	}
	return nil
}

// ListFocus returns focus drill scores for uid, newest first.
func (s *Store) ListFocus(ctx context.Context, uid string, limit int) ([]team.FocusLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, uid, logged_at, score FROM focus_logs
		 WHERE uid = ? ORDER BY logged_at DESC, rowid DESC LIMIT ?`,
		uid, sqlLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list focus logs: %w", err)
	}
	defer rows.Close()

	logs := []team.FocusLog{}
	for rows.Next() {
		var (
			f  team.FocusLog
			at int64
		)
		if err := rows.Scan(&f.ID, &f.UID, &at, &f.Score); err != nil {
			return nil, fmt.Errorf("failed to scan focus log: %w", err)
		}
		f.Date = fromMillis(at)
		logs = append(logs, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list focus logs: %w", err)
	}
	return logs, nil
}

// ListRoster returns every roster entry ordered by name.
func (s *Store) ListRoster(ctx context.Context) ([]team.RosterEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT uid, name, email, weight_class FROM roster ORDER BY name COLLATE NOCASE, uid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster: %w", err)
	}
	defer rows.Close()

	entries := []team.RosterEntry{}
	for rows.Next() {
		var e team.RosterEntry
		if err := rows.Scan(&e.UID, &e.Name, &e.Email, &e.WeightClass); err != nil {
			return nil, fmt.Errorf("failed to scan roster entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list roster: %w", err)
	}
	return entries, nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// sqlLimit maps "no limit" to SQLite's -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
