package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Tiliavir/trivial-timesheet/internal/model"
	"github.com/Tiliavir/trivial-timesheet/internal/storage/migrations"
)

// SQLiteStore keeps everything in one SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path and migrates it
// to the latest schema. path can be ":memory:".
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// Ping checks the connection and that the schema is at the version this
// binary was built with.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return migrations.CheckStatus(s.db)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

const entryColumns = `id, user_id, date, activity, start_time, end_time, notes, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (model.TimeEntry, error) {
	var (
		e                    model.TimeEntry
		end, notes           sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Date, &e.Activity, &e.StartTime, &end, &notes, &createdAt, &updatedAt); err != nil {
		return model.TimeEntry{}, err
	}
	e.EndTime = stringPtr(end)
	e.Notes = stringPtr(notes)
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	return e, nil
}

func (s *SQLiteStore) CreateEntry(ctx context.Context, e model.TimeEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO time_entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Date, e.Activity, e.StartTime, nullString(e.EndTime), nullString(e.Notes),
		formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting entry %s: %w", e.ID, err)
	}
	return nil
}

func (s *SQLiteStore) UpdateEntry(ctx context.Context, e model.TimeEntry) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE time_entries SET user_id = ?, date = ?, activity = ?, start_time = ?, end_time = ?,
		 notes = ?, created_at = ?, updated_at = ? WHERE id = ?`,
		e.UserID, e.Date, e.Activity, e.StartTime, nullString(e.EndTime), nullString(e.Notes),
		formatTime(e.CreatedAt), formatTime(e.UpdatedAt), e.ID)
	if err != nil {
		return fmt.Errorf("updating entry %s: %w", e.ID, err)
	}
	return expectOneRow(res, "entry", e.ID)
}

func (s *SQLiteStore) DeleteEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting entry %s: %w", id, err)
	}
	return expectOneRow(res, "entry", id)
}

func expectOneRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) GetEntry(ctx context.Context, id string) (model.TimeEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM time_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TimeEntry{}, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.TimeEntry{}, fmt.Errorf("finding entry %s: %w", id, err)
	}
	return e, nil
}

func (s *SQLiteStore) ListEntries(ctx context.Context, q EntryQuery) ([]model.TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM time_entries
		 WHERE date >= ? AND date <= ? AND (? = '' OR user_id = ?)
		 ORDER BY date, user_id, start_time`,
		q.From, q.To, q.UserID, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	entries := []model.TimeEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) ListUsers(ctx context.Context) ([]model.AppUser, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, display_name, role, created_at, created_by FROM users ORDER BY display_name, id`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := []model.AppUser{}
	for rows.Next() {
		var (
			u         model.AppUser
			role      string
			createdAt string
		)
		if err := rows.Scan(&u.ID, &u.Email, &u.DisplayName, &role, &createdAt, &u.CreatedBy); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		u.Role = model.Role(role)
		u.CreatedAt = parseTime(createdAt)
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLiteStore) PutUser(ctx context.Context, u model.AppUser) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, display_name, role, created_at, created_by) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET email = excluded.email, display_name = excluded.display_name,
		 role = excluded.role, created_at = excluded.created_at, created_by = excluded.created_by`,
		u.ID, u.Email, u.DisplayName, string(u.Role), formatTime(u.CreatedAt), u.CreatedBy)
	if err != nil {
		return fmt.Errorf("storing user %s: %w", u.ID, err)
	}
	return nil
}

func (s *SQLiteStore) ListActivities(ctx context.Context) ([]model.Activity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, label, color FROM activities ORDER BY label`)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	defer rows.Close()

	activities := []model.Activity{}
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(&a.ID, &a.Label, &a.Color); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func (s *SQLiteStore) PutActivity(ctx context.Context, a model.Activity) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activities (id, label, color) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET label = excluded.label, color = excluded.color`,
		a.ID, a.Label, a.Color)
	if err != nil {
		return fmt.Errorf("storing activity %s: %w", a.ID, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteActivity(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting activity %s: %w", id, err)
	}
	return expectOneRow(res, "activity", id)
}

func (s *SQLiteStore) GetSettings(ctx context.Context) (model.Settings, error) {
	var (
		st        model.Settings
		allow     int
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT allow_user_edits, updated_at, updated_by FROM settings WHERE id = 1`).
		Scan(&allow, &updatedAt, &st.UpdatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultSettings(), nil
	}
	if err != nil {
		return model.Settings{}, fmt.Errorf("reading settings: %w", err)
	}
	st.AllowUserEdits = allow != 0
	st.UpdatedAt = parseTime(updatedAt)
	return st, nil
}

func (s *SQLiteStore) PutSettings(ctx context.Context, st model.Settings) error {
	allow := 0
	if st.AllowUserEdits {
		allow = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (id, allow_user_edits, updated_at, updated_by) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET allow_user_edits = excluded.allow_user_edits,
		 updated_at = excluded.updated_at, updated_by = excluded.updated_by`,
		allow, formatTime(st.UpdatedAt), st.UpdatedBy)
	if err != nil {
		return fmt.Errorf("storing settings: %w", err)
	}
	return nil
}
