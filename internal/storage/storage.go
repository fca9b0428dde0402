// Package storage persists time entries, users, activities and settings.
// Entry start and end times are stored as canonical (UTC) "HH:mm" values.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Tiliavir/trivial-timesheet/internal/config"
	"github.com/Tiliavir/trivial-timesheet/internal/model"
)

// ErrNotFound is returned when an id does not exist.
var ErrNotFound = errors.New("not found")

// EntryQuery selects entries in the inclusive date range [From, To]. An
// empty UserID matches every user.
type EntryQuery struct {
	From   string
	To     string
	UserID string
}

func (q EntryQuery) matches(e model.TimeEntry) bool {
	return e.Date >= q.From && e.Date <= q.To && (q.UserID == "" || e.UserID == q.UserID)
}

// Store is implemented by FileStore and SQLiteStore.
type Store interface {
	CreateEntry(ctx context.Context, e model.TimeEntry) error
	UpdateEntry(ctx context.Context, e model.TimeEntry) error
	DeleteEntry(ctx context.Context, id string) error
	GetEntry(ctx context.Context, id string) (model.TimeEntry, error)
	// ListEntries returns matching entries ordered by date, user id and start time.
	ListEntries(ctx context.Context, q EntryQuery) ([]model.TimeEntry, error)

	ListUsers(ctx context.Context) ([]model.AppUser, error)
	PutUser(ctx context.Context, u model.AppUser) error

	// ListActivities returns activities ordered by label.
	ListActivities(ctx context.Context) ([]model.Activity, error)
	PutActivity(ctx context.Context, a model.Activity) error
	DeleteActivity(ctx context.Context, id string) error

	// GetSettings returns model.DefaultSettings until settings are first stored.
	GetSettings(ctx context.Context) (model.Settings, error)
	PutSettings(ctx context.Context, s model.Settings) error

	// Ping reports whether the store is usable.
	Ping(ctx context.Context) error
	Close() error
}

// New creates the Store selected by cfg.Type.
func New(cfg config.StorageConfig) (Store, error) {
	switch cfg.Type {
	case config.StorageFile:
		if cfg.Dir == "" {
			return nil, fmt.Errorf("file storage requires storage.dir to be set")
		}
		return NewFileStore(cfg.Dir), nil
	case config.StorageSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite storage requires storage.sqlite_path to be set")
		}
		return OpenSQLite(cfg.SQLitePath)
	case "memory":
		return OpenSQLite(":memory:")
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

func sortEntries(entries []model.TimeEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		return a.StartTime < b.StartTime
	})
}

func sortActivities(activities []model.Activity) {
	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].Label < activities[j].Label
	})
}
