package storage_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/Tiliavir/trivial-timesheet/internal/config"
	"github.com/Tiliavir/trivial-timesheet/internal/model"
	"github.com/Tiliavir/trivial-timesheet/internal/storage"
)

var created = time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)

func entry(id, user, date, start string, end string) model.TimeEntry {
	return model.TimeEntry{
		ID:        id,
		UserID:    user,
		Date:      date,
		Activity:  "meeting",
		StartTime: start,
		EndTime:   model.StrPtr(end),
		CreatedAt: created,
		UpdatedAt: created,
	}
}

// StoreSuite runs the same contract against every Store implementation.
type StoreSuite struct {
	suite.Suite
	open  func(t *testing.T) storage.Store
	store storage.Store
	ctx   context.Context
}

func (s *StoreSuite) SetupTest() {
	s.store = s.open(s.T())
	s.ctx = context.Background()
}

func (s *StoreSuite) TearDownTest() {
	if s.store != nil {
		s.store.Close()
	}
}

func TestFileStore(t *testing.T) {
	suite.Run(t, &StoreSuite{open: func(t *testing.T) storage.Store {
		return storage.NewFileStore(t.TempDir())
	}})
}

func TestSQLiteStore(t *testing.T) {
	suite.Run(t, &StoreSuite{open: func(t *testing.T) storage.Store {
		st, err := storage.OpenSQLite(":memory:")
		require.NoError(t, err)
		return st
	}})
}

func (s *StoreSuite) TestPing() {
	s.NoError(s.store.Ping(s.ctx))
}

func TestSQLiteStorePingDetectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tts.db")
	st, err := storage.OpenSQLite(path)
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()
	require.NoError(t, st.Ping(ctx))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec("UPDATE schema_migrations SET version = 99")
	require.NoError(t, err)

	assert.ErrorContains(t, st.Ping(ctx), "version 99")
}

func TestFileStorePingRejectsFileBase(t *testing.T) {
	base := filepath.Join(t.TempDir(), "data")
	st := storage.NewFileStore(base)
	require.NoError(t, st.Ping(context.Background()))

	require.NoError(t, os.WriteFile(base, []byte("x"), 0o600))
	assert.Error(t, st.Ping(context.Background()))
}

func (s *StoreSuite) TestCreateAndGetEntry() {
	e := entry("e1", "u1", "2024-01-15", "08:00", "09:30")
	e.Notes = model.StrPtr("standup")
	s.Require().NoError(s.store.CreateEntry(s.ctx, e))

	got, err := s.store.GetEntry(s.ctx, "e1")
	s.Require().NoError(err)
	s.Equal(e, got)
}

func (s *StoreSuite) TestOpenEntryRoundTrip() {
	e := entry("e1", "u1", "2024-01-15", "08:00", "")
	s.Require().NoError(s.store.CreateEntry(s.ctx, e))

	got, err := s.store.GetEntry(s.ctx, "e1")
	s.Require().NoError(err)
	s.Nil(got.EndTime)
	s.Nil(got.Notes)
	s.True(got.IsOpen())
}

func (s *StoreSuite) TestGetMissingEntry() {
	_, err := s.store.GetEntry(s.ctx, "nope")
	s.ErrorIs(err, storage.ErrNotFound)
	s.ErrorIs(s.store.DeleteEntry(s.ctx, "nope"), storage.ErrNotFound)
	s.ErrorIs(s.store.UpdateEntry(s.ctx, entry("nope", "u1", "2024-01-15", "08:00", "")), storage.ErrNotFound)
}

func (s *StoreSuite) TestUpdateEntry() {
	e := entry("e1", "u1", "2024-01-15", "08:00", "")
	s.Require().NoError(s.store.CreateEntry(s.ctx, e))

	e.EndTime = model.StrPtr("10:00")
	e.Notes = model.StrPtr("updated")
	s.Require().NoError(s.store.UpdateEntry(s.ctx, e))

	got, err := s.store.GetEntry(s.ctx, "e1")
	s.Require().NoError(err)
	s.Equal("10:00", *got.EndTime)
	s.Equal("updated", *got.Notes)

	all, err := s.store.ListEntries(s.ctx, storage.EntryQuery{From: "2024-01-15", To: "2024-01-15"})
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *StoreSuite) TestUpdateEntryMovesDate() {
	e := entry("e1", "u1", "2024-01-15", "08:00", "09:00")
	s.Require().NoError(s.store.CreateEntry(s.ctx, e))

	e.Date = "2024-02-01"
	s.Require().NoError(s.store.UpdateEntry(s.ctx, e))

	old, err := s.store.ListEntries(s.ctx, storage.EntryQuery{From: "2024-01-15", To: "2024-01-15"})
	s.Require().NoError(err)
	s.Empty(old)

	moved, err := s.store.ListEntries(s.ctx, storage.EntryQuery{From: "2024-02-01", To: "2024-02-01"})
	s.Require().NoError(err)
	s.Require().Len(moved, 1)
	s.Equal("e1", moved[0].ID)
}

func (s *StoreSuite) TestDeleteEntry() {
	s.Require().NoError(s.store.CreateEntry(s.ctx, entry("e1", "u1", "2024-01-15", "08:00", "09:00")))
	s.Require().NoError(s.store.CreateEntry(s.ctx, entry("e2", "u1", "2024-01-15", "09:00", "10:00")))

	s.Require().NoError(s.store.DeleteEntry(s.ctx, "e1"))

	_, err := s.store.GetEntry(s.ctx, "e1")
	s.ErrorIs(err, storage.ErrNotFound)
	_, err = s.store.GetEntry(s.ctx, "e2")
	s.NoError(err)
}

func (s *StoreSuite) TestListEntriesRangeUserAndOrder() {
	for _, e := range []model.TimeEntry{
		entry("a", "u2", "2024-01-15", "08:00", "09:00"),
		entry("b", "u1", "2024-01-15", "11:00", "12:00"),
		entry("c", "u1", "2024-01-15", "07:00", "08:00"),
		entry("d", "u1", "2024-01-14", "09:00", "10:00"),
		entry("e", "u1", "2024-01-16", "09:00", "10:00"),
		entry("f", "u1", "2024-01-17", "09:00", "10:00"),
	} {
		s.Require().NoError(s.store.CreateEntry(s.ctx, e))
	}

	got, err := s.store.ListEntries(s.ctx, storage.EntryQuery{From: "2024-01-14", To: "2024-01-16"})
	s.Require().NoError(err)
	s.Equal([]string{"d", "c", "b", "a", "e"}, ids(got))

	got, err = s.store.ListEntries(s.ctx, storage.EntryQuery{From: "2024-01-15", To: "2024-01-17", UserID: "u1"})
	s.Require().NoError(err)
	s.Equal([]string{"c", "b", "e", "f"}, ids(got))

	got, err = s.store.ListEntries(s.ctx, storage.EntryQuery{From: "2024-03-01", To: "2024-03-31"})
	s.Require().NoError(err)
	s.NotNil(got)
	s.Empty(got)
}

func ids(entries []model.TimeEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func (s *StoreSuite) TestUsers() {
	users, err := s.store.ListUsers(s.ctx)
	s.Require().NoError(err)
	s.Empty(users)

	u := model.AppUser{ID: "u1", Email: "a@example.com", DisplayName: "Alice", Role: model.RoleUser, CreatedAt: created, CreatedBy: "admin"}
	s.Require().NoError(s.store.PutUser(s.ctx, u))
	u.Role = model.RoleAdmin
	s.Require().NoError(s.store.PutUser(s.ctx, u))

	users, err = s.store.ListUsers(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.AppUser{u}, users)
}

func (s *StoreSuite) TestActivities() {
	s.Require().NoError(s.store.PutActivity(s.ctx, model.Activity{ID: "meeting", Label: "Meeting", Color: "#10B981"}))
	s.Require().NoError(s.store.PutActivity(s.ctx, model.Activity{ID: "development", Label: "Development", Color: "#3B82F6"}))

	activities, err := s.store.ListActivities(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(activities, 2)
	s.Equal("Development", activities[0].Label)
	s.Equal("Meeting", activities[1].Label)

	s.Require().NoError(s.store.DeleteActivity(s.ctx, "meeting"))
	s.ErrorIs(s.store.DeleteActivity(s.ctx, "meeting"), storage.ErrNotFound)

	activities, err = s.store.ListActivities(s.ctx)
	s.Require().NoError(err)
	s.Len(activities, 1)
}

func (s *StoreSuite) TestSettings() {
	st, err := s.store.GetSettings(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.DefaultSettings(), st)

	want := model.Settings{AllowUserEdits: false, UpdatedAt: created, UpdatedBy: "admin"}
	s.Require().NoError(s.store.PutSettings(s.ctx, want))

	st, err = s.store.GetSettings(s.ctx)
	s.Require().NoError(err)
	s.Equal(want, st)
}

func TestFileStoreDayFileLayout(t *testing.T) {
	base := t.TempDir()
	st := storage.NewFileStore(base)
	require.NoError(t, st.CreateEntry(context.Background(), entry("e1", "u1", "2026-02-27", "08:00", "")))

	data, err := os.ReadFile(filepath.Join(base, "entries", "2026", "02", "27.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"date": "2026-02-27"`)
	assert.Contains(t, string(data), `"startTime": "08:00"`)
	assert.NotContains(t, string(data), "endTime")
}

func TestFileStoreRemovesEmptyDayFile(t *testing.T) {
	base := t.TempDir()
	st := storage.NewFileStore(base)
	ctx := context.Background()
	require.NoError(t, st.CreateEntry(ctx, entry("e1", "u1", "2026-02-27", "08:00", "")))
	require.NoError(t, st.DeleteEntry(ctx, "e1"))

	_, err := os.Stat(filepath.Join(base, "entries", "2026", "02", "27.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileStoreCorruptDayFile(t *testing.T) {
	// A corrupt JSON file is backed up and reported.
	base := t.TempDir()
	dir := filepath.Join(base, "entries", "2026", "02")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	path := filepath.Join(dir, "27.json")
	require.NoError(t, os.WriteFile(path, []byte("{bad json"), 0o600))

	st := storage.NewFileStore(base)
	_, err := st.ListEntries(context.Background(), storage.EntryQuery{From: "2026-02-27", To: "2026-02-27"})
	require.Error(t, err)

	_, err = os.Stat(path + ".corrupt")
	assert.NoError(t, err, "expected backup file to exist after corrupt JSON")
}

func TestFileStoreRejectsMalformedRange(t *testing.T) {
	st := storage.NewFileStore(t.TempDir())
	_, err := st.ListEntries(context.Background(), storage.EntryQuery{From: "2026-02-30", To: "2026-03-01"})
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	dir := t.TempDir()

	st, err := storage.New(config.StorageConfig{Type: config.StorageFile, Dir: dir})
	require.NoError(t, err)
	assert.IsType(t, &storage.FileStore{}, st)

	st, err = storage.New(config.StorageConfig{Type: config.StorageSQLite, SQLitePath: filepath.Join(dir, "db", "tts.db")})
	require.NoError(t, err)
	assert.IsType(t, &storage.SQLiteStore{}, st)
	require.NoError(t, st.Close())

	_, err = storage.New(config.StorageConfig{Type: "postgres"})
	assert.Error(t, err)
	_, err = storage.New(config.StorageConfig{Type: config.StorageFile})
	assert.Error(t, err)
}
