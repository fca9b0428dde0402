package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Tiliavir/trivial-timesheet/internal/model"
	"github.com/Tiliavir/trivial-timesheet/internal/timecalc"
)

// FileStore keeps JSON documents under a base directory:
//
//	<base>/
//	  entries/YYYY/MM/DD.json   (one DayFile per date)
//	  users.json
//	  activities.json
//	  settings.json
type FileStore struct {
	base string
	mu   sync.Mutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore rooted at base. Directories are created
// lazily on first write.
func NewFileStore(base string) *FileStore {
	return &FileStore{base: base}
}

func (s *FileStore) Close() error { return nil }

// Ping fails when the base path exists but is not a directory. A missing
// base is fine since it is created on first write.
func (s *FileStore) Ping(_ context.Context) error {
	fi, err := os.Stat(s.base)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("storage error: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("storage error: %s is not a directory", s.base)
	}
	return nil
}

// dayFilePath returns the path for the given date's JSON file.
func (s *FileStore) dayFilePath(date string) (string, error) {
	t, err := timecalc.ParseDate(date)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.base, "entries", t.Format("2006"), t.Format("01"), t.Format("02")+".json"), nil
}

// loadDay loads the DayFile for the given date. Returns an empty DayFile if not found.
func (s *FileStore) loadDay(date string) (model.DayFile, error) {
	path, err := s.dayFilePath(date)
	if err != nil {
		return model.DayFile{}, err
	}
	df := model.DayFile{Date: date, Entries: []model.TimeEntry{}}
	if err := readJSON(path, &df); err != nil {
		return model.DayFile{}, err
	}
	return df, nil
}

// saveDay writes df, removing the file once its last entry is gone.
func (s *FileStore) saveDay(df model.DayFile) error {
	path, err := s.dayFilePath(df.Date)
	if err != nil {
		return err
	}
	if len(df.Entries) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("storage error removing %s: %w", path, err)
		}
		return nil
	}
	return writeJSON(path, df)
}

// locate finds the date of the day file holding id.
func (s *FileStore) locate(id string) (string, error) {
	root := filepath.Join(s.base, "entries")
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		var df model.DayFile
		if err := readJSON(path, &df); err != nil {
			return err
		}
		for _, e := range df.Entries {
			if e.ID == id {
				found = df.Date
				return fs.SkipAll
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	return found, nil
}

func (s *FileStore) CreateEntry(_ context.Context, e model.TimeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	df, err := s.loadDay(e.Date)
	if err != nil {
		return err
	}
	df.Entries = append(df.Entries, e)
	return s.saveDay(df)
}

// UpdateEntry replaces the stored entry with the same id, moving it to
// another day file when its date changed.
func (s *FileStore) UpdateEntry(_ context.Context, e model.TimeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldDate, err := s.locate(e.ID)
	if err != nil {
		return err
	}
	if oldDate != e.Date {
		if err := s.removeFromDay(oldDate, e.ID); err != nil {
			return err
		}
		df, err := s.loadDay(e.Date)
		if err != nil {
			return err
		}
		df.Entries = append(df.Entries, e)
		return s.saveDay(df)
	}

	df, err := s.loadDay(e.Date)
	if err != nil {
		return err
	}
	for i := range df.Entries {
		if df.Entries[i].ID == e.ID {
			df.Entries[i] = e
		}
	}
	return s.saveDay(df)
}

func (s *FileStore) DeleteEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	date, err := s.locate(id)
	if err != nil {
		return err
	}
	return s.removeFromDay(date, id)
}

func (s *FileStore) removeFromDay(date, id string) error {
	df, err := s.loadDay(date)
	if err != nil {
		return err
	}
	kept := df.Entries[:0]
	for _, e := range df.Entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	df.Entries = kept
	return s.saveDay(df)
}

func (s *FileStore) GetEntry(_ context.Context, id string) (model.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	date, err := s.locate(id)
	if err != nil {
		return model.TimeEntry{}, err
	}
	df, err := s.loadDay(date)
	if err != nil {
		return model.TimeEntry{}, err
	}
	for _, e := range df.Entries {
		if e.ID == id {
			return e, nil
		}
	}
	return model.TimeEntry{}, fmt.Errorf("entry %s: %w", id, ErrNotFound)
}

// ListEntries loads all entries in [q.From, q.To] inclusive.
func (s *FileStore) ListEntries(_ context.Context, q EntryQuery) ([]model.TimeEntry, error) {
	dates, err := timecalc.DatesBetween(q.From, q.To)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := []model.TimeEntry{}
	for _, d := range dates {
		df, err := s.loadDay(d)
		if err != nil {
			return nil, err
		}
		for _, e := range df.Entries {
			if q.matches(e) {
				entries = append(entries, e)
			}
		}
	}
	sortEntries(entries)
	return entries, nil
}

func (s *FileStore) usersPath() string      { return filepath.Join(s.base, "users.json") }
func (s *FileStore) activitiesPath() string { return filepath.Join(s.base, "activities.json") }
func (s *FileStore) settingsPath() string   { return filepath.Join(s.base, "settings.json") }

func (s *FileStore) ListUsers(_ context.Context) ([]model.AppUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := []model.AppUser{}
	if err := readJSON(s.usersPath(), &users); err != nil {
		return nil, err
	}
	return users, nil
}

// PutUser inserts u or replaces the user with the same id.
func (s *FileStore) PutUser(_ context.Context, u model.AppUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := []model.AppUser{}
	if err := readJSON(s.usersPath(), &users); err != nil {
		return err
	}
	replaced := false
	for i := range users {
		if users[i].ID == u.ID {
			users[i] = u
			replaced = true
		}
	}
	if !replaced {
		users = append(users, u)
	}
	return writeJSON(s.usersPath(), users)
}

func (s *FileStore) ListActivities(_ context.Context) ([]model.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	activities := []model.Activity{}
	if err := readJSON(s.activitiesPath(), &activities); err != nil {
		return nil, err
	}
	sortActivities(activities)
	return activities, nil
}

func (s *FileStore) PutActivity(_ context.Context, a model.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	activities := []model.Activity{}
	if err := readJSON(s.activitiesPath(), &activities); err != nil {
		return err
	}
	replaced := false
	for i := range activities {
		if activities[i].ID == a.ID {
			activities[i] = a
			replaced = true
		}
	}
	if !replaced {
		activities = append(activities, a)
	}
	return writeJSON(s.activitiesPath(), activities)
}

func (s *FileStore) DeleteActivity(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	activities := []model.Activity{}
	if err := readJSON(s.activitiesPath(), &activities); err != nil {
		return err
	}
	kept := activities[:0]
	for _, a := range activities {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(activities) {
		return fmt.Errorf("activity %s: %w", id, ErrNotFound)
	}
	return writeJSON(s.activitiesPath(), kept)
}

func (s *FileStore) GetSettings(_ context.Context) (model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := model.DefaultSettings()
	if err := readJSON(s.settingsPath(), &settings); err != nil {
		return model.Settings{}, err
	}
	return settings, nil
}

func (s *FileStore) PutSettings(_ context.Context, settings model.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.settingsPath(), settings)
}

// readJSON decodes path into v, leaving v untouched when the file does not
// exist. A corrupt file is backed up to <path>.corrupt.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("storage error reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		// Back up corrupt file and abort.
		backupPath := path + ".corrupt"
		_ = os.Rename(path, backupPath)
		return fmt.Errorf("corrupt JSON in %s (backed up to %s): %w", path, backupPath, err)
	}
	return nil
}

// writeJSON atomically writes v as indented JSON.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}

	// Atomic write: write to temp file then rename.
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}
