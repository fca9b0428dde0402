// Package timesheet implements the application operations on time entries,
// activities, users and settings. Callers deal in local wall-clock times;
// the store only ever sees canonical (UTC) times.
package timesheet

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Tiliavir/trivial-timesheet/internal/model"
	"github.com/Tiliavir/trivial-timesheet/internal/storage"
	"github.com/Tiliavir/trivial-timesheet/internal/timecalc"
)

// OpenEntryLookback is how many days back StopEntry and OpenEntry search
// for an unfinished entry, so a timer left running over midnight is found.
const OpenEntryLookback = 7

const lastMinute = "23:59"

// IDGenerator abstracts unique ID generation so tests are deterministic.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }

// Service is safe for concurrent use when its Store is.
type Service struct {
	store  storage.Store
	zone   string
	clock  timecalc.Clock
	ids    IDGenerator
	logger *slog.Logger
}

// Option customizes a Service.
type Option func(*Service)

func WithClock(c timecalc.Clock) Option    { return func(s *Service) { s.clock = c } }
func WithIDGenerator(g IDGenerator) Option { return func(s *Service) { s.ids = g } }
func WithLogger(l *slog.Logger) Option     { return func(s *Service) { s.logger = l } }

// New creates a Service that converts times using the IANA zone.
func New(store storage.Store, zone string, opts ...Option) (*Service, error) {
	if _, err := timecalc.LoadZone(zone); err != nil {
		return nil, err
	}
	s := &Service{
		store:  store,
		zone:   zone,
		clock:  timecalc.SystemClock{},
		ids:    UUIDGenerator{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Zone returns the IANA zone the service converts with.
func (s *Service) Zone() string { return s.zone }

// Today returns the current local date.
func (s *Service) Today() string {
	d, _ := timecalc.LocalDate(s.clock.Now(), s.zone)
	return d
}

func (s *Service) now() (date, clock string) {
	now := s.clock.Now()
	date, _ = timecalc.LocalDate(now, s.zone)
	clock, _ = timecalc.LocalClock(now, s.zone)
	return date, clock
}

// EntryInput describes a new entry in local time. An empty UserID means the actor.
type EntryInput struct {
	UserID    string
	Date      string
	Activity  string
	StartTime string
	EndTime   *string
	Notes     *string
}

// EntryPatch changes the non-nil fields of an entry. A Notes pointer to ""
// clears the notes.
type EntryPatch struct {
	Date      *string
	Activity  *string
	StartTime *string
	EndTime   *string
	Notes     *string
}

// toCanonical converts the local start and end of e to canonical times.
func (s *Service) toCanonical(e model.TimeEntry) (model.TimeEntry, error) {
	start, err := timecalc.ToCanonical(e.Date, e.StartTime, s.zone)
	if err != nil {
		return model.TimeEntry{}, err
	}
	e.StartTime = start
	if e.EndTime != nil {
		end, err := timecalc.ToCanonical(e.Date, *e.EndTime, s.zone)
		if err != nil {
			return model.TimeEntry{}, err
		}
		e.EndTime = &end
	}
	return e, nil
}

// toLocal is the inverse of toCanonical.
func (s *Service) toLocal(e model.TimeEntry) (model.TimeEntry, error) {
	start, err := timecalc.ToLocal(e.Date, e.StartTime, s.zone)
	if err != nil {
		return model.TimeEntry{}, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	e.StartTime = start
	if e.EndTime != nil {
		end, err := timecalc.ToLocal(e.Date, *e.EndTime, s.zone)
		if err != nil {
			return model.TimeEntry{}, fmt.Errorf("entry %s: %w", e.ID, err)
		}
		e.EndTime = &end
	}
	return e, nil
}

func (s *Service) checkActivity(ctx context.Context, id string) error {
	activities, err := s.Activities(ctx)
	if err != nil {
		return err
	}
	for _, a := range activities {
		if a.ID == id {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownActivity, id)
}

// CreateEntry stores a new entry. Users may only log their own time for
// today; admins may log any date for any user.
func (s *Service) CreateEntry(ctx context.Context, actor model.AppUser, in EntryInput) (model.TimeEntry, error) {
	if in.UserID == "" {
		in.UserID = actor.ID
	}
	if !actor.IsAdmin() {
		if in.UserID != actor.ID {
			return model.TimeEntry{}, fmt.Errorf("%w: cannot log time for another user", ErrForbidden)
		}
		if today := s.Today(); in.Date != today {
			return model.TimeEntry{}, fmt.Errorf("%w: entries can only be added for today (%s)", ErrForbidden, today)
		}
	}
	if err := s.checkActivity(ctx, in.Activity); err != nil {
		return model.TimeEntry{}, err
	}

	now := s.stamp()
	local := model.TimeEntry{
		ID:        s.ids.New(),
		UserID:    in.UserID,
		Date:      in.Date,
		Activity:  in.Activity,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Notes:     nonEmpty(in.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	stored, err := s.toCanonical(local)
	if err != nil {
		return model.TimeEntry{}, err
	}
	if err := s.store.CreateEntry(ctx, stored); err != nil {
		return model.TimeEntry{}, err
	}
	s.logger.Info("entry created", "id", local.ID, "user", local.UserID, "date", local.Date)
	return local, nil
}

// StartEntry opens an entry for the actor at the current local time.
func (s *Service) StartEntry(ctx context.Context, actor model.AppUser, activity string, notes *string) (model.TimeEntry, error) {
	open, err := s.OpenEntry(ctx, actor.ID)
	if err != nil {
		return model.TimeEntry{}, err
	}
	if open != nil {
		return model.TimeEntry{}, fmt.Errorf("%w (%s since %s)", ErrAlreadyRunning, open.Activity, open.StartTime)
	}
	date, clock := s.now()
	return s.CreateEntry(ctx, actor, EntryInput{
		UserID:    actor.ID,
		Date:      date,
		Activity:  activity,
		StartTime: clock,
		Notes:     notes,
	})
}

// StopEntry closes the actor's open entry at the current local time.
func (s *Service) StopEntry(ctx context.Context, actor model.AppUser, notes *string) (model.TimeEntry, error) {
	open, err := s.OpenEntry(ctx, actor.ID)
	if err != nil {
		return model.TimeEntry{}, err
	}
	if open == nil {
		return model.TimeEntry{}, ErrNoOpenEntry
	}
	today, clock := s.now()
	local := *open
	if notes != nil {
		local.Notes = nonEmpty(notes)
	}
	if local.Date == today {
		local.EndTime = &clock
		return s.save(ctx, local)
	}
	return s.splitAcrossMidnight(ctx, local, today, clock)
}

// splitAcrossMidnight closes an entry started on an earlier day at the end
// of that day and continues it with one entry per following day, the last
// ending at clock on today.
func (s *Service) splitAcrossMidnight(ctx context.Context, open model.TimeEntry, today, clock string) (model.TimeEntry, error) {
	days, err := timecalc.DatesBetween(open.Date, today)
	if err != nil {
		return model.TimeEntry{}, err
	}
	endOfDay := lastMinute
	open.EndTime = &endOfDay
	last, err := s.save(ctx, open)
	if err != nil {
		return model.TimeEntry{}, err
	}
	for _, day := range days[1:] {
		end := lastMinute
		if day == today {
			end = clock
		}
		now := s.stamp()
		last = model.TimeEntry{
			ID:        s.ids.New(),
			UserID:    open.UserID,
			Date:      day,
			Activity:  open.Activity,
			StartTime: "00:00",
			EndTime:   &end,
			Notes:     open.Notes,
			CreatedAt: now,
			UpdatedAt: now,
		}
		stored, err := s.toCanonical(last)
		if err != nil {
			return model.TimeEntry{}, err
		}
		if err := s.store.CreateEntry(ctx, stored); err != nil {
			return model.TimeEntry{}, err
		}
	}
	s.logger.Info("entry split across midnight", "id", open.ID, "days", len(days))
	return last, nil
}

// OpenEntry returns the user's most recent unfinished entry, or nil.
func (s *Service) OpenEntry(ctx context.Context, userID string) (*model.TimeEntry, error) {
	today := s.Today()
	t, err := timecalc.ParseDate(today)
	if err != nil {
		return nil, err
	}
	from := t.AddDate(0, 0, -OpenEntryLookback).Format(timecalc.DateLayout)
	entries, err := s.ListRange(ctx, from, today, userID)
	if err != nil {
		return nil, err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].IsOpen() {
			return &entries[i], nil
		}
	}
	return nil, nil
}

// UpdateEntry applies patch to an entry. Users may only edit their own
// finished entries, and only while edits are allowed.
func (s *Service) UpdateEntry(ctx context.Context, actor model.AppUser, id string, patch EntryPatch) (model.TimeEntry, error) {
	local, err := s.editable(ctx, actor, id)
	if err != nil {
		return model.TimeEntry{}, err
	}

	if patch.Date != nil {
		if _, err := timecalc.ParseDate(*patch.Date); err != nil {
			return model.TimeEntry{}, err
		}
		local.Date = *patch.Date
	}
	if patch.Activity != nil {
		if err := s.checkActivity(ctx, *patch.Activity); err != nil {
			return model.TimeEntry{}, err
		}
		local.Activity = *patch.Activity
	}
	if patch.StartTime != nil {
		local.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		end := *patch.EndTime
		local.EndTime = &end
	}
	if patch.Notes != nil {
		local.Notes = nonEmpty(patch.Notes)
	}
	return s.save(ctx, local)
}

// DeleteEntry removes an entry under the same rules as UpdateEntry, except
// that users may discard their own running entry.
func (s *Service) DeleteEntry(ctx context.Context, actor model.AppUser, id string) error {
	stored, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkEditRights(ctx, actor, stored, false); err != nil {
		return err
	}
	if err := s.store.DeleteEntry(ctx, id); err != nil {
		return err
	}
	s.logger.Info("entry deleted", "id", id, "by", actor.ID)
	return nil
}

// editable loads an entry in local time after checking actor may change it.
func (s *Service) editable(ctx context.Context, actor model.AppUser, id string) (model.TimeEntry, error) {
	stored, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return model.TimeEntry{}, err
	}
	if err := s.checkEditRights(ctx, actor, stored, true); err != nil {
		return model.TimeEntry{}, err
	}
	return s.toLocal(stored)
}

func (s *Service) checkEditRights(ctx context.Context, actor model.AppUser, e model.TimeEntry, refuseOpen bool) error {
	if actor.IsAdmin() {
		return nil
	}
	if e.UserID != actor.ID {
		return fmt.Errorf("%w: entry belongs to another user", ErrForbidden)
	}
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return err
	}
	if !settings.AllowUserEdits {
		return ErrEditsDisabled
	}
	if refuseOpen && e.IsOpen() {
		return ErrOpenEntry
	}
	return nil
}

// save re-anchors local times against the entry's date and stores it.
func (s *Service) save(ctx context.Context, local model.TimeEntry) (model.TimeEntry, error) {
	local.UpdatedAt = s.stamp()
	stored, err := s.toCanonical(local)
	if err != nil {
		return model.TimeEntry{}, err
	}
	if err := s.store.UpdateEntry(ctx, stored); err != nil {
		return model.TimeEntry{}, err
	}
	s.logger.Info("entry updated", "id", local.ID, "user", local.UserID, "date", local.Date)
	return local, nil
}

// ListDay returns a user's entries on date in local time.
func (s *Service) ListDay(ctx context.Context, userID, date string) ([]model.TimeEntry, error) {
	return s.ListRange(ctx, date, date, userID)
}

// ListRange returns entries in [from, to] in local time, ordered by date,
// user and start time. An empty userID lists everyone.
func (s *Service) ListRange(ctx context.Context, from, to, userID string) ([]model.TimeEntry, error) {
	stored, err := s.store.ListEntries(ctx, storage.EntryQuery{From: from, To: to, UserID: userID})
	if err != nil {
		return nil, err
	}
	out := make([]model.TimeEntry, 0, len(stored))
	for _, e := range stored {
		local, err := s.toLocal(e)
		if err != nil {
			return nil, err
		}
		out = append(out, local)
	}
	// Local start times can order differently than canonical ones.
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		return a.StartTime < b.StartTime
	})
	return out, nil
}

func nonEmpty(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	v := *p
	return &v
}

func (s *Service) stamp() time.Time { return s.clock.Now().UTC() }
