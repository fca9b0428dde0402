package timesheet

import (
	"context"

	"github.com/Tiliavir/trivial-timesheet/internal/export"
	"github.com/Tiliavir/trivial-timesheet/internal/model"
)

// Source exposes a Service as export input.
type Source struct {
	svc *Service
}

var (
	_ export.EntrySource = Source{}
	_ export.Directory   = Source{}
)

// NewSource wraps svc.
func NewSource(svc *Service) Source { return Source{svc: svc} }

func (s Source) FetchEntries(ctx context.Context, r export.DateRange, userID string) ([]model.TimeEntry, error) {
	return s.svc.ListRange(ctx, r.From, r.To, userID)
}

func (s Source) Users(ctx context.Context) (map[string]model.AppUser, error) {
	users, err := s.svc.Users(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.AppUser, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// Activities reads the store directly; an export never seeds defaults.
func (s Source) Activities(ctx context.Context) ([]model.Activity, error) {
	return s.svc.store.ListActivities(ctx)
}
