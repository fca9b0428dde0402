package firestore

import (
	"context"
	"fmt"
	"sort"

	"github.com/Tiliavir/trivial-timesheet/internal/export"
	"github.com/Tiliavir/trivial-timesheet/internal/model"
	"github.com/Tiliavir/trivial-timesheet/internal/timecalc"
)

// Collection names used by the hosted timesheet.
const (
	EntriesCollection    = "timeEntries"
	UsersCollection      = "users"
	ActivitiesCollection = "activities"
)

// Source serves exports from Firestore. Stored times are canonical and
// converted to local with zone.
type Source struct {
	client *Client
	zone   string
}

var (
	_ export.EntrySource = (*Source)(nil)
	_ export.Directory   = (*Source)(nil)
)

// NewSource wraps client, converting times into zone.
func NewSource(client *Client, zone string) *Source {
	return &Source{client: client, zone: zone}
}

// FetchEntries queries the date range server-side. The user filter is
// applied locally so the query needs no composite index.
func (s *Source) FetchEntries(ctx context.Context, r export.DateRange, userID string) ([]model.TimeEntry, error) {
	docs, err := s.client.RunQuery(ctx, EntriesCollection,
		FieldFilter{Field: "date", Op: "GREATER_THAN_OR_EQUAL", Value: String(r.From)},
		FieldFilter{Field: "date", Op: "LESS_THAN_OR_EQUAL", Value: String(r.To)},
	)
	if err != nil {
		return nil, err
	}

	entries := make([]model.TimeEntry, 0, len(docs))
	for _, d := range docs {
		if userID != "" && d.Str("userId") != userID {
			continue
		}
		e, err := s.decodeEntry(d)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
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
	return entries, nil
}

func (s *Source) decodeEntry(d Document) (model.TimeEntry, error) {
	e := model.TimeEntry{
		ID:       d.ID(),
		UserID:   d.Str("userId"),
		Date:     d.Str("date"),
		Activity: d.Str("activity"),
		EndTime:  d.StrPtr("endTime"),
		Notes:    d.StrPtr("notes"),
	}
	start, err := timecalc.ToLocal(e.Date, d.Str("startTime"), s.zone)
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
	if e.CreatedAt, err = d.Time("createdAt"); err != nil {
		return model.TimeEntry{}, err
	}
	if e.UpdatedAt, err = d.Time("updatedAt"); err != nil {
		return model.TimeEntry{}, err
	}
	return e, nil
}

func (s *Source) Users(ctx context.Context) (map[string]model.AppUser, error) {
	docs, err := s.client.ListDocuments(ctx, UsersCollection)
	if err != nil {
		return nil, err
	}
	users := make(map[string]model.AppUser, len(docs))
	for _, d := range docs {
		created, err := d.Time("createdAt")
		if err != nil {
			return nil, err
		}
		u := model.AppUser{
			ID:          d.ID(),
			Email:       d.Str("email"),
			DisplayName: d.Str("displayName"),
			Role:        model.Role(d.Str("role")),
			CreatedAt:   created,
			CreatedBy:   d.Str("createdBy"),
		}
		users[u.ID] = u
	}
	return users, nil
}

func (s *Source) Activities(ctx context.Context) ([]model.Activity, error) {
	docs, err := s.client.ListDocuments(ctx, ActivitiesCollection)
	if err != nil {
		return nil, err
	}
	activities := make([]model.Activity, 0, len(docs))
	for _, d := range docs {
		activities = append(activities, model.Activity{
			ID:    d.ID(),
			Label: d.Str("label"),
			Color: d.Str("color"),
		})
	}
	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].Label < activities[j].Label
	})
	return activities, nil
}
