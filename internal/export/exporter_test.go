package export_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/trivial-timesheet/internal/export"
	"github.com/Tiliavir/trivial-timesheet/internal/model"
	"github.com/Tiliavir/trivial-timesheet/internal/report"
	"github.com/Tiliavir/trivial-timesheet/internal/testutil"
	"github.com/Tiliavir/trivial-timesheet/internal/timecalc"
)

type fakeSource struct {
	entries []model.TimeEntry
	err     error
	calls   []string
}

func (s *fakeSource) FetchEntries(_ context.Context, r export.DateRange, userID string) ([]model.TimeEntry, error) {
	s.calls = append(s.calls, userID)
	if s.err != nil {
		return nil, s.err
	}
	var out []model.TimeEntry
	for _, e := range s.entries {
		if userID != "" && e.UserID != userID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type fakeDirectory struct {
	users      map[string]model.AppUser
	activities []model.Activity
	err        error
	userCalls  int
}

func (d *fakeDirectory) Users(context.Context) (map[string]model.AppUser, error) {
	d.userCalls++
	return d.users, d.err
}

func (d *fakeDirectory) Activities(context.Context) ([]model.Activity, error) {
	return d.activities, d.err
}

type recordingSink struct {
	mu        sync.Mutex
	artifacts []export.Artifact
	err       error
}

func (s *recordingSink) Deliver(_ context.Context, a export.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.artifacts = append(s.artifacts, a)
	return nil
}

func newDirectory() *fakeDirectory {
	return &fakeDirectory{
		users: map[string]model.AppUser{
			"user1": {ID: "user1", DisplayName: "Alice Smith"},
			"user2": {ID: "user2", DisplayName: "Bob"},
			"user3": {ID: "user3", DisplayName: "Carol"},
		},
		activities: []model.Activity{
			{ID: "development", Label: "Development"},
			{ID: "meeting", Label: "Meeting"},
		},
	}
}

func closed(id, user, date, activity, start, end string) model.TimeEntry {
	return model.TimeEntry{ID: id, UserID: user, Date: date, Activity: activity, StartTime: start, EndTime: model.StrPtr(end)}
}

func day(date string) export.DateRange {
	return export.DateRange{From: date, To: date}
}

func newExporter(src export.EntrySource, dir export.Directory, sink export.Sink, opts ...export.Option) *export.Exporter {
	opts = append([]export.Option{export.WithClock(testutil.FixedClock())}, opts...)
	return export.NewExporter(src, dir, sink, "Europe/Berlin", opts...)
}

func TestRunDetailedCSV(t *testing.T) {
	src := &fakeSource{entries: []model.TimeEntry{
		closed("2", "user1", "2024-01-15", "development", "10:30", "12:00"),
		closed("1", "user1", "2024-01-15", "meeting", "09:00", "10:30"),
	}}
	sink := &recordingSink{}
	e := newExporter(src, newDirectory(), sink)

	a, err := e.Run(context.Background(), export.Config{
		Format: export.FormatCSV, Type: export.Detailed, Range: day("2024-01-15"),
	})
	require.NoError(t, err)

	require.Len(t, sink.artifacts, 1)
	assert.Equal(t, a, sink.artifacts[0])
	assert.Equal(t, "timesheet-detailed-all-2024-01-15-to-2024-01-15.csv", a.Filename)
	assert.Equal(t, "text/csv;charset=utf-8", a.ContentType)

	lines := strings.Split(string(a.Data), "\n")
	require.Len(t, lines, 7)
	assert.Contains(t, lines[1], "Meeting,9:00 AM")
	assert.Contains(t, lines[2], "Development,10:30 AM")
	assert.Equal(t, "Total Hours,3h", lines[4])
	assert.Equal(t, "Generated,Jan 15, 2024 11:30 AM", lines[5])
	assert.Equal(t, "Timezone,CET", lines[6])

	assert.Equal(t, export.Status{State: export.Idle}, e.Status())
}

func TestRunOpenEntryUndercounts(t *testing.T) {
	src := &fakeSource{entries: []model.TimeEntry{
		closed("1", "user1", "2024-01-15", "meeting", "09:00", "10:00"),
		{ID: "2", UserID: "user1", Date: "2024-01-15", Activity: "meeting", StartTime: "10:00"},
	}}
	sink := &recordingSink{}
	e := newExporter(src, newDirectory(), sink)

	a, err := e.Run(context.Background(), export.Config{
		Format: export.FormatCSV, Type: export.Summary, Range: day("2024-01-15"),
	})
	require.NoError(t, err)

	lines := strings.Split(string(a.Data), "\n")
	assert.Equal(t, "User,Date,Total Hours,Entries,Development,Meeting", lines[0])
	assert.Equal(t, `Alice Smith,"Jan 15, 2024",1h,2,,1h`, lines[1])
}

func TestRunScopeDescription(t *testing.T) {
	src := &fakeSource{entries: []model.TimeEntry{
		closed("1", "user1", "2024-01-15", "meeting", "09:00", "10:00"),
		closed("2", "user2", "2024-01-15", "meeting", "09:00", "10:00"),
		closed("3", "user3", "2024-01-15", "meeting", "09:00", "10:00"),
		closed("4", "user2", "2024-01-15", "development", "10:00", "11:00"),
	}}
	renderer := &capturingRenderer{}
	sink := &recordingSink{}
	e := newExporter(src, newDirectory(), sink, export.WithRenderer(renderer))

	a, err := e.Run(context.Background(), export.Config{
		Format:      export.FormatPDF,
		Type:        export.Detailed,
		Range:       day("2024-01-15"),
		UserIDs:     []string{"user1", "user2"},
		ActivityIDs: []string{"meeting"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Scope: 2 users | Meeting", renderer.layout.Info[1])
	assert.Len(t, renderer.layout.Pages[0], 2)
	assert.Equal(t, "timesheet-detailed-2-users-2024-01-15-to-2024-01-15.pdf", a.Filename)
	assert.Equal(t, "application/pdf", a.ContentType)
	assert.Equal(t, []string{""}, src.calls, "multi-user filter fetches everyone")
}

func TestRunSingleUserFetch(t *testing.T) {
	src := &fakeSource{entries: []model.TimeEntry{
		closed("1", "user1", "2024-01-15", "meeting", "09:00", "10:00"),
		closed("2", "user2", "2024-01-15", "meeting", "09:00", "10:00"),
	}}
	sink := &recordingSink{}
	e := newExporter(src, newDirectory(), sink)

	a, err := e.Run(context.Background(), export.Config{
		Format: export.FormatCSV, Type: export.Summary,
		Range:   export.DateRange{From: "2024-01-01", To: "2024-01-31"},
		UserIDs: []string{"user1"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"user1"}, src.calls)
	assert.Equal(t, "timesheet-summary-alice-smith-2024-01-01-to-2024-01-31.csv", a.Filename)
}

func TestRunNoData(t *testing.T) {
	src := &fakeSource{entries: []model.TimeEntry{
		closed("1", "user1", "2024-01-15", "meeting", "09:00", "10:00"),
	}}
	sink := &recordingSink{}
	e := newExporter(src, newDirectory(), sink)

	_, err := e.Run(context.Background(), export.Config{
		Format: export.FormatCSV, Type: export.Detailed, Range: day("2024-01-15"),
		ActivityIDs: []string{"development"},
	})
	require.ErrorIs(t, err, export.ErrNoData)
	assert.Empty(t, sink.artifacts)
	assert.Equal(t, export.Status{State: export.Idle, Message: export.NoDataMessage}, e.Status())

	e.Dismiss()
	assert.Equal(t, export.Status{State: export.Idle}, e.Status())
}

func TestRunInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  export.Config
	}{
		{"unknown format", export.Config{Format: "xlsx", Type: export.Detailed, Range: day("2024-01-15")}},
		{"unknown type", export.Config{Format: export.FormatCSV, Type: "weekly", Range: day("2024-01-15")}},
		{"bad date", export.Config{Format: export.FormatCSV, Type: export.Detailed, Range: day("2024-02-30")}},
		{"reversed", export.Config{Format: export.FormatCSV, Type: export.Detailed,
			Range: export.DateRange{From: "2024-01-16", To: "2024-01-15"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{}
			e := newExporter(src, newDirectory(), &recordingSink{})
			_, err := e.Run(context.Background(), tt.cfg)
			var inv *timecalc.InvalidInputError
			require.ErrorAs(t, err, &inv)
			assert.Empty(t, src.calls)
			assert.NotEmpty(t, e.Status().Message)
		})
	}
}

func TestRunFetchFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("connection reset")}
	e := newExporter(src, newDirectory(), &recordingSink{})

	_, err := e.Run(context.Background(), export.Config{
		Format: export.FormatCSV, Type: export.Detailed, Range: day("2024-01-15"),
	})
	var fe *export.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "entries", fe.Op)
	assert.Contains(t, e.Status().Message, "connection reset")

	dir := newDirectory()
	dir.err = errors.New("directory down")
	src = &fakeSource{entries: []model.TimeEntry{closed("1", "user1", "2024-01-15", "meeting", "09:00", "10:00")}}
	e = newExporter(src, dir, &recordingSink{})
	_, err = e.Run(context.Background(), export.Config{
		Format: export.FormatCSV, Type: export.Detailed, Range: day("2024-01-15"),
	})
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "users", fe.Op)
}

type capturingRenderer struct {
	layout report.Layout
	err    error
}

func (r *capturingRenderer) Render(l report.Layout) ([]byte, error) {
	r.layout = l
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-fake"), nil
}

func TestRunSerializationFailure(t *testing.T) {
	src := &fakeSource{entries: []model.TimeEntry{closed("1", "user1", "2024-01-15", "meeting", "09:00", "10:00")}}
	sink := &recordingSink{}
	e := newExporter(src, newDirectory(), sink, export.WithRenderer(&capturingRenderer{err: errors.New("boom")}))

	_, err := e.Run(context.Background(), export.Config{
		Format: export.FormatPDF, Type: export.Summary, Range: day("2024-01-15"),
	})
	var se *report.SerializationError
	require.ErrorAs(t, err, &se)
	assert.Empty(t, sink.artifacts)
	assert.Equal(t, export.Idle, e.Status().State)
}

func TestRunDeliveryFailure(t *testing.T) {
	src := &fakeSource{entries: []model.TimeEntry{closed("1", "user1", "2024-01-15", "meeting", "09:00", "10:00")}}
	sink := &recordingSink{err: errors.New("disk full")}
	e := newExporter(src, newDirectory(), sink)

	_, err := e.Run(context.Background(), export.Config{
		Format: export.FormatCSV, Type: export.Detailed, Range: day("2024-01-15"),
	})
	require.Error(t, err)
	assert.Contains(t, e.Status().Message, "disk full")
}

func TestStatusDuringRun(t *testing.T) {
	src := &fakeSource{entries: []model.TimeEntry{closed("1", "user1", "2024-01-15", "meeting", "09:00", "10:00")}}
	var e *export.Exporter
	var seen export.Status
	sink := export.SinkFunc(func(context.Context, export.Artifact) error {
		seen = e.Status()
		return nil
	})
	e = newExporter(src, newDirectory(), sink)

	_, err := e.Run(context.Background(), export.Config{
		Format: export.FormatCSV, Type: export.Detailed, Range: day("2024-01-15"),
	})
	require.NoError(t, err)
	assert.Equal(t, export.Exporting, seen.State)
	assert.Equal(t, export.Idle, e.Status().State)
}

func TestDescribeScope(t *testing.T) {
	lookups := report.Lookups{
		Users:      map[string]model.AppUser{"u1": {DisplayName: "Alice"}},
		Activities: []model.Activity{{ID: "meeting", Label: "Meeting"}},
	}
	tests := []struct {
		users, activities []string
		want              string
	}{
		{nil, nil, "All Users"},
		{[]string{"u1"}, nil, "Alice"},
		{[]string{"u1", "u2", "u3"}, nil, "3 users"},
		{nil, []string{"meeting"}, "All Users | Meeting"},
		{[]string{"u1"}, []string{"meeting", "dev"}, "Alice | 2 activities"},
	}
	for _, tt := range tests {
		got := export.DescribeScope(export.Config{UserIDs: tt.users, ActivityIDs: tt.activities}, lookups)
		if got != tt.want {
			t.Errorf("DescribeScope(%v, %v) = %q, want %q", tt.users, tt.activities, got, tt.want)
		}
	}
}

func TestFilenameIsFilesystemSafe(t *testing.T) {
	cfg := export.Config{
		Format: export.FormatCSV, Type: export.Detailed,
		Range:   day("2024-01-15"),
		UserIDs: []string{"x"},
	}
	tests := []struct {
		scope string
		want  string
	}{
		{"Zoë Müller", "timesheet-detailed-zoë-müller-2024-01-15-to-2024-01-15.csv"},
		{"Zoë O'Brien / QA", "timesheet-detailed-zoë-o'brien--qa-2024-01-15-to-2024-01-15.csv"},
		{"李 雷", "timesheet-detailed-李-雷-2024-01-15-to-2024-01-15.csv"},
		{`..\evil:"name"`, "timesheet-detailed-..evilname-2024-01-15-to-2024-01-15.csv"},
		{"tab\tand\x00nul", "timesheet-detailed-tab-andnul-2024-01-15-to-2024-01-15.csv"},
		{"///", "timesheet-detailed-user-2024-01-15-to-2024-01-15.csv"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, export.Filename(cfg, tt.scope), "scope %q", tt.scope)
	}
}
