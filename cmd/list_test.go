package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Tiliavir/trivial-timesheet/internal/config"
	"github.com/Tiliavir/trivial-timesheet/internal/model"
	"github.com/Tiliavir/trivial-timesheet/internal/report"
)

func TestDayOrWeek(t *testing.T) {
	tests := []struct {
		date     string
		week     bool
		from, to string
	}{
		{"2024-01-17", false, "2024-01-17", "2024-01-17"},
		{"2024-01-17", true, "2024-01-15", "2024-01-21"},
		{"2024-01-21", true, "2024-01-15", "2024-01-21"},
		{"2024-12-31", true, "2024-12-30", "2025-01-05"},
	}
	for _, tt := range tests {
		from, to, err := dayOrWeek(tt.date, tt.week)
		if err != nil {
			t.Fatalf("dayOrWeek(%s, %t): %v", tt.date, tt.week, err)
		}
		if from != tt.from || to != tt.to {
			t.Errorf("dayOrWeek(%s, %t) = %s..%s, want %s..%s", tt.date, tt.week, from, to, tt.from, tt.to)
		}
	}
	if _, _, err := dayOrWeek("17.01.2024", false); err == nil {
		t.Error("dayOrWeek accepted a malformed date")
	}
}

func TestPrintList(t *testing.T) {
	lookups := lookupsFor(
		[]model.AppUser{{ID: "u1", DisplayName: "Alice"}},
		[]model.Activity{{ID: "meeting", Label: "Meeting"}},
	)
	entries := []model.TimeEntry{
		{ID: "e1", UserID: "u1", Date: "2024-01-15", Activity: "meeting", StartTime: "09:00", EndTime: model.StrPtr("10:30"), Notes: model.StrPtr("standup")},
		{ID: "e2", UserID: "u1", Date: "2024-01-16", Activity: "coding", StartTime: "11:00"},
	}

	var buf bytes.Buffer
	if err := printList(&buf, entries, lookups, true); err != nil {
		t.Fatalf("printList: %v", err)
	}
	want := "Monday, January 15, 2024\n" +
		"09:00–10:30  Meeting  Alice  standup (1h 30m)  [e1]\n" +
		"Tuesday, January 16, 2024\n" +
		"11:00–ongoing  coding  Alice (In Progress)  [e2]\n"
	if got := buf.String(); got != want {
		t.Errorf("printList output:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrintListEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := printList(&buf, nil, report.Lookups{}, false); err != nil {
		t.Fatalf("printList: %v", err)
	}
	if got := buf.String(); got != "No entries found.\n" {
		t.Errorf("printList(nil) = %q", got)
	}
}

func TestPrintReport(t *testing.T) {
	wr := weekReport{
		Week: "2024-W03",
		Activities: []report.ActivityTotal{
			{Label: "Coding", Minutes: 300},
			{Label: "Meeting", Minutes: 45},
		},
		TotalMinutes: 345,
	}

	var md bytes.Buffer
	if err := printReport(&md, wr, "md"); err != nil {
		t.Fatalf("printReport md: %v", err)
	}
	for _, line := range []string{"Week 2024-W03", "Coding              5h", "Meeting             45m", "Total               5h 45m"} {
		if !strings.Contains(md.String(), line) {
			t.Errorf("markdown report missing %q:\n%s", line, md.String())
		}
	}

	var js bytes.Buffer
	if err := printReport(&js, wr, "json"); err != nil {
		t.Fatalf("printReport json: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if decoded["totalMinutes"] != float64(345) {
		t.Errorf("totalMinutes = %v, want 345", decoded["totalMinutes"])
	}

	if err := printReport(&js, wr, "xml"); err == nil {
		t.Error("printReport accepted an unknown format")
	}
}

func TestResolveZone(t *testing.T) {
	t.Setenv("TZ", "")
	timezoneFlag = ""
	defer func() { timezoneFlag = "" }()

	zone, err := resolveZone(config.Config{})
	if err != nil || zone != "UTC" {
		t.Errorf("resolveZone(empty) = %q, %v; want UTC", zone, err)
	}

	t.Setenv("TZ", "Asia/Tokyo")
	if zone, _ := resolveZone(config.Config{}); zone != "Asia/Tokyo" {
		t.Errorf("resolveZone with $TZ = %q", zone)
	}
	if zone, _ := resolveZone(config.Config{Timezone: "Europe/Berlin"}); zone != "Europe/Berlin" {
		t.Errorf("resolveZone with config = %q", zone)
	}

	timezoneFlag = "America/New_York"
	if zone, _ := resolveZone(config.Config{Timezone: "Europe/Berlin"}); zone != "America/New_York" {
		t.Errorf("resolveZone with flag = %q", zone)
	}

	timezoneFlag = "Mars/Olympus"
	if _, err := resolveZone(config.Config{}); err == nil {
		t.Error("resolveZone accepted an unknown zone")
	}
}

func TestDefaultRange(t *testing.T) {
	// Sunday 23:30 UTC is already Monday in Berlin.
	now := time.Date(2024, 1, 21, 23, 30, 0, 0, time.UTC)

	r, err := defaultRange("", "", "Europe/Berlin", now)
	if err != nil {
		t.Fatalf("defaultRange: %v", err)
	}
	if r.From != "2024-01-22" || r.To != "2024-01-28" {
		t.Errorf("defaultRange = %s..%s, want 2024-01-22..2024-01-28", r.From, r.To)
	}

	r, _ = defaultRange("2024-01-01", "", "UTC", now)
	if r.From != "2024-01-01" || r.To != "2024-01-21" {
		t.Errorf("defaultRange with from = %s..%s", r.From, r.To)
	}
}

func TestOnlySelf(t *testing.T) {
	if !onlySelf(nil, "u1") {
		t.Error("onlySelf(nil) = false")
	}
	if !onlySelf([]string{"u1", "u1"}, "u1") {
		t.Error("onlySelf(self) = false")
	}
	if onlySelf([]string{"u1", "u2"}, "u1") {
		t.Error("onlySelf(other) = true")
	}
}
