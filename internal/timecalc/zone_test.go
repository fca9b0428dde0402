package timecalc_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Tiliavir/trivial-timesheet/internal/timecalc"
)

func TestToCanonical(t *testing.T) {
	tests := []struct {
		date, local, zone string
		want              string
	}{
		{"2024-01-15", "09:00", "Europe/Berlin", "08:00"},
		{"2024-07-15", "09:00", "Europe/Berlin", "07:00"},
		{"2024-01-15", "09:00", "UTC", "09:00"},
		{"2024-01-15", "09:00", "Asia/Kolkata", "03:30"},
		// Crosses into the next UTC day; only the clock is kept.
		{"2024-01-15", "22:30", "America/New_York", "03:30"},
		// Crosses into the previous UTC day.
		{"2024-01-15", "00:30", "Asia/Tokyo", "15:30"},
	}
	for _, tt := range tests {
		got, err := timecalc.ToCanonical(tt.date, tt.local, tt.zone)
		if err != nil {
			t.Fatalf("ToCanonical(%s, %s, %s): %v", tt.date, tt.local, tt.zone, err)
		}
		if got != tt.want {
			t.Errorf("ToCanonical(%s, %s, %s) = %q, want %q", tt.date, tt.local, tt.zone, got, tt.want)
		}
	}
}

func TestToLocal(t *testing.T) {
	tests := []struct {
		date, canonical, zone string
		want                  string
	}{
		{"2024-01-15", "08:00", "Europe/Berlin", "09:00"},
		{"2024-07-15", "07:00", "Europe/Berlin", "09:00"},
		{"2024-01-15", "03:30", "Asia/Kolkata", "09:00"},
		{"2024-01-15", "03:30", "America/New_York", "22:30"},
	}
	for _, tt := range tests {
		got, err := timecalc.ToLocal(tt.date, tt.canonical, tt.zone)
		if err != nil {
			t.Fatalf("ToLocal(%s, %s, %s): %v", tt.date, tt.canonical, tt.zone, err)
		}
		if got != tt.want {
			t.Errorf("ToLocal(%s, %s, %s) = %q, want %q", tt.date, tt.canonical, tt.zone, got, tt.want)
		}
	}
}

func TestConversionRoundTrip(t *testing.T) {
	cases := []struct{ date, zone string }{
		{"2024-01-15", "Europe/Berlin"},
		{"2024-07-15", "America/New_York"},
		{"2024-01-15", "Asia/Tokyo"},
		{"2024-01-15", "Asia/Kolkata"},
		{"2024-01-15", "UTC"},
	}
	for _, c := range cases {
		for mins := 0; mins < timecalc.MinutesPerDay; mins++ {
			local := fmt.Sprintf("%02d:%02d", mins/60, mins%60)
			canonical, err := timecalc.ToCanonical(c.date, local, c.zone)
			if err != nil {
				t.Fatalf("ToCanonical(%s, %s, %s): %v", c.date, local, c.zone, err)
			}
			back, err := timecalc.ToLocal(c.date, canonical, c.zone)
			if err != nil {
				t.Fatalf("ToLocal(%s, %s, %s): %v", c.date, canonical, c.zone, err)
			}
			if back != local {
				t.Fatalf("round trip %s %s in %s: got %s via %s", c.date, local, c.zone, back, canonical)
			}
		}
	}
}

func TestConversionInvalidInput(t *testing.T) {
	tests := []struct {
		name             string
		date, time, zone string
		field            string
	}{
		{"hour out of range", "2024-01-15", "24:00", "UTC", "time"},
		{"minute out of range", "2024-01-15", "10:60", "UTC", "time"},
		{"not zero padded", "2024-01-15", "9:00", "UTC", "time"},
		{"letters", "2024-01-15", "ab:cd", "UTC", "time"},
		{"bad date", "2024-13-01", "09:00", "UTC", "date"},
		{"unknown zone", "2024-01-15", "09:00", "Mars/Olympus", "timezone"},
		{"empty zone", "2024-01-15", "09:00", "", "timezone"},
		{"ambient zone", "2024-01-15", "09:00", "Local", "timezone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := timecalc.ToCanonical(tt.date, tt.time, tt.zone)
			var inv *timecalc.InvalidInputError
			if !errors.As(err, &inv) {
				t.Fatalf("ToCanonical error = %v, want *InvalidInputError", err)
			}
			if inv.Field != tt.field {
				t.Errorf("Field = %q, want %q", inv.Field, tt.field)
			}
			if _, err := timecalc.ToLocal(tt.date, tt.time, tt.zone); !errors.As(err, &inv) {
				t.Errorf("ToLocal error = %v, want *InvalidInputError", err)
			}
		})
	}
}

func TestZoneAbbreviation(t *testing.T) {
	winter := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	summer := time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		zone string
		at   time.Time
		want string
	}{
		{"Europe/Berlin", winter, "CET"},
		{"Europe/Berlin", summer, "CEST"},
		{"America/New_York", winter, "EST"},
		{"UTC", winter, "UTC"},
	}
	for _, tt := range tests {
		got, err := timecalc.ZoneAbbreviation(tt.zone, tt.at)
		if err != nil {
			t.Fatalf("ZoneAbbreviation(%s): %v", tt.zone, err)
		}
		if got != tt.want {
			t.Errorf("ZoneAbbreviation(%s, %v) = %q, want %q", tt.zone, tt.at, got, tt.want)
		}
	}
}

func TestZoneName(t *testing.T) {
	if got := timecalc.ZoneName("America/New_York"); got != "America/New York" {
		t.Errorf("ZoneName = %q, want %q", got, "America/New York")
	}
}

func TestLocalDateAndClock(t *testing.T) {
	now := time.Date(2024, 1, 15, 23, 30, 0, 0, time.UTC)
	date, err := timecalc.LocalDate(now, "Europe/Berlin")
	if err != nil {
		t.Fatal(err)
	}
	if date != "2024-01-16" {
		t.Errorf("LocalDate = %q, want %q", date, "2024-01-16")
	}
	clock, err := timecalc.LocalClock(now, "Europe/Berlin")
	if err != nil {
		t.Fatal(err)
	}
	if clock != "00:30" {
		t.Errorf("LocalClock = %q, want %q", clock, "00:30")
	}
}

func TestFormatClock12h(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"09:30", "9:30 AM"},
		{"00:00", "12:00 AM"},
		{"11:59", "11:59 AM"},
		{"12:00", "12:00 PM"},
		{"13:30", "1:30 PM"},
		{"23:59", "11:59 PM"},
		{"09:05", "9:05 AM"},
		{"garbage", "garbage"},
	}
	for _, tt := range tests {
		if got := timecalc.FormatClock12h(tt.in); got != tt.want {
			t.Errorf("FormatClock12h(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDates(t *testing.T) {
	if got := timecalc.FormatDateShort("2024-01-15"); got != "Jan 15, 2024" {
		t.Errorf("FormatDateShort = %q", got)
	}
	tests := []struct{ in, want string }{
		{"2024-01-15", "Monday, January 15, 2024"},
		{"2024-12-25", "Wednesday, December 25, 2024"},
		{"2024-07-04", "Thursday, July 4, 2024"},
	}
	for _, tt := range tests {
		if got := timecalc.FormatDateLong(tt.in); got != tt.want {
			t.Errorf("FormatDateLong(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
