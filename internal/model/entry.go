package model

import (
	"strings"
	"time"
	"unicode"
)

// TimeEntry is one user's activity interval on one calendar day.
// StartTime and EndTime are "HH:mm". Stores hold them in canonical (UTC)
// form; the timesheet service hands out local wall-clock values.
type TimeEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Date      string    `json:"date"`
	Activity  string    `json:"activity"`
	StartTime string    `json:"startTime"`
	EndTime   *string   `json:"endTime,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsOpen reports whether the entry is still in progress.
func (e TimeEntry) IsOpen() bool {
	return e.EndTime == nil
}

// NotesOrEmpty returns the notes, or "" when none were recorded.
func (e TimeEntry) NotesOrEmpty() string {
	if e.Notes == nil {
		return ""
	}
	return *e.Notes
}

// DayFile is the top-level structure stored in each daily JSON file.
type DayFile struct {
	Date    string      `json:"date"`
	Entries []TimeEntry `json:"entries"`
}

// Activity is a labeled, colored category that time entries reference.
type Activity struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// ActivityID derives the identifier for a label: lowercased, whitespace runs
// collapsed to a single hyphen.
func ActivityID(label string) string {
	return Slug(label)
}

// Slug lowercases s and replaces each run of whitespace with "-".
func Slug(s string) string {
	var b strings.Builder
	inSpace := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('-')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// StrPtr returns a pointer to s, or nil when s is empty.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
