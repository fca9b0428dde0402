// Package report turns time entries into export rows and serializes them
// as CSV text or paginated PDF tables.
package report

import (
	"sort"

	"github.com/Tiliavir/trivial-timesheet/internal/model"
	"github.com/Tiliavir/trivial-timesheet/internal/timecalc"
)

// UnknownUser is shown for entries whose user is missing from the lookup.
const UnknownUser = "Unknown User"

// Lookups resolves user and activity identifiers for display.
type Lookups struct {
	Users      map[string]model.AppUser
	Activities []model.Activity
}

// UserName returns the display name for id, or UnknownUser.
func (l Lookups) UserName(id string) string {
	if u, ok := l.Users[id]; ok && u.DisplayName != "" {
		return u.DisplayName
	}
	return UnknownUser
}

// ActivityLabel returns the label for id. Unknown ids are shown as-is so
// dangling references stay visible.
func (l Lookups) ActivityLabel(id string) string {
	for _, a := range l.Activities {
		if a.ID == id && a.Label != "" {
			return a.Label
		}
	}
	return id
}

// DetailedRow is one exported time entry.
type DetailedRow struct {
	Date            string `json:"date"`
	UserName        string `json:"userName"`
	Activity        string `json:"activity"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	Duration        string `json:"duration"`
	DurationMinutes int    `json:"durationMinutes"`
	Notes           string `json:"notes"`
}

// SummaryRow aggregates one user's entries on one day.
type SummaryRow struct {
	UserName          string         `json:"userName"`
	Date              string         `json:"date"`
	TotalMinutes      int            `json:"totalMinutes"`
	TotalHours        string         `json:"totalHours"`
	EntryCount        int            `json:"entryCount"`
	ActivityBreakdown map[string]int `json:"activityBreakdown"`

	day string
}

// DetailedRows projects each entry into a display row, ordered by date,
// user name and start time. Open entries report 0 DurationMinutes, so sums
// over the rows leave them out.
func DetailedRows(entries []model.TimeEntry, lookups Lookups) ([]DetailedRow, error) {
	type keyed struct {
		date, user, start string
		row               DetailedRow
	}
	items := make([]keyed, 0, len(entries))
	for _, e := range entries {
		d, err := timecalc.CalculateDuration(e.StartTime, e.EndTime)
		if err != nil {
			return nil, err
		}
		endTime := timecalc.InProgress
		if !d.Open() {
			endTime = timecalc.FormatClock12h(*e.EndTime)
		}
		user := lookups.UserName(e.UserID)
		items = append(items, keyed{
			date:  e.Date,
			user:  user,
			start: e.StartTime,
			row: DetailedRow{
				Date:            timecalc.FormatDateShort(e.Date),
				UserName:        user,
				Activity:        lookups.ActivityLabel(e.Activity),
				StartTime:       timecalc.FormatClock12h(e.StartTime),
				EndTime:         endTime,
				Duration:        d.String(),
				DurationMinutes: d.Minutes(),
				Notes:           e.NotesOrEmpty(),
			},
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.date != b.date {
			return a.date < b.date
		}
		if a.user != b.user {
			return a.user < b.user
		}
		return a.start < b.start
	})

	rows := make([]DetailedRow, len(items))
	for i, it := range items {
		rows[i] = it.row
	}
	return rows, nil
}

// SummaryRows groups entries by (user, date) and totals their minutes per
// activity label. Rows are ordered by user name, then date.
func SummaryRows(entries []model.TimeEntry, lookups Lookups) ([]SummaryRow, error) {
	type groupKey struct{ userID, date string }
	groups := map[groupKey]*SummaryRow{}
	var order []groupKey

	for _, e := range entries {
		d, err := timecalc.CalculateDuration(e.StartTime, e.EndTime)
		if err != nil {
			return nil, err
		}
		key := groupKey{e.UserID, e.Date}
		row, ok := groups[key]
		if !ok {
			row = &SummaryRow{
				UserName:          lookups.UserName(e.UserID),
				Date:              timecalc.FormatDateShort(e.Date),
				ActivityBreakdown: map[string]int{},
				day:               e.Date,
			}
			groups[key] = row
			order = append(order, key)
		}
		row.TotalMinutes += d.Minutes()
		row.EntryCount++
		row.ActivityBreakdown[lookups.ActivityLabel(e.Activity)] += d.Minutes()
	}

	rows := make([]SummaryRow, 0, len(order))
	for _, k := range order {
		row := groups[k]
		row.TotalHours = timecalc.FormatMinutes(row.TotalMinutes)
		rows = append(rows, *row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].UserName != rows[j].UserName {
			return rows[i].UserName < rows[j].UserName
		}
		return rows[i].day < rows[j].day
	})
	return rows, nil
}

// ActivityTotal is the time spent on one activity.
type ActivityTotal struct {
	Label   string `json:"label"`
	Minutes int    `json:"minutes"`
}

// ActivityTotals sums closed entry durations per activity label, ordered by label.
func ActivityTotals(entries []model.TimeEntry, lookups Lookups) ([]ActivityTotal, error) {
	totals := map[string]int{}
	for _, e := range entries {
		d, err := timecalc.CalculateDuration(e.StartTime, e.EndTime)
		if err != nil {
			return nil, err
		}
		totals[lookups.ActivityLabel(e.Activity)] += d.Minutes()
	}
	out := make([]ActivityTotal, 0, len(totals))
	for label, mins := range totals {
		out = append(out, ActivityTotal{Label: label, Minutes: mins})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

// TotalDetailedMinutes sums DurationMinutes over rows.
func TotalDetailedMinutes(rows []DetailedRow) int {
	total := 0
	for _, r := range rows {
		total += r.DurationMinutes
	}
	return total
}

// TotalSummaryMinutes sums TotalMinutes over rows.
func TotalSummaryMinutes(rows []SummaryRow) int {
	total := 0
	for _, r := range rows {
		total += r.TotalMinutes
	}
	return total
}

// ActivityLabels returns the labels of activities in order.
func ActivityLabels(activities []model.Activity) []string {
	labels := make([]string, len(activities))
	for i, a := range activities {
		labels[i] = a.Label
	}
	return labels
}
