package report

import (
	"strconv"
	"strings"

	"github.com/Tiliavir/trivial-timesheet/internal/model"
	"github.com/Tiliavir/trivial-timesheet/internal/timecalc"
)

var (
	detailedCSVHeader = []string{"Date", "User", "Activity", "Start Time", "End Time", "Duration", "Notes"}
	summaryCSVHeader  = []string{"User", "Date", "Total Hours", "Entries"}
)

// EscapeCSV wraps a field in quotes if it contains a comma, quote, or newline.
func EscapeCSV(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	// Escape internal double quotes by doubling them.
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func csvLine(fields []string) string {
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = EscapeCSV(f)
	}
	return strings.Join(escaped, ",")
}

// DetailedCSV renders one line per row followed by the metadata trailer.
func DetailedCSV(rows []DetailedRow, meta Metadata) string {
	lines := []string{csvLine(detailedCSVHeader)}
	for _, r := range rows {
		lines = append(lines, csvLine([]string{
			r.Date, r.UserName, r.Activity, r.StartTime, r.EndTime, r.Duration, r.Notes,
		}))
	}
	return strings.Join(appendTrailer(lines, TotalDetailedMinutes(rows), meta), "\n")
}

// SummaryCSV renders one line per (user, day) with a column per activity label.
// Activity cells are empty when no time was logged against that activity.
func SummaryCSV(rows []SummaryRow, activities []model.Activity, meta Metadata) string {
	labels := ActivityLabels(activities)
	header := append(append([]string{}, summaryCSVHeader...), labels...)

	lines := []string{csvLine(header)}
	for _, r := range rows {
		fields := []string{r.UserName, r.Date, r.TotalHours, strconv.Itoa(r.EntryCount)}
		for _, label := range labels {
			cell := ""
			if mins := r.ActivityBreakdown[label]; mins > 0 {
				cell = timecalc.FormatMinutes(mins)
			}
			fields = append(fields, cell)
		}
		lines = append(lines, csvLine(fields))
	}
	return strings.Join(appendTrailer(lines, TotalSummaryMinutes(rows), meta), "\n")
}

func appendTrailer(lines []string, totalMinutes int, meta Metadata) []string {
	return append(lines,
		"",
		"Total Hours,"+timecalc.FormatMinutes(totalMinutes),
		"Generated,"+meta.GeneratedAt,
		"Timezone,"+meta.Timezone,
	)
}
