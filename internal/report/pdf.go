package report

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/Tiliavir/trivial-timesheet/internal/model"
	"github.com/Tiliavir/trivial-timesheet/internal/timecalc"
)

// Orientation of a PDF page.
type Orientation string

const (
	Portrait  Orientation = "P"
	Landscape Orientation = "L"
)

// NoteLimit is the number of note characters kept in detailed PDF rows.
const NoteLimit = 40

// Page geometry in millimetres on A4 paper.
const (
	a4Short      = 210.0
	a4Long       = 297.0
	pageMargin   = 14.0
	titleBottom  = 48.0
	bottomMargin = 20.0
	rowHeight    = 6.0
)

// Layout is a renderer-independent description of a paginated report table.
type Layout struct {
	Orientation Orientation
	Title       string
	Info        []string
	Header      []string
	// ColumnWidths in mm; a zero width shares the remaining page width.
	ColumnWidths []float64
	Pages        [][][]string
	Footers      []string
}

// RowsPerPage returns how many body rows fit below the column header on a
// page. The first page holds fewer rows because of the title block.
func RowsPerPage(o Orientation, first bool) int {
	_, h := pageSize(o)
	top := pageMargin
	if first {
		top = titleBottom
	}
	return int((h-top-bottomMargin)/rowHeight) - 1
}

func pageSize(o Orientation) (w, h float64) {
	if o == Landscape {
		return a4Long, a4Short
	}
	return a4Short, a4Long
}

var (
	detailedPDFHeader = []string{"Date", "User", "Activity", "Start", "End", "Duration", "Notes"}
	detailedPDFWidths = []float64{22, 28, 25, 18, 18, 18, 0}
	summaryPDFHeader  = []string{"User", "Date", "Total", "Entries"}
)

// DetailedLayout lays out detailed rows on portrait pages.
func DetailedLayout(rows []DetailedRow, meta Metadata) Layout {
	body := make([][]string, len(rows))
	for i, r := range rows {
		body[i] = []string{
			r.Date, r.UserName, r.Activity, r.StartTime, r.EndTime, r.Duration,
			truncate(r.Notes, NoteLimit),
		}
	}
	return newLayout(Portrait, "Timesheet Report - Detailed", detailedPDFHeader,
		detailedPDFWidths, body, TotalDetailedMinutes(rows), meta)
}

// SummaryLayout lays out summary rows on landscape pages with one column per
// activity label.
func SummaryLayout(rows []SummaryRow, activities []model.Activity, meta Metadata) Layout {
	labels := ActivityLabels(activities)
	header := append(append([]string{}, summaryPDFHeader...), labels...)

	body := make([][]string, len(rows))
	for i, r := range rows {
		cells := []string{r.UserName, r.Date, r.TotalHours, strconv.Itoa(r.EntryCount)}
		for _, label := range labels {
			cell := "-"
			if mins := r.ActivityBreakdown[label]; mins > 0 {
				cell = timecalc.FormatMinutes(mins)
			}
			cells = append(cells, cell)
		}
		body[i] = cells
	}
	return newLayout(Landscape, "Timesheet Report - Summary", header,
		make([]float64, len(header)), body, TotalSummaryMinutes(rows), meta)
}

func newLayout(o Orientation, title string, header []string, widths []float64, body [][]string, totalMinutes int, meta Metadata) Layout {
	pages := paginate(body, o)
	total := timecalc.FormatMinutes(totalMinutes)
	footers := make([]string, len(pages))
	for i := range pages {
		footers[i] = fmt.Sprintf("Page %d of %d | Total Hours: %s", i+1, len(pages), total)
	}
	return Layout{
		Orientation: o,
		Title:       title,
		Info: []string{
			"Date Range: " + meta.DateRange,
			"Scope: " + meta.Scope,
			fmt.Sprintf("Generated: %s (%s)", meta.GeneratedAt, meta.Timezone),
		},
		Header:       header,
		ColumnWidths: widths,
		Pages:        pages,
		Footers:      footers,
	}
}

func paginate(body [][]string, o Orientation) [][][]string {
	pages := [][][]string{}
	size := RowsPerPage(o, true)
	for len(body) > size {
		pages = append(pages, body[:size])
		body = body[size:]
		size = RowsPerPage(o, false)
	}
	return append(pages, body)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
