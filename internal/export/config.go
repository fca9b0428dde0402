// Package export runs timesheet exports: it fetches entries for a date
// range, filters them, renders a CSV or PDF report and hands the result to a
// delivery sink.
package export

import (
	"fmt"

	"github.com/Tiliavir/trivial-timesheet/internal/timecalc"
)

// Format is the file format of an export.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string { return string(f) }

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv;charset=utf-8"
}

// ReportType selects between one row per entry and per-day aggregates.
type ReportType string

const (
	Detailed ReportType = "detailed"
	Summary  ReportType = "summary"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatCSV, FormatPDF:
		return f, nil
	}
	return "", &timecalc.InvalidInputError{Field: "format", Value: s, Reason: "want csv or pdf"}
}

// ParseReportType validates a report type name.
func ParseReportType(s string) (ReportType, error) {
	switch t := ReportType(s); t {
	case Detailed, Summary:
		return t, nil
	}
	return "", &timecalc.InvalidInputError{Field: "type", Value: s, Reason: "want detailed or summary"}
}

// DateRange is an inclusive range of YYYY-MM-DD dates.
type DateRange struct {
	From string
	To   string
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s to %s", r.From, r.To)
}

// Validate checks both bounds and their order.
func (r DateRange) Validate() error {
	from, err := timecalc.ParseDate(r.From)
	if err != nil {
		return err
	}
	to, err := timecalc.ParseDate(r.To)
	if err != nil {
		return err
	}
	if from.After(to) {
		return &timecalc.InvalidInputError{Field: "date range", Value: r.String(), Reason: "start is after end"}
	}
	return nil
}

// Contains reports whether date falls inside the range.
func (r DateRange) Contains(date string) bool {
	return date >= r.From && date <= r.To
}

// Config describes one export. Empty UserIDs or ActivityIDs mean no
// restriction on that dimension.
type Config struct {
	Format      Format
	Type        ReportType
	Range       DateRange
	UserIDs     []string
	ActivityIDs []string
}

// Validate rejects unknown formats and report types and malformed ranges.
func (c Config) Validate() error {
	if _, err := ParseFormat(string(c.Format)); err != nil {
		return err
	}
	if _, err := ParseReportType(string(c.Type)); err != nil {
		return err
	}
	return c.Range.Validate()
}
