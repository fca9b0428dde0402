package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-timesheet/internal/report"
	"github.com/Tiliavir/trivial-timesheet/internal/timecalc"
)

var (
	reportDate   string
	reportUser   string
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show time per activity for a week",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportDate, "date", "", "Any day of the week to report, YYYY-MM-DD (default today)")
	reportCmd.Flags().StringVar(&reportUser, "user", "", "Report another user (admin)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, json")
}

type weekReport struct {
	Week         string                 `json:"week"`
	Activities   []report.ActivityTotal `json:"activities"`
	TotalMinutes int                    `json:"totalMinutes"`
}

func runReport(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	actor, err := a.actor(cmd)
	if err != nil {
		return err
	}
	userID := actor.ID
	if reportUser != "" {
		if !actor.IsAdmin() && reportUser != actor.ID {
			return fmt.Errorf("only admins can report on other users")
		}
		userID = reportUser
	}

	date := reportDate
	if date == "" {
		date = a.svc.Today()
	}
	from, to, err := dayOrWeek(date, true)
	if err != nil {
		return err
	}
	entries, err := a.svc.ListRange(cmd.Context(), from, to, userID)
	if err != nil {
		return err
	}
	activities, err := a.svc.Activities(cmd.Context())
	if err != nil {
		return err
	}
	totals, err := report.ActivityTotals(entries, report.Lookups{Activities: activities})
	if err != nil {
		return err
	}

	day, _ := timecalc.ParseDate(from)
	wr := weekReport{Week: timecalc.ISOWeekLabel(day), Activities: totals}
	for _, t := range totals {
		wr.TotalMinutes += t.Minutes
	}
	return printReport(os.Stdout, wr, reportFormat)
}

func printReport(w io.Writer, wr weekReport, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(wr)
	case "md":
		fmt.Fprintf(w, "Week %s\n", wr.Week)
		fmt.Fprintln(w, "--------------------------------")
		for _, t := range wr.Activities {
			fmt.Fprintf(w, "%-20s%s\n", t.Label, timecalc.FormatMinutes(t.Minutes))
		}
		fmt.Fprintln(w, "--------------------------------")
		fmt.Fprintf(w, "%-20s%s\n", "Total", timecalc.FormatMinutes(wr.TotalMinutes))
		return nil
	default:
		return fmt.Errorf("unknown report format %q: want md or json", format)
	}
}
