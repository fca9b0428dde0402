package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-timesheet/internal/model"
	"github.com/Tiliavir/trivial-timesheet/internal/report"
	"github.com/Tiliavir/trivial-timesheet/internal/timecalc"
)

var (
	listDate string
	listWeek bool
	listUser string
	listAll  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List time entries",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listDate, "date", "", "Day to list, YYYY-MM-DD (default today)")
	listCmd.Flags().BoolVar(&listWeek, "week", false, "List the week containing the day")
	listCmd.Flags().StringVar(&listUser, "user", "", "List another user's entries (admin)")
	listCmd.Flags().BoolVar(&listAll, "all", false, "List every user's entries (admin)")
}

// dayOrWeek returns [date, date], or the Monday to Sunday range around date.
func dayOrWeek(date string, week bool) (string, string, error) {
	t, err := timecalc.ParseDate(date)
	if err != nil {
		return "", "", err
	}
	if !week {
		return date, date, nil
	}
	from, to := timecalc.WeekRange(t)
	return from.Format(timecalc.DateLayout), to.Format(timecalc.DateLayout), nil
}

func runList(cmd *cobra.Command, args []string) error {
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
	switch {
	case listAll:
		userID = ""
	case listUser != "":
		userID = listUser
	}
	if userID != actor.ID && !actor.IsAdmin() {
		return fmt.Errorf("only admins can list other users' entries")
	}

	date := listDate
	if date == "" {
		date = a.svc.Today()
	}
	from, to, err := dayOrWeek(date, listWeek)
	if err != nil {
		return err
	}
	entries, err := a.svc.ListRange(cmd.Context(), from, to, userID)
	if err != nil {
		return err
	}
	users, err := a.svc.Users(cmd.Context())
	if err != nil {
		return err
	}
	activities, err := a.svc.Activities(cmd.Context())
	if err != nil {
		return err
	}
	return printList(os.Stdout, entries, lookupsFor(users, activities), userID == "")
}

func lookupsFor(users []model.AppUser, activities []model.Activity) report.Lookups {
	byID := make(map[string]model.AppUser, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return report.Lookups{Users: byID, Activities: activities}
}

// printList groups entries by date and prints one line per entry.
func printList(w io.Writer, entries []model.TimeEntry, lookups report.Lookups, showUser bool) error {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries found.")
		return nil
	}

	var currentDay string
	for _, e := range entries {
		if e.Date != currentDay {
			fmt.Fprintln(w, timecalc.FormatDateLong(e.Date))
			currentDay = e.Date
		}

		endStr := "ongoing"
		if e.EndTime != nil {
			endStr = *e.EndTime
		}
		d, err := timecalc.CalculateDuration(e.StartTime, e.EndTime)
		if err != nil {
			return err
		}
		who := ""
		if showUser {
			who = "  " + lookups.UserName(e.UserID)
		}
		notes := ""
		if e.Notes != nil {
			notes = "  " + *e.Notes
		}
		fmt.Fprintf(w, "%s–%s  %s%s%s (%s)  [%s]\n",
			e.StartTime, endStr, lookups.ActivityLabel(e.Activity), who, notes, d, e.ID)
	}
	return nil
}
