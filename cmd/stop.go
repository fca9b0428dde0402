package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-timesheet/internal/model"
	"github.com/Tiliavir/trivial-timesheet/internal/timecalc"
	"github.com/Tiliavir/trivial-timesheet/internal/timesheet"
)

var stopNotes string

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running entry",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

func init() {
	stopCmd.Flags().StringVar(&stopNotes, "notes", "", "Replace the entry's notes")
}

func runStop(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	actor, err := a.actor(cmd)
	if err != nil {
		return err
	}
	open, err := a.svc.OpenEntry(cmd.Context(), actor.ID)
	if err != nil {
		return err
	}
	if open == nil {
		return timesheet.ErrNoOpenEntry
	}

	var notes *string
	if cmd.Flags().Changed("notes") {
		notes = &stopNotes
	}
	if _, err := a.svc.StopEntry(cmd.Context(), actor, notes); err != nil {
		return err
	}

	elapsed, err := elapsedSince(*open, a.zone, time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("Stopped %q. Elapsed: %s\n", open.Activity, formatElapsed(elapsed))
	return nil
}

// elapsedSince returns the seconds between the local start of e and now.
func elapsedSince(e model.TimeEntry, zone string, now time.Time) (int64, error) {
	loc, err := timecalc.LoadZone(zone)
	if err != nil {
		return 0, err
	}
	start, err := time.ParseInLocation(timecalc.DateLayout+" "+timecalc.ClockLayout, e.Date+" "+e.StartTime, loc)
	if err != nil {
		return 0, err
	}
	secs := int64(now.Sub(start).Seconds())
	if secs < 0 {
		secs = 0
	}
	return secs, nil
}

func formatElapsed(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
