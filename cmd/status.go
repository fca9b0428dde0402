package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-timesheet/internal/timecalc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running entry or today's total",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	if open != nil {
		elapsed, err := elapsedSince(*open, a.zone, time.Now())
		if err != nil {
			return err
		}
		fmt.Println("Running:")
		fmt.Printf("  Activity: %s\n", open.Activity)
		if open.Notes != nil {
			fmt.Printf("  Notes: %s\n", *open.Notes)
		}
		fmt.Printf("  Since: %s %s\n", open.Date, open.StartTime)
		fmt.Printf("  Elapsed: %s\n", timecalc.FormatDurationHHMMSS(elapsed))
		return nil
	}

	entries, err := a.svc.ListDay(cmd.Context(), actor.ID, a.svc.Today())
	if err != nil {
		return err
	}
	total := 0
	for _, e := range entries {
		d, err := timecalc.CalculateDuration(e.StartTime, e.EndTime)
		if err != nil {
			return err
		}
		total += d.Minutes()
	}

	fmt.Println("No entry in progress.")
	fmt.Printf("Today (%s): %s logged.\n", timecalc.ZoneName(a.zone), timecalc.FormatMinutes(total))
	return nil
}
