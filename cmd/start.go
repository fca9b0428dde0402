package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-timesheet/internal/model"
)

var startNotes string

var startCmd = &cobra.Command{
	Use:   "start <activity>",
	Short: "Start a new time entry now",
	Args:  cobra.ExactArgs(1),
	RunE:  runStart,
}

func init() {
	startCmd.Flags().StringVar(&startNotes, "notes", "", "Optional notes")
}

func runStart(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	actor, err := a.actor(cmd)
	if err != nil {
		return err
	}
	entry, err := a.svc.StartEntry(cmd.Context(), actor, args[0], model.StrPtr(startNotes))
	if err != nil {
		return err
	}

	fmt.Printf("Started %q at %s (%s)\n", entry.Activity, entry.StartTime, a.zone)
	return nil
}
