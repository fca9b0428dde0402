package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-timesheet/internal/model"
	"github.com/Tiliavir/trivial-timesheet/internal/timesheet"
)

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Add, edit or delete time entries",
}

var (
	entryUser     string
	entryDate     string
	entryActivity string
	entryStart    string
	entryEnd      string
	entryNotes    string
)

var entryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a time entry",
	Args:  cobra.NoArgs,
	RunE:  runEntryAdd,
}

var entryEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of a time entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntryEdit,
}

var entryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a time entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntryDelete,
}

func init() {
	for _, c := range []*cobra.Command{entryAddCmd, entryEditCmd} {
		c.Flags().StringVar(&entryDate, "date", "", "Date, YYYY-MM-DD")
		c.Flags().StringVar(&entryActivity, "activity", "", "Activity id")
		c.Flags().StringVar(&entryStart, "start", "", "Start time, HH:mm")
		c.Flags().StringVar(&entryEnd, "end", "", "End time, HH:mm (omit for a running entry)")
		c.Flags().StringVar(&entryNotes, "notes", "", "Notes")
	}
	entryAddCmd.Flags().StringVar(&entryUser, "user", "", "Log time for another user (admin)")
	_ = entryAddCmd.MarkFlagRequired("activity")
	_ = entryAddCmd.MarkFlagRequired("start")

	entryCmd.AddCommand(entryAddCmd, entryEditCmd, entryDeleteCmd)
}

func runEntryAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	actor, err := a.actor(cmd)
	if err != nil {
		return err
	}
	date := entryDate
	if date == "" {
		date = a.svc.Today()
	}
	e, err := a.svc.CreateEntry(cmd.Context(), actor, timesheet.EntryInput{
		UserID:    entryUser,
		Date:      date,
		Activity:  entryActivity,
		StartTime: entryStart,
		EndTime:   model.StrPtr(entryEnd),
		Notes:     model.StrPtr(entryNotes),
	})
	if err != nil {
		return err
	}
	fmt.Printf("Added entry %s on %s\n", e.ID, e.Date)
	return nil
}

// changed returns a pointer to v when the flag was set, nil otherwise.
func changed(cmd *cobra.Command, flag, v string) *string {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	return &v
}

func runEntryEdit(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	actor, err := a.actor(cmd)
	if err != nil {
		return err
	}
	patch := timesheet.EntryPatch{
		Date:      changed(cmd, "date", entryDate),
		Activity:  changed(cmd, "activity", entryActivity),
		StartTime: changed(cmd, "start", entryStart),
		EndTime:   changed(cmd, "end", entryEnd),
		Notes:     changed(cmd, "notes", entryNotes),
	}
	e, err := a.svc.UpdateEntry(cmd.Context(), actor, args[0], patch)
	if err != nil {
		return err
	}
	fmt.Printf("Updated entry %s\n", e.ID)
	return nil
}

func runEntryDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	actor, err := a.actor(cmd)
	if err != nil {
		return err
	}
	if err := a.svc.DeleteEntry(cmd.Context(), actor, args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted entry %s\n", args[0])
	return nil
}
