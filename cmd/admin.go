package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-timesheet/internal/model"
	"github.com/Tiliavir/trivial-timesheet/internal/timesheet"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Manage activities",
}

var (
	activityColor     string
	activityEditColor string
	activityEditLabel string
)

var activityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List activities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		activities, err := a.svc.Activities(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tLABEL\tCOLOR")
		for _, act := range activities {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", act.ID, act.Label, act.Color)
		}
		return tw.Flush()
	},
}

var activityAddCmd = &cobra.Command{
	Use:   "add <label>",
	Short: "Add an activity (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		actor, err := a.actor(cmd)
		if err != nil {
			return err
		}
		act, err := a.svc.CreateActivity(cmd.Context(), actor, args[0], activityColor)
		if err != nil {
			return err
		}
		fmt.Printf("Added activity %q (%s)\n", act.Label, act.ID)
		return nil
	},
}

var activityEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change an activity's label or color (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		actor, err := a.actor(cmd)
		if err != nil {
			return err
		}
		current, err := findActivity(cmd, a, args[0])
		if err != nil {
			return err
		}
		label, color := current.Label, current.Color
		if cmd.Flags().Changed("label") {
			label = activityEditLabel
		}
		if cmd.Flags().Changed("color") {
			color = activityEditColor
		}
		act, err := a.svc.UpdateActivity(cmd.Context(), actor, current.ID, label, color)
		if err != nil {
			return err
		}
		fmt.Printf("Updated activity %s\n", act.ID)
		return nil
	},
}

func findActivity(cmd *cobra.Command, a *app, id string) (model.Activity, error) {
	activities, err := a.svc.Activities(cmd.Context())
	if err != nil {
		return model.Activity{}, err
	}
	for _, act := range activities {
		if act.ID == id {
			return act, nil
		}
	}
	return model.Activity{}, fmt.Errorf("%w: %s", timesheet.ErrUnknownActivity, id)
}

var activityDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an activity (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		actor, err := a.actor(cmd)
		if err != nil {
			return err
		}
		if err := a.svc.DeleteActivity(cmd.Context(), actor, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted activity %s\n", args[0])
		return nil
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var (
	userName string
	userRole string
	userID   string
)

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		users, err := a.svc.Users(cmd.Context())
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println("No users yet. Add the first (admin) user with `tts user add <email>`.")
			return nil
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE")
		for _, u := range users {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.DisplayName, u.Email, u.Role)
		}
		return tw.Flush()
	},
}

var userAddCmd = &cobra.Command{
	Use:   "add <email>",
	Short: "Register a user; the first user becomes admin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		users, err := a.svc.Users(cmd.Context())
		if err != nil {
			return err
		}
		var actor model.AppUser
		if len(users) > 0 {
			if actor, err = a.actor(cmd); err != nil {
				return err
			}
		}
		u, err := a.svc.AddUser(cmd.Context(), actor, timesheet.UserInput{
			ID:          userID,
			Email:       args[0],
			DisplayName: userName,
			Role:        model.Role(userRole),
		})
		if err != nil {
			return err
		}
		fmt.Printf("Added %s user %s (%s)\n", u.Role, u.Email, u.ID)
		if len(users) == 0 {
			fmt.Printf("Set `user = %q` in the config file to act as this user.\n", u.ID)
		}
		return nil
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change application settings",
}

var settingsAllowEdits bool

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.svc.Settings(cmd.Context())
		if err != nil {
			return err
		}
		printSettings(st)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings (admin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("allow-user-edits") {
			return fmt.Errorf("nothing to change: pass --allow-user-edits=true|false")
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		actor, err := a.actor(cmd)
		if err != nil {
			return err
		}
		st, err := a.svc.UpdateSettings(cmd.Context(), actor, settingsAllowEdits)
		if err != nil {
			return err
		}
		printSettings(st)
		return nil
	},
}

func printSettings(st model.Settings) {
	fmt.Printf("Allow user edits: %t\n", st.AllowUserEdits)
	if st.UpdatedBy != "" {
		fmt.Printf("Last changed: %s by %s\n", st.UpdatedAt.Local().Format("2006-01-02 15:04"), st.UpdatedBy)
	}
}

func init() {
	activityAddCmd.Flags().StringVar(&activityColor, "color", "#3B82F6", "Color as #RRGGBB")
	activityEditCmd.Flags().StringVar(&activityEditColor, "color", "", "New color as #RRGGBB")
	activityEditCmd.Flags().StringVar(&activityEditLabel, "label", "", "New label")
	activityCmd.AddCommand(activityListCmd, activityAddCmd, activityEditCmd, activityDeleteCmd)

	userAddCmd.Flags().StringVar(&userName, "name", "", "Display name (default the email)")
	userAddCmd.Flags().StringVar(&userRole, "role", string(model.RoleUser), "Role: user or admin")
	userAddCmd.Flags().StringVar(&userID, "id", "", "User id (default generated)")
	userCmd.AddCommand(userListCmd, userAddCmd)

	settingsSetCmd.Flags().BoolVar(&settingsAllowEdits, "allow-user-edits", true, "Let users edit and delete their own entries")
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
}
