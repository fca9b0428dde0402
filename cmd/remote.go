package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-timesheet/internal/firestore"
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Connect to the shared Firestore timesheet",
}

var remoteLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with Google and store a token for Firestore exports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fc := cfg.Firestore
		if fc.EmulatorHost != "" {
			fmt.Println("Firestore emulator configured; no login needed.")
			return nil
		}
		if fc.ClientID == "" {
			return fmt.Errorf("firestore.client_id is not set in the config file")
		}
		if _, err := firestore.Login(cmd.Context(), fc, os.Stdout); err != nil {
			return err
		}
		fmt.Printf("Signed in. Token saved to %s\n", fc.TokenFile)
		return nil
	},
}

var remoteStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a Firestore token is stored",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fc := cfg.Firestore
		fmt.Printf("Project:  %s\nDatabase: %s\n", fc.ProjectID, fc.Database)
		if fc.EmulatorHost != "" {
			fmt.Printf("Emulator: %s\n", fc.EmulatorHost)
			return nil
		}
		tok, err := firestore.LoadToken(fc.TokenFile)
		if err != nil {
			return err
		}
		switch {
		case tok == nil:
			fmt.Println("Not signed in. Run `tts remote login`.")
		case tok.RefreshToken != "":
			fmt.Printf("Signed in (token file %s)\n", fc.TokenFile)
		default:
			fmt.Printf("Signed in until %s (no refresh token)\n", tok.Expiry.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	remoteCmd.AddCommand(remoteLoginCmd, remoteStatusCmd)
}
