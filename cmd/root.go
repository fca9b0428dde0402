package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-timesheet/internal/config"
	"github.com/Tiliavir/trivial-timesheet/internal/model"
	"github.com/Tiliavir/trivial-timesheet/internal/storage"
	"github.com/Tiliavir/trivial-timesheet/internal/timecalc"
	"github.com/Tiliavir/trivial-timesheet/internal/timesheet"
)

var (
	configPath   string
	timezoneFlag string
	actorFlag    string
)

var rootCmd = &cobra.Command{
	Use:   "tts",
	Short: "Trivial Timesheet – team time tracking with CSV and PDF exports",
	Long: `tts records who worked on what and when, and exports timesheets as CSV or PDF.
Times are entered and shown in your timezone and stored in UTC.
Configuration lives in ~/.tts/config.toml.`,
	SilenceUsage: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.tts/config.toml)")
	rootCmd.PersistentFlags().StringVar(&timezoneFlag, "timezone", "", "IANA timezone, e.g. Europe/Berlin (overrides config)")
	rootCmd.PersistentFlags().StringVar(&actorFlag, "as", "", "Act as this user id or email (overrides config)")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(entryCmd)
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(remoteCmd)
	rootCmd.AddCommand(serveCmd)
}

// app bundles what a command needs: config, logger, store and service.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	zone   string
	store  storage.Store
	svc    *timesheet.Service
}

func (a *app) Close() error { return a.store.Close() }

// loadConfig reads the config file named by --config or the default path.
func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return config.Config{}, err
		}
		path = p
	}
	return config.Load(path)
}

// resolveZone picks the zone from --timezone, then config, then $TZ, then UTC.
func resolveZone(cfg config.Config) (string, error) {
	zone := timezoneFlag
	if zone == "" {
		zone = cfg.Timezone
	}
	if zone == "" {
		zone = os.Getenv("TZ")
	}
	if zone == "" {
		zone = "UTC"
	}
	if _, err := timecalc.LoadZone(zone); err != nil {
		return "", err
	}
	return zone, nil
}

func newLogger(cfg config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// openApp loads config and opens the configured store. Callers must Close it.
func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)
	zone, err := resolveZone(cfg)
	if err != nil {
		return nil, err
	}
	store, err := storage.New(cfg.Storage)
	if err != nil {
		return nil, err
	}
	svc, err := timesheet.New(store, zone, timesheet.WithLogger(logger))
	if err != nil {
		store.Close()
		return nil, err
	}
	logger.Debug("opened store", "type", cfg.Storage.Type, "zone", zone)
	return &app{cfg: cfg, logger: logger, zone: zone, store: store, svc: svc}, nil
}

// actor resolves the acting user from --as or the configured user.
func (a *app) actor(cmd *cobra.Command) (model.AppUser, error) {
	id := actorFlag
	if id == "" {
		id = a.cfg.User
	}
	if id == "" {
		return model.AppUser{}, fmt.Errorf("no acting user: pass --as or set user in the config file")
	}
	return a.svc.Actor(cmd.Context(), id)
}
