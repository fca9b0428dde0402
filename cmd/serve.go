package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-timesheet/internal/export"
	"github.com/Tiliavir/trivial-timesheet/internal/httpapi"
	"github.com/Tiliavir/trivial-timesheet/internal/timesheet"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the export API over HTTP",
	Long: `Serve GET /api/export?format=csv|pdf&type=detailed|summary&from=...&to=...
plus /healthz and /metrics. The server has no authentication; bind it to a
trusted interface.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	addr := serveAddr
	if addr == "" {
		addr = a.cfg.Server.Addr
	}

	src := timesheet.NewSource(a.svc)
	dir := export.NewCachedDirectory(src, a.cfg.Server.CacheSize, a.cfg.Server.CacheTTL())
	h := httpapi.NewHandler(src, dir, a.zone, a.logger).WithHealthCheck(a.store.Ping)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("serving export api", "addr", addr, "zone", a.zone)
	return httpapi.NewServer(addr, h.Router(), a.logger).Run(ctx)
}
