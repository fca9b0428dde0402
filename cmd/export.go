package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-timesheet/internal/export"
	"github.com/Tiliavir/trivial-timesheet/internal/firestore"
	"github.com/Tiliavir/trivial-timesheet/internal/timecalc"
	"github.com/Tiliavir/trivial-timesheet/internal/timesheet"
)

var (
	exportFormat     string
	exportType       string
	exportFrom       string
	exportTo         string
	exportUsers      []string
	exportActivities []string
	exportOut        string
	exportRecipients []string
	exportS3         bool
	exportSource     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a timesheet as CSV or PDF",
	Long: `Export time entries for a date range as a detailed or summary report.

Without --out or --s3 the report is written to stdout. PDF output is refused
on a terminal. --recipient encrypts the report with age before delivery.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, pdf")
	exportCmd.Flags().StringVar(&exportType, "type", "detailed", "Report type: detailed, summary")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "First day, YYYY-MM-DD (default Monday of this week)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Last day, YYYY-MM-DD (default Sunday of this week)")
	exportCmd.Flags().StringSliceVar(&exportUsers, "user", nil, "Only these user ids (repeatable)")
	exportCmd.Flags().StringSliceVar(&exportActivities, "activity", nil, "Only these activity ids (repeatable)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Write the report into this directory")
	exportCmd.Flags().StringSliceVar(&exportRecipients, "recipient", nil, "Encrypt to this age public key (repeatable)")
	exportCmd.Flags().BoolVar(&exportS3, "s3", false, "Upload the report to the configured S3 bucket")
	exportCmd.Flags().StringVar(&exportSource, "source", "local", "Where entries come from: local, firestore")
}

// defaultRange fills empty bounds with the week around today in zone.
func defaultRange(from, to, zone string, now time.Time) (export.DateRange, error) {
	loc, err := timecalc.LoadZone(zone)
	if err != nil {
		return export.DateRange{}, err
	}
	monday, sunday := timecalc.WeekRange(now.In(loc))
	r := export.DateRange{From: from, To: to}
	if r.From == "" {
		r.From = monday.Format(timecalc.DateLayout)
	}
	if r.To == "" {
		r.To = sunday.Format(timecalc.DateLayout)
	}
	return r, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}
	typ, err := export.ParseReportType(exportType)
	if err != nil {
		return err
	}
	r, err := defaultRange(exportFrom, exportTo, a.zone, time.Now())
	if err != nil {
		return err
	}
	cfg := export.Config{
		Format:      format,
		Type:        typ,
		Range:       r,
		UserIDs:     exportUsers,
		ActivityIDs: exportActivities,
	}

	var (
		source export.EntrySource
		dir    export.Directory
	)
	switch exportSource {
	case "local":
		actor, err := a.actor(cmd)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && !onlySelf(cfg.UserIDs, actor.ID) {
			return fmt.Errorf("%w: only admins can export other users' time", timesheet.ErrForbidden)
		}
		if !actor.IsAdmin() {
			cfg.UserIDs = []string{actor.ID}
		}
		src := timesheet.NewSource(a.svc)
		source, dir = src, src
	case "firestore":
		client, err := firestore.NewClientFromConfig(ctx, a.cfg.Firestore, a.logger)
		if errors.Is(err, firestore.ErrNotLoggedIn) {
			return fmt.Errorf("%w; run `tts remote login` first", err)
		}
		if err != nil {
			return err
		}
		src := firestore.NewSource(client, a.zone)
		source, dir = src, src
	default:
		return fmt.Errorf("unknown source %q: want local or firestore", exportSource)
	}

	var target export.Sink
	switch {
	case exportS3:
		s3, err := export.NewS3SinkFromConfig(ctx, a.cfg.S3)
		if err != nil {
			return err
		}
		target = s3
	case exportOut != "":
		target = export.DirSink{Dir: exportOut}
	default:
		target = export.WriterSink{W: os.Stdout}
	}
	sink, written, err := sinkChain(target, exportRecipients)
	if err != nil {
		return err
	}

	exp := export.NewExporter(source, dir, sink, a.zone, export.WithLogger(a.logger))
	_, err = exp.Run(ctx, cfg)
	if errors.Is(err, export.ErrNoData) {
		return errors.New(export.NoDataMessage)
	}
	if err != nil {
		return err
	}
	if exportS3 || exportOut != "" {
		fmt.Fprintf(os.Stderr, "Exported %s (%d bytes)\n", written.Filename, len(written.Data))
	}
	return nil
}

// sinkChain wraps target with age encryption when recipients are given. The
// returned artifact is filled with what target actually received.
func sinkChain(target export.Sink, recipients []string) (export.Sink, *export.Artifact, error) {
	written := &export.Artifact{}
	var sink export.Sink = export.SinkFunc(func(ctx context.Context, a export.Artifact) error {
		if err := target.Deliver(ctx, a); err != nil {
			return err
		}
		*written = a
		return nil
	})
	if len(recipients) > 0 {
		age, err := export.NewAgeSink(sink, recipients...)
		if err != nil {
			return nil, nil, err
		}
		sink = age
	}
	return sink, written, nil
}

// onlySelf reports whether userIDs is empty or names only id.
func onlySelf(userIDs []string, id string) bool {
	for _, u := range userIDs {
		if u != id {
			return false
		}
	}
	return true
}
