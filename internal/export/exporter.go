package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/Tiliavir/trivial-timesheet/internal/model"
	"github.com/Tiliavir/trivial-timesheet/internal/report"
	"github.com/Tiliavir/trivial-timesheet/internal/timecalc"
)

// EntrySource loads entries with local start and end times. An empty userID
// means all users.
type EntrySource interface {
	FetchEntries(ctx context.Context, r DateRange, userID string) ([]model.TimeEntry, error)
}

// Directory resolves user and activity ids for display.
type Directory interface {
	Users(ctx context.Context) (map[string]model.AppUser, error)
	Activities(ctx context.Context) ([]model.Activity, error)
}

// Artifact is a rendered export ready for delivery.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Sink delivers artifacts: to disk, a terminal, object storage or an HTTP response.
type Sink interface {
	Deliver(ctx context.Context, a Artifact) error
}

// State of an Exporter.
type State int

const (
	Idle State = iota
	Exporting
)

func (s State) String() string {
	if s == Exporting {
		return "exporting"
	}
	return "idle"
}

// Status is a snapshot of an Exporter. Message holds the last failure
// until it is dismissed or the next run starts.
type Status struct {
	State   State
	Message string
}

// Exporter runs exports one after another and remembers the last failure.
// Callers must not start a second Run before the first returns.
type Exporter struct {
	source   EntrySource
	dir      Directory
	sink     Sink
	zone     string
	renderer report.Renderer
	clock    timecalc.Clock
	logger   *slog.Logger

	mu      sync.Mutex
	state   State
	message string
}

// Option customizes an Exporter.
type Option func(*Exporter)

// WithRenderer replaces the PDF renderer.
func WithRenderer(r report.Renderer) Option {
	return func(e *Exporter) { e.renderer = r }
}

// WithClock replaces the clock used for the generated timestamp.
func WithClock(c timecalc.Clock) Option {
	return func(e *Exporter) { e.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Exporter) { e.logger = l }
}

// NewExporter creates an idle Exporter. zone is the IANA zone reports are
// stamped with.
func NewExporter(source EntrySource, dir Directory, sink Sink, zone string, opts ...Option) *Exporter {
	e := &Exporter{
		source:   source,
		dir:      dir,
		sink:     sink,
		zone:     zone,
		renderer: report.FPDFRenderer{},
		clock:    timecalc.SystemClock{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Status returns the current state and the retained error message.
func (e *Exporter) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{State: e.state, Message: e.message}
}

// Dismiss clears the retained error message.
func (e *Exporter) Dismiss() {
	e.mu.Lock()
	e.message = ""
	e.mu.Unlock()
}

// Run performs one export and delivers it to the sink. Nothing is delivered
// when any step fails; the Exporter always returns to Idle.
func (e *Exporter) Run(ctx context.Context, cfg Config) (Artifact, error) {
	e.setState(Exporting, "")
	start := time.Now()

	a, err := e.run(ctx, cfg)

	exportDuration.WithLabelValues(string(cfg.Type), string(cfg.Format)).Observe(time.Since(start).Seconds())
	exportsTotal.WithLabelValues(string(cfg.Type), string(cfg.Format), result(err)).Inc()

	if err != nil {
		e.logger.Warn("export failed", "type", cfg.Type, "format", cfg.Format, "range", cfg.Range.String(), "error", err)
		e.setState(Idle, failureMessage(err))
		return Artifact{}, err
	}
	exportBytesTotal.Add(float64(len(a.Data)))
	e.logger.Info("export delivered", "file", a.Filename, "bytes", len(a.Data))
	e.setState(Idle, "")
	return a, nil
}

func (e *Exporter) setState(s State, msg string) {
	e.mu.Lock()
	e.state = s
	e.message = msg
	e.mu.Unlock()
}

func failureMessage(err error) string {
	if errors.Is(err, ErrNoData) {
		return NoDataMessage
	}
	return "Export failed: " + err.Error()
}

func (e *Exporter) run(ctx context.Context, cfg Config) (Artifact, error) {
	if err := cfg.Validate(); err != nil {
		return Artifact{}, err
	}

	fetchUser := ""
	if len(cfg.UserIDs) == 1 {
		fetchUser = cfg.UserIDs[0]
	}
	entries, err := e.source.FetchEntries(ctx, cfg.Range, fetchUser)
	if err != nil {
		return Artifact{}, &FetchError{Op: "entries", Err: err}
	}
	entries = filterEntries(entries, cfg)
	if len(entries) == 0 {
		return Artifact{}, ErrNoData
	}

	users, err := e.dir.Users(ctx)
	if err != nil {
		return Artifact{}, &FetchError{Op: "users", Err: err}
	}
	activities, err := e.dir.Activities(ctx)
	if err != nil {
		return Artifact{}, &FetchError{Op: "activities", Err: err}
	}
	lookups := report.Lookups{Users: users, Activities: activities}

	userScope := describeUsers(cfg.UserIDs, lookups)
	meta, err := report.NewMetadata(cfg.Range.From, cfg.Range.To,
		describeScope(userScope, cfg.ActivityIDs, lookups), e.zone, e.clock.Now())
	if err != nil {
		return Artifact{}, err
	}

	data, err := e.render(cfg, entries, lookups, meta)
	if err != nil {
		return Artifact{}, err
	}
	a := Artifact{
		Filename:    Filename(cfg, userScope),
		ContentType: cfg.Format.ContentType(),
		Data:        data,
	}
	if err := e.sink.Deliver(ctx, a); err != nil {
		return Artifact{}, fmt.Errorf("deliver %s: %w", a.Filename, err)
	}
	return a, nil
}

func (e *Exporter) render(cfg Config, entries []model.TimeEntry, lookups report.Lookups, meta report.Metadata) ([]byte, error) {
	switch cfg.Type {
	case Summary:
		rows, err := report.SummaryRows(entries, lookups)
		if err != nil {
			return nil, err
		}
		if cfg.Format == FormatPDF {
			return report.RenderPDF(e.renderer, report.SummaryLayout(rows, lookups.Activities, meta))
		}
		return []byte(report.SummaryCSV(rows, lookups.Activities, meta)), nil
	default:
		rows, err := report.DetailedRows(entries, lookups)
		if err != nil {
			return nil, err
		}
		if cfg.Format == FormatPDF {
			return report.RenderPDF(e.renderer, report.DetailedLayout(rows, meta))
		}
		return []byte(report.DetailedCSV(rows, meta)), nil
	}
}

// filterEntries keeps entries in the range matching both the user and the
// activity filter.
func filterEntries(entries []model.TimeEntry, cfg Config) []model.TimeEntry {
	out := make([]model.TimeEntry, 0, len(entries))
	for _, en := range entries {
		if !cfg.Range.Contains(en.Date) {
			continue
		}
		if len(cfg.UserIDs) > 0 && !slices.Contains(cfg.UserIDs, en.UserID) {
			continue
		}
		if len(cfg.ActivityIDs) > 0 && !slices.Contains(cfg.ActivityIDs, en.Activity) {
			continue
		}
		out = append(out, en)
	}
	return out
}

func describeUsers(userIDs []string, lookups report.Lookups) string {
	switch len(userIDs) {
	case 0:
		return "All Users"
	case 1:
		return lookups.UserName(userIDs[0])
	default:
		return fmt.Sprintf("%d users", len(userIDs))
	}
}

func describeScope(userScope string, activityIDs []string, lookups report.Lookups) string {
	switch len(activityIDs) {
	case 0:
		return userScope
	case 1:
		return userScope + " | " + lookups.ActivityLabel(activityIDs[0])
	default:
		return fmt.Sprintf("%s | %d activities", userScope, len(activityIDs))
	}
}

// DescribeScope renders the human readable filter scope of cfg.
func DescribeScope(cfg Config, lookups report.Lookups) string {
	return describeScope(describeUsers(cfg.UserIDs, lookups), cfg.ActivityIDs, lookups)
}

// Filename builds "timesheet-{type}-{scope}-{from}-to-{to}.{ext}" where scope
// is "all" without a user filter and the slug of userScope otherwise.
func Filename(cfg Config, userScope string) string {
	scope := "all"
	if len(cfg.UserIDs) > 0 {
		scope = sanitize(model.Slug(userScope))
		if scope == "" {
			scope = "user"
		}
	}
	return fmt.Sprintf("timesheet-%s-%s-%s-to-%s.%s",
		cfg.Type, scope, cfg.Range.From, cfg.Range.To, cfg.Format.Extension())
}

// sanitize drops path separators, control characters and the characters
// Windows rejects in file names. Letters of any script are kept.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(`/\:*?"<>|`, r) {
			return -1
		}
		return r
	}, s)
}
