// Package httpapi serves timesheet exports over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Tiliavir/trivial-timesheet/internal/export"
	"github.com/Tiliavir/trivial-timesheet/internal/timecalc"
)

// Handler serves the export API. Each request runs its own Exporter.
type Handler struct {
	source export.EntrySource
	dir    export.Directory
	zone   string
	opts   []export.Option
	check  func(context.Context) error
	logger *slog.Logger
}

// NewHandler creates a Handler. opts are passed to every Exporter.
func NewHandler(source export.EntrySource, dir export.Directory, zone string, logger *slog.Logger, opts ...export.Option) *Handler {
	return &Handler{
		source: source,
		dir:    dir,
		zone:   zone,
		opts:   append(opts, export.WithLogger(logger)),
		logger: logger.With(slog.String("component", "httpapi")),
	}
}

// Router builds the chi router with logging and metrics middleware.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(h.logger), Metrics())
	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/api/export", h.Export)
	return r
}

// WithHealthCheck makes /healthz answer 503 while check fails.
func (h *Handler) WithHealthCheck(check func(context.Context) error) *Handler {
	h.check = check
	return h
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.check != nil {
		if err := h.check(r.Context()); err != nil {
			h.logger.Warn("health check failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Export handles GET /api/export?format=&type=&from=&to=&user=&activity=.
// user and activity may repeat or hold comma separated ids.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	cfg, err := parseConfig(r)
	if err != nil {
		writeError(w, err)
		return
	}
	exp := export.NewExporter(h.source, h.dir, HTTPSink{W: w}, h.zone, h.opts...)
	if _, err := exp.Run(r.Context(), cfg); err != nil {
		writeError(w, err)
	}
}

func parseConfig(r *http.Request) (export.Config, error) {
	q := r.URL.Query()
	format, err := export.ParseFormat(withDefault(q.Get("format"), string(export.FormatCSV)))
	if err != nil {
		return export.Config{}, err
	}
	typ, err := export.ParseReportType(withDefault(q.Get("type"), string(export.Detailed)))
	if err != nil {
		return export.Config{}, err
	}
	return export.Config{
		Format:      format,
		Type:        typ,
		Range:       export.DateRange{From: q.Get("from"), To: q.Get("to")},
		UserIDs:     splitList(q["user"]),
		ActivityIDs: splitList(q["activity"]),
	}, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// HTTPSink writes an artifact as a file download.
type HTTPSink struct {
	W http.ResponseWriter
}

func (s HTTPSink) Deliver(_ context.Context, a export.Artifact) error {
	h := s.W.Header()
	h.Set("Content-Type", a.ContentType)
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Filename))
	h.Set("Content-Length", strconv.Itoa(len(a.Data)))
	s.W.WriteHeader(http.StatusOK)
	_, err := s.W.Write(a.Data)
	return err
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	var inv *timecalc.InvalidInputError
	switch {
	case errors.As(err, &inv):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, export.ErrNoData):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: export.NoDataMessage})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Export failed: " + err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
