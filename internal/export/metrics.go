package export

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Tiliavir/trivial-timesheet/internal/report"
	"github.com/Tiliavir/trivial-timesheet/internal/timecalc"
)

var (
	exportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tts_exports_total",
		Help: "Number of export runs by report type, format and result.",
	}, []string{"type", "format", "result"})

	exportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tts_export_duration_seconds",
		Help:    "Duration of export runs from fetch to delivery.",
		Buckets: prometheus.DefBuckets,
	}, []string{"type", "format"})

	exportBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tts_export_bytes_total",
		Help: "Bytes of delivered export artifacts.",
	})

	directoryCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tts_directory_cache_hits_total",
		Help: "Directory lookups served from the cache.",
	})
	directoryCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tts_directory_cache_misses_total",
		Help: "Directory lookups that went to the backing store.",
	})
)

// result classifies err for the exports counter.
func result(err error) string {
	var (
		inv   *timecalc.InvalidInputError
		fetch *FetchError
		ser   *report.SerializationError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoData):
		return "no_data"
	case errors.As(err, &inv):
		return "invalid"
	case errors.As(err, &fetch):
		return "fetch_error"
	case errors.As(err, &ser):
		return "serialization_error"
	default:
		return "delivery_error"
	}
}
