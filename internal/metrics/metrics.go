// Package metrics records batch well-mapping outcomes as Prometheus metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"wellmap/internal/wellmap"
)

// Outcome labels.
const (
	OutcomeMapped              = "mapped"
	OutcomeMissingPositions    = "missing_positions"
	OutcomeUnsupportedGeometry = "unsupported_geometry"
	OutcomePositionLookup      = "position_lookup"
	OutcomeError               = "error"
)

// Classify maps an analysis error to an outcome label.
func Classify(err error) string {
	switch {
	case err == nil:
		return OutcomeMapped
	case errors.Is(err, wellmap.ErrMissingPositionMetadata):
		return OutcomeMissingPositions
	case errors.Is(err, wellmap.ErrUnsupportedPlateGeometry):
		return OutcomeUnsupportedGeometry
	case errors.Is(err, wellmap.ErrPositionLookup):
		return OutcomePositionLookup
	default:
		return OutcomeError
	}
}

// Recorder holds the metrics for one process on a private registry.
type Recorder struct {
	reg      *prometheus.Registry
	files    *prometheus.CounterVec
	plates   *prometheus.CounterVec
	scenes   prometheus.Counter
	duration prometheus.Histogram
}

// New creates a Recorder.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wellmap",
			Name:      "files_total",
			Help:      "Acquisition files analysed, by outcome.",
		}, []string{"outcome"}),
		plates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wellmap",
			Name:      "plates_resolved_total",
			Help:      "Files resolved to each plate format.",
		}, []string{"plate"}),
		scenes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wellmap",
			Name:      "scenes_mapped_total",
			Help:      "Scenes assigned to a well.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wellmap",
			Name:      "analysis_duration_seconds",
			Help:      "Time to load and analyse one file.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
	r.reg.MustRegister(r.files, r.plates, r.scenes, r.duration)
	return r
}

// Observe records one file's analysis. plate is empty when err is non-nil.
func (r *Recorder) Observe(plate string, scenes int, err error, d time.Duration) {
	r.files.WithLabelValues(Classify(err)).Inc()
	r.duration.Observe(d.Seconds())
	if err != nil {
		return
	}
	r.plates.WithLabelValues(plate).Inc()
	r.scenes.Add(float64(scenes))
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.reg
}

// WriteTextfile writes the metrics in text exposition format for the node
// exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
