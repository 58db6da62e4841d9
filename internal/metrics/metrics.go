package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds only this tool's collectors, so textfile output carries no Go runtime noise.
var Registry = prometheus.NewRegistry()

var (
	// Resolutions counts resolver attempts by strategy and outcome (ok, error, empty).
	Resolutions = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "ytlive_resolutions_total",
		Help: "Total number of yt-dlp resolution attempts",
	}, []string{"strategy", "outcome"})

	// ResolveDuration observes the wall time of one resolver attempt.
	ResolveDuration = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ytlive_resolve_duration_seconds",
		Help:    "Duration of yt-dlp resolution attempts",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
	}, []string{"strategy"})

	// Patches counts patch operations by outcome (changed, unchanged, error).
	Patches = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "ytlive_patches_total",
		Help: "Total number of playlist patch operations",
	}, []string{"outcome"})

	// Refreshes counts full playlist rewrites by outcome (ok, error).
	Refreshes = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "ytlive_refreshes_total",
		Help: "Total number of full playlist rewrites",
	}, []string{"outcome"})

	// ChannelsWritten is the entry count of the last rewritten playlist.
	ChannelsWritten = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Name: "ytlive_playlist_channels",
		Help: "Number of channels in the last rewritten playlist",
	})

	// LastSuccess is the unix time of the last run that finished without error.
	LastSuccess = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Name: "ytlive_last_success_timestamp_seconds",
		Help: "Unix time of the last successful run",
	})
)

// Outcome labels.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeEmpty     = "empty"
	OutcomeChanged   = "changed"
	OutcomeUnchanged = "unchanged"
)

// RecordResolution records one resolver attempt.
func RecordResolution(strategy, outcome string, d time.Duration) {
	Resolutions.WithLabelValues(strategy, outcome).Inc()
	ResolveDuration.WithLabelValues(strategy).Observe(d.Seconds())
}

// RecordPatch records one patch outcome.
func RecordPatch(outcome string) {
	Patches.WithLabelValues(outcome).Inc()
}

// RecordRefresh records one full rewrite; channels is only set on success.
func RecordRefresh(err error, channels int) {
	if err != nil {
		Refreshes.WithLabelValues(OutcomeError).Inc()
		return
	}
	Refreshes.WithLabelValues(OutcomeOK).Inc()
	ChannelsWritten.Set(float64(channels))
}

// MarkSuccess stamps LastSuccess with now.
func MarkSuccess(now time.Time) {
	LastSuccess.Set(float64(now.Unix()))
}

// WriteTextfile writes Registry in the text exposition format for the node-exporter textfile
// collector. The file is replaced atomically. path "" is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("metrics textfile: %w", err)
	}
	return nil
}
