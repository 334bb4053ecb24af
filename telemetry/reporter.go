package telemetry

import (
	"log/slog"
	"time"
)

// Reporter logs a Metrics summary at most once per interval.
type Reporter struct {
	metrics  *Metrics
	clock    Clock
	interval time.Duration
	last     time.Time
	logger   *slog.Logger
}

// NewReporter starts the first report window at clock.Now().
func NewReporter(m *Metrics, clock Clock, interval time.Duration, logger *slog.Logger) *Reporter {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		metrics:  m,
		clock:    clock,
		interval: interval,
		last:     clock.Now(),
		logger:   logger,
	}
}

// MaybeReport emits a summary if at least one interval has passed since the
// previous one, then starts a new report window. It reports whether a
// summary was emitted.
func (r *Reporter) MaybeReport() (Snapshot, bool) {
	now := r.clock.Now()
	if now.Sub(r.last) < r.interval {
		return Snapshot{}, false
	}

	s := r.metrics.Snapshot()
	r.logger.Info("telemetry: performance summary",
		"inferences", s.Inferences,
		"window", now.Sub(r.last).Round(time.Millisecond),
		"window_inferences", s.WindowInferences,
		"last_capture_ms", ms(s.LastCapture),
		"last_inference_ms", ms(s.LastInference),
		"last_display_ms", ms(s.LastDisplay),
		"last_cycle_ms", ms(s.LastCycle),
		"last_rate_per_s", s.LastRate,
		"mean_capture_ms", ms(s.MeanCapture),
		"mean_inference_ms", ms(s.MeanInference),
		"mean_display_ms", ms(s.MeanDisplay),
		"mean_cycle_ms", ms(s.MeanCycle),
	)

	r.metrics.ResetWindow()
	r.last = now
	return s, true
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
