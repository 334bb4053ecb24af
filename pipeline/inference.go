package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/Anudeepreddynarala/Fan-Anomaly-Detection/classifier"
	"github.com/Anudeepreddynarala/Fan-Anomaly-Detection/display"
	"github.com/Anudeepreddynarala/Fan-Anomaly-Detection/telemetry"
)

// InferenceConfig holds the cycle's pacing and labels.
type InferenceConfig struct {
	PollInterval  time.Duration // idle wait between TryClaim attempts
	CycleDelay    time.Duration // pause after every rendered cycle
	NormalLabel   string
	AbnormalLabel string
	Title         string
}

// Outcome describes one completed cycle.
type Outcome struct {
	Seq       uint64
	Verdict   classifier.Verdict
	Normal    float32
	Abnormal  float32
	Inference time.Duration
	Display   time.Duration
	Total     time.Duration
}

// Inference is the consumer loop: claim a window, classify it, render the
// verdict and record timings.
type Inference struct {
	cfg        InferenceConfig
	handoff    *Handoff
	classifier classifier.Classifier
	fb         *display.Framebuffer
	out        display.PageWriter
	metrics    *telemetry.Metrics
	reporter   *telemetry.Reporter
	logger     *slog.Logger

	signal *classifier.WindowSignal
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewInference(
	cfg InferenceConfig,
	handoff *Handoff,
	c classifier.Classifier,
	fb *display.Framebuffer,
	out display.PageWriter,
	metrics *telemetry.Metrics,
	reporter *telemetry.Reporter,
	logger *slog.Logger,
) *Inference {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inference{
		cfg:        cfg,
		handoff:    handoff,
		classifier: c,
		fb:         fb,
		out:        out,
		metrics:    metrics,
		reporter:   reporter,
		logger:     logger,
		signal:     classifier.NewWindowSignal(nil),
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

// Run polls and cycles until ctx is cancelled.
func (in *Inference) Run(ctx context.Context) error {
	for {
		_, ran, err := in.Step(ctx)
		wait := in.cfg.CycleDelay
		if !ran || err != nil {
			// Idle, or the cycle was abandoned: go straight back to polling.
			wait = in.cfg.PollInterval
		}
		if err := in.sleep(ctx, wait); err != nil {
			return nil
		}
	}
}

// Step runs at most one cycle. ran is false when no window was ready. A
// classifier error abandons the cycle: nothing is rendered and metrics are
// left untouched.
func (in *Inference) Step(ctx context.Context) (out Outcome, ran bool, err error) {
	w, ok := in.handoff.TryClaim()
	if !ok {
		return Outcome{}, false, nil
	}
	start := in.now()
	seq, traceID, captured := w.Seq, w.TraceID, w.CaptureDuration

	in.signal.Reset(w.Samples)
	result, err := in.classifier.Classify(ctx, in.signal)
	in.signal.Reset(nil)
	in.handoff.Release(w)
	inferEnd := in.now()
	if err != nil {
		in.logger.Error("inference: classifier failed",
			"seq", seq,
			"trace_id", traceID,
			"error", err,
		)
		return Outcome{}, true, err
	}

	normal, abnormal := classifier.Scores(result, in.cfg.NormalLabel, in.cfg.AbnormalLabel)
	verdict := classifier.Decide(normal, abnormal)

	display.DrawStatus(in.fb, display.Status{
		Title:     in.cfg.Title,
		Anomaly:   verdict == classifier.Anomaly,
		Normal:    normal,
		Abnormal:  abnormal,
		Inference: inferEnd.Sub(start),
	})
	if err := in.fb.Flush(in.out); err != nil {
		in.logger.Warn("inference: display flush failed", "seq", seq, "error", err)
	}
	end := in.now()

	out = Outcome{
		Seq:       seq,
		Verdict:   verdict,
		Normal:    normal,
		Abnormal:  abnormal,
		Inference: inferEnd.Sub(start),
		Display:   end.Sub(inferEnd),
		Total:     end.Sub(start),
	}
	in.metrics.RecordCycle(out.Inference, out.Display, out.Total)

	snap := in.metrics.Snapshot()
	confidence := normal
	if verdict == classifier.Anomaly {
		confidence = abnormal
	}
	in.logger.Info("inference: cycle complete",
		"count", snap.Inferences,
		"seq", seq,
		"trace_id", traceID,
		"result", verdict.String(),
		"confidence_pct", float64(confidence)*100,
		"capture_ms", millis(captured),
		"inference_ms", millis(out.Inference),
		"display_ms", millis(out.Display),
		"total_ms", millis(out.Total),
		"rate_per_s", snap.LastRate,
	)

	if in.reporter != nil {
		if _, fired := in.reporter.MaybeReport(); fired {
			st := in.handoff.Stats()
			in.logger.Info("pipeline: handoff summary",
				"policy", in.handoff.Policy().String(),
				"published", st.Published,
				"claimed", st.Claimed,
				"dropped", st.Dropped,
			)
		}
	}
	return out, true, nil
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
