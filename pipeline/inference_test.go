package pipeline

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Anudeepreddynarala/Fan-Anomaly-Detection/classifier"
	"github.com/Anudeepreddynarala/Fan-Anomaly-Detection/display"
	"github.com/Anudeepreddynarala/Fan-Anomaly-Detection/telemetry"
)

// scriptedClassifier returns canned results in order, repeating the last.
type scriptedClassifier struct {
	results []classifier.Result
	err     error
	calls   int
}

func (s *scriptedClassifier) Labels() []string { return []string{"normal", "abnormal"} }

func (s *scriptedClassifier) Classify(ctx context.Context, sig classifier.Signal) (classifier.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	i := s.calls - 1
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	return s.results[i], nil
}

func scores(normal, abnormal float32) classifier.Result {
	return classifier.Result{{Label: "Normal", Value: normal}, {Label: "ABNORMAL", Value: abnormal}}
}

// steppingClock advances by a fixed step on every read.
func steppingClock(step time.Duration) func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

type inferenceFixture struct {
	handoff *Handoff
	panel   *display.Panel
	fb      *display.Framebuffer
	metrics *telemetry.Metrics
	in      *Inference
}

func newInferenceFixture(t *testing.T, c classifier.Classifier) *inferenceFixture {
	t.Helper()
	f := &inferenceFixture{
		handoff: NewHandoff(8, Block),
		panel:   display.NewPanel(128, 64),
		fb:      display.NewFramebuffer(128, 64),
		metrics: telemetry.NewMetrics(),
	}
	f.in = NewInference(InferenceConfig{
		PollInterval:  time.Millisecond,
		CycleDelay:    time.Millisecond,
		NormalLabel:   "normal",
		AbnormalLabel: "abnormal",
		Title:         "FAN STATUS",
	}, f.handoff, c, f.fb, display.NewSSD1306(f.panel, 128), f.metrics, nil, discardLogger())
	f.in.now = steppingClock(time.Millisecond)
	return f
}

// publish pushes one window through the handoff as the capture loop would.
func (f *inferenceFixture) publish(t *testing.T, seq uint64) {
	t.Helper()
	w, err := f.handoff.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	w.Seq = seq
	if err := f.handoff.Publish(context.Background(), w); err != nil {
		t.Fatal(err)
	}
}

func TestStepIdleWithoutWindow(t *testing.T) {
	c := &scriptedClassifier{results: []classifier.Result{scores(1, 0)}}
	f := newInferenceFixture(t, c)
	_, ran, err := f.in.Step(context.Background())
	if ran || err != nil {
		t.Fatalf("Step = ran %t err %v on empty handoff", ran, err)
	}
	if c.calls != 0 {
		t.Error("classifier called without a window")
	}
}

func TestStepVerdicts(t *testing.T) {
	tests := []struct {
		name             string
		normal, abnormal float32
		want             classifier.Verdict
	}{
		{"anomaly", 0.30, 0.70, classifier.Anomaly},
		{"normal", 0.70, 0.30, classifier.Normal},
		{"tie favours normal", 0.50, 0.50, classifier.Normal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newInferenceFixture(t, &scriptedClassifier{results: []classifier.Result{scores(tt.normal, tt.abnormal)}})
			f.publish(t, 1)

			out, ran, err := f.in.Step(context.Background())
			if !ran || err != nil {
				t.Fatalf("Step = ran %t err %v", ran, err)
			}
			if out.Verdict != tt.want {
				t.Errorf("verdict = %v, want %v", out.Verdict, tt.want)
			}

			want := display.NewFramebuffer(128, 64)
			display.DrawStatus(want, display.Status{
				Title:     "FAN STATUS",
				Anomaly:   tt.want == classifier.Anomaly,
				Normal:    tt.normal,
				Abnormal:  tt.abnormal,
				Inference: out.Inference,
			})
			if !bytes.Equal(f.panel.Snapshot().RAM, want.Bytes()) {
				t.Error("panel does not show the expected status screen")
			}
		})
	}
}

func TestStepTimings(t *testing.T) {
	f := newInferenceFixture(t, &scriptedClassifier{results: []classifier.Result{scores(0.9, 0.1)}})
	f.publish(t, 7)

	out, _, err := f.in.Step(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// Clock reads: cycle start, inference end, display end.
	if out.Inference != time.Millisecond || out.Display != time.Millisecond || out.Total != 2*time.Millisecond {
		t.Errorf("timings = %+v", out)
	}
	if out.Seq != 7 {
		t.Errorf("Seq = %d", out.Seq)
	}
	s := f.metrics.Snapshot()
	if s.Inferences != 1 || s.LastCycle != 2*time.Millisecond || s.LastRate != 500 {
		t.Errorf("metrics = %+v", s)
	}
}

func TestStepClassifierFailureAbandonsCycle(t *testing.T) {
	boom := errors.New("dsp error")
	f := newInferenceFixture(t, &scriptedClassifier{err: boom})
	f.publish(t, 1)

	_, ran, err := f.in.Step(context.Background())
	if !ran || !errors.Is(err, boom) {
		t.Fatalf("Step = ran %t err %v", ran, err)
	}
	if f.panel.Transactions() != 0 {
		t.Error("display was written after a classifier failure")
	}
	if got := f.metrics.Snapshot().Inferences; got != 0 {
		t.Errorf("Inferences = %d after failure", got)
	}
	// The window was still released.
	for i := 0; i < poolSize; i++ {
		if _, err := f.handoff.Acquire(context.Background()); err != nil {
			t.Fatalf("window %d not returned: %v", i, err)
		}
	}
}

type failingPageWriter struct{ calls int }

func (w *failingPageWriter) WritePage(int, []byte) error {
	w.calls++
	return errors.New("nack")
}

func TestStepFlushFailureStillRecordsMetrics(t *testing.T) {
	f := newInferenceFixture(t, &scriptedClassifier{results: []classifier.Result{scores(0.2, 0.8)}})
	pw := &failingPageWriter{}
	f.in.out = pw
	f.publish(t, 1)

	out, ran, err := f.in.Step(context.Background())
	if !ran || err != nil {
		t.Fatalf("Step = ran %t err %v", ran, err)
	}
	if out.Verdict != classifier.Anomaly {
		t.Errorf("verdict = %v", out.Verdict)
	}
	if pw.calls != 1 {
		t.Errorf("flush attempted %d pages, want abort after 1", pw.calls)
	}
	if got := f.metrics.Snapshot().Inferences; got != 1 {
		t.Errorf("Inferences = %d", got)
	}
}

func TestStepReportsOnSchedule(t *testing.T) {
	c := &scriptedClassifier{results: []classifier.Result{scores(0.9, 0.1)}}
	f := newInferenceFixture(t, c)
	clock := telemetry.NewManualClock(time.Unix(0, 0))
	f.in.reporter = telemetry.NewReporter(f.metrics, clock, 10*time.Second, discardLogger())

	for i := 1; i <= 3; i++ {
		f.publish(t, uint64(i))
		clock.Advance(4 * time.Second)
		if _, _, err := f.in.Step(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	// Reported at 12s; the averaging window restarted then.
	s := f.metrics.Snapshot()
	if s.Inferences != 3 || s.WindowInferences != 0 {
		t.Errorf("metrics = %+v", s)
	}
}

func TestRunPacesAndStops(t *testing.T) {
	c := &scriptedClassifier{results: []classifier.Result{scores(0.9, 0.1)}}
	f := newInferenceFixture(t, c)
	f.publish(t, 1)

	ctx, cancel := context.WithCancel(context.Background())
	var polls, delays atomic.Int32
	f.in.sleep = func(ctx context.Context, d time.Duration) error {
		switch d {
		case f.in.cfg.CycleDelay:
			delays.Add(1)
		default:
			polls.Add(1)
		}
		if polls.Load() >= 3 {
			cancel()
		}
		return ctx.Err()
	}
	// Distinct durations so the sleep hook can tell them apart.
	f.in.cfg.CycleDelay = 100 * time.Millisecond
	f.in.cfg.PollInterval = 10 * time.Millisecond

	if err := f.in.Run(ctx); err != nil {
		t.Fatalf("Run = %v", err)
	}
	if delays.Load() != 1 {
		t.Errorf("cycle delays = %d, want 1", delays.Load())
	}
	if c.calls != 1 {
		t.Errorf("classifier calls = %d", c.calls)
	}
}
