package telemetry

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInferenceCountAfterKCycles(t *testing.T) {
	for _, k := range []int{0, 1, 7, 1000} {
		m := NewMetrics()
		for i := 0; i < k; i++ {
			m.RecordCycle(time.Millisecond, time.Millisecond, 3*time.Millisecond)
		}
		if got := m.Snapshot().Inferences; got != uint64(k) {
			t.Errorf("after %d cycles Inferences = %d", k, got)
		}
	}
}

func TestConcurrentRecording(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			m.RecordCapture(26 * time.Millisecond)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			m.RecordCycle(5*time.Millisecond, 2*time.Millisecond, 8*time.Millisecond)
		}
	}()
	wg.Wait()

	s := m.Snapshot()
	if s.Inferences != 500 || s.WindowCaptures != 500 || s.WindowInferences != 500 {
		t.Errorf("snapshot = %+v", s)
	}
}

func TestLastAndMeanAreDistinct(t *testing.T) {
	m := NewMetrics()
	m.RecordCycle(10*time.Millisecond, 2*time.Millisecond, 20*time.Millisecond)
	m.RecordCycle(30*time.Millisecond, 4*time.Millisecond, 40*time.Millisecond)
	m.RecordCapture(20 * time.Millisecond)
	m.RecordCapture(40 * time.Millisecond)

	s := m.Snapshot()
	if s.LastInference != 30*time.Millisecond || s.LastCycle != 40*time.Millisecond {
		t.Errorf("last values = %v / %v", s.LastInference, s.LastCycle)
	}
	if s.MeanInference != 20*time.Millisecond || s.MeanDisplay != 3*time.Millisecond || s.MeanCycle != 30*time.Millisecond {
		t.Errorf("means = %v / %v / %v", s.MeanInference, s.MeanDisplay, s.MeanCycle)
	}
	if s.MeanCapture != 30*time.Millisecond || s.LastCapture != 40*time.Millisecond {
		t.Errorf("capture last/mean = %v / %v", s.LastCapture, s.MeanCapture)
	}
	if s.LastRate != 25 {
		t.Errorf("LastRate = %v, want 25", s.LastRate)
	}
}

func TestResetWindowKeepsCount(t *testing.T) {
	m := NewMetrics()
	m.RecordCycle(time.Millisecond, time.Millisecond, 2*time.Millisecond)
	m.RecordCapture(time.Millisecond)
	m.ResetWindow()

	s := m.Snapshot()
	if s.Inferences != 1 {
		t.Errorf("Inferences = %d after reset", s.Inferences)
	}
	if s.WindowInferences != 0 || s.MeanCycle != 0 || s.MeanCapture != 0 {
		t.Errorf("window not cleared: %+v", s)
	}
	if s.LastCycle != 2*time.Millisecond {
		t.Errorf("LastCycle lost on reset")
	}
}

func TestRate(t *testing.T) {
	tests := []struct {
		cycle time.Duration
		want  float64
	}{
		{100 * time.Millisecond, 10},
		{time.Second, 1},
		{time.Microsecond, 1e6},
		{0, 1e6},
		{500 * time.Nanosecond, 1e6},
	}
	for _, tt := range tests {
		if got := Rate(tt.cycle); got != tt.want {
			t.Errorf("Rate(%v) = %v, want %v", tt.cycle, got, tt.want)
		}
	}
}

func TestReporterNeverFiresEarly(t *testing.T) {
	clock := NewManualClock(time.Unix(1000, 0))
	m := NewMetrics()
	r := NewReporter(m, clock, 10*time.Second, discardLogger())

	// 99 steps of 100ms: 9.9s elapsed.
	for i := 0; i < 99; i++ {
		clock.Advance(100 * time.Millisecond)
		m.RecordCycle(time.Millisecond, time.Millisecond, 2*time.Millisecond)
		if _, fired := r.MaybeReport(); fired {
			t.Fatalf("report fired after %v", time.Duration(i+1)*100*time.Millisecond)
		}
	}

	clock.Advance(100 * time.Millisecond)
	s, fired := r.MaybeReport()
	if !fired {
		t.Fatal("report did not fire at 10s")
	}
	if s.Inferences != 99 || s.WindowInferences != 99 {
		t.Errorf("summary = %+v", s)
	}

	// The next window starts at the report, not at the previous window's start.
	clock.Advance(9 * time.Second)
	if _, fired := r.MaybeReport(); fired {
		t.Fatal("second report fired after 9s")
	}
	clock.Advance(time.Second)
	s, fired = r.MaybeReport()
	if !fired {
		t.Fatal("second report missing at 10s")
	}
	if s.Inferences != 99 || s.WindowInferences != 0 {
		t.Errorf("second summary = %+v", s)
	}
}

func TestReporterLogsLabelledFields(t *testing.T) {
	var buf bytes.Buffer
	clock := NewManualClock(time.Unix(0, 0))
	m := NewMetrics()
	r := NewReporter(m, clock, time.Second, slog.New(slog.NewTextHandler(&buf, nil)))

	m.RecordCycle(4*time.Millisecond, 2*time.Millisecond, 8*time.Millisecond)
	clock.Advance(time.Second)
	if _, fired := r.MaybeReport(); !fired {
		t.Fatal("no report")
	}
	out := buf.String()
	for _, want := range []string{"performance summary", "inferences=1", "last_inference_ms=4", "mean_cycle_ms=8"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q lacks %q", out, want)
		}
	}
}
