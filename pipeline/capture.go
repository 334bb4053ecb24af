package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/Anudeepreddynarala/Fan-Anomaly-Detection/audio"
	"github.com/Anudeepreddynarala/Fan-Anomaly-Detection/telemetry"
	"github.com/google/uuid"
)

// Capture is the producer loop: it reads raw chunks from an audio device,
// downshifts them into windows and publishes every full window.
type Capture struct {
	device  audio.Device
	handoff *Handoff
	metrics *telemetry.Metrics
	shift   uint
	chunk   []int32
	logger  *slog.Logger

	seq uint64
	now func() time.Time
}

func NewCapture(device audio.Device, handoff *Handoff, metrics *telemetry.Metrics, shift uint, chunkSize int, logger *slog.Logger) *Capture {
	if logger == nil {
		logger = slog.Default()
	}
	return &Capture{
		device:  device,
		handoff: handoff,
		metrics: metrics,
		shift:   shift,
		chunk:   make([]int32, chunkSize),
		logger:  logger,
		now:     time.Now,
	}
}

// Published returns the number of windows handed to the consumer so far.
// Only call it from the goroutine running Run, or after Run returned.
func (c *Capture) Published() uint64 { return c.seq }

// Run captures until ctx is cancelled, returning nil, or until the device
// reports end of stream, returning io.EOF. Other read errors are logged and
// the loop carries on with the next read.
func (c *Capture) Run(ctx context.Context) error {
	w, err := c.handoff.Acquire(ctx)
	if err != nil {
		return nil
	}
	defer func() {
		if w != nil {
			c.handoff.Release(w)
		}
	}()

	idx := 0
	var start time.Time
	for {
		if ctx.Err() != nil {
			return nil
		}
		if idx == 0 {
			start = c.now()
		}

		n, readErr := c.device.Read(ctx, c.chunk)
		for _, raw := range c.chunk[:n] {
			w.Samples[idx] = audio.Downshift(raw, c.shift)
			idx++
			if idx < len(w.Samples) {
				continue
			}

			end := c.now()
			c.seq++
			w.Seq = c.seq
			w.TraceID = uuid.New()
			w.CapturedAt = end
			w.CaptureDuration = end.Sub(start)
			c.metrics.RecordCapture(w.CaptureDuration)

			c.logger.Debug("capture: window ready",
				"seq", w.Seq,
				"trace_id", w.TraceID,
				"capture_ms", float64(w.CaptureDuration.Microseconds())/1000,
			)
			full := w
			w = nil
			if err := c.handoff.Publish(ctx, full); err != nil {
				return nil
			}

			if w, err = c.handoff.Acquire(ctx); err != nil {
				return nil
			}
			// The rest of this chunk starts the next window.
			idx = 0
			start = end
		}

		if readErr != nil {
			switch {
			case errors.Is(readErr, io.EOF):
				c.logger.Info("capture: end of stream", "windows", c.seq, "discarded_samples", idx)
				return io.EOF
			case ctx.Err() != nil:
				return nil
			default:
				c.logger.Warn("capture: read failed", "error", readErr)
			}
		}

		runtime.Gosched()
	}
}
