package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Anudeepreddynarala/Fan-Anomaly-Detection/options"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// DefaultGstSource is used when no source description is configured.
const DefaultGstSource = "autoaudiosrc"

// GstInput captures through a GStreamer pipeline ending in an appsink that
// negotiates S32LE mono at the configured rate.
type GstInput struct {
	opts *options.Options

	mu          sync.Mutex
	pipeline    *gst.Pipeline
	pipeReader  *io.PipeReader
	pipeWriter  *io.PipeWriter
	pcm         *pcmReader
	isStreaming bool

	bytesRead uint64
}

func NewGstInput(opts *options.Options) *GstInput {
	return &GstInput{opts: opts}
}

// Description returns the gst-launch style pipeline that Start builds.
func (d *GstInput) Description() string {
	src := d.opts.GstPipeline
	if src == "" {
		src = DefaultGstSource
	}
	return fmt.Sprintf(
		"%s ! audioconvert ! audioresample ! audio/x-raw,format=S32LE,channels=1,rate=%d ! appsink name=sink sync=false",
		src, d.opts.SampleRate,
	)
}

func (d *GstInput) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.isStreaming {
		return nil
	}

	// Safe to call multiple times
	gst.Init(nil)

	pipeline, err := gst.NewPipelineFromString(d.Description())
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	elem, err := pipeline.GetElementByName("sink")
	if err != nil {
		return fmt.Errorf("failed to find appsink: %w", err)
	}
	sink := app.SinkFromElement(elem)

	pipeReader, pipeWriter := io.Pipe()
	sink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: func(s *app.Sink) gst.FlowReturn {
			return d.onNewSample(s, pipeWriter)
		},
		EOSFunc: func(*app.Sink) {
			slog.Info("audio: gstreamer end of stream")
			pipeWriter.Close()
		},
	})

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		pipeWriter.Close()
		return fmt.Errorf("failed to start pipeline: %w", err)
	}
	slog.Info("audio: gstreamer started", "pipeline", d.Description())

	d.pipeline = pipeline
	d.pipeReader = pipeReader
	d.pipeWriter = pipeWriter
	d.pcm = newPCMReader(pipeReader)
	d.isStreaming = true
	return nil
}

// onNewSample copies one appsink buffer into the pipe. The write blocks the
// streaming thread until Read drains it.
func (d *GstInput) onNewSample(sink *app.Sink, w *io.PipeWriter) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		slog.Warn("audio: failed to pull sample from appsink, skipping")
		return gst.FlowOK
	}
	buffer := sample.GetBuffer()
	if buffer == nil {
		slog.Warn("audio: failed to get buffer from sample, skipping")
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	if len(data) == 0 {
		buffer.Unmap()
		return gst.FlowOK
	}
	_, err := w.Write(data)
	buffer.Unmap()
	if err != nil {
		// Reader closed by Stop.
		return gst.FlowEOS
	}
	atomic.AddUint64(&d.bytesRead, uint64(len(data)))
	return gst.FlowOK
}

func (d *GstInput) Read(ctx context.Context, buf []int32) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	pcm := d.pcm
	d.mu.Unlock()
	if pcm == nil {
		return 0, errors.New("gstreamer input not started")
	}
	return pcm.read(buf)
}

func (d *GstInput) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.isStreaming {
		return nil
	}
	d.isStreaming = false
	// Unblock the streaming thread before tearing the pipeline down.
	d.pipeReader.CloseWithError(io.EOF)
	err := d.pipeline.SetState(gst.StateNull)
	d.pipeWriter.Close()
	slog.Debug("audio: gstreamer stopped", "bytes", atomic.LoadUint64(&d.bytesRead))
	return err
}

func (d *GstInput) SampleRate() int {
	return d.opts.SampleRate
}
