package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/Anudeepreddynarala/Fan-Anomaly-Detection/audio"
	"github.com/Anudeepreddynarala/Fan-Anomaly-Detection/classifier"
	"github.com/Anudeepreddynarala/Fan-Anomaly-Detection/display"
	"github.com/Anudeepreddynarala/Fan-Anomaly-Detection/glfwcontext"
	"github.com/Anudeepreddynarala/Fan-Anomaly-Detection/options"
	"github.com/Anudeepreddynarala/Fan-Anomaly-Detection/pipeline"
	"github.com/Anudeepreddynarala/Fan-Anomaly-Detection/renderer"
	"github.com/Anudeepreddynarala/Fan-Anomaly-Detection/telemetry"
)

// How long to wait for the capture loop to notice cancellation before the
// audio device is stopped underneath it.
const captureDrainTimeout = time.Second

func init() {
	// GLFW and GL must stay on the main thread.
	runtime.LockOSThread()
}

func loadOptions() (options.Options, error) {
	opts := options.Defaults()

	// -config is applied before the other flags so they can override it.
	configPath := configFlag(os.Args[1:])
	if configPath != "" {
		if err := opts.LoadFile(configPath); err != nil {
			return opts, err
		}
	}
	if err := opts.LoadEnv(".env"); err != nil {
		return opts, err
	}

	fs := flag.NewFlagSet("fanwatch", flag.ExitOnError)
	fs.String("config", configPath, "YAML options file")
	help := fs.Bool("help", false, "Show help message")
	opts.RegisterFlags(fs)
	fs.Parse(os.Args[1:])
	if *help {
		fmt.Println("fanwatch: acoustic fan anomaly monitor")
		fs.PrintDefaults()
		os.Exit(0)
	}
	return opts, opts.Validate()
}

// configFlag finds the value of -config (or --config) in args.
func configFlag(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func main() {
	opts, err := loadOptions()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: opts.Level()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var bus display.Bus = display.Discard{}
	var panel *display.Panel
	switch opts.Display {
	case "sim":
		panel = display.NewPanel(opts.Width, opts.Height)
		bus = panel
	case "i2c":
		b, err := display.OpenI2C(opts.I2CBus, opts.I2CAddress)
		if err != nil {
			log.Fatalf("Failed to open display: %v", err)
		}
		defer b.Close()
		bus = b
	}
	drv := display.NewSSD1306(bus, opts.Width)
	if err := drv.Init(); err != nil {
		log.Fatalf("Failed to initialize display: %v", err)
	}
	fb := display.NewFramebuffer(opts.Width, opts.Height)
	display.DrawSplash(fb)
	if err := fb.Flush(drv); err != nil {
		logger.Warn("fanwatch: splash flush failed", "error", err)
	}

	dev, err := audio.NewDevice(&opts)
	if err != nil {
		log.Fatalf("Failed to create audio source: %v", err)
	}
	clf, err := classifier.NewSpectral(float64(opts.SampleRate), opts.BandLowHz, opts.BandHighHz, opts.BandThreshold, opts.NormalLabel, opts.AbnormalLabel)
	if err != nil {
		log.Fatalf("Failed to create classifier: %v", err)
	}
	policy, err := pipeline.ParsePolicy(opts.HandoffPolicy)
	if err != nil {
		log.Fatalf("Invalid handoff policy: %v", err)
	}

	handoff := pipeline.NewHandoff(opts.WindowLength, policy)
	metrics := telemetry.NewMetrics()
	reporter := telemetry.NewReporter(metrics, telemetry.SystemClock{}, opts.ReportInterval, logger)
	capture := pipeline.NewCapture(dev, handoff, metrics, opts.SampleShift, opts.ChunkSize, logger)
	inference := pipeline.NewInference(pipeline.InferenceConfig{
		PollInterval:  opts.PollInterval,
		CycleDelay:    opts.CycleDelay,
		NormalLabel:   opts.NormalLabel,
		AbnormalLabel: opts.AbnormalLabel,
		Title:         opts.Title,
	}, handoff, clf, fb, drv, metrics, reporter, logger)

	logger.Info("fanwatch: starting",
		"source", opts.Source,
		"display", opts.Display,
		"rate", opts.SampleRate,
		"window", opts.WindowLength,
		"policy", policy.String(),
	)

	errc := make(chan error, 1)
	go func() {
		errc <- run(ctx, opts.SplashDuration, dev, capture, inference)
		cancel()
	}()

	if panel != nil {
		runViewer(ctx, &opts, panel, logger)
		cancel()
	}

	if err := <-errc; err != nil {
		log.Fatalf("fanwatch: %v", err)
	}
	st := handoff.Stats()
	logger.Info("fanwatch: stopped",
		"windows", st.Published,
		"inferences", metrics.Snapshot().Inferences,
		"dropped", st.Dropped,
	)
}

// run holds the splash, then drives capture and inference until ctx is done
// or the audio source runs dry.
func run(ctx context.Context, splash time.Duration, dev audio.Device, capture *pipeline.Capture, inference *pipeline.Inference) error {
	select {
	case <-ctx.Done():
		return nil
	case <-time.After(splash):
	}

	if err := dev.Start(); err != nil {
		return fmt.Errorf("start audio source: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	captureDone := make(chan struct{})
	go func() {
		defer close(captureDone)
		defer cancel()
		if err := capture.Run(ctx); errors.Is(err, io.EOF) {
			slog.Info("fanwatch: audio source exhausted", "windows", capture.Published())
		}
	}()

	inference.Run(ctx)

	select {
	case <-captureDone:
	case <-time.After(captureDrainTimeout):
	}
	err := dev.Stop()
	<-captureDone
	if err != nil {
		return fmt.Errorf("stop audio source: %w", err)
	}
	return nil
}

// runViewer shows the emulated panel until the window closes or ctx is done.
// Without a usable GL context the monitor keeps running headless.
func runViewer(ctx context.Context, opts *options.Options, panel *display.Panel, logger *slog.Logger) {
	if err := glfwcontext.InitGraphics(); err != nil {
		logger.Warn("fanwatch: no window system, running headless", "error", err)
		<-ctx.Done()
		return
	}
	defer glfwcontext.TerminateGraphics()

	win, err := glfwcontext.New(opts.Width, opts.Height, opts.ViewerScale, "fanwatch")
	if err != nil {
		logger.Warn("fanwatch: cannot open viewer window, running headless", "error", err)
		<-ctx.Done()
		return
	}
	viewer, err := renderer.NewPanelViewer(win, panel, "fanwatch", logger)
	if err != nil {
		win.Shutdown()
		logger.Warn("fanwatch: viewer unavailable, running headless", "error", err)
		<-ctx.Done()
		return
	}
	defer viewer.Shutdown()
	viewer.Run(ctx)
}
