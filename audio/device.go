package audio

import (
	"context"
	"fmt"
	"time"

	"github.com/Anudeepreddynarala/Fan-Anomaly-Detection/options"
)

// We'll be using portaudio, ffmpeg or gstreamer for audio input.
// macos:	brew install portaudio ffmpeg gstreamer
// debian:	sudo apt-get install portaudio19-dev ffmpeg libgstreamer1.0-dev libgstreamer-plugins-base1.0-dev

// Device is a blocking source of raw 32-bit mono PCM, the shape an I2S MEMS
// microphone delivers: each slot carries the converter's bits left-aligned.
type Device interface {
	// Start opens the underlying stream.
	Start() error
	// Read blocks until buf is full, the stream ends (io.EOF) or fails.
	// It returns the number of samples written to buf.
	Read(ctx context.Context, buf []int32) (int, error)
	// Stop releases the stream. Read may return an error afterwards.
	Stop() error
	// SampleRate returns the rate the device delivers, in Hz.
	SampleRate() int
}

// NewDevice builds the device selected by opts.Source.
func NewDevice(opts *options.Options) (Device, error) {
	switch opts.Source {
	case "mic":
		return NewMicrophone(opts.SampleRate, opts.ChunkSize)
	case "ffmpeg":
		return NewFFmpegInput(opts), nil
	case "gst":
		return NewGstInput(opts), nil
	case "null":
		return NewNullDevice(opts.SampleRate), nil
	}
	return nil, fmt.Errorf("unknown audio source %q", opts.Source)
}

// NullDevice yields silence paced at its sample rate.
type NullDevice struct {
	rate int
	// Value is written into every slot; zero by default.
	Value int32
}

func NewNullDevice(sampleRate int) *NullDevice {
	return &NullDevice{rate: sampleRate}
}

func (d *NullDevice) Start() error { return nil }

// Read waits as long as len(buf) samples take at the device rate.
func (d *NullDevice) Read(ctx context.Context, buf []int32) (int, error) {
	wait := time.Duration(len(buf)) * time.Second / time.Duration(d.rate)
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-t.C:
	}
	for i := range buf {
		buf[i] = d.Value
	}
	return len(buf), nil
}

func (d *NullDevice) Stop() error { return nil }

func (d *NullDevice) SampleRate() int { return d.rate }
