package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"
)

// Microphone reads the default input device through a blocking PortAudio
// stream of 32-bit samples.
type Microphone struct {
	sampleRate  int
	chunk       []int32 // PortAudio reads into this slice
	stream      *portaudio.Stream
	isStreaming bool
}

func NewMicrophone(sampleRate, chunkSize int) (*Microphone, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	return &Microphone{
		sampleRate: sampleRate,
		chunk:      make([]int32, chunkSize),
	}, nil
}

func (m *Microphone) Start() error {
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), len(m.chunk), m.chunk)
	if err != nil {
		return fmt.Errorf("failed to open audio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start audio stream: %w", err)
	}
	m.stream = stream
	m.isStreaming = true
	slog.Info("audio: microphone started", "rate", m.sampleRate, "chunk", len(m.chunk))
	return nil
}

// Read copies one stream buffer into buf. An input overflow is reported by
// PortAudio after the buffer was filled, so the data is still returned.
func (m *Microphone) Read(ctx context.Context, buf []int32) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if !m.isStreaming {
		return 0, errors.New("microphone not started")
	}
	if err := m.stream.Read(); err != nil {
		if !errors.Is(err, portaudio.InputOverflowed) {
			return 0, fmt.Errorf("microphone read: %w", err)
		}
		slog.Debug("audio: input overflowed")
	}
	return copy(buf, m.chunk), nil
}

func (m *Microphone) Stop() error {
	if !m.isStreaming {
		return portaudio.Terminate()
	}
	m.isStreaming = false
	if err := m.stream.Close(); err != nil {
		portaudio.Terminate()
		return err
	}
	return portaudio.Terminate()
}

func (m *Microphone) SampleRate() int {
	return m.sampleRate
}
