package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"sync"

	"github.com/Anudeepreddynarala/Fan-Anomaly-Detection/options"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// FFmpegInput decodes an audio file or an OS capture device with ffmpeg and
// reads the result as s32le mono at the configured rate from a pipe.
type FFmpegInput struct {
	opts *options.Options

	mu          sync.Mutex
	cmd         *exec.Cmd
	pipeReader  *io.PipeReader
	pipeWriter  *io.PipeWriter
	pcm         *pcmReader
	isStreaming bool
}

func NewFFmpegInput(opts *options.Options) *FFmpegInput {
	return &FFmpegInput{opts: opts}
}

// getArgs picks the ffmpeg input and the arguments on both sides of it. A
// capture device takes precedence over a file.
func (d *FFmpegInput) getArgs() (input string, inputArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{}
	if d.opts.InputDevice != "" {
		input = d.opts.InputDevice
		inputArgs["fflags"] = "nobuffer"
		switch runtime.GOOS {
		case "darwin":
			inputArgs["f"] = "avfoundation"
		case "linux":
			inputArgs["f"] = "pulse" // or "alsa"
		case "windows":
			inputArgs["f"] = "dshow"
		}
	} else {
		input = d.opts.InputFile
		if d.opts.RealTime {
			inputArgs["re"] = ""
		}
	}

	outputArgs = ffmpeg.KwArgs{
		"f":   "s32le",
		"c:a": "pcm_s32le",
		"ac":  1,
		"ar":  d.opts.SampleRate,
	}
	return input, inputArgs, outputArgs
}

func (d *FFmpegInput) stream() *ffmpeg.Stream {
	input, inputArgs, outputArgs := d.getArgs()
	s := ffmpeg.Input(input, inputArgs).Output("pipe:", outputArgs)
	if d.opts.FFMPEGPath != "" {
		s = s.SetFfmpegPath(d.opts.FFMPEGPath)
	}
	return s
}

// Start launches ffmpeg. Its stdout feeds Read until the input ends or Stop
// is called.
func (d *FFmpegInput) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.isStreaming {
		return nil
	}

	pipeReader, pipeWriter := io.Pipe()
	cmd := d.stream().WithOutput(pipeWriter).Compile()
	if err := cmd.Start(); err != nil {
		pipeWriter.Close()
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	slog.Info("audio: ffmpeg started", "args", cmd.Args)

	go func() {
		err := cmd.Wait()
		if err != nil {
			slog.Warn("audio: ffmpeg exited", "error", err)
		}
		// EOF for Read once the buffered tail is consumed.
		pipeWriter.CloseWithError(err)
	}()

	d.cmd = cmd
	d.pipeReader = pipeReader
	d.pipeWriter = pipeWriter
	d.pcm = newPCMReader(pipeReader)
	d.isStreaming = true
	return nil
}

func (d *FFmpegInput) Read(ctx context.Context, buf []int32) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	pcm := d.pcm
	d.mu.Unlock()
	if pcm == nil {
		return 0, errors.New("ffmpeg input not started")
	}
	return pcm.read(buf)
}

// Stop kills ffmpeg and unblocks a pending Read.
func (d *FFmpegInput) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.isStreaming {
		return nil
	}
	d.isStreaming = false
	d.pipeReader.CloseWithError(io.EOF)
	if d.cmd.Process != nil {
		if err := d.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return err
		}
	}
	return nil
}

func (d *FFmpegInput) SampleRate() int {
	return d.opts.SampleRate
}
