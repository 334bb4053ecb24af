package options

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Options holds every tunable of the monitor. The zero value is not usable;
// start from Defaults().
type Options struct {
	// Audio
	Source      string `yaml:"source"`       // mic, ffmpeg, gst or null
	InputFile   string `yaml:"input_file"`   // file for the ffmpeg source
	InputDevice string `yaml:"input_device"` // OS capture device for the ffmpeg source
	FFMPEGPath  string `yaml:"ffmpeg_path"`
	GstPipeline string `yaml:"gst_pipeline"` // source element(s) placed before the S32LE appsink
	SampleRate  int    `yaml:"sample_rate"`
	ChunkSize   int    `yaml:"chunk_size"`   // raw samples per blocking read
	SampleShift uint   `yaml:"sample_shift"` // right shift applied to 32-bit slots
	RealTime    bool   `yaml:"real_time"`    // pace file input at the sample rate

	// Model
	WindowLength  int     `yaml:"window_length"`
	NormalLabel   string  `yaml:"normal_label"`
	AbnormalLabel string  `yaml:"abnormal_label"`
	BandLowHz     float64 `yaml:"band_low_hz"`
	BandHighHz    float64 `yaml:"band_high_hz"`
	BandThreshold float64 `yaml:"band_threshold"`

	// Pipeline
	HandoffPolicy  string        `yaml:"handoff_policy"` // block or latest
	PollInterval   time.Duration `yaml:"poll_interval"`
	CycleDelay     time.Duration `yaml:"cycle_delay"`
	ReportInterval time.Duration `yaml:"report_interval"`

	// Display
	Display        string        `yaml:"display"` // sim, i2c or none
	I2CBus         string        `yaml:"i2c_bus"`
	I2CAddress     int           `yaml:"i2c_address"`
	Width          int           `yaml:"width"`
	Height         int           `yaml:"height"`
	Title          string        `yaml:"title"`
	SplashDuration time.Duration `yaml:"splash_duration"`
	ViewerScale    int           `yaml:"viewer_scale"`

	LogLevel string `yaml:"log_level"`
}

// Defaults mirrors the reference deployment: INMP441 at 16 kHz, a 416
// sample model input and a 128x64 SSD1306 at 0x3C.
func Defaults() Options {
	return Options{
		Source:         "mic",
		SampleRate:     16000,
		ChunkSize:      512,
		SampleShift:    14,
		RealTime:       true,
		WindowLength:   416,
		NormalLabel:    "normal",
		AbnormalLabel:  "abnormal",
		BandLowHz:      2000,
		BandHighHz:     6000,
		BandThreshold:  0.35,
		HandoffPolicy:  "block",
		PollInterval:   10 * time.Millisecond,
		CycleDelay:     100 * time.Millisecond,
		ReportInterval: 10 * time.Second,
		Display:        "sim",
		I2CBus:         "/dev/i2c-1",
		I2CAddress:     0x3C,
		Width:          128,
		Height:         64,
		Title:          "FAN STATUS",
		SplashDuration: 2 * time.Second,
		ViewerScale:    6,
		LogLevel:       "info",
	}
}

// LoadFile overlays the YAML document at path onto o. Keys missing from the
// file keep their current value.
func (o *Options) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(o); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

// envPrefix namespaces every environment override.
const envPrefix = "FANWATCH_"

// LoadEnv reads an optional .env file and applies FANWATCH_* overrides.
func (o *Options) LoadEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}

	strs := map[string]*string{
		"SOURCE":         &o.Source,
		"INPUT_FILE":     &o.InputFile,
		"INPUT_DEVICE":   &o.InputDevice,
		"FFMPEG_PATH":    &o.FFMPEGPath,
		"GST_PIPELINE":   &o.GstPipeline,
		"HANDOFF_POLICY": &o.HandoffPolicy,
		"DISPLAY":        &o.Display,
		"I2C_BUS":        &o.I2CBus,
		"TITLE":          &o.Title,
		"LOG_LEVEL":      &o.LogLevel,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"SAMPLE_RATE":   &o.SampleRate,
		"CHUNK_SIZE":    &o.ChunkSize,
		"WINDOW_LENGTH": &o.WindowLength,
		"I2C_ADDRESS":   &o.I2CAddress,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(v, 0, 32)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = int(n)
	}
	return nil
}

// RegisterFlags binds command-line flags to o; call before fs.Parse.
func (o *Options) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&o.Source, "source", o.Source, "Audio source: mic, ffmpeg, gst or null")
	fs.StringVar(&o.InputFile, "input", o.InputFile, "Audio file for the ffmpeg source")
	fs.StringVar(&o.InputDevice, "input-device", o.InputDevice, "OS capture device for the ffmpeg source")
	fs.StringVar(&o.FFMPEGPath, "ffmpeg", o.FFMPEGPath, "Path to ffmpeg executable")
	fs.StringVar(&o.GstPipeline, "gst", o.GstPipeline, "GStreamer source description for the gst source")
	fs.IntVar(&o.SampleRate, "rate", o.SampleRate, "Sample rate in Hz")
	fs.IntVar(&o.WindowLength, "window", o.WindowLength, "Samples per inference window")
	fs.StringVar(&o.HandoffPolicy, "policy", o.HandoffPolicy, "Handoff policy when inference lags: block or latest")
	fs.StringVar(&o.Display, "display", o.Display, "Display: sim, i2c or none")
	fs.StringVar(&o.I2CBus, "i2c-bus", o.I2CBus, "I2C bus device for the i2c display")
	fs.Func("i2c-addr", "7-bit I2C address of the display (default 0x3c)", func(s string) error {
		n, err := strconv.ParseInt(s, 0, 16)
		if err != nil {
			return err
		}
		o.I2CAddress = int(n)
		return nil
	})
	fs.IntVar(&o.ViewerScale, "scale", o.ViewerScale, "Pixel scale of the simulated display window")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "Log level: debug, info, warn or error")
}

// Validate reports the first impossible setting.
func (o *Options) Validate() error {
	switch {
	case o.SampleRate <= 0:
		return fmt.Errorf("sample rate must be positive, got %d", o.SampleRate)
	case o.WindowLength <= 0:
		return fmt.Errorf("window length must be positive, got %d", o.WindowLength)
	case o.ChunkSize <= 0:
		return fmt.Errorf("chunk size must be positive, got %d", o.ChunkSize)
	case o.SampleShift > 31:
		return fmt.Errorf("sample shift must be < 32, got %d", o.SampleShift)
	case o.Width <= 0 || o.Height <= 0 || o.Height%8 != 0:
		return fmt.Errorf("display must be positive with height a multiple of 8, got %dx%d", o.Width, o.Height)
	case o.BandLowHz < 0 || o.BandHighHz <= o.BandLowHz:
		return fmt.Errorf("fault band [%v, %v] Hz is empty", o.BandLowHz, o.BandHighHz)
	case o.I2CAddress < 0 || o.I2CAddress > 0x7F:
		return fmt.Errorf("i2c address 0x%x out of 7-bit range", o.I2CAddress)
	}
	switch o.HandoffPolicy {
	case "block", "latest":
	default:
		return fmt.Errorf("unknown handoff policy %q", o.HandoffPolicy)
	}
	switch o.Source {
	case "mic", "ffmpeg", "gst", "null":
	default:
		return fmt.Errorf("unknown audio source %q", o.Source)
	}
	switch o.Display {
	case "sim", "i2c", "none":
	default:
		return fmt.Errorf("unknown display %q", o.Display)
	}
	if o.Source == "ffmpeg" && o.InputFile == "" && o.InputDevice == "" {
		return errors.New("ffmpeg source needs an input file or device")
	}
	return nil
}

// Level maps LogLevel onto slog.
func (o *Options) Level() slog.Level {
	switch strings.ToLower(o.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
