package uvc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/smazurov/camsession/internal/camera"
	"github.com/smazurov/camsession/internal/ffmpeg"
	"github.com/smazurov/camsession/internal/logging"
	"github.com/smazurov/camsession/internal/process"
	"github.com/smazurov/camsession/internal/resolution"
	"github.com/smazurov/camsession/internal/surface"
)

const defaultProbeTimeout = 10 * time.Second

// inputFormats maps encoding families to ffmpeg v4l2 input formats.
var inputFormats = map[camera.Encoding]string{
	camera.EncodingMJPEG: "mjpeg",
	camera.EncodingYUYV:  "yuyv422",
}

// Prober returns the -list_formats output for a device node.
type Prober func(ctx context.Context, path string) (string, error)

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the driver logger and the logger ffmpeg output goes to.
func WithLogger(logger logging.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
		d.ffmpegLogger = logger
	}
}

// WithInputOptions sets ffmpeg input flags for captures.
func WithInputOptions(opts []ffmpeg.OptionType) Option {
	return func(d *Driver) {
		d.inputOptions = opts
	}
}

// WithStopTimeouts bounds the graceful and forced stop of a capture.
func WithStopTimeouts(graceful, kill time.Duration) Option {
	return func(d *Driver) {
		d.graceful, d.kill = graceful, kill
	}
}

// WithProber replaces the ffmpeg format probe.
func WithProber(p Prober) Option {
	return func(d *Driver) {
		d.probe = p
	}
}

// withCommand rewrites capture arguments before they are run.
func withCommand(wrap func(args []string) []string) Option {
	return func(d *Driver) {
		d.command = wrap
	}
}

// Driver opens V4L2 cameras and captures them with ffmpeg.
type Driver struct {
	logger       logging.Logger
	ffmpegLogger logging.Logger
	inputOptions []ffmpeg.OptionType
	graceful     time.Duration
	kill         time.Duration
	probe        Prober
	command      func(args []string) []string
}

// NewDriver creates a driver.
func NewDriver(opts ...Option) *Driver {
	d := &Driver{
		logger:       logging.GetLogger("uvc"),
		ffmpegLogger: logging.GetLogger("ffmpeg"),
		inputOptions: ffmpeg.DefaultOptions(),
		graceful:     3 * time.Second,
		kill:         2 * time.Second,
		probe:        probeFormats,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open opens the device node and keeps it open until Close.
func (d *Driver) Open(path string) (camera.Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &device{driver: d, path: path, node: f}, nil
}

// probeFormats runs ffmpeg -list_formats. ffmpeg always exits non-zero
// after listing, so the error only matters when nothing was printed.
func probeFormats(ctx context.Context, path string) (string, error) {
	out, err := process.Output(ctx, ffmpeg.ListFormatsArgs(path))
	if err != nil && len(ffmpeg.ParseListFormats(out)) == 0 {
		return out, fmt.Errorf("list formats: %w", err)
	}
	return out, nil
}

// device is one opened camera. The camera handle serializes every call.
type device struct {
	driver *Driver
	path   string
	node   *os.File

	formats []ffmpeg.Format
	probed  bool

	format camera.StreamFormat
	sink   *Sink

	// mu guards capture, which the exit watcher also clears.
	mu      sync.Mutex
	capture *process.Process
}

func (dev *device) SupportedSizes(enc camera.Encoding) ([]resolution.Size, error) {
	name, ok := inputFormats[enc]
	if !ok {
		return nil, fmt.Errorf("unsupported encoding %q", enc)
	}
	if !dev.probed {
		ctx, cancel := context.WithTimeout(context.Background(), defaultProbeTimeout)
		defer cancel()
		out, err := dev.driver.probe(ctx, dev.path)
		if err != nil {
			return nil, err
		}
		dev.formats = ffmpeg.ParseListFormats(out)
		dev.probed = true
		dev.driver.logger.Debug("Probed formats", "path", dev.path, "formats", len(dev.formats))
	}
	return ffmpeg.SizesFor(dev.formats, name), nil
}

// Configure accepts only sizes the device listed for the encoding.
func (dev *device) Configure(format camera.StreamFormat) error {
	sizes, err := dev.SupportedSizes(format.Encoding)
	if err != nil {
		return err
	}
	for _, s := range sizes {
		if s == format.Size {
			dev.format = format
			return nil
		}
	}
	return fmt.Errorf("%w: %s not offered by %s", camera.ErrFormatRejected, format, dev.path)
}

func (dev *device) SetTarget(target surface.Target) error {
	sink, ok := target.(*Sink)
	if !ok {
		return fmt.Errorf("unsupported render target %T", target)
	}
	dev.sink = sink
	return nil
}

func (dev *device) StartStreaming(ended func(error)) error {
	dev.mu.Lock()
	running := dev.capture != nil
	dev.mu.Unlock()
	if running {
		return errors.New("capture already running")
	}
	if dev.sink == nil {
		return errors.New("no render target")
	}

	args, err := ffmpeg.BuildCaptureArgs(&ffmpeg.CaptureParams{
		DevicePath:   dev.path,
		InputFormat:  inputFormats[dev.format.Encoding],
		Resolution:   dev.format.Size.String(),
		FPS:          dev.format.MaxFPS,
		Options:      dev.driver.inputOptions,
		OutputURL:    dev.sink.URL,
		OutputFormat: dev.sink.Format,
		Encoder:      dev.sink.Encoder,
		PixelFormat:  dev.sink.PixelFormat,
	})
	if err != nil {
		return err
	}
	if dev.driver.command != nil {
		args = dev.driver.command(args)
	}

	logger := dev.driver.logger
	p := process.New(dev.path, args,
		process.WithLogger(logger),
		process.WithLogParser(dev.driver.ffmpegLogger, ffmpeg.ParseLogLevel),
		process.WithTimeouts(dev.driver.graceful, dev.driver.kill))
	if err := p.Start(); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	dev.mu.Lock()
	dev.capture = p
	dev.mu.Unlock()
	go dev.watch(p, ended)
	return nil
}

// watch reports a capture that exited without StopStreaming. Whichever of
// watch and StopStreaming clears capture first owns the exit.
func (dev *device) watch(p *process.Process, ended func(error)) {
	<-p.Done()

	dev.mu.Lock()
	owned := dev.capture == p
	if owned {
		dev.capture = nil
	}
	dev.mu.Unlock()
	if !owned {
		return
	}

	info := p.Info()
	err := info.LastError
	if err == nil {
		err = fmt.Errorf("capture exited with code %d", info.ExitCode)
	}
	dev.driver.logger.Error("Capture exited unexpectedly",
		"path", dev.path, "exit_code", info.ExitCode, "error", err)
	if ended != nil {
		ended(err)
	}
}

// StopStreaming stops the capture. The sink stays set for a restart.
func (dev *device) StopStreaming() error {
	dev.mu.Lock()
	p := dev.capture
	dev.capture = nil
	dev.mu.Unlock()
	if p == nil {
		return nil
	}
	code := p.Stop()
	dev.driver.logger.Debug("Capture stopped", "path", dev.path, "exit_code", code)
	return nil
}

func (dev *device) Close() error {
	_ = dev.StopStreaming()
	dev.sink = nil
	if dev.node == nil {
		return nil
	}
	err := dev.node.Close()
	dev.node = nil
	return err
}
