// Package cameratest provides an in-memory camera driver for tests.
package cameratest

import (
	"fmt"
	"sync"

	"github.com/smazurov/camsession/internal/camera"
	"github.com/smazurov/camsession/internal/resolution"
	"github.com/smazurov/camsession/internal/surface"
)

// Driver is a scripted camera.Driver that records every native call.
type Driver struct {
	// Gate, when non-nil, is received from inside Open before it returns.
	Gate chan struct{}
	// Entered, when non-nil, receives the path each time Open starts.
	Entered chan string

	mu       sync.Mutex
	sizes    map[camera.Encoding][]resolution.Size
	rejected map[camera.Encoding]bool
	openErr  error
	calls    []string
	open     int
	maxOpen  int
	started  int
	live     *device
}

// NewDriver returns a driver offering common MJPEG and YUYV sizes.
func NewDriver() *Driver {
	return &Driver{
		sizes: map[camera.Encoding][]resolution.Size{
			camera.EncodingMJPEG: {{Width: 640, Height: 480}, {Width: 1280, Height: 720}, {Width: 1920, Height: 1080}, {Width: 3840, Height: 2160}},
			camera.EncodingYUYV:  {{Width: 640, Height: 480}, {Width: 1280, Height: 720}},
		},
		rejected: make(map[camera.Encoding]bool),
	}
}

// SetSizes replaces the sizes reported for an encoding.
func (d *Driver) SetSizes(enc camera.Encoding, sizes []resolution.Size) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sizes[enc] = sizes
}

// Reject makes Configure refuse every format of enc.
func (d *Driver) Reject(enc camera.Encoding) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rejected[enc] = true
}

// FailOpen makes subsequent Open calls fail with err.
func (d *Driver) FailOpen(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.openErr = err
}

// Calls returns the recorded native calls in order.
func (d *Driver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.calls))
	copy(out, d.calls)
	return out
}

// OpenDevices returns how many devices are open right now.
func (d *Driver) OpenDevices() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// MaxOpen returns the highest number of simultaneously open devices seen.
func (d *Driver) MaxOpen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maxOpen
}

// Starts returns how many times streaming was started.
func (d *Driver) Starts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

// EndStream ends the most recent stream as if the device stopped on its
// own, and reports err through the stream's ended callback. It returns
// false when nothing is streaming.
func (d *Driver) EndStream(err error) bool {
	d.mu.Lock()
	v := d.live
	if v == nil || !v.streaming {
		d.mu.Unlock()
		return false
	}
	v.streaming = false
	ended := v.ended
	v.ended = nil
	d.record("ended")
	d.mu.Unlock()

	if ended != nil {
		ended(err)
	}
	return true
}

func (d *Driver) record(format string, args ...any) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

// Open implements camera.Driver.
func (d *Driver) Open(path string) (camera.Device, error) {
	if d.Entered != nil {
		d.Entered <- path
	}
	if d.Gate != nil {
		<-d.Gate
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.openErr != nil {
		d.record("open %s failed", path)
		return nil, d.openErr
	}
	d.record("open %s", path)
	d.open++
	if d.open > d.maxOpen {
		d.maxOpen = d.open
	}
	return &device{driver: d, path: path}, nil
}

type device struct {
	driver    *Driver
	path      string
	streaming bool
	closed    bool
	ended     func(error)
}

func (v *device) SupportedSizes(enc camera.Encoding) ([]resolution.Size, error) {
	v.driver.mu.Lock()
	defer v.driver.mu.Unlock()
	return append([]resolution.Size(nil), v.driver.sizes[enc]...), nil
}

func (v *device) Configure(format camera.StreamFormat) error {
	d := v.driver
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rejected[format.Encoding] {
		d.record("configure %s rejected", format)
		return camera.ErrFormatRejected
	}
	d.record("configure %s", format)
	return nil
}

func (v *device) SetTarget(target surface.Target) error {
	d := v.driver
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("target %s", target.Name())
	return nil
}

func (v *device) StartStreaming(ended func(error)) error {
	d := v.driver
	d.mu.Lock()
	defer d.mu.Unlock()
	if v.closed {
		return fmt.Errorf("start on closed device %s", v.path)
	}
	v.streaming = true
	v.ended = ended
	d.live = v
	d.started++
	d.record("start")
	return nil
}

func (v *device) StopStreaming() error {
	d := v.driver
	d.mu.Lock()
	defer d.mu.Unlock()
	v.streaming = false
	v.ended = nil
	d.record("stop")
	return nil
}

func (v *device) Close() error {
	d := v.driver
	d.mu.Lock()
	defer d.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true
	d.open--
	d.record("close %s", v.path)
	return nil
}

// Target is a named render target.
type Target string

// Name implements surface.Target.
func (t Target) Name() string { return string(t) }
