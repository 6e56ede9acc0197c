package camera

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smazurov/camsession/internal/logging"
	"github.com/smazurov/camsession/internal/metrics"
	"github.com/smazurov/camsession/internal/resolution"
	"github.com/smazurov/camsession/internal/surface"
)

const defaultDestroyTimeout = 5 * time.Second

// Option configures a Handle.
type Option func(*Handle)

// WithLogger sets the handle logger.
func WithLogger(logger logging.Logger) Option {
	return func(h *Handle) {
		h.logger = logger
	}
}

// WithDestroyTimeout bounds how long Destroy waits for the native close.
// Default is 5s.
func WithDestroyTimeout(d time.Duration) Option {
	return func(h *Handle) {
		if d > 0 {
			h.destroyTimeout = d
		}
	}
}

// WithStreamEnded sets the callback run when streaming stops on its own.
// It runs on the goroutine the device reports from, after the handle has
// cleared its streaming flag.
func WithStreamEnded(fn func(h *Handle, err error)) Option {
	return func(h *Handle) {
		h.onEnded = fn
	}
}

// Handle owns one opened camera and its streaming state.
//
// Handles are not safe for concurrent mutation; the session controller
// serializes every call. Streaming may be read from any goroutine.
type Handle struct {
	device         DeviceID
	dev            Device
	logger         logging.Logger
	destroyTimeout time.Duration
	onEnded        func(*Handle, error)

	mu         sync.Mutex
	opened     bool
	format     StreamFormat
	configured bool
	target     surface.Target
	disposed   bool
	streamSeq  uint64
	streaming  atomic.Bool
}

// Open claims the transport and opens the device behind it.
//
// The returned Handle is never nil. On error it holds whatever was
// partially acquired and the caller must still Destroy it.
func Open(driver Driver, transport *Transport, opts ...Option) (*Handle, error) {
	h := &Handle{
		device:         transport.Device(),
		logger:         slog.Default(),
		destroyTimeout: defaultDestroyTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}

	if err := transport.claim(); err != nil {
		return h, &OpError{Op: "open", Device: h.device, Err: err}
	}

	dev, err := driver.Open(transport.Path())
	if err != nil {
		return h, &OpError{Op: "open", Device: h.device, Err: fmt.Errorf("%w: %w", ErrOpen, err)}
	}
	h.dev = dev
	h.opened = true
	h.logger.Info("Camera opened", "device", h.device, "path", transport.Path())
	return h, nil
}

// Device returns the device this handle was opened for.
func (h *Handle) Device() DeviceID { return h.device }

// Streaming reports whether the camera is currently streaming.
func (h *Handle) Streaming() bool { return h.streaming.Load() }

// Format returns the negotiated format.
func (h *Handle) Format() (StreamFormat, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.format, h.configured
}

// Opened reports whether the native device was ever opened.
func (h *Handle) Opened() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.opened
}

// Disposed reports whether Destroy has run.
func (h *Handle) Disposed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.disposed
}

// Negotiate picks and applies a format, trying families in order.
//
// For each family the closest supported size to target is selected. If
// the device rejects it with ErrFormatRejected the next family is tried.
// A family with no sizes ends negotiation without falling back. On failure
// the handle stays open but unconfigured.
func (h *Handle) Negotiate(families []Family, target resolution.Size) (StreamFormat, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.disposed {
		return StreamFormat{}, &OpError{Op: "negotiate", Device: h.device, Err: ErrDisposed}
	}
	if h.dev == nil {
		return StreamFormat{}, &OpError{Op: "negotiate", Device: h.device, Err: ErrOpen}
	}

	var lastErr error
	for _, fam := range families {
		sizes, err := h.dev.SupportedSizes(fam.Encoding)
		if err != nil {
			return StreamFormat{}, &OpError{Op: "negotiate", Device: h.device,
				Err: fmt.Errorf("%w: list %s sizes: %w", ErrNoCompatibleFormat, fam.Encoding, err)}
		}

		best, ok := resolution.Closest(sizes, target)
		if !ok {
			return StreamFormat{}, &OpError{Op: "negotiate", Device: h.device,
				Err: fmt.Errorf("%w: no %s sizes", ErrNoCompatibleFormat, fam.Encoding)}
		}

		format := StreamFormat{Encoding: fam.Encoding, Size: best, MaxFPS: fam.MaxFPS}
		err = h.dev.Configure(format)
		if err == nil {
			h.format = format
			h.configured = true
			h.logger.Info("Format negotiated", "device", h.device, "format", format.String(),
				"area_error", resolution.Error(best, target))
			return format, nil
		}
		if !errors.Is(err, ErrFormatRejected) {
			return StreamFormat{}, &OpError{Op: "negotiate", Device: h.device,
				Err: fmt.Errorf("%w: configure %s: %w", ErrNoCompatibleFormat, format, err)}
		}
		h.logger.Warn("Format rejected, trying next family", "device", h.device, "format", format.String())
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errors.New("no encoding families")
	}
	return StreamFormat{}, &OpError{Op: "negotiate", Device: h.device,
		Err: fmt.Errorf("%w: %w", ErrNoCompatibleFormat, lastErr)}
}

// Bind attaches the render target. Rebinding while stopped replaces it.
func (h *Handle) Bind(target surface.Target) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case h.disposed:
		return &OpError{Op: "bind", Device: h.device, Err: ErrDisposed}
	case h.streaming.Load():
		return &OpError{Op: "bind", Device: h.device, Err: ErrAlreadyActive}
	case target == nil:
		return &OpError{Op: "bind", Device: h.device, Err: ErrNotBound}
	}

	if err := h.dev.SetTarget(target); err != nil {
		return &OpError{Op: "bind", Device: h.device, Err: err}
	}
	h.target = target
	return nil
}

// Unbind drops the render target reference. The handle must be stopped.
func (h *Handle) Unbind() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.disposed {
		return &OpError{Op: "unbind", Device: h.device, Err: ErrDisposed}
	}
	if h.streaming.Load() {
		return &OpError{Op: "unbind", Device: h.device, Err: ErrAlreadyActive}
	}
	h.target = nil
	return nil
}

// Start begins streaming to the bound target.
func (h *Handle) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case h.disposed:
		return &OpError{Op: "start", Device: h.device, Err: ErrDisposed}
	case !h.configured:
		return &OpError{Op: "start", Device: h.device, Err: ErrNotConfigured}
	case h.target == nil:
		return &OpError{Op: "start", Device: h.device, Err: ErrNotBound}
	case h.streaming.Load():
		return &OpError{Op: "start", Device: h.device, Err: ErrAlreadyActive}
	}

	h.streamSeq++
	seq := h.streamSeq
	if err := h.dev.StartStreaming(func(err error) { h.streamEnded(seq, err) }); err != nil {
		return &OpError{Op: "start", Device: h.device, Err: err}
	}
	h.streaming.Store(true)
	h.logger.Info("Streaming started", "device", h.device, "format", h.format.String(), "target", h.target.Name())
	return nil
}

// streamEnded handles the device reporting that stream seq stopped on its
// own. Reports for an older stream or a stopped handle are ignored.
func (h *Handle) streamEnded(seq uint64, err error) {
	h.mu.Lock()
	if h.disposed || seq != h.streamSeq || !h.streaming.Load() {
		h.mu.Unlock()
		return
	}
	h.streaming.Store(false)
	onEnded := h.onEnded
	h.mu.Unlock()

	h.logger.Warn("Streaming ended unexpectedly", "device", h.device, "error", err)
	if onEnded != nil {
		onEnded(h, err)
	}
}

// Stop halts streaming. Stopping a stopped handle is a no-op.
func (h *Handle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.disposed {
		return &OpError{Op: "stop", Device: h.device, Err: ErrDisposed}
	}
	return h.stopLocked()
}

func (h *Handle) stopLocked() error {
	if !h.streaming.Load() {
		return nil
	}
	err := h.dev.StopStreaming()
	h.streaming.Store(false)
	if err != nil {
		h.logger.Warn("Stop streaming reported an error", "device", h.device, "error", err)
		return &OpError{Op: "stop", Device: h.device, Err: err}
	}
	h.logger.Info("Streaming stopped", "device", h.device)
	return nil
}

// Destroy stops streaming and releases the device. It is idempotent and
// returns after at most the destroy timeout even if the native close hangs.
func (h *Handle) Destroy() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.disposed {
		return
	}
	h.disposed = true
	h.configured = false

	if h.dev == nil {
		h.target = nil
		return
	}
	// The device may write to the target until stopped.
	_ = h.stopLocked()
	h.target = nil

	dev := h.dev
	h.dev = nil
	done := make(chan error, 1)
	go func() {
		done <- dev.Close()
	}()

	timer := time.NewTimer(h.destroyTimeout)
	defer timer.Stop()
	select {
	case err := <-done:
		if err != nil {
			h.logger.Warn("Camera close reported an error", "device", h.device, "error", err)
		}
	case <-timer.C:
		h.logger.Error("Camera close timed out, abandoning device", "device", h.device, "timeout", h.destroyTimeout)
		metrics.ObserveCloseAbandoned()
		go h.awaitAbandoned(done)
	}
	h.logger.Info("Camera destroyed", "device", h.device)
}

// awaitAbandoned logs when a timed out close finally returns. Until then
// the node may still be held and the next open can fail with busy.
func (h *Handle) awaitAbandoned(done <-chan error) {
	err := <-done
	metrics.ObserveAbandonedCloseFinished()
	h.logger.Warn("Abandoned camera close finished", "device", h.device, "error", err)
}
