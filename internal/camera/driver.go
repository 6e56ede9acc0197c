package camera

import (
	"github.com/smazurov/camsession/internal/resolution"
	"github.com/smazurov/camsession/internal/surface"
)

// Driver opens native camera devices.
type Driver interface {
	// Open opens the device node. It may block on device I/O.
	Open(path string) (Device, error)
}

// Device is an opened native camera. Calls are never concurrent.
type Device interface {
	// SupportedSizes lists frame sizes for an encoding in device order.
	SupportedSizes(enc Encoding) ([]resolution.Size, error)
	// Configure applies a format. A format the device refuses must be
	// reported as ErrFormatRejected.
	Configure(format StreamFormat) error
	// SetTarget attaches the output sink frames are written to.
	SetTarget(target surface.Target) error
	// StartStreaming begins writing frames to the target. If streaming
	// ends without StopStreaming, ended is called once, never from the
	// goroutine that called StartStreaming.
	StartStreaming(ended func(err error)) error
	StopStreaming() error
	// Close releases the device node and everything attached to it.
	Close() error
}
