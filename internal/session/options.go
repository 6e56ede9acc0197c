package session

import (
	"time"

	"github.com/smazurov/camsession/internal/camera"
	"github.com/smazurov/camsession/internal/devices"
	"github.com/smazurov/camsession/internal/events"
	"github.com/smazurov/camsession/internal/logging"
	"github.com/smazurov/camsession/internal/resolution"
)

// DefaultPreferredSize is the capture size the selector aims for.
var DefaultPreferredSize = resolution.Size{Width: 1920, Height: 1080}

// Options configures a Controller.
type Options struct {
	// Driver opens native cameras. Required.
	Driver camera.Driver
	// Source delivers device notifications. Optional; without it the host
	// calls the Listener methods itself.
	Source devices.Source
	// EventBus receives state changes and non-fatal errors. Optional.
	EventBus *events.Bus
	// Logger defaults to the "session" module logger.
	Logger logging.Logger
	// CameraLogger defaults to the "camera" module logger.
	CameraLogger logging.Logger
	// Families is the format negotiation order. Defaults to MJPEG then YUYV.
	Families []camera.Family
	// PreferredSize defaults to DefaultPreferredSize.
	PreferredSize resolution.Size
	// DestroyTimeout bounds each camera close.
	DestroyTimeout time.Duration
	// Strict makes contract violations panic instead of logging.
	Strict bool
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.Logger == nil {
		out.Logger = logging.GetLogger("session")
	}
	if out.CameraLogger == nil {
		out.CameraLogger = logging.GetLogger("camera")
	}
	if out.Families == nil {
		out.Families = camera.DefaultFamilies()
	}
	if !out.PreferredSize.Valid() {
		out.PreferredSize = DefaultPreferredSize
	}
	return out
}
