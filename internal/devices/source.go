// Package devices reports camera plug, permission and unplug events to a
// Listener, and discovers capture nodes already present on the system.
package devices

import (
	"errors"

	"github.com/smazurov/camsession/internal/camera"
)

// ErrAlreadyRegistered is returned by Register while a listener is active.
var ErrAlreadyRegistered = errors.New("device source already registered")

// Listener receives device notifications. All calls for one source are
// made from a single goroutine, in the order the events happened.
type Listener interface {
	// OnAttach reports a camera was plugged in. Informational.
	OnAttach(id camera.DeviceID)
	// OnConnect reports a usable camera. The transport stays valid until
	// the matching OnDisconnect.
	OnConnect(id camera.DeviceID, transport *camera.Transport)
	// OnDisconnect reports the camera went away. The transport has
	// already been revoked.
	OnDisconnect(id camera.DeviceID, transport *camera.Transport)
	// OnDetach reports the camera was unplugged. Informational.
	OnDetach(id camera.DeviceID)
}

// Source delivers device notifications to one listener at a time.
// Register and Unregister may be called repeatedly.
type Source interface {
	Register(l Listener) error
	Unregister()
}
