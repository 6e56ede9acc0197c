package camera

import "sync"

// DeviceID identifies a physical device instance for as long as it stays
// plugged in. A replug may produce a different ID.
type DeviceID string

// Transport is the single-use capability needed to open a camera. The
// device event source creates one per connect and revokes it on disconnect.
type Transport struct {
	device DeviceID
	path   string

	mu      sync.Mutex
	claimed bool
	revoked bool
}

// NewTransport creates a transport for the device node at path.
func NewTransport(device DeviceID, path string) *Transport {
	return &Transport{device: device, path: path}
}

// Device returns the device the transport was granted for.
func (t *Transport) Device() DeviceID { return t.device }

// Path returns the device node path.
func (t *Transport) Path() string { return t.path }

// Revoke invalidates the transport. Safe to call more than once.
func (t *Transport) Revoke() {
	t.mu.Lock()
	t.revoked = true
	t.mu.Unlock()
}

// Valid reports whether the transport can still be claimed.
func (t *Transport) Valid() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.claimed && !t.revoked
}

// claim consumes the transport. Only the first claim of a live transport succeeds.
func (t *Transport) claim() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.claimed || t.revoked {
		return ErrTransportInvalid
	}
	t.claimed = true
	return nil
}
