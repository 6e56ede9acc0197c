package devices

import (
	"sync"

	"github.com/smazurov/camsession/internal/camera"
)

// StaticSource reports one fixed device node as attached and connected on
// Register. It serves hosts without hotplug support.
type StaticSource struct {
	id   camera.DeviceID
	path string

	mu        sync.Mutex
	listener  Listener
	transport *camera.Transport
}

// NewStaticSource creates a source for the node at path.
func NewStaticSource(id camera.DeviceID, path string) *StaticSource {
	return &StaticSource{id: id, path: path}
}

// Register reports the device to l.
func (s *StaticSource) Register(l Listener) error {
	s.mu.Lock()
	if s.listener != nil {
		s.mu.Unlock()
		return ErrAlreadyRegistered
	}
	s.listener = l
	s.transport = camera.NewTransport(s.id, s.path)
	tr := s.transport
	s.mu.Unlock()

	l.OnAttach(s.id)
	l.OnConnect(s.id, tr)
	return nil
}

// Unregister stops reporting. The last transport stays valid.
func (s *StaticSource) Unregister() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = nil
}

// Remove simulates the device going away: disconnect then detach.
func (s *StaticSource) Remove() {
	s.mu.Lock()
	l, tr := s.listener, s.transport
	s.transport = nil
	s.mu.Unlock()

	if l == nil || tr == nil {
		return
	}
	tr.Revoke()
	l.OnDisconnect(s.id, tr)
	l.OnDetach(s.id)
}
