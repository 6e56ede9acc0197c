package session

import "github.com/smazurov/camsession/internal/camera"

// State is the controller lifecycle state.
type State string

// Controller states.
const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateBound      State = "bound"
	StatePreviewing State = "previewing"
	StateTerminated State = "terminated"
)

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	State        State
	Device       camera.DeviceID
	HasCamera    bool
	Streaming    bool
	IsActive     bool
	IsPreviewing bool
	Format       camera.StreamFormat
	Target       string
	TargetWidth  int
	TargetHeight int
	TargetReady  bool
}

// snapshotLocked builds a Snapshot. Caller holds c.mu.
func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		State:        c.state,
		Device:       c.device,
		HasCamera:    c.cam != nil,
		IsActive:     c.isActive,
		IsPreviewing: c.isPreviewing,
		TargetReady:  c.tracker.Ready(),
	}
	if c.cam != nil {
		s.Streaming = c.cam.Streaming()
		s.Format = c.format
	}
	// A stream the device ended is not active even before the worker
	// catches up.
	s.IsActive = s.IsActive && s.Streaming
	s.IsPreviewing = s.IsPreviewing && s.IsActive
	s.TargetWidth, s.TargetHeight = c.tracker.Size()
	if t := c.tracker.Target(); t != nil {
		s.Target = t.Name()
	}
	return s
}
