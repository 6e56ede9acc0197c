// Package surface tracks the render target a camera streams into.
package surface

// Target is an output sink owned by the platform. The tracker and the
// camera only hold non-owning references to it.
type Target interface {
	Name() string
}

// Tracker records whether a render target exists and is usable.
//
// It has no lock of its own. The session controller calls it only from
// inside its serialization domain.
type Tracker struct {
	target Target
	width  int
	height int
	valid  bool
}

// Created records a new target. Its size is unknown until Resized.
func (t *Tracker) Created(target Target) {
	t.target = target
	t.width, t.height = 0, 0
	t.valid = target != nil
}

// Resized records the target size. A zero dimension means not ready.
func (t *Tracker) Resized(width, height int) {
	t.width, t.height = width, height
}

// Destroyed invalidates and drops the target reference.
func (t *Tracker) Destroyed() {
	t.target = nil
	t.width, t.height = 0, 0
	t.valid = false
}

// Target returns the current target, or nil when none is valid.
func (t *Tracker) Target() Target {
	if !t.valid {
		return nil
	}
	return t.target
}

// Size returns the last reported size.
func (t *Tracker) Size() (width, height int) {
	return t.width, t.height
}

// Ready reports whether a valid target with a non-zero size is present.
func (t *Tracker) Ready() bool {
	return t.valid && t.target != nil && t.width > 0 && t.height > 0
}
