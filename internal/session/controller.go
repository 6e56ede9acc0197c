package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/smazurov/camsession/internal/camera"
	"github.com/smazurov/camsession/internal/devices"
	"github.com/smazurov/camsession/internal/events"
	"github.com/smazurov/camsession/internal/logging"
	"github.com/smazurov/camsession/internal/metrics"
	"github.com/smazurov/camsession/internal/resolution"
	"github.com/smazurov/camsession/internal/surface"
)

// ErrTerminated is returned by operations on a closed controller.
var ErrTerminated = errors.New("session terminated")

var _ devices.Listener = (*Controller)(nil)

// Controller coordinates one camera, one render target and the user.
type Controller struct {
	driver         camera.Driver
	source         devices.Source
	bus            *events.Bus
	logger         logging.Logger
	cameraLogger   logging.Logger
	destroyTimeout time.Duration
	strict         bool
	worker         *worker

	mu           sync.Mutex
	state        State
	device       camera.DeviceID
	cam          *camera.Handle
	format       camera.StreamFormat
	tracker      surface.Tracker
	isActive     bool
	isPreviewing bool
	generation   uint64
	pending      camera.DeviceID
	families     []camera.Family
	preferred    resolution.Size
	closing      bool
}

// NewController creates an idle controller. It panics without a driver.
func NewController(opts *Options) *Controller {
	if opts == nil || opts.Driver == nil {
		panic("session: Options.Driver is required")
	}
	o := opts.withDefaults()

	c := &Controller{
		driver:         o.Driver,
		source:         o.Source,
		bus:            o.EventBus,
		logger:         o.Logger,
		cameraLogger:   o.CameraLogger,
		destroyTimeout: o.DestroyTimeout,
		strict:         o.Strict,
		worker:         newWorker(),
		state:          StateIdle,
		families:       append([]camera.Family(nil), o.Families...),
		preferred:      o.PreferredSize,
	}
	metrics.SetState(string(StateIdle))
	return c
}

// Register subscribes to the device source, if any.
func (c *Controller) Register() error {
	c.mu.Lock()
	closing := c.closing
	c.mu.Unlock()
	if closing {
		return ErrTerminated
	}
	if c.source == nil {
		return nil
	}
	return c.source.Register(c)
}

// Unregister stops device notifications. The open camera, if any, stays.
func (c *Controller) Unregister() {
	if c.source != nil {
		c.source.Unregister()
	}
}

// OnAttach implements devices.Listener. It has no effect on the session.
func (c *Controller) OnAttach(id camera.DeviceID) {
	c.logger.Info("Camera attached", "device", id)
	c.publishDevice(id, events.ActionAttached)
}

// OnDetach implements devices.Listener. It has no effect on the session.
func (c *Controller) OnDetach(id camera.DeviceID) {
	c.logger.Info("Camera detached", "device", id)
	c.publishDevice(id, events.ActionDetached)
}

// OnConnect implements devices.Listener. Any open camera is destroyed
// before the new one is opened.
func (c *Controller) OnConnect(id camera.DeviceID, tr *camera.Transport) {
	c.publishDevice(id, events.ActionConnected)

	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		c.logger.Debug("Ignoring connect after teardown", "device", id)
		return
	}
	c.generation++
	gen := c.generation
	c.pending = id
	c.mu.Unlock()

	c.logger.Info("Camera connected", "device", id, "path", tr.Path())
	c.worker.dispatch(func() { c.connect(gen, id, tr) })
}

// OnDisconnect implements devices.Listener. A connect still in flight for
// the device is abandoned; an open camera for it is destroyed.
func (c *Controller) OnDisconnect(id camera.DeviceID, tr *camera.Transport) {
	if tr != nil {
		tr.Revoke()
	}
	c.publishDevice(id, events.ActionDisconnected)

	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return
	}
	if c.pending == id {
		c.generation++
		c.pending = ""
	}
	c.mu.Unlock()

	c.logger.Info("Camera disconnected", "device", id)
	c.worker.dispatch(func() { c.disconnect(id) })
}

// OnTargetCreated records a new render target. It is not usable until a
// non-zero size is reported.
func (c *Controller) OnTargetCreated(t surface.Target) {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return
	}
	replacing := c.tracker.Target() != nil
	c.mu.Unlock()
	if replacing {
		c.OnTargetDestroyed()
	}

	c.mu.Lock()
	c.tracker.Created(t)
	c.mu.Unlock()
	c.logger.Debug("Render target created", "target", targetName(t))
}

// OnTargetResized records the target size and starts the preview when
// both camera and target are ready.
func (c *Controller) OnTargetResized(width, height int) {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return
	}
	c.tracker.Resized(width, height)
	ready := c.tracker.Ready()
	c.mu.Unlock()

	c.logger.Debug("Render target resized", "width", width, "height", height, "ready", ready)
	if ready {
		c.worker.dispatch(c.startPreview)
	}
}

// OnTargetDestroyed stops streaming into the target and drops it. It
// returns only after the camera no longer references the target.
func (c *Controller) OnTargetDestroyed() {
	if c.worker.dispatchWait(c.releaseTarget) {
		return
	}
	// Worker already gone; teardown destroyed the camera.
	c.mu.Lock()
	c.tracker.Destroyed()
	c.mu.Unlock()
}

// RequestTeardown is the user stop command. It abandons any pending
// connect and destroys the open camera.
func (c *Controller) RequestTeardown() {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return
	}
	c.generation++
	c.pending = ""
	c.mu.Unlock()

	c.logger.Info("Teardown requested")
	c.worker.dispatch(c.stopSession)
}

// RequestDevice is the single UI toggle: with a camera open it tears the
// session down, otherwise it asks the host to show its device picker.
func (c *Controller) RequestDevice() {
	if c.IsOpen() {
		c.RequestTeardown()
		return
	}
	c.logger.Info("Device selection requested")
	c.publish(events.DeviceSelectionRequestedEvent{Timestamp: now()})
}

// IsOpen reports whether a camera is opening or open.
func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateConnecting, StateBound, StatePreviewing:
		return true
	default:
		return false
	}
}

// Snapshot returns a consistent copy of the session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Flush waits until every job queued before the call has run.
func (c *Controller) Flush() {
	c.worker.dispatchWait(func() {})
}

// SetPreferredSize changes the target size used by the next connect.
func (c *Controller) SetPreferredSize(size resolution.Size) error {
	if !size.Valid() {
		return fmt.Errorf("invalid preferred size %s", size)
	}
	c.mu.Lock()
	c.preferred = size
	c.mu.Unlock()
	c.logger.Info("Preferred size changed", "size", size.String())
	return nil
}

// SetFamilies changes the negotiation order used by the next connect.
func (c *Controller) SetFamilies(families []camera.Family) {
	c.mu.Lock()
	c.families = append([]camera.Family(nil), families...)
	c.mu.Unlock()
}

// Close tears the session down for good: it unregisters from the device
// source, destroys the camera, drops the target and stops the worker.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return
	}
	c.closing = true
	c.generation++
	c.pending = ""
	c.mu.Unlock()

	c.Unregister()
	c.worker.dispatch(c.terminate)
	c.worker.close()
}

// The methods below run on the worker.

func (c *Controller) connect(gen uint64, id camera.DeviceID, tr *camera.Transport) {
	c.mu.Lock()
	if c.closing || c.generation != gen {
		c.mu.Unlock()
		c.logger.Debug("Connect superseded before open", "device", id)
		return
	}
	old := c.releaseLocked()
	c.device = id
	c.setStateLocked(StateConnecting)
	families, preferred := c.families, c.preferred
	c.mu.Unlock()

	if old != nil {
		c.logger.Info("Closing previous camera", "device", old.Device())
		c.destroy(old)
	}

	h, err := camera.Open(c.driver, tr,
		camera.WithLogger(c.cameraLogger),
		camera.WithDestroyTimeout(c.destroyTimeout),
		camera.WithStreamEnded(c.onStreamEnded))
	if h.Opened() {
		metrics.ObserveCameraOpened()
	}
	var format camera.StreamFormat
	if err == nil && !c.superseded(gen) {
		format, err = h.Negotiate(families, preferred)
	}

	c.mu.Lock()
	current := !c.closing && c.generation == gen
	if err != nil || !current {
		c.device = ""
		c.setStateLocked(StateIdle)
		c.mu.Unlock()

		c.destroy(h)
		if !current {
			c.logger.Info("Connect abandoned while opening", "device", id)
			return
		}
		c.reportConnectFailure(id, err)
		return
	}
	c.cam = h
	c.format = format
	c.setStateLocked(StateBound)
	c.mu.Unlock()

	c.startPreview()
}

// superseded reports whether a newer connect, disconnect or teardown
// arrived after the connect of generation gen.
func (c *Controller) superseded(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closing || c.generation != gen
}

func (c *Controller) startPreview() {
	c.mu.Lock()
	if c.closing || c.state != StateBound || c.cam == nil || !c.tracker.Ready() {
		c.mu.Unlock()
		return
	}
	cam, target := c.cam, c.tracker.Target()
	c.mu.Unlock()

	if err := cam.Bind(target); err != nil {
		c.startFailed(cam.Device(), err)
		return
	}
	if err := cam.Start(); err != nil {
		c.startFailed(cam.Device(), err)
		return
	}

	c.mu.Lock()
	c.isActive, c.isPreviewing = true, true
	c.setStateLocked(StatePreviewing)
	c.mu.Unlock()
}

// onStreamEnded runs on the device's goroutine when a stream stops
// without a stop request.
func (c *Controller) onStreamEnded(h *camera.Handle, err error) {
	metrics.ObserveStreamEnded()
	c.worker.dispatch(func() { c.streamEnded(h, err) })
}

// streamEnded drops a preview whose stream died back to Bound. A new
// target or resize restarts it.
func (c *Controller) streamEnded(h *camera.Handle, err error) {
	c.mu.Lock()
	if c.cam != h || c.state != StatePreviewing {
		c.mu.Unlock()
		return
	}
	c.isActive, c.isPreviewing = false, false
	c.setStateLocked(StateBound)
	c.mu.Unlock()

	if stopErr := h.Stop(); stopErr != nil {
		c.logger.Warn("Failed to stop ended stream", "device", h.Device(), "error", stopErr)
	}
	c.logger.Warn("Preview stream ended", "device", h.Device(), "error", err)

	msg := "stream ended"
	if err != nil {
		msg = err.Error()
	}
	c.publish(events.SessionErrorEvent{
		DeviceID:  string(h.Device()),
		Reason:    events.ReasonStreamEnded,
		Error:     msg,
		Timestamp: now(),
	})
}

func (c *Controller) releaseTarget() {
	c.mu.Lock()
	cam := c.cam
	c.isActive, c.isPreviewing = false, false
	c.mu.Unlock()

	if cam != nil {
		if err := cam.Stop(); err != nil {
			c.logger.Warn("Failed to stop camera for target release", "device", cam.Device(), "error", err)
		}
		if err := cam.Unbind(); err != nil {
			c.contractViolation("unbind", err)
		}
	}

	c.mu.Lock()
	if c.state == StatePreviewing {
		c.setStateLocked(StateBound)
	}
	c.tracker.Destroyed()
	c.mu.Unlock()
	c.logger.Debug("Render target released")
}

func (c *Controller) disconnect(id camera.DeviceID) {
	c.mu.Lock()
	if c.cam == nil || c.device != id {
		c.mu.Unlock()
		return
	}
	cam := c.releaseLocked()
	c.device = ""
	c.setStateLocked(StateIdle)
	c.mu.Unlock()

	c.destroy(cam)
	c.logger.Info("Camera closed after disconnect", "device", id)
}

func (c *Controller) stopSession() {
	c.mu.Lock()
	cam := c.releaseLocked()
	c.device = ""
	c.setStateLocked(StateIdle)
	c.mu.Unlock()

	if cam != nil {
		c.destroy(cam)
		c.logger.Info("Camera closed on request", "device", cam.Device())
	}
}

func (c *Controller) terminate() {
	c.mu.Lock()
	cam := c.releaseLocked()
	c.device = ""
	c.setStateLocked(StateTerminated)
	c.mu.Unlock()

	// The target stays referenced until the camera has stopped.
	c.destroy(cam)

	c.mu.Lock()
	c.tracker.Destroyed()
	c.mu.Unlock()
	c.logger.Info("Session terminated")
}

// releaseLocked takes the camera out of the session so it can be destroyed
// outside the lock. Caller holds c.mu.
func (c *Controller) releaseLocked() *camera.Handle {
	cam := c.cam
	c.cam = nil
	c.format = camera.StreamFormat{}
	c.isActive, c.isPreviewing = false, false
	return cam
}

func (c *Controller) destroy(h *camera.Handle) {
	if h == nil {
		return
	}
	opened := h.Opened()
	h.Destroy()
	if opened {
		metrics.ObserveCameraDestroyed()
	}
}

// setStateLocked moves to state to. Caller holds c.mu.
func (c *Controller) setStateLocked(to State) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	metrics.ObserveTransition(string(from), string(to))

	ev := events.SessionStateChangedEvent{
		DeviceID:  string(c.device),
		From:      string(from),
		To:        string(to),
		Timestamp: now(),
	}
	if c.cam != nil {
		ev.Format = c.format.String()
	}
	c.publish(ev)
	c.logger.Info("Session state changed", "from", from, "to", to, "device", c.device)
}

func (c *Controller) startFailed(id camera.DeviceID, err error) {
	if camera.IsContractViolation(err) {
		c.contractViolation("start preview", err)
		return
	}
	metrics.ObserveConnectFailure(events.ReasonStartFailed)
	c.logger.Warn("Failed to start preview", "device", id, "error", err)
	c.publish(events.SessionErrorEvent{
		DeviceID:  string(id),
		Reason:    events.ReasonStartFailed,
		Error:     err.Error(),
		Timestamp: now(),
	})
}

func (c *Controller) reportConnectFailure(id camera.DeviceID, err error) {
	reason := failureReason(err)
	metrics.ObserveConnectFailure(reason)
	c.logger.Warn("Camera connect failed", "device", id, "reason", reason, "error", err)
	c.publish(events.SessionErrorEvent{
		DeviceID:  string(id),
		Reason:    reason,
		Error:     err.Error(),
		Timestamp: now(),
	})
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, camera.ErrTransportInvalid):
		return events.ReasonTransportInvalid
	case errors.Is(err, camera.ErrNoCompatibleFormat):
		return events.ReasonNoCompatibleFormat
	default:
		return events.ReasonOpenFailed
	}
}

// contractViolation reports a call sequence the controller should never
// produce.
func (c *Controller) contractViolation(op string, err error) {
	if c.strict {
		panic(fmt.Sprintf("session: contract violation in %s: %v", op, err))
	}
	c.logger.Error("Contract violation", "op", op, "error", err)
}

func (c *Controller) publishDevice(id camera.DeviceID, action string) {
	metrics.ObserveDeviceEvent(action)
	c.publish(events.DeviceEvent{DeviceID: string(id), Action: action, Timestamp: now()})
}

func (c *Controller) publish(ev events.Event) {
	if c.bus != nil {
		c.bus.Publish(ev)
	}
}

func targetName(t surface.Target) string {
	if t == nil {
		return ""
	}
	return t.Name()
}

func now() string {
	return time.Now().Format(time.RFC3339)
}
