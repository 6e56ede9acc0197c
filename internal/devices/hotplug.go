package devices

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/smazurov/camsession/internal/camera"
	"github.com/smazurov/camsession/internal/logging"
)

// defaultSettleDelay gives udev time to create the device node and apply
// permissions after a video4linux add event.
const defaultSettleDelay = time.Second

// HotplugOption configures a HotplugSource.
type HotplugOption func(*HotplugSource)

// WithScanner replaces the sysfs scanner.
func WithScanner(s *Scanner) HotplugOption {
	return func(h *HotplugSource) {
		h.scanner = s
	}
}

// WithSettleDelay sets the wait between a node add event and its connect.
func WithSettleDelay(d time.Duration) HotplugOption {
	return func(h *HotplugSource) {
		h.settle = d
	}
}

// WithLogger sets the source logger.
func WithLogger(logger logging.Logger) HotplugOption {
	return func(h *HotplugSource) {
		h.logger = logger
	}
}

func withMonitor(open func() (ueventMonitor, error)) HotplugOption {
	return func(h *HotplugSource) {
		h.openMonitor = open
	}
}

// HotplugSource turns kernel uevents into Listener calls.
//
// A USB video interface appearing attaches its camera. The primary video
// node appearing connects it with a fresh transport, and the node going
// away revokes that transport and disconnects. The USB device going away
// detaches. Cameras already present are reported when a listener registers.
type HotplugSource struct {
	logger      logging.Logger
	scanner     *Scanner
	settle      time.Duration
	openMonitor func() (ueventMonitor, error)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHotplugSource creates a source backed by the kernel netlink socket.
func NewHotplugSource(opts ...HotplugOption) *HotplugSource {
	h := &HotplugSource{
		logger:      logging.GetLogger("devices"),
		scanner:     DefaultScanner(),
		settle:      defaultSettleDelay,
		openMonitor: openNetlinkMonitor,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register starts delivering events to l.
func (h *HotplugSource) Register(l Listener) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		return ErrAlreadyRegistered
	}

	mon, err := h.openMonitor()
	if err != nil {
		return fmt.Errorf("failed to open uevent monitor: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.done = make(chan struct{})
	go h.run(ctx, mon, l, h.done)

	h.logger.Info("Hotplug monitoring started")
	return nil
}

// Unregister stops delivery and waits until no listener call is running.
// It must not be called from inside a Listener method.
func (h *HotplugSource) Unregister() {
	h.mu.Lock()
	cancel, done := h.cancel, h.done
	h.cancel, h.done = nil, nil
	h.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	h.logger.Info("Hotplug monitoring stopped")
}

// delivery holds the per-registration state owned by the run goroutine.
type delivery struct {
	listener Listener
	nodes    map[string]*camera.Transport
	attached map[camera.DeviceID]bool
}

func (h *HotplugSource) run(ctx context.Context, mon ueventMonitor, l Listener, done chan struct{}) {
	defer close(done)
	defer func() { _ = mon.Close() }()

	d := &delivery{
		listener: l,
		nodes:    make(map[string]*camera.Transport),
		attached: make(map[camera.DeviceID]bool),
	}

	events := make(chan Event, 32)
	go func() {
		if err := mon.Run(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
			h.logger.Error("Uevent monitor stopped", "error", err)
		}
	}()

	h.scanPresent(d)

	for ev := range events {
		h.handle(ctx, d, &ev)
	}
}

func (h *HotplugSource) scanPresent(d *delivery) {
	present, err := h.scanner.FindDevices()
	if err != nil {
		h.logger.Warn("Failed to list present cameras", "error", err)
		return
	}
	for _, info := range present {
		h.connect(d, info)
	}
	h.logger.Debug("Reported present cameras", "count", len(present))
}

func (h *HotplugSource) handle(ctx context.Context, d *delivery, ev *Event) {
	h.logger.Debug("Uevent", "action", ev.Action, "subsystem", ev.Subsystem, "devtype", ev.DevType, "kobj", ev.KObj)

	switch {
	case isVideoInterface(ev) && ev.Action == ActionAdd:
		h.attach(d, DeviceIDFromKObj(ev.KObj))

	case isUSBDevice(ev) && ev.Action == ActionRemove:
		h.detach(d, DeviceIDFromKObj(ev.KObj))

	case ev.Subsystem == SubsystemVideo4Linux && ev.Action == ActionAdd:
		node := nodeName(ev)
		if _, known := d.nodes[node]; known {
			return
		}
		if h.settle > 0 {
			select {
			case <-time.After(h.settle):
			case <-ctx.Done():
				return
			}
		}
		info, ok := h.scanner.Lookup(node)
		if !ok {
			h.logger.Debug("Ignoring non-primary video node", "node", node)
			return
		}
		h.connect(d, info)

	case ev.Subsystem == SubsystemVideo4Linux && ev.Action == ActionRemove:
		h.disconnect(d, nodeName(ev))
	}
}

func (h *HotplugSource) attach(d *delivery, id camera.DeviceID) {
	if d.attached[id] {
		return
	}
	d.attached[id] = true
	h.logger.Info("Camera attached", "device", id)
	d.listener.OnAttach(id)
}

func (h *HotplugSource) connect(d *delivery, info Info) {
	if _, known := d.nodes[info.Node]; known {
		return
	}
	h.attach(d, info.ID)

	tr := camera.NewTransport(info.ID, info.Path)
	d.nodes[info.Node] = tr
	h.logger.Info("Camera connected", "device", info.ID, "path", info.Path, "name", info.Name, "stable_id", info.StableID)
	d.listener.OnConnect(info.ID, tr)
}

func (h *HotplugSource) disconnect(d *delivery, node string) {
	tr, ok := d.nodes[node]
	if !ok {
		return
	}
	delete(d.nodes, node)
	tr.Revoke()
	h.logger.Info("Camera disconnected", "device", tr.Device(), "path", tr.Path())
	d.listener.OnDisconnect(tr.Device(), tr)
}

func (h *HotplugSource) detach(d *delivery, id camera.DeviceID) {
	if !d.attached[id] {
		return
	}
	// The node remove normally arrives first; make sure it did.
	for node, tr := range d.nodes {
		if tr.Device() == id {
			h.disconnect(d, node)
		}
	}
	delete(d.attached, id)
	h.logger.Info("Camera detached", "device", id)
	d.listener.OnDetach(id)
}
