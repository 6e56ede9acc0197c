// Package systemd reports service readiness and session status to the
// service manager over the sd_notify protocol.
package systemd

import (
	"fmt"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/smazurov/camsession/internal/events"
	"github.com/smazurov/camsession/internal/logging"
)

// Notifier sends sd_notify messages. Without NOTIFY_SOCKET every call is a
// no-op.
type Notifier struct {
	logger logging.Logger
	unsub  func()
}

// NewNotifier creates a notifier.
func NewNotifier(logger logging.Logger) *Notifier {
	return &Notifier{logger: logger}
}

// Ready tells the service manager startup finished.
func (n *Notifier) Ready() {
	n.send(daemon.SdNotifyReady)
}

// Stopping tells the service manager shutdown began.
func (n *Notifier) Stopping() {
	n.send(daemon.SdNotifyStopping)
}

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(status string) {
	n.send("STATUS=" + status)
}

// Follow mirrors session state changes into the status line until
// Unfollow.
func (n *Notifier) Follow(bus *events.Bus) {
	n.unsub = bus.Subscribe(func(e events.SessionStateChangedEvent) {
		if e.DeviceID == "" {
			n.Status(e.To)
			return
		}
		n.Status(fmt.Sprintf("%s (%s)", e.To, e.DeviceID))
	})
}

// Unfollow stops mirroring state changes.
func (n *Notifier) Unfollow() {
	if n.unsub != nil {
		n.unsub()
		n.unsub = nil
	}
}

func (n *Notifier) send(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		n.logger.Warn("sd_notify failed", "state", state, "error", err)
		return
	}
	if sent {
		n.logger.Debug("sd_notify sent", "state", state)
	}
}
