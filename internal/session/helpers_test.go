package session

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/smazurov/camsession/internal/camera"
	"github.com/smazurov/camsession/internal/camera/cameratest"
	"github.com/smazurov/camsession/internal/events"
)

const (
	camA camera.DeviceID = "usb-cam-a"
	camB camera.DeviceID = "usb-cam-b"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestController(t *testing.T, drv camera.Driver, mutate ...func(*Options)) (*Controller, *events.Bus) {
	t.Helper()
	bus := events.New()
	opts := &Options{
		Driver:         drv,
		EventBus:       bus,
		Logger:         discardLogger(),
		CameraLogger:   discardLogger(),
		DestroyTimeout: time.Second,
		Strict:         true,
	}
	for _, m := range mutate {
		m(opts)
	}
	c := NewController(opts)
	t.Cleanup(c.Close)
	return c, bus
}

// readyTarget gives the controller a usable render target.
func readyTarget(c *Controller, name string) {
	c.OnTargetCreated(cameratest.Target(name))
	c.OnTargetResized(1280, 720)
}

func connect(c *Controller, id camera.DeviceID, path string) *camera.Transport {
	tr := camera.NewTransport(id, path)
	c.OnConnect(id, tr)
	return tr
}

func subscribe[T events.Event](t *testing.T, bus *events.Bus) <-chan any {
	t.Helper()
	ch := make(chan any, 64)
	unsub := events.SubscribeToChannel[T](bus, ch)
	t.Cleanup(unsub)
	return ch
}

func waitEvent[T any](t *testing.T, ch <-chan any) T {
	t.Helper()
	select {
	case ev := <-ch:
		typed, ok := ev.(T)
		if !ok {
			t.Fatalf("unexpected event %T", ev)
		}
		return typed
	case <-time.After(2 * time.Second):
		var zero T
		t.Fatalf("timed out waiting for %T", zero)
		return zero
	}
}

func checkInvariants(t *testing.T, s Snapshot) {
	t.Helper()
	if s.IsPreviewing && !s.IsActive {
		t.Errorf("previewing without active: %+v", s)
	}
	if s.IsActive && (!s.HasCamera || !s.Streaming) {
		t.Errorf("active without a streaming camera: %+v", s)
	}
}

func indexOf(calls []string, want string) int {
	for i, c := range calls {
		if c == want {
			return i
		}
	}
	return -1
}
