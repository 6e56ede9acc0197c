package systemd

import (
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/smazurov/camsession/internal/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// listen binds a datagram socket and points NOTIFY_SOCKET at it.
func listen(t *testing.T) *net.UnixConn {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notify.sock")
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		t.Skipf("unixgram socket unavailable: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	t.Setenv("NOTIFY_SOCKET", path)
	return conn
}

func read(t *testing.T, conn *net.UnixConn) string {
	t.Helper()
	buf := make([]byte, 512)
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatal(err)
	}
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read notification: %v", err)
	}
	return string(buf[:n])
}

func TestNotifierMessages(t *testing.T) {
	conn := listen(t)
	n := NewNotifier(testLogger())

	n.Ready()
	if got := read(t, conn); got != "READY=1" {
		t.Errorf("Ready() sent %q", got)
	}
	n.Status("idle")
	if got := read(t, conn); got != "STATUS=idle" {
		t.Errorf("Status() sent %q", got)
	}
	n.Stopping()
	if got := read(t, conn); got != "STOPPING=1" {
		t.Errorf("Stopping() sent %q", got)
	}
}

func TestNotifierFollowsSessionState(t *testing.T) {
	conn := listen(t)
	bus := events.New()
	n := NewNotifier(testLogger())
	n.Follow(bus)
	defer n.Unfollow()

	bus.Publish(events.SessionStateChangedEvent{DeviceID: "1-1.2", From: "bound", To: "previewing"})
	if got := read(t, conn); got != "STATUS=previewing (1-1.2)" {
		t.Errorf("status = %q", got)
	}
}

func TestNotifierWithoutSocket(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	n := NewNotifier(testLogger())
	n.Ready()
	n.Unfollow()
}
