package devices

import (
	"bytes"
	"path"
	"strings"

	"github.com/smazurov/camsession/internal/camera"
)

// Kernel uevent actions.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
	ActionChange = "change"
	ActionBind   = "bind"
	ActionUnbind = "unbind"
)

// Subsystems the hotplug source listens to.
const (
	SubsystemVideo4Linux = "video4linux"
	SubsystemUSB         = "usb"
)

// USB device types.
const (
	DevTypeUSBDevice    = "usb_device"
	DevTypeUSBInterface = "usb_interface"
)

// usbVideoClass is the USB interface class of UVC cameras.
const usbVideoClass = "14/"

// Event is a parsed kernel uevent.
type Event struct {
	Action    string
	KObj      string // /devices/pci0000:00/...
	Subsystem string
	DevType   string
	DevName   string // video0
	Env       map[string]string
}

// ParseUEvent parses a kernel uevent message of the form
// "ACTION@KOBJ\0KEY=VALUE\0...". It returns nil for malformed input.
func ParseUEvent(data []byte) *Event {
	if len(data) == 0 {
		return nil
	}

	// libudev prefixes its own binary header; skip to the action@path part.
	if bytes.HasPrefix(data, []byte("libudev")) {
		for i := 0; i < len(data)-1; i++ {
			if data[i] != 0 {
				continue
			}
			rest := data[i+1:]
			if idx := bytes.IndexByte(rest, '@'); idx > 0 && idx < 20 {
				data = rest
				break
			}
		}
	}

	parts := bytes.Split(data, []byte{0})
	if len(parts[0]) == 0 {
		return nil
	}

	header := string(parts[0])
	at := strings.Index(header, "@")
	if at < 1 {
		return nil
	}

	ev := &Event{
		Action: header[:at],
		KObj:   header[at+1:],
		Env:    make(map[string]string),
	}

	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(string(part), "=")
		if !ok || key == "" {
			continue
		}
		ev.Env[key] = value

		switch key {
		case "SUBSYSTEM":
			ev.Subsystem = value
		case "DEVTYPE":
			ev.DevType = value
		case "DEVNAME":
			ev.DevName = value
		}
	}

	return ev
}

// DeviceIDFromKObj maps a kernel object path to the id of the physical
// camera it belongs to. Video nodes and USB interfaces resolve to their
// parent USB device, so every node of one camera shares an id.
//
//	/devices/.../usb1/1-1/1-1:1.0/video4linux/video0 -> /devices/.../usb1/1-1
//	/devices/.../usb1/1-1/1-1:1.0                    -> /devices/.../usb1/1-1
//	/devices/platform/fe.isp/video4linux/video3      -> /devices/platform/fe.isp
func DeviceIDFromKObj(kobj string) camera.DeviceID {
	p := kobj
	if i := strings.Index(p, "/video4linux/"); i >= 0 {
		p = p[:i]
	}
	// USB interfaces are named "<port>:<config>.<iface>".
	if strings.Contains(path.Base(p), ":") {
		p = path.Dir(p)
	}
	return camera.DeviceID(p)
}

// isVideoInterface reports whether ev announces a USB video interface.
func isVideoInterface(ev *Event) bool {
	return ev.Subsystem == SubsystemUSB &&
		ev.DevType == DevTypeUSBInterface &&
		strings.HasPrefix(ev.Env["INTERFACE"], usbVideoClass)
}

// isUSBDevice reports whether ev is about a whole USB device.
func isUSBDevice(ev *Event) bool {
	return ev.Subsystem == SubsystemUSB && ev.DevType == DevTypeUSBDevice
}

// nodeName returns the video node name of a video4linux event.
func nodeName(ev *Event) string {
	if ev.Subsystem != SubsystemVideo4Linux {
		return ""
	}
	if ev.DevName != "" {
		return path.Base(ev.DevName)
	}
	return path.Base(ev.KObj)
}
