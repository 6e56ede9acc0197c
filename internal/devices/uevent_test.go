package devices

import (
	"strings"
	"testing"

	"github.com/smazurov/camsession/internal/camera"
)

func TestParseUEvent(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected *Event
	}{
		{name: "empty input", input: []byte{}},
		{name: "nil input", input: nil},
		{name: "no @ separator", input: []byte("invalid")},
		{name: "missing action", input: []byte("@/devices/foo")},
		{name: "only null bytes", input: []byte{0, 0, 0, 0}},
		{
			name:  "video node add",
			input: []byte("add@/devices/pci0000:00/usb1/1-1/1-1:1.0/video4linux/video0\x00SUBSYSTEM=video4linux\x00DEVNAME=video0\x00"),
			expected: &Event{
				Action:    "add",
				KObj:      "/devices/pci0000:00/usb1/1-1/1-1:1.0/video4linux/video0",
				Subsystem: "video4linux",
				DevName:   "video0",
				Env:       map[string]string{"SUBSYSTEM": "video4linux", "DEVNAME": "video0"},
			},
		},
		{
			name:  "usb device remove",
			input: []byte("remove@/devices/usb/1-1\x00SUBSYSTEM=usb\x00DEVTYPE=usb_device\x00PRODUCT=46d/825/10\x00"),
			expected: &Event{
				Action:    "remove",
				KObj:      "/devices/usb/1-1",
				Subsystem: "usb",
				DevType:   "usb_device",
				Env:       map[string]string{"SUBSYSTEM": "usb", "DEVTYPE": "usb_device", "PRODUCT": "46d/825/10"},
			},
		},
		{
			name:  "empty values and trailing nulls",
			input: []byte("bind@/devices/test\x00KEY1=value1\x00KEY2=\x00\x00\x00"),
			expected: &Event{
				Action: "bind",
				KObj:   "/devices/test",
				Env:    map[string]string{"KEY1": "value1", "KEY2": ""},
			},
		},
		{
			name:  "equals in value",
			input: []byte("add@/dev/foo\x00KEY=val=ue\x00"),
			expected: &Event{
				Action: "add",
				KObj:   "/dev/foo",
				Env:    map[string]string{"KEY": "val=ue"},
			},
		},
		{
			name:     "action only",
			input:    []byte("add@\x00"),
			expected: &Event{Action: "add", Env: map[string]string{}},
		},
		{
			name:  "long path",
			input: []byte("add@/devices/" + strings.Repeat("a", 500) + "\x00"),
			expected: &Event{
				Action: "add",
				KObj:   "/devices/" + strings.Repeat("a", 500),
				Env:    map[string]string{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseUEvent(tt.input)

			if tt.expected == nil {
				if result != nil {
					t.Errorf("expected nil, got %+v", result)
				}
				return
			}
			if result == nil {
				t.Fatalf("expected %+v, got nil", tt.expected)
			}

			if result.Action != tt.expected.Action {
				t.Errorf("Action: expected %q, got %q", tt.expected.Action, result.Action)
			}
			if result.KObj != tt.expected.KObj {
				t.Errorf("KObj: expected %q, got %q", tt.expected.KObj, result.KObj)
			}
			if result.Subsystem != tt.expected.Subsystem {
				t.Errorf("Subsystem: expected %q, got %q", tt.expected.Subsystem, result.Subsystem)
			}
			if result.DevType != tt.expected.DevType {
				t.Errorf("DevType: expected %q, got %q", tt.expected.DevType, result.DevType)
			}
			if result.DevName != tt.expected.DevName {
				t.Errorf("DevName: expected %q, got %q", tt.expected.DevName, result.DevName)
			}
			if len(result.Env) != len(tt.expected.Env) {
				t.Errorf("Env length: expected %d, got %d", len(tt.expected.Env), len(result.Env))
			}
			for k, v := range tt.expected.Env {
				if result.Env[k] != v {
					t.Errorf("Env[%q]: expected %q, got %q", k, v, result.Env[k])
				}
			}
		})
	}
}

func TestParseUEventSkipsLibudevHeader(t *testing.T) {
	data := append([]byte("libudev\x00\xfe\xed\x00"), []byte("add@/devices/x\x00SUBSYSTEM=usb\x00")...)
	ev := ParseUEvent(data)
	if ev == nil {
		t.Fatal("expected event")
	}
	if ev.Action != "add" || ev.KObj != "/devices/x" || ev.Subsystem != "usb" {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestDeviceIDFromKObj(t *testing.T) {
	tests := []struct {
		kobj string
		want camera.DeviceID
	}{
		{"/devices/pci0000:00/0000:00:14.0/usb1/1-1/1-1:1.0/video4linux/video0", "/devices/pci0000:00/0000:00:14.0/usb1/1-1"},
		{"/devices/pci0000:00/0000:00:14.0/usb1/1-1/1-1:1.0", "/devices/pci0000:00/0000:00:14.0/usb1/1-1"},
		{"/devices/pci0000:00/0000:00:14.0/usb1/1-1", "/devices/pci0000:00/0000:00:14.0/usb1/1-1"},
		{"/devices/platform/fdee0000.isp/video4linux/video3", "/devices/platform/fdee0000.isp"},
	}

	for _, tt := range tests {
		if got := DeviceIDFromKObj(tt.kobj); got != tt.want {
			t.Errorf("DeviceIDFromKObj(%q) = %q, want %q", tt.kobj, got, tt.want)
		}
	}
}

func TestEventClassification(t *testing.T) {
	iface := &Event{Subsystem: SubsystemUSB, DevType: DevTypeUSBInterface, Env: map[string]string{"INTERFACE": "14/1/0"}}
	if !isVideoInterface(iface) {
		t.Error("class 14 interface should be a video interface")
	}
	hid := &Event{Subsystem: SubsystemUSB, DevType: DevTypeUSBInterface, Env: map[string]string{"INTERFACE": "3/1/1"}}
	if isVideoInterface(hid) {
		t.Error("HID interface should not be a video interface")
	}
	if !isUSBDevice(&Event{Subsystem: SubsystemUSB, DevType: DevTypeUSBDevice}) {
		t.Error("usb_device should be a USB device")
	}
	if got := nodeName(&Event{Subsystem: SubsystemVideo4Linux, KObj: "/devices/x/video4linux/video2"}); got != "video2" {
		t.Errorf("nodeName() = %q, want video2", got)
	}
	if got := nodeName(&Event{Subsystem: SubsystemUSB, DevName: "bus/usb/001/002"}); got != "" {
		t.Errorf("nodeName() for usb = %q, want empty", got)
	}
}
