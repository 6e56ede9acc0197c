package devices

import (
	"path/filepath"
	"testing"
)

const (
	usbCam1 = "/devices/pci0000:00/0000:00:14.0/usb1/1-1"
	usbCam2 = "/devices/pci0000:00/0000:00:14.0/usb1/1-2"
)

func TestScannerFindDevices(t *testing.T) {
	fs := newFakeSystem(t)
	fs.addNode(usbCam1+"/1-1:1.0", "video0", 0, "HD Pro Webcam C920")
	fs.addNode(usbCam1+"/1-1:1.0", "video1", 1, "HD Pro Webcam C920")
	fs.addNode(usbCam2+"/1-2:1.0", "video2", 0, "USB Camera")
	fs.addByID("usb-046d_HD_Pro_Webcam_C920-video-index0", "video0")
	fs.addByID("usb-046d_HD_Pro_Webcam_C920-video-index1", "video1")

	found, err := fs.scanner().FindDevices()
	if err != nil {
		t.Fatalf("FindDevices() error = %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("FindDevices() returned %d devices, want 2: %+v", len(found), found)
	}

	first := found[0]
	if first.ID != usbCam1 {
		t.Errorf("ID = %q, want %q", first.ID, usbCam1)
	}
	if first.Path != filepath.Join(fs.dev, "video0") {
		t.Errorf("Path = %q", first.Path)
	}
	if first.Name != "HD Pro Webcam C920" {
		t.Errorf("Name = %q", first.Name)
	}
	if first.StableID != "usb-046d_HD_Pro_Webcam_C920-video-index0" {
		t.Errorf("StableID = %q", first.StableID)
	}

	if found[1].ID != usbCam2 || found[1].StableID != "" {
		t.Errorf("second device = %+v", found[1])
	}
}

func TestScannerMissingClassDir(t *testing.T) {
	s := &Scanner{SysfsRoot: t.TempDir(), DevRoot: t.TempDir()}
	found, err := s.FindDevices()
	if err != nil {
		t.Fatalf("FindDevices() error = %v", err)
	}
	if len(found) != 0 {
		t.Errorf("expected no devices, got %v", found)
	}
}

func TestScannerLookup(t *testing.T) {
	fs := newFakeSystem(t)
	fs.addNode(usbCam1+"/1-1:1.0", "video0", 0, "cam")
	fs.addNode(usbCam1+"/1-1:1.0", "video1", 1, "cam")

	if _, ok := fs.scanner().Lookup("video0"); !ok {
		t.Error("video0 should resolve")
	}
	if _, ok := fs.scanner().Lookup("video1"); ok {
		t.Error("metadata node should be skipped")
	}
	if _, ok := fs.scanner().Lookup("video9"); ok {
		t.Error("missing node should not resolve")
	}
}

func TestKObjFromClassLink(t *testing.T) {
	tests := map[string]string{
		"../../devices/platform/isp/video4linux/video0": "/devices/platform/isp/video4linux/video0",
		"devices/virtual/video4linux/video9":            "/devices/virtual/video4linux/video9",
		"video0":                                        "video0",
	}
	for in, want := range tests {
		if got := kobjFromClassLink(in); got != want {
			t.Errorf("kobjFromClassLink(%q) = %q, want %q", in, got, want)
		}
	}
}
