package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/smazurov/camsession/internal/devices"
)

func TestSelectCmd(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "exact", args: []string{"640x480", "1920x1080", "1280x720"}, want: "1920x1080 (area error 0)"},
		{name: "closest area", args: []string{"640x480", "1024x768", "--target", "1280x720"}, want: "1024x768 (area error 135168)"},
		{name: "tie keeps first", args: []string{"100x200", "200x100", "-t", "150x150"}, want: "100x200"},
		{name: "bad candidate", args: []string{"wide"}, wantErr: true},
		{name: "bad target", args: []string{"640x480", "-t", "0x0"}, wantErr: true},
		{name: "no args", args: []string{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := CreateSelectCmd()
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !strings.Contains(out.String(), tt.want) {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestPrintDevicesWithoutProbe(t *testing.T) {
	var out bytes.Buffer
	if err := printDevices(&out, nil, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No capture devices found") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	found := []devices.Info{{ID: "1-1.2", Path: "/dev/video0", Name: "HD Webcam", StableID: "/dev/v4l/by-id/usb-HD_Webcam-video-index0"}}
	if err := printDevices(&out, found, false); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"/dev/video0", "HD Webcam", "1-1.2", "by-id"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output %q missing %q", out.String(), want)
		}
	}
}
