package camera_test

import (
	"slices"
	"testing"

	"github.com/smazurov/camsession/internal/camera"
)

func TestParseFamilies(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []camera.Family
		wantErr bool
	}{
		{
			name: "defaults",
			in:   "",
			want: []camera.Family{{Encoding: camera.EncodingMJPEG}, {Encoding: camera.EncodingYUYV, MaxFPS: 30}},
		},
		{
			name: "raw first",
			in:   "yuyv, mjpeg",
			want: []camera.Family{{Encoding: camera.EncodingYUYV, MaxFPS: 30}, {Encoding: camera.EncodingMJPEG}},
		},
		{
			name: "mjpeg only",
			in:   "mjpeg",
			want: []camera.Family{{Encoding: camera.EncodingMJPEG}},
		},
		{name: "unknown", in: "mjpeg,h264", wantErr: true},
		{name: "duplicate", in: "mjpeg,mjpeg", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := camera.ParseFamilies(tt.in, 30)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFamilies() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParseFamilies() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStreamFormatString(t *testing.T) {
	f := camera.StreamFormat{Encoding: camera.EncodingYUYV, MaxFPS: 60}
	f.Width, f.Height = 1280, 720
	if got := f.String(); got != "yuyv 1280x720@60" {
		t.Errorf("String() = %q", got)
	}
}
