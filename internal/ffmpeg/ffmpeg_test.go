package ffmpeg

import (
	"slices"
	"strings"
	"testing"

	"github.com/smazurov/camsession/internal/resolution"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		line      string
		wantLevel string
		wantMsg   string
	}{
		{"[info] Input #0, video4linux2", "info", "Input #0, video4linux2"},
		{"[error] Device busy", "error", "Device busy"},
		{"[mjpeg @ 0x55d] [warning] unable to decode APP fields", "warning", "[mjpeg @ 0x55d] unable to decode APP fields"},
		{"[mjpeg @ 0x55d] no level here", "info", "[mjpeg @ 0x55d] no level here"},
		{"frame=  120 fps= 30", "info", "frame=  120 fps= 30"},
		{"[unterminated", "info", "[unterminated"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			level, msg := ParseLogLevel(tt.line)
			if level != tt.wantLevel || msg != tt.wantMsg {
				t.Errorf("ParseLogLevel() = %q, %q; want %q, %q", level, msg, tt.wantLevel, tt.wantMsg)
			}
		})
	}
}

func TestParseListFormats(t *testing.T) {
	output := strings.Join([]string{
		"[video4linux2,v4l2 @ 0x55d8c0c6e700] Compressed:       mjpeg :          Motion-JPEG : 1920x1080 1280x720 640x480",
		"[video4linux2,v4l2 @ 0x55d8c0c6e700] Raw       :     yuyv422 :           YUYV 4:2:2 : 640x480 1280x720",
		"[video4linux2,v4l2 @ 0x55d8c0c6e700] Emulated  :     yuv420p :     Planar YUV 4:2:0 : 640x480",
		"[video4linux2,v4l2 @ 0x55d8c0c6e700] Raw       :        gray :      8-bit Greyscale : {32-4096, 2}x{32-2304, 2}",
		"/dev/video0: Immediate exit requested",
	}, "\n")

	formats := ParseListFormats(output)
	if len(formats) != 3 {
		t.Fatalf("got %d formats, want 3: %+v", len(formats), formats)
	}
	if formats[1].Kind != KindRaw || formats[1].Name != "yuyv422" || formats[1].Desc != "YUYV 4:2:2" {
		t.Errorf("yuyv entry = %+v", formats[1])
	}

	mjpeg := SizesFor(formats, "mjpeg")
	want := []resolution.Size{{Width: 1920, Height: 1080}, {Width: 1280, Height: 720}, {Width: 640, Height: 480}}
	if !slices.Equal(mjpeg, want) {
		t.Errorf("mjpeg sizes = %v, want %v", mjpeg, want)
	}
	if sizes := SizesFor(formats, "yuv420p"); len(sizes) != 0 {
		t.Errorf("emulated formats should be ignored, got %v", sizes)
	}
	if sizes := SizesFor(formats, "h264"); sizes != nil {
		t.Errorf("absent format sizes = %v", sizes)
	}
}

func TestBuildCaptureArgs(t *testing.T) {
	tests := []struct {
		name   string
		params CaptureParams
		want   string
	}{
		{
			name: "mjpeg to rtsp",
			params: CaptureParams{
				DevicePath: "/dev/video0", InputFormat: "mjpeg", Resolution: "1920x1080",
				OutputURL: "rtsp://localhost:8554/cam", Encoder: "libx264",
			},
			want: "ffmpeg -hide_banner -nostdin -loglevel level+info -f v4l2 -input_format mjpeg -video_size 1920x1080 -i /dev/video0 -c:v libx264 -rtsp_transport tcp -f rtsp rtsp://localhost:8554/cam",
		},
		{
			name: "yuyv with fps cap to loopback",
			params: CaptureParams{
				DevicePath: "/dev/video0", InputFormat: "yuyv422", Resolution: "1280x720", FPS: 60,
				OutputURL: "/dev/video10", PixelFormat: "yuv420p", LogLevel: "warning",
			},
			want: "ffmpeg -hide_banner -nostdin -loglevel level+warning -f v4l2 -input_format yuyv422 -video_size 1280x720 -framerate 60 -i /dev/video0 -pix_fmt yuv420p -f v4l2 /dev/video10",
		},
		{
			name: "options and default mpegts",
			params: CaptureParams{
				DevicePath: "/dev/video2", Options: []OptionType{OptionThreadQueue1024, OptionGeneratePTS, OptionLowLatency},
				OutputURL: "srt://127.0.0.1:9000",
			},
			want: "ffmpeg -hide_banner -nostdin -loglevel level+info -f v4l2 -thread_queue_size 1024 -flags +low_delay -fflags +genpts+nobuffer -i /dev/video2 -muxdelay 0 -muxpreload 0 -flush_packets 1 -f mpegts srt://127.0.0.1:9000",
		},
		{
			name:   "forced format",
			params: CaptureParams{DevicePath: "/dev/video0", OutputURL: "-", OutputFormat: "nut"},
			want:   "ffmpeg -hide_banner -nostdin -loglevel level+info -f v4l2 -i /dev/video0 -f nut -",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := BuildCaptureArgs(&tt.params)
			if err != nil {
				t.Fatal(err)
			}
			if got := strings.Join(args, " "); got != tt.want {
				t.Errorf("BuildCaptureArgs() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestBuildCaptureArgsValidation(t *testing.T) {
	if _, err := BuildCaptureArgs(&CaptureParams{OutputURL: "-"}); err == nil {
		t.Error("missing device should fail")
	}
	if _, err := BuildCaptureArgs(&CaptureParams{DevicePath: "/dev/video0"}); err == nil {
		t.Error("missing output should fail")
	}
}

func TestListFormatsArgs(t *testing.T) {
	got := strings.Join(ListFormatsArgs("/dev/video0"), " ")
	if got != "ffmpeg -hide_banner -nostdin -f v4l2 -list_formats all -i /dev/video0" {
		t.Errorf("ListFormatsArgs() = %q", got)
	}
}

func TestParseOptions(t *testing.T) {
	opts, unknown := ParseOptions([]string{"genpts", " low_latency ", "bogus"})
	if !slices.Equal(opts, []OptionType{OptionGeneratePTS, OptionLowLatency}) {
		t.Errorf("opts = %v", opts)
	}
	if !slices.Equal(unknown, []string{"bogus"}) {
		t.Errorf("unknown = %v", unknown)
	}
}
