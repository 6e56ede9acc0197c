package ffmpeg

// CaptureParams describes one V4L2 capture into an output sink.
type CaptureParams struct {
	// Input
	DevicePath  string
	InputFormat string // mjpeg, yuyv422
	Resolution  string // 1920x1080
	FPS         int    // 0 leaves the device default

	// Behavior flags applied before the input
	Options []OptionType

	// Output
	OutputURL    string // rtsp://..., srt://..., /dev/video10, -
	OutputFormat string // forces the muxer; detected from OutputURL when empty
	Encoder      string // -c:v value; empty keeps the muxer default
	PixelFormat  string // -pix_fmt value for raw sinks

	LogLevel string // ffmpeg -loglevel, default info
}
