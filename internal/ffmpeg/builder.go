package ffmpeg

import (
	"errors"
	"strconv"
	"strings"
)

// Binary is the ffmpeg executable looked up on PATH.
var Binary = "ffmpeg"

// Base returns the executable with standard flags.
func Base() []string {
	return []string{Binary, "-hide_banner", "-nostdin"}
}

// BuildCaptureArgs builds the argument list for a V4L2 capture.
func BuildCaptureArgs(p *CaptureParams) ([]string, error) {
	if p.DevicePath == "" {
		return nil, errors.New("device path is required")
	}
	if p.OutputURL == "" {
		return nil, errors.New("output URL is required")
	}

	level := p.LogLevel
	if level == "" {
		level = "info"
	}

	args := Base()
	// level+ prefixes every line with [level] for ParseLogLevel.
	args = append(args, "-loglevel", "level+"+level)

	args = append(args, "-f", "v4l2")
	args = append(args, inputArgs(p.Options)...)
	if p.InputFormat != "" {
		args = append(args, "-input_format", p.InputFormat)
	}
	if p.Resolution != "" {
		args = append(args, "-video_size", p.Resolution)
	}
	if p.FPS > 0 {
		args = append(args, "-framerate", strconv.Itoa(p.FPS))
	}
	args = append(args, "-i", p.DevicePath)

	if p.Encoder != "" {
		args = append(args, "-c:v", p.Encoder)
	}
	if p.PixelFormat != "" {
		args = append(args, "-pix_fmt", p.PixelFormat)
	}

	return append(args, outputArgs(p.OutputURL, p.OutputFormat)...), nil
}

// outputArgs picks the muxer for url unless format forces one.
func outputArgs(url, format string) []string {
	switch {
	case format != "":
		return []string{"-f", format, url}
	case strings.HasPrefix(url, "rtsp://"):
		return []string{"-rtsp_transport", "tcp", "-f", "rtsp", url}
	case strings.HasPrefix(url, "/dev/video"):
		return []string{"-f", "v4l2", url}
	default:
		// mpegts with low-latency muxing for srt://, udp://, files and pipes.
		return []string{"-muxdelay", "0", "-muxpreload", "0", "-flush_packets", "1", "-f", "mpegts", url}
	}
}

// ListFormatsArgs builds the probe that prints a device's formats and sizes.
func ListFormatsArgs(devicePath string) []string {
	return append(Base(), "-f", "v4l2", "-list_formats", "all", "-i", devicePath)
}
