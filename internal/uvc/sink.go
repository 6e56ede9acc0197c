package uvc

// Sink is a render target that receives the capture stream. It satisfies
// surface.Target.
type Sink struct {
	name string

	URL         string // rtsp://..., srt://..., /dev/video10 (v4l2loopback), -
	Format      string // forced muxer, empty detects from URL
	Encoder     string // -c:v, empty keeps the muxer default
	PixelFormat string // -pix_fmt for raw sinks
}

// NewSink creates a sink named name writing to url.
func NewSink(name, url string) *Sink {
	return &Sink{name: name, URL: url}
}

// Name identifies the sink in logs and snapshots.
func (s *Sink) Name() string { return s.name }
