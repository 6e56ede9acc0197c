package camera

import (
	"fmt"
	"strings"

	"github.com/smazurov/camsession/internal/resolution"
)

// Encoding is a pixel encoding family.
type Encoding string

// Encoding families, in default negotiation order.
const (
	EncodingMJPEG Encoding = "mjpeg" // primary, compressed
	EncodingYUYV  Encoding = "yuyv"  // fallback, raw planar
)

// ParseEncoding converts a config string to an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case EncodingMJPEG, EncodingYUYV:
		return Encoding(s), nil
	}
	return "", fmt.Errorf("unknown encoding %q", s)
}

// StreamFormat is a negotiated encoding and frame size.
type StreamFormat struct {
	Encoding Encoding
	resolution.Size
	// MaxFPS caps the frame rate; 0 leaves it to the driver.
	MaxFPS int
}

func (f StreamFormat) String() string {
	if f.MaxFPS > 0 {
		return fmt.Sprintf("%s %s@%d", f.Encoding, f.Size, f.MaxFPS)
	}
	return fmt.Sprintf("%s %s", f.Encoding, f.Size)
}

// Family is one entry of the negotiation order.
type Family struct {
	Encoding Encoding
	MaxFPS   int
}

// DefaultFamilies tries MJPEG first and falls back to YUYV capped at 60 fps.
func DefaultFamilies() []Family {
	return []Family{
		{Encoding: EncodingMJPEG},
		{Encoding: EncodingYUYV, MaxFPS: 60},
	}
}

// ParseFamilies builds a negotiation order from comma separated encoding
// names. The raw family gets rawMaxFPS. An empty list gives the defaults.
func ParseFamilies(names string, rawMaxFPS int) ([]Family, error) {
	if strings.TrimSpace(names) == "" {
		families := DefaultFamilies()
		for i := range families {
			if families[i].Encoding == EncodingYUYV {
				families[i].MaxFPS = rawMaxFPS
			}
		}
		return families, nil
	}

	var families []Family
	seen := make(map[Encoding]bool)
	for _, name := range strings.Split(names, ",") {
		enc, err := ParseEncoding(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		if seen[enc] {
			return nil, fmt.Errorf("encoding %q listed twice", enc)
		}
		seen[enc] = true

		fam := Family{Encoding: enc}
		if enc == EncodingYUYV {
			fam.MaxFPS = rawMaxFPS
		}
		families = append(families, fam)
	}
	return families, nil
}
