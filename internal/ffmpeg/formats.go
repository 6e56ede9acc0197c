package ffmpeg

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/smazurov/camsession/internal/resolution"
)

// FormatKind tells how the device produces a format.
type FormatKind string

// Kinds printed by the v4l2 demuxer.
const (
	KindCompressed FormatKind = "Compressed"
	KindRaw        FormatKind = "Raw"
	KindEmulated   FormatKind = "Emulated"
)

// Format is one line of -list_formats output.
type Format struct {
	Kind  FormatKind
	Name  string // ffmpeg name: mjpeg, yuyv422
	Desc  string // Motion-JPEG, YUYV 4:2:2
	Sizes []resolution.Size
}

// formatLine matches "Raw : yuyv422 : YUYV 4:2:2 : 640x480 1280x720".
// Stepwise size ranges like {32-4096, 2}x{...} do not match.
var formatLine = regexp.MustCompile(`^(Compressed|Raw|Emulated)\s*:\s*(\S+)\s*:\s*(.+?)\s*:\s*([0-9x ]*)$`)

// ParseListFormats parses the output of ListFormatsArgs. Lines that are
// not discrete format listings are skipped.
func ParseListFormats(output string) []Format {
	var formats []Format
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(stripBrackets(strings.TrimSpace(line)))
		m := formatLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		formats = append(formats, Format{
			Kind:  FormatKind(m[1]),
			Name:  m[2],
			Desc:  m[3],
			Sizes: parseSizes(m[4]),
		})
	}
	return formats
}

// SizesFor returns the sizes listed for format name, in listing order.
// Emulated entries are ignored; the device cannot deliver them natively.
func SizesFor(formats []Format, name string) []resolution.Size {
	var sizes []resolution.Size
	for _, f := range formats {
		if f.Name == name && f.Kind != KindEmulated {
			sizes = append(sizes, f.Sizes...)
		}
	}
	return sizes
}

func parseSizes(s string) []resolution.Size {
	var sizes []resolution.Size
	for _, field := range strings.Fields(s) {
		w, h, ok := strings.Cut(field, "x")
		if !ok {
			continue
		}
		width, err1 := strconv.Atoi(w)
		height, err2 := strconv.Atoi(h)
		if err1 != nil || err2 != nil {
			continue
		}
		size := resolution.Size{Width: width, Height: height}
		if size.Valid() {
			sizes = append(sizes, size)
		}
	}
	return sizes
}
