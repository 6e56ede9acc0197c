package devices

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/smazurov/camsession/internal/camera"
)

// Info describes a video capture node found in sysfs.
type Info struct {
	ID       camera.DeviceID
	Path     string // /dev/video0
	Node     string // video0
	Name     string
	StableID string // /dev/v4l/by-id entry, if any
	Index    int
}

// Scanner discovers capture nodes from sysfs and /dev.
type Scanner struct {
	SysfsRoot string
	DevRoot   string
}

// DefaultScanner reads the live system.
func DefaultScanner() *Scanner {
	return &Scanner{SysfsRoot: "/sys", DevRoot: "/dev"}
}

// FindDevices returns the primary capture node of every camera present.
// Secondary nodes (metadata, index > 0) are skipped.
func (s *Scanner) FindDevices() ([]Info, error) {
	classDir := filepath.Join(s.SysfsRoot, "class", "video4linux")
	entries, err := os.ReadDir(classDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("failed to read video4linux class: %w", err)
	}

	var found []Info
	for _, entry := range entries {
		info, ok := s.Lookup(entry.Name())
		if !ok {
			continue
		}
		found = append(found, info)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })
	return found, nil
}

// Lookup resolves a single node name like "video0". It reports false for
// nodes that are missing or not the primary node of their device.
func (s *Scanner) Lookup(node string) (Info, bool) {
	nodeDir := filepath.Join(s.SysfsRoot, "class", "video4linux", node)

	link, err := os.Readlink(nodeDir)
	if err != nil {
		return Info{}, false
	}

	index := readSysfsInt(filepath.Join(nodeDir, "index"))
	if index != 0 {
		return Info{}, false
	}

	return Info{
		ID:       DeviceIDFromKObj(kobjFromClassLink(link)),
		Path:     filepath.Join(s.DevRoot, node),
		Node:     node,
		Name:     readSysfsString(filepath.Join(nodeDir, "name")),
		StableID: s.findStableID(node, index),
		Index:    index,
	}, true
}

// kobjFromClassLink turns "../../devices/pci.../video4linux/video0" into
// "/devices/pci.../video4linux/video0".
func kobjFromClassLink(link string) string {
	if i := strings.Index(link, "/devices/"); i >= 0 {
		return link[i:]
	}
	if strings.HasPrefix(link, "devices/") {
		return "/" + link
	}
	return link
}

// findStableID looks for the /dev/v4l/by-id symlink pointing at node.
func (s *Scanner) findStableID(node string, index int) string {
	byIDDir := filepath.Join(s.DevRoot, "v4l", "by-id")
	entries, err := os.ReadDir(byIDDir)
	if err != nil {
		return ""
	}

	suffix := fmt.Sprintf("-video-index%d", index)
	for _, entry := range entries {
		if entry.Type()&os.ModeSymlink == 0 {
			continue
		}
		target, err := os.Readlink(filepath.Join(byIDDir, entry.Name()))
		if err != nil {
			continue
		}
		if filepath.Base(target) == node && strings.HasSuffix(entry.Name(), suffix) {
			return entry.Name()
		}
	}
	return ""
}

func readSysfsInt(path string) int {
	v, err := strconv.Atoi(readSysfsString(path))
	if err != nil {
		return 0
	}
	return v
}

func readSysfsString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
