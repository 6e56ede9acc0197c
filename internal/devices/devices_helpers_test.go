package devices

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// fakeSystem lays out a minimal sysfs and /dev under a temp dir.
type fakeSystem struct {
	t     *testing.T
	sysfs string
	dev   string
}

func newFakeSystem(t *testing.T) *fakeSystem {
	t.Helper()
	root := t.TempDir()
	fs := &fakeSystem{t: t, sysfs: filepath.Join(root, "sys"), dev: filepath.Join(root, "dev")}
	for _, dir := range []string{filepath.Join(fs.sysfs, "class", "video4linux"), fs.dev} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func (fs *fakeSystem) scanner() *Scanner {
	return &Scanner{SysfsRoot: fs.sysfs, DevRoot: fs.dev}
}

// addNode creates a video node under the USB interface kobj.
func (fs *fakeSystem) addNode(ifaceKObj, node string, index int, name string) string {
	fs.t.Helper()
	kobj := ifaceKObj + "/video4linux/" + node
	dir := filepath.Join(fs.sysfs, kobj)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fs.t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index"), []byte(strconv.Itoa(index)+"\n"), 0o644); err != nil {
		fs.t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "name"), []byte(name+"\n"), 0o644); err != nil {
		fs.t.Fatal(err)
	}
	link := filepath.Join(fs.sysfs, "class", "video4linux", node)
	if err := os.Symlink("../.."+kobj, link); err != nil {
		fs.t.Fatal(err)
	}
	return kobj
}

func (fs *fakeSystem) removeNode(node string) {
	fs.t.Helper()
	if err := os.Remove(filepath.Join(fs.sysfs, "class", "video4linux", node)); err != nil {
		fs.t.Fatal(err)
	}
}

func (fs *fakeSystem) addByID(name, node string) {
	fs.t.Helper()
	dir := filepath.Join(fs.dev, "v4l", "by-id")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fs.t.Fatal(err)
	}
	if err := os.Symlink("../../"+node, filepath.Join(dir, name)); err != nil {
		fs.t.Fatal(err)
	}
}
