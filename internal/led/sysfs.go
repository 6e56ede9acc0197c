package led

import (
	"fmt"
	"os"
	"path/filepath"
)

const sysfsLEDPath = "/sys/class/leds"

// sysfs drives an LED under /sys/class/leds.
type sysfs struct {
	dir string
}

func newSysfs(root, name string) *sysfs {
	return &sysfs{dir: filepath.Join(root, name)}
}

func (s *sysfs) Name() string { return filepath.Base(s.dir) }

// Set writes the trigger, then the brightness. Blink uses the kernel
// heartbeat trigger so no goroutine has to toggle the LED.
func (s *sysfs) Set(p Pattern) error {
	if _, err := os.Stat(s.dir); err != nil {
		return fmt.Errorf("LED %s: %w", s.Name(), err)
	}

	trigger, brightness := "none", "0"
	switch p {
	case PatternOff:
	case PatternSolid:
		brightness = "1"
	case PatternBlink:
		trigger, brightness = "heartbeat", "1"
	default:
		return fmt.Errorf("unknown LED pattern %q", p)
	}

	if err := os.WriteFile(filepath.Join(s.dir, "trigger"), []byte(trigger), 0o644); err != nil {
		return fmt.Errorf("failed to set LED trigger: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, "brightness"), []byte(brightness), 0o644); err != nil {
		return fmt.Errorf("failed to set LED brightness: %w", err)
	}
	return nil
}
