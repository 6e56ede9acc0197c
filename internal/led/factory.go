package led

import (
	"os"
	"strings"

	"github.com/smazurov/camsession/internal/logging"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// boardLEDs maps device tree models to the LED used as indicator.
var boardLEDs = []struct {
	model string
	led   string
}{
	{"NanoPC-T6", "usr_led"},
	{"Orange Pi", "green_led"},
	{"Raspberry Pi", "ACT"},
}

// New returns a controller for the named sysfs LED. With an empty name
// the board is detected from the device tree; unknown boards get a no-op
// controller.
func New(name string, logger logging.Logger) Controller {
	if name != "" {
		logger.Info("Using configured LED", "led", name)
		return newSysfs(sysfsLEDPath, name)
	}

	model := detectBoard(deviceTreeModelPath)
	for _, b := range boardLEDs {
		if strings.Contains(model, b.model) {
			logger.Info("Detected board, using sysfs LED", "board_model", model, "led", b.led)
			return newSysfs(sysfsLEDPath, b.led)
		}
	}
	logger.Info("No LED support detected, using no-op controller", "board_model", model)
	return newNoop(logger)
}

// detectBoard reads the device tree model, or "unknown".
func detectBoard(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}
	// The model is NUL terminated.
	return strings.TrimRight(string(data), "\x00")
}
