package led

import "github.com/smazurov/camsession/internal/logging"

// noop logs pattern changes on boards without a usable LED.
type noop struct {
	logger logging.Logger
}

func newNoop(logger logging.Logger) *noop {
	return &noop{logger: logger}
}

func (n *noop) Name() string { return "none" }

func (n *noop) Set(p Pattern) error {
	n.logger.Debug("LED control not available (no-op)", "pattern", p)
	return nil
}
