package led

import (
	"sync"

	"github.com/smazurov/camsession/internal/events"
	"github.com/smazurov/camsession/internal/logging"
)

// Indicator shows the session state on an LED: solid while previewing,
// blinking while a camera is open but not previewing, off otherwise.
type Indicator struct {
	controller Controller
	bus        *events.Bus
	logger     logging.Logger

	mu      sync.Mutex
	current Pattern
	unsub   func()
}

// NewIndicator creates an indicator. Nothing changes until Start.
func NewIndicator(controller Controller, bus *events.Bus, logger logging.Logger) *Indicator {
	return &Indicator{controller: controller, bus: bus, logger: logger}
}

// Start turns the LED off and follows session state changes.
func (i *Indicator) Start() {
	i.apply(PatternOff)
	i.mu.Lock()
	i.unsub = i.bus.Subscribe(func(e events.SessionStateChangedEvent) {
		i.apply(patternFor(e.To))
	})
	i.mu.Unlock()
	i.logger.Info("LED indicator started", "led", i.controller.Name())
}

// Stop unsubscribes and turns the LED off.
func (i *Indicator) Stop() {
	i.mu.Lock()
	unsub := i.unsub
	i.unsub = nil
	i.mu.Unlock()
	if unsub != nil {
		unsub()
	}
	i.apply(PatternOff)
}

func patternFor(state string) Pattern {
	switch state {
	case "previewing":
		return PatternSolid
	case "connecting", "bound":
		return PatternBlink
	default:
		return PatternOff
	}
}

func (i *Indicator) apply(p Pattern) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if p == i.current {
		return
	}
	if err := i.controller.Set(p); err != nil {
		i.logger.Warn("Failed to set LED", "led", i.controller.Name(), "pattern", p, "error", err)
		return
	}
	i.current = p
}
