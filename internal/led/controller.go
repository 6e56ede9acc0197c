// Package led drives a board LED as a camera activity indicator.
package led

// Pattern is what an LED shows.
type Pattern string

// Patterns understood by every controller.
const (
	PatternOff   Pattern = "off"
	PatternSolid Pattern = "solid"
	PatternBlink Pattern = "blink"
)

// Controller switches one LED between patterns.
type Controller interface {
	Set(p Pattern) error
	// Name identifies the LED in logs.
	Name() string
}
