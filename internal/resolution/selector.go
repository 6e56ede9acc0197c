// Package resolution picks a capture size from the sizes a camera reports.
package resolution

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is a frame size in pixels.
type Size struct {
	Width  int
	Height int
}

// Area returns Width*Height as int64 so 8K sizes cannot overflow on 32-bit targets.
func (s Size) Area() int64 {
	return int64(s.Width) * int64(s.Height)
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Parse reads a "WxH" size.
func Parse(s string) (Size, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return Size{}, fmt.Errorf("invalid size %q: want WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return Size{}, fmt.Errorf("invalid width in %q: %w", s, err)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return Size{}, fmt.Errorf("invalid height in %q: %w", s, err)
	}
	size := Size{Width: width, Height: height}
	if !size.Valid() {
		return Size{}, fmt.Errorf("invalid size %q: dimensions must be positive", s)
	}
	return size, nil
}

// Closest returns the candidate whose area is nearest to the target area.
// Ties keep the first candidate in input order. ok is false when candidates
// is empty.
func Closest(candidates []Size, target Size) (best Size, ok bool) {
	want := target.Area()
	var bestErr int64
	for i, c := range candidates {
		diff := c.Area() - want
		if diff < 0 {
			diff = -diff
		}
		if i == 0 || diff < bestErr {
			best, bestErr = c, diff
		}
	}
	return best, len(candidates) > 0
}

// Error returns the absolute area difference between s and target.
func Error(s, target Size) int64 {
	diff := s.Area() - target.Area()
	if diff < 0 {
		return -diff
	}
	return diff
}
