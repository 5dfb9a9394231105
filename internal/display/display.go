// Package display holds the binary color/grayscale display mode toggled by
// pinch activations.
package display

import "sync/atomic"

// Mode names.
const (
	ModeColor = "color"
	ModeGray  = "gray"
)

// State is the display mode. The zero value is not ready for use; call New.
type State struct {
	lit atomic.Bool
}

// New returns a State that starts lit (color).
func New() *State {
	s := &State{}
	s.lit.Store(true)
	return s
}

// Toggle flips the mode and returns the new lit value.
func (s *State) Toggle() bool {
	for {
		old := s.lit.Load()
		if s.lit.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Lit reports whether the display shows color.
func (s *State) Lit() bool {
	return s.lit.Load()
}

// Mode returns ModeColor or ModeGray.
func (s *State) Mode() string {
	if s.Lit() {
		return ModeColor
	}
	return ModeGray
}
