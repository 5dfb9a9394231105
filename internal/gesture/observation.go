// Package gesture turns per-frame hand observations into debounced pinch
// activations.
package gesture

import "github.com/ayusman/pinchlight/internal/detector"

// Observation is one hand estimate at a point in time: the thumb tip and the
// index fingertip. Depth (Z) is a relative, noisy value.
type Observation struct {
	Thumb detector.Point3D `json:"thumb"`
	Index detector.Point3D `json:"index"`
}

// Valid reports whether both fingertips carry usable coordinates.
func (o Observation) Valid() bool {
	return o.Thumb.Finite() && o.Index.Finite()
}

// FromHand extracts the pinch fingertips from a full landmark set.
func FromHand(h detector.HandLandmarks) Observation {
	return Observation{
		Thumb: h.Points[detector.ThumbTip],
		Index: h.Points[detector.IndexTip],
	}
}

// Snapshot is every observation available for one frame, in detector order.
// An empty snapshot means tracking was lost.
type Snapshot []Observation

// SnapshotFromHands builds a snapshot from detector output, keeping order.
func SnapshotFromHands(hands []detector.HandLandmarks) Snapshot {
	snap := make(Snapshot, len(hands))
	for i, h := range hands {
		snap[i] = FromHand(h)
	}
	return snap
}

// HitRegion is the axis-aligned button rectangle a pinch must be released in.
type HitRegion struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// CenteredRegion returns a width x height region centered in a frame.
func CenteredRegion(frameW, frameH, width, height float64) HitRegion {
	return HitRegion{
		X:      (frameW - width) / 2,
		Y:      (frameH - height) / 2,
		Width:  width,
		Height: height,
	}
}

// Contains reports whether p lies strictly inside the region. Points on the
// border are outside.
func (r HitRegion) Contains(p detector.Point3D) bool {
	return p.X > r.X && p.X < r.X+r.Width &&
		p.Y > r.Y && p.Y < r.Y+r.Height
}
