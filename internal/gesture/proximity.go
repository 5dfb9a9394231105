package gesture

import (
	"math"

	"github.com/ayusman/pinchlight/internal/detector"
)

// Depth compensation. Fingers closer to the camera look bigger, so the pinch
// threshold grows as the thumb's depth moves from far (20) to near (-50).
const (
	DepthFar        = 20.0
	DepthNear       = -50.0
	ThresholdAtFar  = 20.0
	ThresholdAtNear = 50.0
)

// PlanarDistance is the distance between a and b using X and Y only.
func PlanarDistance(a, b detector.Point3D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Remap linearly maps v from [inLo, inHi] onto [outLo, outHi]. The result is
// not clamped, so values outside the input range extrapolate.
func Remap(v, inLo, inHi, outLo, outHi float64) float64 {
	return outLo + (v-inLo)*(outHi-outLo)/(inHi-inLo)
}

// PinchThreshold returns the fingertip distance under which a hand at the
// given thumb depth counts as pinching.
func PinchThreshold(depth float64) float64 {
	return Remap(depth, DepthFar, DepthNear, ThresholdAtFar, ThresholdAtNear)
}

// Pinching reports whether the observation's fingertips are closer than the
// depth-adjusted threshold.
func Pinching(o Observation) bool {
	return PlanarDistance(o.Thumb, o.Index) < PinchThreshold(o.Thumb.Z)
}
