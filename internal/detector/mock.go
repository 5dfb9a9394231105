package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// PinchedLandmarks returns a right hand, in normalized coordinates, whose
// thumb tip and index tip touch near the given point.
func PinchedLandmarks(x, y float64) HandLandmarks {
	h := OpenHandLandmarks(x, y)
	h.Points[IndexDIP] = Point3D{X: x + 0.01, Y: y - 0.03, Z: -0.02}
	h.Points[IndexTip] = Point3D{X: x + 0.003, Y: y + 0.002, Z: -0.02}
	return h
}

// OpenHandLandmarks returns a right hand, in normalized coordinates, with the
// thumb tip at the given point and the index finger extended well away from it.
func OpenHandLandmarks(x, y float64) HandLandmarks {
	h := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	h.Points[Wrist] = Point3D{X: x - 0.05, Y: y + 0.25, Z: 0}

	h.Points[ThumbCMC] = Point3D{X: x - 0.04, Y: y + 0.19, Z: -0.01}
	h.Points[ThumbMCP] = Point3D{X: x - 0.02, Y: y + 0.13, Z: -0.01}
	h.Points[ThumbIP] = Point3D{X: x - 0.01, Y: y + 0.06, Z: -0.02}
	h.Points[ThumbTip] = Point3D{X: x, Y: y, Z: -0.02}

	h.Points[IndexMCP] = Point3D{X: x + 0.03, Y: y + 0.10, Z: -0.01}
	h.Points[IndexPIP] = Point3D{X: x + 0.06, Y: y + 0.02, Z: -0.01}
	h.Points[IndexDIP] = Point3D{X: x + 0.09, Y: y - 0.05, Z: -0.01}
	h.Points[IndexTip] = Point3D{X: x + 0.12, Y: y - 0.12, Z: -0.01}

	for finger, mcp := range []int{MiddleMCP, RingMCP, PinkyMCP} {
		dx := -0.03 * float64(finger)
		for j := 0; j < 4; j++ {
			h.Points[mcp+j] = Point3D{
				X: x + 0.01 + dx,
				Y: y + 0.10 - 0.06*float64(j),
				Z: 0,
			}
		}
	}

	return h
}
