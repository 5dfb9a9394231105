package feed

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ayusman/pinchlight/internal/capture"
	"github.com/ayusman/pinchlight/internal/detector"
	"github.com/ayusman/pinchlight/internal/gesture"
	"gocv.io/x/gocv"
)

// errorBackoff is how long Run waits after a failed read or detection.
const errorBackoff = 100 * time.Millisecond

// maxStillSkips bounds how many consecutive still frames may reuse the
// previous snapshot before detection runs again. Fingertips closing on each
// other change few pixels, so a still scene is re-checked regularly.
const maxStillSkips = 5

// IdleFPS is the capture rate requested while gesture detection is off.
const IdleFPS = 5

// Feed reads frames from a camera, runs hand detection and publishes the
// results. It runs on its own cadence, independent of the frame loop.
type Feed struct {
	camera    capture.Camera
	detector  detector.Detector
	snapshots Latest[gesture.Snapshot]
	frames    FrameCell
	motion    *capture.MotionDetector
	activeFPS int
	skips     int
	errors    int
}

// New creates a Feed over the given camera and detector.
func New(camera capture.Camera, det detector.Detector) *Feed {
	return &Feed{
		camera:    camera,
		detector:  det,
		activeFPS: camera.FPS(),
	}
}

// SetIdle lowers the camera rate to IdleFPS while idle and restores the
// rate the camera had when the Feed was created otherwise.
func (f *Feed) SetIdle(idle bool) {
	fps := f.activeFPS
	if idle && IdleFPS < fps {
		fps = IdleFPS
	}
	if f.camera.FPS() == fps {
		return
	}
	f.camera.SetFPS(fps)
	log.Printf("feed: capture rate %d fps (idle=%v)", fps, idle)
}

// SetMotionGate enables skipping detection while the scene is still. It
// must be called before Run.
func (f *Feed) SetMotionGate(m *capture.MotionDetector) {
	f.motion = m
}

// Snapshots returns the cell holding the latest observation snapshot.
func (f *Feed) Snapshots() *Latest[gesture.Snapshot] {
	return &f.snapshots
}

// Frames returns the cell holding the latest camera frame.
func (f *Feed) Frames() *FrameCell {
	return &f.frames
}

// Step reads one frame, detects hands and publishes both. On error nothing
// is published.
func (f *Feed) Step() error {
	frame, err := f.camera.ReadFrame()
	if err != nil {
		return fmt.Errorf("read frame: %w", err)
	}

	if f.still(frame) {
		f.frames.Store(*frame)
		return nil
	}

	hands, err := f.detector.Detect(frame)
	if err != nil {
		frame.Close()
		return fmt.Errorf("detect hands: %w", err)
	}

	width, height := float64(frame.Cols()), float64(frame.Rows())
	pixels := make([]detector.HandLandmarks, len(hands))
	for i, h := range hands {
		pixels[i] = h.ToPixels(width, height)
	}

	f.snapshots.Store(gesture.SnapshotFromHands(pixels))
	f.frames.Store(*frame)
	return nil
}

// still reports whether detection can be skipped for frame because nothing
// moved since a snapshot was last published.
func (f *Feed) still(frame *gocv.Mat) bool {
	if f.motion == nil {
		return false
	}
	// The gate's own threshold decides; the change percentage is not needed.
	moved, _ := f.motion.Detect(frame)
	if moved || f.snapshots.Seq() == 0 || f.skips >= maxStillSkips {
		f.skips = 0
		return false
	}
	f.skips++
	return true
}

// Run calls Step until ctx is done. Failures are logged and retried after a
// short pause.
func (f *Feed) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := f.Step(); err != nil {
			f.errors++
			// Log the first failure of a streak and then every 50th.
			if f.errors%50 == 1 {
				log.Printf("feed: %v (%d consecutive)", err, f.errors)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(errorBackoff):
			}
			continue
		}
		f.errors = 0
	}
}

// Close releases the buffered frame and the motion gate.
func (f *Feed) Close() {
	f.frames.Close()
	if f.motion != nil {
		f.motion.Close()
	}
}
