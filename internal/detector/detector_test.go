package detector

import (
	"errors"
	"math"
	"strconv"
	"testing"
)

const epsilon = 1e-9

func planar(a, b Point3D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func TestHandLandmarks_ToPixels(t *testing.T) {
	hand := HandLandmarks{Handedness: "Left", Score: 0.8}
	hand.Points[ThumbTip] = Point3D{X: 0.5, Y: 0.25, Z: -0.1}

	px := hand.ToPixels(640, 480)

	got := px.Points[ThumbTip]
	want := Point3D{X: 320, Y: 120, Z: -64}
	if math.Abs(got.X-want.X) > epsilon || math.Abs(got.Y-want.Y) > epsilon || math.Abs(got.Z-want.Z) > epsilon {
		t.Errorf("ToPixels thumb = %+v, want %+v", got, want)
	}

	if px.Handedness != "Left" || px.Score != 0.8 {
		t.Errorf("metadata not preserved: %q %f", px.Handedness, px.Score)
	}

	// The receiver is not modified.
	if hand.Points[ThumbTip].X != 0.5 {
		t.Errorf("ToPixels modified its receiver")
	}
}

func TestPoint3D_Finite(t *testing.T) {
	tests := []struct {
		name string
		p    Point3D
		want bool
	}{
		{"zero", Point3D{}, true},
		{"negative depth", Point3D{X: 1, Y: 2, Z: -50}, true},
		{"nan x", Point3D{X: math.NaN()}, false},
		{"inf z", Point3D{Z: math.Inf(-1)}, false},
		{"missing", Missing(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Finite(); got != tt.want {
				t.Errorf("Finite() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseResponse(t *testing.T) {
	t.Run("complete hand", func(t *testing.T) {
		line := `{"hands":[{"handedness":"Right","score":0.9,"points":[` + points(NumLandmarks) + `]}]}`

		hands, err := parseResponse([]byte(line), 0.5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(hands))
		}
		if !hands[0].Points[PinkyTip].Finite() {
			t.Error("expected all points to be finite")
		}
		if hands[0].Points[IndexTip].X != float64(IndexTip) {
			t.Errorf("index tip X = %f, want %d", hands[0].Points[IndexTip].X, IndexTip)
		}
	})

	t.Run("truncated hand marks missing points", func(t *testing.T) {
		line := `{"hands":[{"handedness":"Right","score":0.9,"points":[` + points(5) + `]}]}`

		hands, err := parseResponse([]byte(line), 0.5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !hands[0].Points[ThumbTip].Finite() {
			t.Error("thumb tip was reported and should be finite")
		}
		if hands[0].Points[IndexTip].Finite() {
			t.Error("index tip was not reported and should be missing")
		}
	})

	t.Run("low score hands are dropped", func(t *testing.T) {
		line := `{"hands":[{"handedness":"Left","score":0.2,"points":[]},{"handedness":"Right","score":0.7,"points":[]}]}`

		hands, err := parseResponse([]byte(line), 0.5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 1 || hands[0].Handedness != "Right" {
			t.Errorf("expected only the right hand, got %+v", hands)
		}
	})

	t.Run("no hands", func(t *testing.T) {
		hands, err := parseResponse([]byte(`{"hands":[]}`), 0.5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected no hands, got %d", len(hands))
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, err := parseResponse([]byte(`{"hands":`), 0.5); err == nil {
			t.Error("expected error for invalid json")
		}
	})
}

// points renders n points whose X equals their index.
func points(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			s += ","
		}
		s += `{"x":` + strconv.Itoa(i) + `,"y":0.5,"z":0}`
	}
	return s
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
		if mock.Calls() != 1 {
			t.Errorf("expected 1 call, got %d", mock.Calls())
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]HandLandmarks{
			PinchedLandmarks(0.5, 0.5),
			OpenHandLandmarks(0.2, 0.2),
		})

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(hands))
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("Close returns nil", func(t *testing.T) {
		if err := NewMockDetector().Close(); err != nil {
			t.Errorf("expected Close to return nil, got %v", err)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*MediaPipeDetector)(nil)
	})
}

func TestPresets(t *testing.T) {
	t.Run("pinched fingertips nearly touch in pixel space", func(t *testing.T) {
		hand := PinchedLandmarks(0.5, 0.5).ToPixels(640, 480)

		d := planar(hand.Points[ThumbTip], hand.Points[IndexTip])
		if d > 5 {
			t.Errorf("pinched tip distance = %f px, want <= 5", d)
		}
	})

	t.Run("open hand fingertips are far apart", func(t *testing.T) {
		hand := OpenHandLandmarks(0.5, 0.5).ToPixels(640, 480)

		d := planar(hand.Points[ThumbTip], hand.Points[IndexTip])
		if d < 60 {
			t.Errorf("open tip distance = %f px, want >= 60", d)
		}
	})

	t.Run("thumb tip sits at the requested point", func(t *testing.T) {
		for _, hand := range []HandLandmarks{PinchedLandmarks(0.3, 0.6), OpenHandLandmarks(0.3, 0.6)} {
			tip := hand.Points[ThumbTip]
			if math.Abs(tip.X-0.3) > epsilon || math.Abs(tip.Y-0.6) > epsilon {
				t.Errorf("thumb tip = %+v, want (0.3, 0.6)", tip)
			}
		}
	})

	t.Run("all points are finite", func(t *testing.T) {
		hand := OpenHandLandmarks(0.5, 0.5)
		for i, p := range hand.Points {
			if !p.Finite() {
				t.Errorf("point %d is not finite", i)
			}
		}
	})
}
