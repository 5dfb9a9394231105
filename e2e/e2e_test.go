package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/pinchlight/internal/app"
	"github.com/ayusman/pinchlight/internal/capture"
	"github.com/ayusman/pinchlight/internal/detector"
	"github.com/ayusman/pinchlight/internal/feed"
	"github.com/ayusman/pinchlight/internal/gesture"
	"github.com/ayusman/pinchlight/internal/render"
	"github.com/ayusman/pinchlight/internal/server"
	"github.com/ayusman/pinchlight/internal/store"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type pipeline struct {
	det     *detector.MockDetector
	feed    *feed.Feed
	app     *app.App
	encoder *render.Encoder
	clock   *stepClock
	server  *httptest.Server
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	frame := gocv.NewMatWithSize(capture.DefaultHeight, capture.DefaultWidth, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { frame.Close() })

	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)
	if err := cam.Open(); err != nil {
		t.Fatalf("camera.Open() error = %v", err)
	}
	t.Cleanup(func() { cam.Close() })

	p := &pipeline{
		det:     detector.NewMockDetector(),
		encoder: render.NewEncoder(render.DefaultQuality),
		clock:   &stepClock{now: time.Unix(0, 0)},
	}
	p.feed = feed.New(cam, p.det)
	t.Cleanup(p.feed.Close)

	p.app, err = app.New(app.Config{
		Debounce:  200 * time.Millisecond,
		Region:    gesture.CenteredRegion(capture.DefaultWidth, capture.DefaultHeight, 200, 200),
		Snapshots: p.feed.Snapshots(),
		Frames:    p.feed.Frames(),
		Encoder:   p.encoder,
		Store:     s,
		Clock:     p.clock,
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	events := server.NewEventsHandler(func() any {
		status := p.app.Status()
		return app.Notice{Type: app.NoticeStatus, Status: &status}
	})
	t.Cleanup(p.app.Subscribe(func(n app.Notice) { events.Broadcast(n) }))

	p.server = httptest.NewServer(server.New(server.Config{
		App:     p.app,
		Preview: p.encoder,
		Events:  events,
	}))
	t.Cleanup(func() {
		events.Close()
		p.server.Close()
	})

	return p
}

// frame runs the capture side and the frame loop once with hands in view.
func (p *pipeline) frame(t *testing.T, dt time.Duration, hands ...detector.HandLandmarks) {
	t.Helper()
	p.det.SetHands(hands)
	if err := p.feed.Step(); err != nil {
		t.Fatalf("feed.Step() error = %v", err)
	}
	p.clock.Advance(dt)
	p.app.Tick()
}

func (p *pipeline) status(t *testing.T) app.Status {
	t.Helper()
	resp, err := p.server.Client().Get(p.server.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET /api/status error = %v", err)
	}
	defer resp.Body.Close()

	var st app.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	return st
}

func TestE2E_PinchTogglesDisplay(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	p := newPipeline(t)

	url := "ws" + strings.TrimPrefix(p.server.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial events: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var greeting app.Notice
	if err := conn.ReadJSON(&greeting); err != nil {
		t.Fatalf("read greeting: %v", err)
	}

	t.Run("Pinch", func(t *testing.T) {
		p.frame(t, 33*time.Millisecond, detector.PinchedLandmarks(0.5, 0.5))
		p.frame(t, 33*time.Millisecond, detector.OpenHandLandmarks(0.5, 0.5))

		if st := p.status(t); st.Display != "color" || len(st.Hands) != 1 || st.Hands[0] != gesture.Pending {
			t.Fatalf("after release: display=%s hands=%v, want color [pending]", st.Display, st.Hands)
		}
	})

	t.Run("DebounceElapses", func(t *testing.T) {
		p.frame(t, 250*time.Millisecond, detector.OpenHandLandmarks(0.5, 0.5))

		st := p.status(t)
		if st.Display != "gray" {
			t.Errorf("display = %s, want gray", st.Display)
		}
		if st.Activations != 1 || st.LastActivation == nil {
			t.Errorf("activations = %d, last = %v", st.Activations, st.LastActivation)
		}
	})

	t.Run("ActivationNotice", func(t *testing.T) {
		deadline := time.Now().Add(2 * time.Second)
		for {
			conn.SetReadDeadline(deadline)
			var n app.Notice
			if err := conn.ReadJSON(&n); err != nil {
				t.Fatalf("no activation notice: %v", err)
			}
			if n.Type == app.NoticeActivation {
				if n.Activation.Display != "gray" {
					t.Errorf("notice display = %s, want gray", n.Activation.Display)
				}
				return
			}
		}
	})

	t.Run("PreviewRendered", func(t *testing.T) {
		jpeg, ok := p.encoder.Latest()
		if !ok {
			t.Fatal("no preview frame encoded")
		}
		if !bytes.HasPrefix(jpeg, []byte{0xFF, 0xD8}) {
			t.Error("preview is not a JPEG")
		}
	})
}

func TestE2E_DisabledIgnoresPinch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	p := newPipeline(t)

	req, _ := http.NewRequest(http.MethodPut, p.server.URL+"/api/enabled", strings.NewReader(`{"enabled": false}`))
	resp, err := p.server.Client().Do(req)
	if err != nil {
		t.Fatalf("PUT /api/enabled error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	p.frame(t, 33*time.Millisecond, detector.PinchedLandmarks(0.5, 0.5))
	p.frame(t, 33*time.Millisecond, detector.OpenHandLandmarks(0.5, 0.5))
	p.frame(t, time.Second, detector.OpenHandLandmarks(0.5, 0.5))

	st := p.status(t)
	if st.Enabled || st.Display != "color" || st.Activations != 0 {
		t.Errorf("disabled pipeline changed state: %+v", st)
	}
}

func TestE2E_PinchOutsideRegion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	p := newPipeline(t)

	p.frame(t, 33*time.Millisecond, detector.PinchedLandmarks(0.1, 0.1))
	p.frame(t, 33*time.Millisecond, detector.OpenHandLandmarks(0.1, 0.1))
	p.frame(t, time.Second, detector.OpenHandLandmarks(0.1, 0.1))

	if st := p.status(t); st.Display != "color" || st.Activations != 0 {
		t.Errorf("pinch outside the region toggled the display: %+v", st)
	}
}
