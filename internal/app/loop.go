package app

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/pinchlight/internal/display"
	"github.com/ayusman/pinchlight/internal/gesture"
	"github.com/ayusman/pinchlight/internal/render"
)

// Run drives Tick at the configured frame rate until ctx is done. It is the
// only goroutine that evaluates gestures or fires debounce timers.
func (a *App) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(a.fps))
	defer ticker.Stop()

	log.Printf("app: frame loop started at %d FPS", a.fps)

	for {
		select {
		case <-ctx.Done():
			a.debouncer.Reset()
			log.Println("app: frame loop stopped")
			return
		case <-ticker.C:
			a.Tick()
		}
	}
}

// Tick runs one frame: due timers first, then the latest snapshot is
// evaluated and the preview rendered. It never waits for the feed.
func (a *App) Tick() {
	enabled := a.IsEnabled()
	if !enabled {
		a.debouncer.Reset()
	}

	a.timeline.RunDue()

	snap, ok := a.snapshots.Load()
	region := a.Region()

	if enabled && ok {
		a.debouncer.Evaluate(snap, region)
	}

	a.render(snap, region)
}

func (a *App) render(snap gesture.Snapshot, region gesture.HitRegion) {
	if a.frames == nil || a.encoder == nil {
		return
	}

	frame, ok := a.frames.Clone()
	if !ok {
		return
	}
	defer frame.Close()

	render.Draw(&frame, render.Overlay{
		Region: region,
		Lit:    a.display.Lit(),
		Hands:  render.Markers(snap),
	})

	if err := a.encoder.Encode(frame); err != nil {
		log.Printf("app: render: %v", err)
	}
}

// activate is the debouncer's activation sink. It runs on the frame loop.
func (a *App) activate() {
	mode := display.ModeGray
	if a.display.Toggle() {
		mode = display.ModeColor
	}

	act := Activation{
		ID:      uuid.NewString(),
		Display: mode,
		At:      a.clock.Now(),
	}

	a.mu.Lock()
	a.activations++
	a.last = &act
	a.mu.Unlock()

	log.Printf("app: activation %s: display=%s", act.ID, mode)
	a.publish(Notice{Type: NoticeActivation, Activation: &act})

	if a.hook == nil {
		return
	}

	a.hooks.Add(1)
	go func() {
		defer a.hooks.Done()
		if err := a.hook.Fire(context.Background(), mode); err != nil {
			log.Printf("app: activation %s: hook: %v", act.ID, err)
		}
	}()
}
