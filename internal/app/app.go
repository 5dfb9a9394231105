// Package app wires the observation feed, the pinch debouncer and the
// display together and drives them from a fixed-rate frame loop.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/ayusman/pinchlight/internal/display"
	"github.com/ayusman/pinchlight/internal/feed"
	"github.com/ayusman/pinchlight/internal/gesture"
	"github.com/ayusman/pinchlight/internal/render"
	"github.com/ayusman/pinchlight/internal/store"
)

// DefaultFPS is the frame loop rate when Config.FPS is zero.
const DefaultFPS = 30

// MaxDebounceMS is the longest accepted debounce interval, one hour.
const MaxDebounceMS = int64(time.Hour / time.Millisecond)

// ErrInvalidSettings is wrapped by ApplySettings validation failures.
var ErrInvalidSettings = errors.New("invalid settings")

// Hook is notified of every activation with the new display mode.
type Hook interface {
	Fire(ctx context.Context, display string) error
}

// Config holds the application's collaborators and initial settings.
type Config struct {
	FPS      int
	Debounce time.Duration
	Region   gesture.HitRegion

	// Snapshots is read once per frame. Required.
	Snapshots *feed.Latest[gesture.Snapshot]
	// Frames and Encoder enable the rendered preview. Either may be nil.
	Frames  *feed.FrameCell
	Encoder *render.Encoder

	// Store persists settings changes. Optional.
	Store *store.Store
	// Hook runs on every activation, off the frame loop. Optional.
	Hook Hook
	// Clock drives debounce timers. Nil means the system clock.
	Clock gesture.Clock
}

// Settings are the values that can be changed while running.
type Settings struct {
	DebounceMS int64             `json:"debounce_ms"`
	Region     gesture.HitRegion `json:"region"`
}

// Debounce returns the interval as a duration.
func (s Settings) Debounce() time.Duration {
	return time.Duration(s.DebounceMS) * time.Millisecond
}

// Validate checks that the debounce is in 1..MaxDebounceMS and the region
// not empty.
func (s Settings) Validate() error {
	if s.DebounceMS <= 0 || s.DebounceMS > MaxDebounceMS {
		return fmt.Errorf("%w: debounce_ms must be in 1..%d", ErrInvalidSettings, MaxDebounceMS)
	}
	if s.Region.Width <= 0 || s.Region.Height <= 0 {
		return fmt.Errorf("%w: region must have positive size", ErrInvalidSettings)
	}
	return nil
}

// Activation records one toggle of the display.
type Activation struct {
	ID      string    `json:"id"`
	Display string    `json:"display"`
	At      time.Time `json:"at"`
}

// Status is a point-in-time view of the application.
type Status struct {
	Enabled        bool            `json:"enabled"`
	Display        string          `json:"display"`
	Hands          []gesture.State `json:"hands"`
	Settings       Settings        `json:"settings"`
	Activations    uint64          `json:"activations"`
	LastActivation *Activation     `json:"last_activation,omitempty"`
}

// App is the pinchlight orchestrator.
type App struct {
	fps       int
	clock     gesture.Clock
	timeline  *gesture.Timeline
	debouncer *gesture.Debouncer
	display   *display.State
	snapshots *feed.Latest[gesture.Snapshot]
	frames    *feed.FrameCell
	encoder   *render.Encoder
	store     *store.Store
	hook      Hook

	mu          sync.RWMutex
	enabled     bool
	region      gesture.HitRegion
	subscribers map[int]func(Notice)
	nextSub     int
	activations uint64
	last        *Activation

	hooks sync.WaitGroup
}

// New creates an App. Settings previously saved in the store override the
// ones in config.
func New(config Config) (*App, error) {
	if config.Snapshots == nil {
		return nil, errors.New("app: snapshot source is required")
	}
	if config.FPS <= 0 {
		config.FPS = DefaultFPS
	}
	if config.Clock == nil {
		config.Clock = gesture.SystemClock()
	}

	a := &App{
		fps:         config.FPS,
		clock:       config.Clock,
		timeline:    gesture.NewTimeline(config.Clock),
		display:     display.New(),
		snapshots:   config.Snapshots,
		frames:      config.Frames,
		encoder:     config.Encoder,
		store:       config.Store,
		hook:        config.Hook,
		enabled:     true,
		region:      config.Region,
		subscribers: make(map[int]func(Notice)),
	}

	a.debouncer = gesture.NewDebouncer(gesture.Config{
		Debounce: config.Debounce,
		Clock:    config.Clock,
	}, a.timeline, a.activate)
	a.debouncer.Observe(a.onEvent)

	if err := a.restore(); err != nil {
		return nil, err
	}

	return a, nil
}

// restore loads persisted overrides. Unreadable values are logged and
// ignored so a bad row cannot keep the app from starting.
func (a *App) restore() error {
	if a.store == nil {
		return nil
	}

	saved, err := a.store.Settings().All()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if v, ok := saved[store.KeyDebounce]; ok {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			a.debouncer.SetDebounce(d)
		} else {
			log.Printf("app: ignoring stored debounce %q", v)
		}
	}
	if v, ok := saved[store.KeyRegion]; ok {
		var r gesture.HitRegion
		if err := json.Unmarshal([]byte(v), &r); err == nil && r.Width > 0 && r.Height > 0 {
			a.region = r
		} else {
			log.Printf("app: ignoring stored region %q", v)
		}
	}
	if v, ok := saved[store.KeyEnabled]; ok {
		if enabled, err := strconv.ParseBool(v); err == nil {
			a.enabled = enabled
		} else {
			log.Printf("app: ignoring stored enabled %q", v)
		}
	}

	return nil
}

// SetEnabled turns gesture evaluation on or off. Disabling drops every
// tracked hand and pending activation on the next frame.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	changed := a.enabled != enabled
	a.enabled = enabled
	a.mu.Unlock()

	if !changed {
		return
	}

	log.Printf("app: gesture detection enabled=%v", enabled)
	if a.store != nil {
		if err := a.store.Settings().Set(store.KeyEnabled, strconv.FormatBool(enabled)); err != nil {
			log.Printf("app: persist enabled: %v", err)
		}
	}
	a.publish(Notice{Type: NoticeStatus, Status: ptr(a.Status())})
}

// IsEnabled returns whether gesture evaluation is on.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Display returns the display state toggled by activations.
func (a *App) Display() *display.State {
	return a.display
}

// Region returns the current hit region.
func (a *App) Region() gesture.HitRegion {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.region
}

// Settings returns the current runtime settings.
func (a *App) Settings() Settings {
	return Settings{
		DebounceMS: a.debouncer.Debounce().Milliseconds(),
		Region:     a.Region(),
	}
}

// ApplySettings validates s, applies it and saves it to the store. The new
// debounce only affects activations scheduled afterwards.
func (a *App) ApplySettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	a.debouncer.SetDebounce(s.Debounce())
	a.mu.Lock()
	a.region = s.Region
	a.mu.Unlock()

	log.Printf("app: settings applied: debounce=%s region=%+v", s.Debounce(), s.Region)

	if a.store != nil {
		region, err := json.Marshal(s.Region)
		if err != nil {
			return fmt.Errorf("encode region: %w", err)
		}
		if err := a.store.Settings().SetMany(map[string]string{
			store.KeyDebounce: s.Debounce().String(),
			store.KeyRegion:   string(region),
		}); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
	}

	a.publish(Notice{Type: NoticeStatus, Status: ptr(a.Status())})
	return nil
}

// Status returns a snapshot of the application state.
func (a *App) Status() Status {
	hands := a.debouncer.States()
	settings := a.Settings()

	a.mu.RLock()
	defer a.mu.RUnlock()

	var last *Activation
	if a.last != nil {
		copied := *a.last
		last = &copied
	}

	return Status{
		Enabled:        a.enabled,
		Display:        a.display.Mode(),
		Hands:          hands,
		Settings:       settings,
		Activations:    a.activations,
		LastActivation: last,
	}
}

// Wait blocks until every running activation hook has returned.
func (a *App) Wait() {
	a.hooks.Wait()
}

func ptr[T any](v T) *T {
	return &v
}
