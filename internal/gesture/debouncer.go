package gesture

import (
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/pinchlight/internal/detector"
)

// DefaultDebounce is how long a release inside the region must stand before
// it activates.
const DefaultDebounce = 200 * time.Millisecond

// State is the pinch state of one tracked hand.
type State int

const (
	// Idle: not pinching and nothing pending.
	Idle State = iota
	// Engaged: fingertips are together.
	Engaged
	// Pending: released inside the region, activation scheduled.
	Pending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Engaged:
		return "engaged"
	case Pending:
		return "pending"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a name produced by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = Idle
	case "engaged":
		*s = Engaged
	case "pending":
		*s = Pending
	default:
		return fmt.Errorf("unknown hand state %q", text)
	}
	return nil
}

// EventKind names a debouncer transition.
type EventKind string

const (
	EventEngaged   EventKind = "engaged"
	EventReleased  EventKind = "released"
	EventScheduled EventKind = "scheduled"
	EventCanceled  EventKind = "canceled"
	EventActivated EventKind = "activated"
	EventReset     EventKind = "reset"
)

// Event describes one transition of one hand.
type Event struct {
	Hand  int              `json:"hand"`
	Kind  EventKind        `json:"kind"`
	Thumb detector.Point3D `json:"thumb"`
	At    time.Time        `json:"at"`
}

// Config holds debouncer tunables.
type Config struct {
	// Debounce is the delay between a release inside the region and the
	// activation. Zero means DefaultDebounce.
	Debounce time.Duration
	// Clock stamps events. Nil means the system clock.
	Clock Clock
}

type handState struct {
	engaged bool
	pending TaskID
}

func (h handState) state() State {
	switch {
	case h.pending != 0:
		return Pending
	case h.engaged:
		return Engaged
	default:
		return Idle
	}
}

// Debouncer detects pinch-and-release-inside-region gestures and fires the
// activation callback once per gesture, after the debounce interval.
//
// Hands are tracked by their index in the snapshot; there is no stable hand
// identity across frames.
type Debouncer struct {
	mu         sync.Mutex
	debounce   time.Duration
	clock      Clock
	sched      Scheduler
	onActivate func()
	observer   func(Event)
	hands      []handState
}

// NewDebouncer creates a Debouncer that schedules activations on sched and
// calls onActivate when one fires.
func NewDebouncer(cfg Config, sched Scheduler, onActivate func()) *Debouncer {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}
	return &Debouncer{
		debounce:   cfg.Debounce,
		clock:      cfg.Clock,
		sched:      sched,
		onActivate: onActivate,
	}
}

// Observe registers fn to receive every transition. Pass nil to stop.
func (d *Debouncer) Observe(fn func(Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observer = fn
}

// SetDebounce changes the debounce interval for activations scheduled from
// now on. Values <= 0 restore DefaultDebounce.
func (d *Debouncer) SetDebounce(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultDebounce
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.debounce = interval
}

// Debounce returns the current debounce interval.
func (d *Debouncer) Debounce() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.debounce
}

// Evaluate processes one frame. An empty snapshot resets every hand to Idle
// and cancels pending activations; otherwise each valid observation advances
// the state of the hand at its index.
func (d *Debouncer) Evaluate(snap Snapshot, region HitRegion) {
	d.mu.Lock()
	var events []Event
	if len(snap) == 0 {
		events = d.resetLocked()
	} else {
		for i, o := range snap {
			if !o.Valid() {
				continue
			}
			events = d.evaluateHandLocked(events, i, o, region)
		}
	}
	observer := d.observer
	d.mu.Unlock()

	emit(observer, events)
}

func (d *Debouncer) evaluateHandLocked(events []Event, i int, o Observation, region HitRegion) []Event {
	for len(d.hands) <= i {
		d.hands = append(d.hands, handState{})
	}
	h := &d.hands[i]
	now := d.clock.Now()

	if Pinching(o) {
		if !h.engaged {
			h.engaged = true
			events = append(events, Event{Hand: i, Kind: EventEngaged, Thumb: o.Thumb, At: now})
		}
		if h.pending != 0 {
			d.sched.Cancel(h.pending)
			h.pending = 0
			events = append(events, Event{Hand: i, Kind: EventCanceled, Thumb: o.Thumb, At: now})
		}
		return events
	}

	if !h.engaged {
		return events
	}

	h.engaged = false
	events = append(events, Event{Hand: i, Kind: EventReleased, Thumb: o.Thumb, At: now})

	if !region.Contains(o.Thumb) {
		return events
	}

	if h.pending != 0 {
		d.sched.Cancel(h.pending)
	}
	var id TaskID
	id = d.sched.Schedule(d.debounce, func() { d.fire(i, id, o.Thumb) })
	h.pending = id

	return append(events, Event{Hand: i, Kind: EventScheduled, Thumb: o.Thumb, At: now})
}

// fire runs when a scheduled activation comes due. It does nothing if the
// task was superseded after being scheduled.
func (d *Debouncer) fire(hand int, id TaskID, thumb detector.Point3D) {
	d.mu.Lock()
	if hand >= len(d.hands) || d.hands[hand].pending != id {
		d.mu.Unlock()
		return
	}
	d.hands[hand].pending = 0
	observer := d.observer
	now := d.clock.Now()
	d.mu.Unlock()

	if d.onActivate != nil {
		d.onActivate()
	}
	emit(observer, []Event{{Hand: hand, Kind: EventActivated, Thumb: thumb, At: now}})
}

// Reset forces every hand to Idle and cancels pending activations.
func (d *Debouncer) Reset() {
	d.mu.Lock()
	events := d.resetLocked()
	observer := d.observer
	d.mu.Unlock()

	emit(observer, events)
}

func (d *Debouncer) resetLocked() []Event {
	var events []Event
	now := d.clock.Now()
	for i, h := range d.hands {
		if h.pending != 0 {
			d.sched.Cancel(h.pending)
		}
		if h.state() != Idle {
			events = append(events, Event{Hand: i, Kind: EventReset, At: now})
		}
	}
	d.hands = d.hands[:0]
	return events
}

// States returns the current state of every tracked hand, by index.
func (d *Debouncer) States() []State {
	d.mu.Lock()
	defer d.mu.Unlock()

	states := make([]State, len(d.hands))
	for i, h := range d.hands {
		states[i] = h.state()
	}
	return states
}

func emit(observer func(Event), events []Event) {
	if observer == nil {
		return
	}
	for _, e := range events {
		observer(e)
	}
}
