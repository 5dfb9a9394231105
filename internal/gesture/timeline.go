package gesture

import (
	"sync"
	"time"
)

// TaskID identifies a scheduled task. The zero value means "no task".
type TaskID uint64

// Scheduler runs single-shot deferred tasks that can be canceled.
type Scheduler interface {
	// Schedule arranges for fn to run once after delay.
	Schedule(delay time.Duration, fn func()) TaskID
	// Cancel prevents a task from running. It returns false if the task
	// already ran, was already canceled, or never existed.
	Cancel(id TaskID) bool
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

type task struct {
	id  TaskID
	due time.Time
	fn  func()
}

// Timeline is a Scheduler whose tasks run on the caller's goroutine when it
// calls RunDue, typically once per frame. It never starts goroutines, so
// tasks share the timeline of the frame loop that drives it.
type Timeline struct {
	mu    sync.Mutex
	clock Clock
	last  TaskID
	tasks map[TaskID]*task
}

// NewTimeline creates a Timeline. A nil clock means the system clock.
func NewTimeline(clock Clock) *Timeline {
	if clock == nil {
		clock = SystemClock()
	}
	return &Timeline{
		clock: clock,
		tasks: make(map[TaskID]*task),
	}
}

// Schedule implements Scheduler.
func (t *Timeline) Schedule(delay time.Duration, fn func()) TaskID {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last++
	t.tasks[t.last] = &task{
		id:  t.last,
		due: t.clock.Now().Add(delay),
		fn:  fn,
	}
	return t.last
}

// Cancel implements Scheduler.
func (t *Timeline) Cancel(id TaskID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.tasks[id]; !ok {
		return false
	}
	delete(t.tasks, id)
	return true
}

// RunDue runs every task whose due time has passed, earliest first, and
// returns how many ran. Tasks are run without holding the lock, so a task may
// schedule or cancel others; tasks scheduled while RunDue is running wait for
// the next call.
func (t *Timeline) RunDue() int {
	t.mu.Lock()
	horizon := t.last
	t.mu.Unlock()

	ran := 0
	for {
		next := t.popDue(horizon)
		if next == nil {
			return ran
		}
		next.fn()
		ran++
	}
}

// popDue removes and returns the earliest due task with an id up to horizon.
func (t *Timeline) popDue(horizon TaskID) *task {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	var best *task
	for _, tk := range t.tasks {
		if tk.id > horizon || tk.due.After(now) {
			continue
		}
		if best == nil || tk.due.Before(best.due) || (tk.due.Equal(best.due) && tk.id < best.id) {
			best = tk
		}
	}
	if best != nil {
		delete(t.tasks, best.id)
	}
	return best
}

// Pending returns the number of tasks waiting to run.
func (t *Timeline) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tasks)
}
