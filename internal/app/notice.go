package app

import "github.com/ayusman/pinchlight/internal/gesture"

// Notice types.
const (
	NoticeGesture    = "gesture"
	NoticeActivation = "activation"
	NoticeStatus     = "status"
)

// Notice is one message to subscribers. Exactly one payload field is set,
// matching Type.
type Notice struct {
	Type       string         `json:"type"`
	Event      *gesture.Event `json:"event,omitempty"`
	Activation *Activation    `json:"activation,omitempty"`
	Status     *Status        `json:"status,omitempty"`
}

// Subscribe registers fn for every notice and returns a function that
// removes it. fn runs on the publishing goroutine and must not block.
func (a *App) Subscribe(fn func(Notice)) (unsubscribe func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.nextSub
	a.nextSub++
	a.subscribers[id] = fn

	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.subscribers, id)
	}
}

func (a *App) onEvent(e gesture.Event) {
	a.publish(Notice{Type: NoticeGesture, Event: &e})
}

func (a *App) publish(n Notice) {
	a.mu.RLock()
	subs := make([]func(Notice), 0, len(a.subscribers))
	for _, fn := range a.subscribers {
		subs = append(subs, fn)
	}
	a.mu.RUnlock()

	for _, fn := range subs {
		fn(n)
	}
}
