package cache

import "sync"

// Table topics used by the watch hub. One topic per cache table.
const (
	topicHabits     = "habits"
	topicTemplates  = "habit_templates"
	topicEmotions   = "emotions"
	topicActivities = "activities"
	topicProfile    = "profile"
)

// hub fans out write notifications to table observers. Signals are
// coalesced: a subscriber that hasn't drained its channel yet receives at
// most one pending signal, which is enough because observers re-query the
// table rather than consume the events themselves.
type hub struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[chan struct{}]struct{})}
}

// subscribe registers an observer for a table topic. The returned cancel
// func must be called when the observer stops.
func (h *hub) subscribe(topic string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[chan struct{}]struct{})
	}
	h.subs[topic][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs[topic], ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

// notify signals every observer of a table topic without blocking.
func (h *hub) notify(topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[topic] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
