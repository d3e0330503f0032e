package runs

import "sync"

// feedBuffer is the per-subscriber channel depth. A subscriber that stops
// draining loses events rather than blocking the publisher.
const feedBuffer = 16

// Feed fans run events out to subscribers. Publishing never blocks.
type Feed struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewFeed creates an empty feed
func NewFeed() *Feed {
	return &Feed{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber and returns its event channel plus
// a cancel function. Cancel must be called exactly once; the channel is
// closed by it.
func (f *Feed) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, feedBuffer)

	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subs[ch]; ok {
			delete(f.subs, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber with room in its buffer
func (f *Feed) Publish(e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subs {
		select {
		case ch <- e:
		default:
			// Slow subscriber; drop rather than stall the run path.
		}
	}
}

// SubscriberCount reports the number of active subscribers
func (f *Feed) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
