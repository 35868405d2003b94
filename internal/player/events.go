package player

import "sync"

type EventKind string

const (
	EventTrackChanged EventKind = "TRACK_CHANGED"
	EventStatus       EventKind = "STATUS"
	EventStopped      EventKind = "STOPPED"
	EventCompleted    EventKind = "COMPLETED"
	EventListChanged  EventKind = "LIST_CHANGED"
	EventError        EventKind = "ERROR"
)

// Event tells subscribers something changed. Subscribers read Status for the
// details.
type Event struct {
	Kind  EventKind `json:"type"`
	Index int       `json:"index"`
	Err   string    `json:"error,omitempty"`
}

const subscriberBuffer = 16

type broker struct {
	mu     sync.Mutex
	next   int
	subs   map[int]chan Event
	closed bool
}

func newBroker() *broker {
	return &broker{subs: make(map[int]chan Event)}
}

// publish never blocks: a subscriber with a full buffer misses the event.
func (b *broker) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (b *broker) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

func (b *broker) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// Subscribe returns a channel of change events and a function to stop
// receiving them. The channel is closed by cancel or by Destroy.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	return c.events.subscribe()
}
