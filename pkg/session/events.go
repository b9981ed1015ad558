package session

import "sync"

// EventKind names the authentication signals the client publishes.
type EventKind string

const (
	// EventAuthenticated fires after a successful login or registration.
	EventAuthenticated EventKind = "authenticated"
	// EventAuthRequired fires when the session could not be silently
	// repaired and the user must log in again.
	EventAuthRequired EventKind = "auth-required"
	// EventLoggedOut fires after logout has cleared local state.
	EventLoggedOut EventKind = "logged-out"
)

// Event is a broadcast authentication signal.
type Event struct {
	Kind EventKind
	// ReturnTo is the caller-supplied destination to resume once the user
	// has re-authenticated. Only set on EventAuthRequired.
	ReturnTo string
	Message  string
}

const subscriberBuffer = 8

// Broker fans authentication events out to subscribers. It replaces the
// window-level custom events of a browser client with an in-process
// subscription the embedding application can select on.
type Broker struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// NewBroker returns an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan Event)}
}

// Subscribe registers a listener. The returned cancel func removes it and
// closes the channel.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if ch, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
}

// Publish delivers ev to every subscriber without blocking. A subscriber
// whose buffer is full misses the event rather than stalling the client.
func (b *Broker) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
