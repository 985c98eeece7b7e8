package service

import (
	"sync"

	iface "github.com/bicoltravel/btg-cli/internal/service/interface"
)

type subscriber struct {
	id      iface.Subscription
	handler func(iface.Session)
}

// Broadcaster fans the current session out to subscribers.
// Publish delivers synchronously: every handler has run before it returns.
type Broadcaster struct {
	mu          sync.RWMutex
	current     iface.Session
	subscribers []subscriber
	nextID      iface.Subscription

	// deliverMu keeps delivery order equal to publish order
	deliverMu sync.Mutex
}

// NewBroadcaster creates a broadcaster whose snapshot is LoggedOut
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{current: iface.Session{State: iface.StateLoggedOut}}
}

// Subscribe registers handler for future sessions
func (b *Broadcaster) Subscribe(handler func(iface.Session)) iface.Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.subscribers = append(b.subscribers, subscriber{id: b.nextID, handler: handler})
	return b.nextID
}

// Unsubscribe removes a handler. Unknown handles are ignored.
func (b *Broadcaster) Unsubscribe(sub iface.Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subscribers {
		if s.id == sub {
			b.subscribers = append(b.subscribers[:i:i], b.subscribers[i+1:]...)
			return
		}
	}
}

// Snapshot returns the last published session
func (b *Broadcaster) Snapshot() iface.Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// Publish records session as current and hands it to every subscriber.
// Handlers may call Snapshot.
func (b *Broadcaster) Publish(session iface.Session) {
	b.deliverMu.Lock()
	defer b.deliverMu.Unlock()

	b.mu.Lock()
	b.current = session
	subscribers := append([]subscriber(nil), b.subscribers...)
	b.mu.Unlock()

	for _, s := range subscribers {
		s.handler(session)
	}
}
