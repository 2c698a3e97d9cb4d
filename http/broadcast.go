package http

import (
	"sync"

	"github.com/fwojciec/tranquility/session"
)

const subscriberBuffer = 16

// Broadcaster fans session snapshots out to stream subscribers, keyed by
// session ID. A closed snapshot ends every subscription of that session.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[string]map[chan session.Snapshot]struct{}
}

// NewBroadcaster creates an empty [Broadcaster].
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]map[chan session.Snapshot]struct{})}
}

// Subscribe returns a channel receiving snapshots of the session with id and
// a function that ends the subscription. The channel is closed after the
// session's closed snapshot or when unsubscribe is called.
func (b *Broadcaster) Subscribe(id string) (<-chan session.Snapshot, func()) {
	ch := make(chan session.Snapshot, subscriberBuffer)
	b.mu.Lock()
	if b.subs[id] == nil {
		b.subs[id] = make(map[chan session.Snapshot]struct{})
	}
	b.subs[id][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id][ch]; !ok {
				return
			}
			delete(b.subs[id], ch)
			if len(b.subs[id]) == 0 {
				delete(b.subs, id)
			}
			close(ch)
		})
	}
}

// Publish delivers snap to the subscribers of its session. It never blocks:
// a subscriber that has fallen behind loses its oldest pending snapshot.
func (b *Broadcaster) Publish(snap session.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[snap.ID] {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
	if snap.State == session.StateClosed {
		for ch := range b.subs[snap.ID] {
			close(ch)
		}
		delete(b.subs, snap.ID)
	}
}

// Subscribers returns the number of open subscriptions for id.
func (b *Broadcaster) Subscribers(id string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[id])
}
