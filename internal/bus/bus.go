// Package bus is the application-wide publish/subscribe hub. Delivery is
// synchronous: Publish calls every current subscriber of a topic on the
// publisher's goroutine before returning.
package bus

import "sync"

// Handler receives a published payload.
type Handler func(payload any)

// Publisher is the send side of a Bus.
type Publisher interface {
	Publish(topic string, payload any) int
}

type subscriber struct {
	id      uint64
	handler Handler
}

// Bus maps topics to ordered subscriber lists. It is safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	topics map[string][]subscriber
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{topics: make(map[string][]subscriber)}
}

// Subscribe registers h for topic and returns a function that removes it.
// The returned function is idempotent.
func (b *Bus) Subscribe(topic string, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.topics[topic] = append(b.topics[topic], subscriber{id: id, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(topic, id) })
	}
}

func (b *Bus) remove(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.topics[topic]
	for i, s := range subs {
		if s.id != id {
			continue
		}
		// Copy rather than shift in place; Publish may be iterating a
		// snapshot of the old slice.
		next := make([]subscriber, 0, len(subs)-1)
		next = append(next, subs[:i]...)
		next = append(next, subs[i+1:]...)
		if len(next) == 0 {
			delete(b.topics, topic)
		} else {
			b.topics[topic] = next
		}
		return
	}
}

// Publish delivers payload to every subscriber of topic in subscription
// order and returns the number of handlers called. Handlers may subscribe
// or unsubscribe; such changes apply from the next Publish.
func (b *Bus) Publish(topic string, payload any) int {
	b.mu.RLock()
	subs := b.topics[topic]
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(payload)
	}
	return len(subs)
}
