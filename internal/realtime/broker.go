package realtime

import (
	"sync"
)

// Handler consumes events for one subscription. It is invoked zero or more
// times and never after Unsubscribe has returned.
type Handler func(Event)

// Broker is the transport-agnostic delivery port. The in-process
// implementation below backs the websocket hub; tests use it directly.
type Broker interface {
	Publish(topic string, ev Event)
	Subscribe(topic string, h Handler) (*Subscription, error)
}

// MemoryBroker fans events out to in-process subscribers. Delivery is
// synchronous per subscriber and provides no ordering guarantee across
// concurrent publishers.
type MemoryBroker struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		topics: make(map[string]map[*Subscription]struct{}),
	}
}

func (b *MemoryBroker) Subscribe(topic string, h Handler) (*Subscription, error) {
	sub := newSubscription(topic, h, b)

	b.mu.Lock()
	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[*Subscription]struct{})
		b.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	b.mu.Unlock()

	sub.activate()
	return sub, nil
}

func (b *MemoryBroker) Publish(topic string, ev Event) {
	b.mu.RLock()
	subs := make([]*Subscription, 0, len(b.topics[topic]))
	for sub := range b.topics[topic] {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.deliver(ev)
	}
}

// remove detaches a subscription; called from Subscription.Unsubscribe.
func (b *MemoryBroker) remove(sub *Subscription) {
	b.mu.Lock()
	if subs, ok := b.topics[sub.topic]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(b.topics, sub.topic)
		}
	}
	b.mu.Unlock()
}

// SubscriberCount reports the live subscriptions on a topic.
func (b *MemoryBroker) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}
