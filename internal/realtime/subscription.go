package realtime

import (
	"sync"
	"sync/atomic"
)

// Subscription states. Unsubscribed is terminal; a dropped subscription is
// re-established by calling Subscribe again, never by reviving the old one.
const (
	StateIdle int32 = iota
	StateSubscribing
	StateSubscribed
	StateUnsubscribed
)

// Subscription is one live attachment of a handler to a topic.
type Subscription struct {
	topic   string
	handler Handler
	broker  *MemoryBroker

	state     atomic.Int32
	deliverMu sync.Mutex
}

func newSubscription(topic string, h Handler, b *MemoryBroker) *Subscription {
	sub := &Subscription{topic: topic, handler: h, broker: b}
	sub.state.Store(StateSubscribing)
	return sub
}

func (s *Subscription) activate() {
	s.state.CompareAndSwap(StateSubscribing, StateSubscribed)
}

func (s *Subscription) Topic() string {
	return s.topic
}

func (s *Subscription) State() int32 {
	return s.state.Load()
}

// deliver invokes the handler unless the subscription has been torn down.
// The state check happens inside the delivery lock, so an event in flight
// when Unsubscribe lands is dropped rather than handed to the handler.
func (s *Subscription) deliver(ev Event) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if s.state.Load() != StateSubscribed {
		return
	}
	s.handler(ev)
}

// Unsubscribe stops delivery and releases the broker slot. Idempotent and
// safe to call from inside the handler. A delivery already mid-flight when
// Unsubscribe lands may finish; no further handler call starts after this
// returns.
func (s *Subscription) Unsubscribe() {
	if !s.swapToUnsubscribed() {
		return
	}
	s.broker.remove(s)
	// Barrier for the idle case. TryLock fails only while a delivery holds
	// the lock (possibly our own handler when called reentrantly); that
	// delivery observes the state flip on its next event.
	if s.deliverMu.TryLock() {
		s.deliverMu.Unlock()
	}
}

func (s *Subscription) swapToUnsubscribed() bool {
	for {
		cur := s.state.Load()
		if cur == StateUnsubscribed {
			return false
		}
		if s.state.CompareAndSwap(cur, StateUnsubscribed) {
			return true
		}
	}
}
