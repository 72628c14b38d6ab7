package realtime

import (
	"sync"
)

// TotalUnread is a single observable value for a user's aggregate unread
// count. Listeners fire only on actual change, never on a same-value set.
type TotalUnread struct {
	mu        sync.Mutex
	value     int64
	listeners []func(int64)
}

func NewTotalUnread() *TotalUnread {
	return &TotalUnread{}
}

func (t *TotalUnread) Get() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}

// Set replaces the value and notifies listeners when it changed.
func (t *TotalUnread) Set(v int64) {
	t.mu.Lock()
	if v == t.value {
		t.mu.Unlock()
		return
	}
	t.value = v
	listeners := make([]func(int64), len(t.listeners))
	copy(listeners, t.listeners)
	t.mu.Unlock()

	for _, fn := range listeners {
		fn(v)
	}
}

// OnChange registers a listener invoked with the new value after each change.
func (t *TotalUnread) OnChange(fn func(int64)) {
	t.mu.Lock()
	t.listeners = append(t.listeners, fn)
	t.mu.Unlock()
}
