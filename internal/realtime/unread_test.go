package realtime

import (
	"sync"
	"testing"
)

func TestTotalUnreadNotifiesOnChange(t *testing.T) {
	total := NewTotalUnread()

	var seen []int64
	total.OnChange(func(v int64) { seen = append(seen, v) })

	total.Set(3)
	total.Set(3) // same value, no notification
	total.Set(0)

	if total.Get() != 0 {
		t.Errorf("Get = %d, want 0", total.Get())
	}
	if len(seen) != 2 || seen[0] != 3 || seen[1] != 0 {
		t.Errorf("notifications = %v, want [3 0]", seen)
	}
}

func TestTotalUnreadInitialZeroSetIsSilent(t *testing.T) {
	total := NewTotalUnread()

	fired := false
	total.OnChange(func(int64) { fired = true })

	total.Set(0)
	if fired {
		t.Error("listener fired for a no-op set to the initial value")
	}
}

func TestTotalUnreadMultipleListeners(t *testing.T) {
	total := NewTotalUnread()

	var a, b int64
	total.OnChange(func(v int64) { a = v })
	total.OnChange(func(v int64) { b = v })

	total.Set(7)
	if a != 7 || b != 7 {
		t.Errorf("listeners saw (%d, %d), want (7, 7)", a, b)
	}
}

func TestTotalUnreadConcurrentSets(t *testing.T) {
	total := NewTotalUnread()

	var mu sync.Mutex
	last := int64(-1)
	total.OnChange(func(v int64) {
		mu.Lock()
		last = v
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(v int64) {
			defer wg.Done()
			total.Set(v)
		}(int64(i))
	}
	wg.Wait()

	got := total.Get()
	if got < 1 || got > 20 {
		t.Errorf("Get = %d, want one of the written values", got)
	}
	mu.Lock()
	if last == -1 {
		t.Error("no listener invocation observed")
	}
	mu.Unlock()
}
