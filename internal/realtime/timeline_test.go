package realtime

import (
	"errors"
	"fmt"
	"testing"

	"github.com/eventzx/messaging/internal/models"
	"github.com/eventzx/messaging/internal/testutil"
)

func timelineMessage(id uint, content string) models.Message {
	return models.Message{
		ID:        id,
		SenderID:  1,
		Content:   content,
		CreatedAt: testutil.At(int(id)),
	}
}

func TestTimelineDeduplicatesRealtimeAndHistory(t *testing.T) {
	tl := NewTimeline()

	// History page lands first, then the broker replays the same rows.
	page := []models.Message{
		timelineMessage(1, "one"),
		timelineMessage(2, "two"),
	}
	if added := tl.AddPage(page); added != 2 {
		t.Fatalf("AddPage added %d, want 2", added)
	}

	if tl.Append(timelineMessage(2, "two")) {
		t.Error("Append accepted a duplicate id")
	}
	if tl.Append(timelineMessage(2, "two")) {
		t.Error("Append accepted a duplicate id on second replay")
	}

	if tl.Len() != 2 {
		t.Errorf("Len = %d, want 2", tl.Len())
	}
}

func TestTimelineOrdersOutOfOrderDelivery(t *testing.T) {
	tl := NewTimeline()

	for _, id := range []uint{5, 2, 9, 1, 7} {
		if !tl.Append(timelineMessage(id, "m")) {
			t.Fatalf("Append rejected fresh id %d", id)
		}
	}

	msgs := tl.Messages()
	want := []uint{1, 2, 5, 7, 9}
	for i, id := range want {
		if msgs[i].ID != id {
			t.Fatalf("position %d holds id %d, want %d", i, msgs[i].ID, id)
		}
	}
}

func TestTimelineTieBreaksByID(t *testing.T) {
	tl := NewTimeline()

	at := testutil.At(10)
	tl.Append(models.Message{ID: 4, CreatedAt: at})
	tl.Append(models.Message{ID: 3, CreatedAt: at})

	msgs := tl.Messages()
	if msgs[0].ID != 3 || msgs[1].ID != 4 {
		t.Errorf("same-timestamp order = [%d %d], want [3 4]", msgs[0].ID, msgs[1].ID)
	}
}

func TestTimelineMergePageAfterRealtime(t *testing.T) {
	tl := NewTimeline()

	// Live delivery got message 3 before the history fetch returned.
	tl.Append(timelineMessage(3, "live"))

	added := tl.AddPage([]models.Message{
		timelineMessage(1, "old"),
		timelineMessage(2, "older"),
		timelineMessage(3, "live"),
	})
	if added != 2 {
		t.Errorf("AddPage added %d, want 2", added)
	}

	msgs := tl.Messages()
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want 3", len(msgs))
	}
	for i, msg := range msgs {
		if msg.ID != uint(i+1) {
			t.Errorf("position %d holds id %d, want %d", i, msg.ID, i+1)
		}
	}
}

func TestPagerLoadsSequentialPages(t *testing.T) {
	tl := NewTimeline()
	var fetched []int
	pager := NewPager(tl, 2, func(pageIndex, pageSize int) ([]models.Message, bool, error) {
		fetched = append(fetched, pageIndex)
		base := uint(pageIndex * pageSize)
		return []models.Message{
			timelineMessage(base+1, "a"),
			timelineMessage(base+2, "b"),
		}, pageIndex < 1, nil
	})

	if ok, err := pager.LoadOlder(); err != nil || !ok {
		t.Fatalf("first LoadOlder = (%v, %v), want (true, nil)", ok, err)
	}
	if ok, err := pager.LoadOlder(); err != nil || !ok {
		t.Fatalf("second LoadOlder = (%v, %v), want (true, nil)", ok, err)
	}

	if len(fetched) != 2 || fetched[0] != 0 || fetched[1] != 1 {
		t.Errorf("fetched pages %v, want [0 1]", fetched)
	}
	if pager.HasMore() {
		t.Error("HasMore still true after final page")
	}
	if ok, _ := pager.LoadOlder(); ok {
		t.Error("LoadOlder fetched past the final page")
	}
	if tl.Len() != 4 {
		t.Errorf("timeline holds %d messages, want 4", tl.Len())
	}
}

func TestPagerBlocksOverlappingLoads(t *testing.T) {
	tl := NewTimeline()

	release := make(chan struct{})
	started := make(chan struct{})
	pager := NewPager(tl, 2, func(pageIndex, pageSize int) ([]models.Message, bool, error) {
		close(started)
		<-release
		return []models.Message{timelineMessage(1, "slow")}, false, nil
	})

	done := make(chan struct{})
	go func() {
		pager.LoadOlder()
		close(done)
	}()
	<-started

	// Second call while the first is in flight must refuse, not re-fetch.
	if ok, err := pager.LoadOlder(); ok || err != nil {
		t.Errorf("overlapping LoadOlder = (%v, %v), want (false, nil)", ok, err)
	}

	close(release)
	<-done

	if tl.Len() != 1 {
		t.Errorf("timeline holds %d messages, want 1", tl.Len())
	}
}

func TestPagerRetriesAfterFetchError(t *testing.T) {
	tl := NewTimeline()

	fail := true
	pager := NewPager(tl, 2, func(pageIndex, pageSize int) ([]models.Message, bool, error) {
		if fail {
			return nil, false, errors.New("store unavailable")
		}
		if pageIndex != 0 {
			return nil, false, fmt.Errorf("unexpected page %d", pageIndex)
		}
		return []models.Message{timelineMessage(1, "ok")}, false, nil
	})

	if ok, err := pager.LoadOlder(); ok || err == nil {
		t.Fatalf("failing LoadOlder = (%v, %v), want (false, error)", ok, err)
	}

	// A failed fetch must not advance the cursor.
	fail = false
	if ok, err := pager.LoadOlder(); err != nil || !ok {
		t.Fatalf("retry LoadOlder = (%v, %v), want (true, nil)", ok, err)
	}
	if tl.Len() != 1 {
		t.Errorf("timeline holds %d messages, want 1", tl.Len())
	}
}
