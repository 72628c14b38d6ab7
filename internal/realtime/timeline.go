package realtime

import (
	"sort"
	"sync"

	"github.com/eventzx/messaging/internal/models"
)

// Timeline is a client-side message list for one chat. The broker delivers
// at-least-once and may race with a history fetch that already retrieved the
// same row, so everything entering the timeline is deduplicated by message id
// and kept ordered by created_at (id as tie-break).
type Timeline struct {
	mu       sync.Mutex
	seen     map[uint]struct{}
	messages []models.Message
}

func NewTimeline() *Timeline {
	return &Timeline{seen: make(map[uint]struct{})}
}

// Append inserts a newly delivered message in order. Returns false when the
// id was already present.
func (t *Timeline) Append(msg models.Message) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.insert(msg)
}

// AddPage merges a history page (oldest-first, as returned by the store) into
// the timeline, skipping rows realtime delivery already got here first.
// Returns the number of messages actually added.
func (t *Timeline) AddPage(page []models.Message) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	added := 0
	for _, msg := range page {
		if t.insert(msg) {
			added++
		}
	}
	return added
}

func (t *Timeline) insert(msg models.Message) bool {
	if _, dup := t.seen[msg.ID]; dup {
		return false
	}
	t.seen[msg.ID] = struct{}{}

	i := sort.Search(len(t.messages), func(i int) bool {
		m := t.messages[i]
		if m.CreatedAt.Equal(msg.CreatedAt) {
			return m.ID > msg.ID
		}
		return m.CreatedAt.After(msg.CreatedAt)
	})
	t.messages = append(t.messages, models.Message{})
	copy(t.messages[i+1:], t.messages[i:])
	t.messages[i] = msg
	return true
}

// Messages returns a snapshot in chronological order.
func (t *Timeline) Messages() []models.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

// PageFetch loads one history page; pages are oldest-first with a has-more
// flag, matching the message store's FindPage.
type PageFetch func(pageIndex, pageSize int) ([]models.Message, bool, error)

// Pager drives "load older" pagination into a Timeline. Calls are guarded by
// an in-flight flag so rapid repeated loads cannot insert a duplicated or
// out-of-order page.
type Pager struct {
	mu       sync.Mutex
	inFlight bool
	nextPage int
	hasMore  bool
	pageSize int
	fetch    PageFetch
	timeline *Timeline
}

func NewPager(timeline *Timeline, pageSize int, fetch PageFetch) *Pager {
	if pageSize <= 0 {
		pageSize = 15
	}
	return &Pager{
		hasMore:  true,
		pageSize: pageSize,
		fetch:    fetch,
		timeline: timeline,
	}
}

// LoadOlder fetches the next older page. Returns false without fetching when
// a load is already in flight or no older pages remain.
func (p *Pager) LoadOlder() (bool, error) {
	p.mu.Lock()
	if p.inFlight || !p.hasMore {
		p.mu.Unlock()
		return false, nil
	}
	p.inFlight = true
	page := p.nextPage
	p.mu.Unlock()

	messages, hasMore, err := p.fetch(page, p.pageSize)

	p.mu.Lock()
	p.inFlight = false
	if err != nil {
		p.mu.Unlock()
		return false, err
	}
	p.nextPage = page + 1
	p.hasMore = hasMore
	p.mu.Unlock()

	p.timeline.AddPage(messages)
	return true, nil
}

func (p *Pager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}
