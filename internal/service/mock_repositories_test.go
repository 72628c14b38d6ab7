package service

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/eventzx/messaging/internal/models"
	"github.com/eventzx/messaging/internal/repository"
	"github.com/eventzx/messaging/internal/testutil"
	"gorm.io/gorm"
)

var errMockNotFound = errors.New("record not found")

// fixture bundles the in-memory repositories so mocks that need cross-store
// knowledge (the conversation fold) can reach each other.
type fixture struct {
	messages  *MockMessageRepository
	readState *MockReadStateRepository
	users     *MockUserRepository
	circles   *MockCircleRepository
}

func newFixture() *fixture {
	f := &fixture{
		readState: NewMockReadStateRepository(),
		users:     NewMockUserRepository(),
		circles:   NewMockCircleRepository(),
	}
	f.messages = &MockMessageRepository{fix: f, nextID: 1}
	return f
}

func (f *fixture) addUser(id uint, username string) {
	f.users.users[id] = &models.User{ID: id, Username: username, FullName: username}
}

func (f *fixture) addCircle(id uint, name string, createdAt time.Time, memberIDs ...uint) {
	f.circles.circles[id] = &models.Circle{ID: id, Name: name, CreatedAt: createdAt}
	f.circles.members[id] = append([]uint(nil), memberIDs...)
}

// MockMessageRepository is an in-memory append-only message store with real
// pagination semantics.
type MockMessageRepository struct {
	mu       sync.Mutex
	fix      *fixture
	messages []*models.Message
	nextID   uint
}

func (m *MockMessageRepository) Create(message *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.messages {
		if existing.ClientID == message.ClientID && existing.SenderID == message.SenderID {
			// The SQL layer runs with TranslateError, so a unique-index
			// violation surfaces as this sentinel.
			return gorm.ErrDuplicatedKey
		}
	}
	message.ID = m.nextID
	m.nextID++
	if message.CreatedAt.IsZero() {
		// Strictly increasing synthetic insert times.
		message.CreatedAt = testutil.At(int(message.ID))
	}
	stored := *message
	m.messages = append(m.messages, &stored)
	return nil
}

func (m *MockMessageRepository) FindByID(id uint) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.ID == id {
			out := *msg
			if m.fix != nil {
				if u, ok := m.fix.users.users[msg.SenderID]; ok {
					out.Sender = *u
				}
			}
			return &out, nil
		}
	}
	return nil, errMockNotFound
}

func (m *MockMessageRepository) FindByClientID(clientID string, senderID uint) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.ClientID == clientID && msg.SenderID == senderID {
			out := *msg
			return &out, nil
		}
	}
	return nil, errMockNotFound
}

func (m *MockMessageRepository) chatMessages(viewerID uint, chat models.ChatIdentity) []*models.Message {
	var out []*models.Message
	for _, msg := range m.messages {
		if chat.IsCircle() {
			if msg.CircleID != nil && *msg.CircleID == chat.ID {
				out = append(out, msg)
			}
		} else {
			if msg.CircleID == nil && msg.RecipientID != nil &&
				((msg.SenderID == viewerID && *msg.RecipientID == chat.ID) ||
					(msg.SenderID == chat.ID && *msg.RecipientID == viewerID)) {
				out = append(out, msg)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *MockMessageRepository) FindPage(viewerID uint, chat models.ChatIdentity, pageIndex, pageSize int) ([]models.Message, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pageSize <= 0 {
		pageSize = 15
	}

	all := m.chatMessages(viewerID, chat)
	offset := pageIndex * pageSize
	if offset >= len(all) {
		return nil, false, nil
	}
	end := offset + pageSize
	if end > len(all) {
		end = len(all)
	}
	raw := all[offset:end]

	page := make([]models.Message, len(raw))
	for i := range raw {
		page[len(raw)-1-i] = *raw[i]
	}
	return page, len(raw) == pageSize, nil
}

func (m *MockMessageRepository) StampDirectRead(viewerID, peerID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	now := time.Now()
	for _, msg := range m.messages {
		if msg.CircleID == nil && msg.SenderID == peerID && msg.RecipientID != nil &&
			*msg.RecipientID == viewerID && msg.ReadAt == nil {
			t := now
			msg.ReadAt = &t
			n++
		}
	}
	return n, nil
}

func (m *MockMessageRepository) CountDirectChatExists(userID1, userID2 uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.CircleID == nil && msg.RecipientID != nil &&
			((msg.SenderID == userID1 && *msg.RecipientID == userID2) ||
				(msg.SenderID == userID2 && *msg.RecipientID == userID1)) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockMessageRepository) ListConversations(userID uint) ([]repository.ConversationRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var rows []repository.ConversationRow

	// Direct peers.
	peers := map[uint]struct{}{}
	for _, msg := range m.messages {
		if msg.CircleID != nil || msg.RecipientID == nil {
			continue
		}
		if msg.SenderID == userID {
			peers[*msg.RecipientID] = struct{}{}
		} else if *msg.RecipientID == userID {
			peers[msg.SenderID] = struct{}{}
		}
	}
	for peerID := range peers {
		all := m.chatMessages(userID, models.PrivateChat(peerID))
		last := all[0]
		state, _ := m.fix.readState.Get(userID, models.PrivateChat(peerID))
		row := repository.ConversationRow{
			ConversationType: "private",
			PeerID:           sql.NullInt64{Int64: int64(peerID), Valid: true},
			UnreadCount:      state.UnreadCount,
			MessageID:        last.ID,
			MessageClientID:  last.ClientID,
			MessageSenderID:  last.SenderID,
			MessageContent:   last.Content,
			MessageCreatedAt: last.CreatedAt,
			LastActivity:     last.CreatedAt,
		}
		if u, ok := m.fix.users.users[peerID]; ok {
			row.PeerUsername = sql.NullString{String: u.Username, Valid: true}
			row.PeerFullName = sql.NullString{String: u.FullName, Valid: true}
			row.PeerAvatar = sql.NullString{String: u.Avatar, Valid: true}
		}
		if u, ok := m.fix.users.users[last.SenderID]; ok {
			row.SenderUsername = u.Username
			row.SenderFullName = u.FullName
		}
		rows = append(rows, row)
	}

	// Circles the user belongs to.
	for circleID, memberIDs := range m.fix.circles.members {
		isMember := false
		for _, id := range memberIDs {
			if id == userID {
				isMember = true
				break
			}
		}
		if !isMember {
			continue
		}
		circle := m.fix.circles.circles[circleID]
		row := repository.ConversationRow{
			ConversationType: "circle",
			CircleID:         sql.NullInt64{Int64: int64(circleID), Valid: true},
			CircleName:       sql.NullString{String: circle.Name, Valid: true},
			MemberCount:      sql.NullInt64{Int64: int64(len(memberIDs)), Valid: true},
		}
		all := m.chatMessages(userID, models.CircleChat(circleID))
		if len(all) > 0 {
			last := all[0]
			state, _ := m.fix.readState.Get(userID, models.CircleChat(circleID))
			row.UnreadCount = state.UnreadCount
			row.MessageID = last.ID
			row.MessageClientID = last.ClientID
			row.MessageSenderID = last.SenderID
			row.MessageContent = last.Content
			row.MessageCreatedAt = last.CreatedAt
			row.LastActivity = last.CreatedAt
		} else {
			row.MessageCreatedAt = circle.CreatedAt
			row.LastActivity = circle.CreatedAt
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].LastActivity.Equal(rows[j].LastActivity) {
			return rows[i].LastActivity.After(rows[j].LastActivity)
		}
		return rows[i].MessageID > rows[j].MessageID
	})
	return rows, nil
}

// MockReadStateRepository keeps cursors in memory with the same atomic
// increment/reset semantics as the SQL implementation.
type MockReadStateRepository struct {
	mu     sync.Mutex
	states map[string]*models.ChatReadState
}

func NewMockReadStateRepository() *MockReadStateRepository {
	return &MockReadStateRepository{states: make(map[string]*models.ChatReadState)}
}

func stateKey(userID uint, chat models.ChatIdentity) string {
	return fmt.Sprintf("%d|%s:%d", userID, chat.Type, chat.ID)
}

func (m *MockReadStateRepository) row(userID uint, chat models.ChatIdentity) *models.ChatReadState {
	key := stateKey(userID, chat)
	state, ok := m.states[key]
	if !ok {
		state = &models.ChatReadState{UserID: userID, ChatID: chat.ID, ChatType: chat.Type}
		m.states[key] = state
	}
	return state
}

func (m *MockReadStateRepository) IncrementUnread(userID uint, chat models.ChatIdentity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.row(userID, chat)
	state.UnreadCount++
	state.LastMessageAt = time.Now()
	return nil
}

func (m *MockReadStateRepository) TouchSender(userID uint, chat models.ChatIdentity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.row(userID, chat).LastMessageAt = time.Now()
	return nil
}

func (m *MockReadStateRepository) Reset(userID uint, chat models.ChatIdentity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.row(userID, chat)
	state.UnreadCount = 0
	state.LastReadAt = time.Now()
	return nil
}

func (m *MockReadStateRepository) Get(userID uint, chat models.ChatIdentity) (*models.ChatReadState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := *m.row(userID, chat)
	return &out, nil
}

func (m *MockReadStateRepository) ListByUser(userID uint) ([]models.ChatReadState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ChatReadState
	for _, state := range m.states {
		if state.UserID == userID {
			out = append(out, *state)
		}
	}
	return out, nil
}

func (m *MockReadStateRepository) TotalUnread(userID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, state := range m.states {
		if state.UserID == userID {
			total += state.UnreadCount
		}
	}
	return total, nil
}

func (m *MockReadStateRepository) DeleteForMember(userID uint, chat models.ChatIdentity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, stateKey(userID, chat))
	return nil
}

// MockUserRepository backs the identity-provider boundary.
type MockUserRepository struct {
	users map[uint]*models.User
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[uint]*models.User)}
}

func (m *MockUserRepository) Exists(id uint) (bool, error) {
	_, ok := m.users[id]
	return ok, nil
}

// MockCircleRepository backs the membership-provider boundary.
type MockCircleRepository struct {
	circles map[uint]*models.Circle
	members map[uint][]uint
}

func NewMockCircleRepository() *MockCircleRepository {
	return &MockCircleRepository{
		circles: make(map[uint]*models.Circle),
		members: make(map[uint][]uint),
	}
}

func (m *MockCircleRepository) FindByID(id uint) (*models.Circle, error) {
	if c, ok := m.circles[id]; ok {
		out := *c
		return &out, nil
	}
	return nil, errMockNotFound
}

func (m *MockCircleRepository) IsMember(circleID, userID uint) (bool, error) {
	for _, id := range m.members[circleID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockCircleRepository) MemberIDs(circleID uint) ([]uint, error) {
	return append([]uint(nil), m.members[circleID]...), nil
}
