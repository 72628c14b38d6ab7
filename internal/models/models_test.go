package models

import (
	"testing"
	"time"
)

func TestTopicKeyCanonicalizesPrivatePair(t *testing.T) {
	// Both participants of the same conversation must land on one topic.
	fromLow := PrivateChat(9).TopicKey(2)
	fromHigh := PrivateChat(2).TopicKey(9)

	if fromLow != "private:2:9" {
		t.Errorf("TopicKey from low viewer = %q, want private:2:9", fromLow)
	}
	if fromHigh != fromLow {
		t.Errorf("TopicKey differs by viewer: %q vs %q", fromHigh, fromLow)
	}
}

func TestTopicKeyCircle(t *testing.T) {
	if got := CircleChat(42).TopicKey(7); got != "circle:42" {
		t.Errorf("TopicKey = %q, want circle:42", got)
	}
}

func TestMessageChatPerViewer(t *testing.T) {
	recipient := uint(9)
	msg := Message{SenderID: 2, RecipientID: &recipient}

	if got := msg.Chat(2); got != PrivateChat(9) {
		t.Errorf("sender view = %+v, want private peer 9", got)
	}
	if got := msg.Chat(9); got != PrivateChat(2) {
		t.Errorf("recipient view = %+v, want private peer 2", got)
	}
}

func TestMessageChatCircle(t *testing.T) {
	circleID := uint(42)
	msg := Message{SenderID: 2, CircleID: &circleID}

	want := CircleChat(42)
	if got := msg.Chat(2); got != want {
		t.Errorf("sender view = %+v, want %+v", got, want)
	}
	if got := msg.Chat(777); got != want {
		t.Errorf("member view = %+v, want %+v", got, want)
	}
}

func TestMessageIsDirect(t *testing.T) {
	recipient := uint(9)
	circleID := uint(42)

	direct := Message{RecipientID: &recipient}
	circle := Message{CircleID: &circleID}

	if !direct.IsDirect() {
		t.Error("message with recipient not reported as direct")
	}
	if circle.IsDirect() {
		t.Error("circle message reported as direct")
	}
}

func TestMessageToResponse(t *testing.T) {
	recipient := uint(9)
	readAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := Message{
		ID:          7,
		ClientID:    "c-7",
		SenderID:    2,
		Sender:      User{ID: 2, Username: "ada", FullName: "Ada L"},
		RecipientID: &recipient,
		Content:     "hello",
		ReadAt:      &readAt,
		CreatedAt:   readAt.Add(-time.Minute),
	}

	resp := msg.ToResponse()
	if resp.ID != 7 || resp.ClientID != "c-7" || resp.Content != "hello" {
		t.Errorf("response fields = %+v", resp)
	}
	if resp.Sender.Username != "ada" {
		t.Errorf("sender username = %q, want ada", resp.Sender.Username)
	}
	if resp.ReadAt == nil || !resp.ReadAt.Equal(readAt) {
		t.Errorf("read_at = %v, want %v", resp.ReadAt, readAt)
	}
	if resp.RecipientID == nil || *resp.RecipientID != 9 {
		t.Errorf("recipient_id = %v, want 9", resp.RecipientID)
	}
}

func TestChatReadStateChat(t *testing.T) {
	state := ChatReadState{UserID: 2, ChatID: 42, ChatType: ChatTypeCircle}
	got := state.Chat()
	if got != CircleChat(42) {
		t.Errorf("Chat() = %+v, want circle 42", got)
	}
	if !got.IsCircle() {
		t.Error("circle read state not reported as circle")
	}
}
