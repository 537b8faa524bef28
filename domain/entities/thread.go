package entities

import (
	"errors"
	"time"
)

// MessageRole represents the role of a message sender
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// ThreadMessage represents a message within a chat thread
type ThreadMessage struct {
	Timestamp time.Time   `json:"timestamp" bson:"timestamp"`
	Role      MessageRole `json:"role" bson:"role"`
	Content   string      `json:"content" bson:"content"`
}

// ChatThread is the conversation memory the reasoning engine keeps per session token.
// The ID is the token exchanged with the client as chatThreadId.
type ChatThread struct {
	ID           string          `json:"id" bson:"_id"`
	CreatedAt    time.Time       `json:"created_at" bson:"created_at"`
	LastActiveAt time.Time       `json:"last_active_at" bson:"last_active_at"`
	Messages     []ThreadMessage `json:"messages" bson:"messages"`
}

// NewChatThread creates an empty thread for the given session token
func NewChatThread(id string) *ChatThread {
	now := time.Now()
	return &ChatThread{
		ID:           id,
		CreatedAt:    now,
		LastActiveAt: now,
		Messages:     make([]ThreadMessage, 0),
	}
}

// AddMessage appends a message and marks the thread active
func (t *ChatThread) AddMessage(role MessageRole, content string) {
	now := time.Now()
	t.Messages = append(t.Messages, ThreadMessage{
		Timestamp: now,
		Role:      role,
		Content:   content,
	})
	t.LastActiveAt = now
}

// IsIdle reports whether the thread has seen no activity for longer than ttl
func (t *ChatThread) IsIdle(ttl time.Duration, now time.Time) bool {
	return now.Sub(t.LastActiveAt) > ttl
}

// Clone returns a deep copy so stored threads never alias caller memory
func (t *ChatThread) Clone() *ChatThread {
	c := *t
	c.Messages = append([]ThreadMessage(nil), t.Messages...)
	return &c
}

// Validate validates the thread data
func (t *ChatThread) Validate() error {
	if t.ID == "" {
		return errors.New("thread id is required")
	}
	for _, m := range t.Messages {
		if m.Role != MessageRoleUser && m.Role != MessageRoleAssistant {
			return errors.New("invalid message role")
		}
	}
	return nil
}
