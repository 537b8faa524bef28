package repositories

import "context"

// ReasoningEngine abstracts the tool-calling agent that answers a user turn.
// Implementations keep their own per-thread memory keyed by threadID.
type ReasoningEngine interface {
	// Invoke appends messages to the thread and returns the thread's messages with the reply last
	Invoke(ctx context.Context, messages []ChatMessage, threadID string) ([]ChatMessage, error)
}

// ChatMessage represents a single message in a conversation
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role defines the type of message sender
type Role string

const (
	UserRole      Role = "user"
	AssistantRole Role = "assistant"
)
