package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/voxcal/domain/entities"
	"github.com/satriahrh/voxcal/domain/repositories"
)

// MockAgent is a ReasoningEngine that answers without a model, for local runs
type MockAgent struct {
	threads repositories.ThreadRepository
	logger  *zap.Logger
}

// NewMockAgent creates a mock agent that keeps its threads in threads
func NewMockAgent(threads repositories.ThreadRepository, logger *zap.Logger) *MockAgent {
	return &MockAgent{threads: threads, logger: logger}
}

// Invoke implements repositories.ReasoningEngine
func (m *MockAgent) Invoke(ctx context.Context, messages []repositories.ChatMessage, threadID string) ([]repositories.ChatMessage, error) {
	thread, err := loadThread(ctx, m.threads, threadID)
	if err != nil {
		return nil, err
	}

	var last string
	for _, msg := range messages {
		thread.AddMessage(entityRole(msg.Role), msg.Content)
		last = msg.Content
	}

	var response string
	switch {
	case len(thread.Messages) <= len(messages):
		response = fmt.Sprintf("Hello! You said: %s. I can check your calendar or book a meeting.", last)
	default:
		response = fmt.Sprintf("You said: %s. This is message %d in our conversation.", last, len(thread.Messages))
	}

	thread.AddMessage(entities.MessageRoleAssistant, response)
	if err := m.threads.Save(ctx, thread); err != nil {
		return nil, fmt.Errorf("failed to save thread: %w", err)
	}

	m.logger.Debug("Mock agent replied", zap.String("chatThreadId", threadID))
	return convertThreadToMessages(thread), nil
}
