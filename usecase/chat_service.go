package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// ChatService runs a text-only conversation over the same reasoning path as voice turns
type ChatService struct {
	conversation *ConversationService
	logger       *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(conversation *ConversationService, logger *zap.Logger) *ChatService {
	return &ChatService{conversation: conversation, logger: logger}
}

// Execute answers each line from input on output until input is closed or ctx is done.
// Failed turns are reported on output prefixed with "ERROR: " and the loop continues.
func (s *ChatService) Execute(ctx context.Context, threadID string, input <-chan string, output chan<- string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-input:
			if !ok {
				return nil
			}
			msg = strings.TrimSpace(msg)
			if msg == "" {
				continue
			}

			reply, err := s.conversation.Reply(ctx, msg, threadID)
			if err != nil {
				s.logger.Error("Chat turn failed", zap.String("chatThreadId", threadID), zap.Error(err))
				reply = "ERROR: " + err.Error()
			}

			select {
			case output <- reply:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
