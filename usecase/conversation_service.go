package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/voxcal/domain/repositories"
	"github.com/satriahrh/voxcal/internal/metrics"
)

// ErrNoReply is returned when the reasoning engine finishes without an assistant message
var ErrNoReply = errors.New("reasoning engine returned no reply")

// ConversationService turns a finalized utterance into a reply and speaks it
type ConversationService struct {
	engine       repositories.ReasoningEngine
	textToSpeech repositories.TextToSpeech
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

// NewConversationService creates a new conversation service
func NewConversationService(
	engine repositories.ReasoningEngine,
	tts repositories.TextToSpeech,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ConversationService {
	return &ConversationService{
		engine:       engine,
		textToSpeech: tts,
		metrics:      m,
		logger:       logger,
	}
}

// Reply sends the transcript to the reasoning engine under threadID and returns the reply text
func (s *ConversationService) Reply(ctx context.Context, transcript, threadID string) (string, error) {
	start := time.Now()
	messages, err := s.engine.Invoke(ctx, []repositories.ChatMessage{
		{Role: repositories.UserRole, Content: transcript},
	}, threadID)
	s.metrics.ObserveStage(metrics.StageReasoning, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("reasoning engine failed: %w", err)
	}

	if len(messages) == 0 || messages[len(messages)-1].Role != repositories.AssistantRole {
		return "", ErrNoReply
	}

	reply := messages[len(messages)-1].Content
	s.logger.Info("Agent reply generated",
		zap.String("chatThreadId", threadID),
		zap.Int("replyLength", len(reply)),
		zap.Duration("took", time.Since(start)))

	return reply, nil
}

// Speak synthesizes text and hands the audio to emit. Streaming synthesizers call emit once
// per chunk and streamed is true; otherwise emit receives the whole reply once.
func (s *ConversationService) Speak(ctx context.Context, text string, emit func(chunk []byte) error) (streamed bool, err error) {
	if strings.TrimSpace(text) == "" {
		s.logger.Debug("Skipping synthesis of empty reply")
		return false, nil
	}

	start := time.Now()
	defer func() {
		s.metrics.ObserveStage(metrics.StageSynthesis, time.Since(start))
	}()

	if streamer, ok := s.textToSpeech.(repositories.StreamingTextToSpeech); ok {
		chunks := 0
		err := streamer.StreamSpeech(ctx, text, func(chunk []byte) error {
			chunks++
			return emit(chunk)
		})
		if err != nil {
			return true, fmt.Errorf("speech streaming failed: %w", err)
		}
		s.logger.Debug("Speech streamed", zap.Int("chunks", chunks))
		return true, nil
	}

	audioData, err := s.textToSpeech.Synthesize(ctx, text)
	if err != nil {
		return false, fmt.Errorf("speech synthesis failed: %w", err)
	}

	s.logger.Debug("Speech synthesized", zap.Int("audioSize", len(audioData)))
	return false, emit(audioData)
}
