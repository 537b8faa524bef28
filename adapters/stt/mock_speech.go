package stt

import (
	"context"
	"iter"

	"go.uber.org/zap"

	"github.com/satriahrh/voxcal/domain/repositories"
)

// MockSpeechToText drains the audio and reports one final phrase chosen by its length.
// Silence (no audio) produces no result.
type MockSpeechToText struct {
	logger *zap.Logger
}

// NewMockSpeechToText creates a new mock speech-to-text service
func NewMockSpeechToText(logger *zap.Logger) *MockSpeechToText {
	return &MockSpeechToText{logger: logger}
}

// Transcribe implements SpeechToText
func (s *MockSpeechToText) Transcribe(ctx context.Context, config repositories.AudioConfig, audio iter.Seq[[]byte], onResult func(repositories.TranscriptResult)) error {
	size := 0
	for chunk := range audio {
		size += len(chunk)
	}

	s.logger.Info("Processing mock transcription",
		zap.Int("audioSize", size),
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding))

	if size == 0 {
		return ctx.Err()
	}

	var text string
	switch {
	case size > 64000:
		text = "Book a meeting with Sam tomorrow at three in the afternoon"
	case size > 16000:
		text = "What is on my calendar today"
	default:
		text = "Hello"
	}

	onResult(repositories.TranscriptResult{Text: text, IsFinal: true, Confidence: 1})
	return nil
}
