package tts

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/voxcal/internal/audio"
)

const (
	mockSampleRate = 16000
	// 100 ms of 16-bit mono silence per word
	mockBytesPerWord = mockSampleRate / 10 * 2
)

// MockTTS returns a silent WAV whose length follows the word count
type MockTTS struct {
	logger *zap.Logger
}

// NewMockTTS creates a mock synthesizer for runs without credentials
func NewMockTTS(logger *zap.Logger) *MockTTS {
	return &MockTTS{logger: logger}
}

// Synthesize implements TextToSpeech
func (m *MockTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	words := len(strings.Fields(text))
	m.logger.Info("Mock speech synthesized", zap.Int("words", words))
	return audio.EncodeWAV(make([]byte, words*mockBytesPerWord), mockSampleRate)
}
