package repositories

import (
	"context"
	"iter"
)

// SpeechToText abstracts speech recognition services
type SpeechToText interface {
	// Transcribe consumes audio until the sequence ends and reports interim and final
	// results through onResult. It returns once the provider has delivered its last result.
	Transcribe(ctx context.Context, config AudioConfig, audio iter.Seq[[]byte], onResult func(TranscriptResult)) error
}

// AudioConfig represents audio configuration for speech recognition
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
	Language   string `json:"language"`
}

// TranscriptResult is one recognition result
type TranscriptResult struct {
	Text       string
	IsFinal    bool
	Confidence float32
}
