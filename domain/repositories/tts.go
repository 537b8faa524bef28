package repositories

import "context"

// TextToSpeech synthesizes a reply into a single audio blob
type TextToSpeech interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// StreamingTextToSpeech synthesizes a reply as a sequence of audio chunks.
// yield is called once per chunk in order; a yield error aborts the stream and is returned.
type StreamingTextToSpeech interface {
	TextToSpeech
	StreamSpeech(ctx context.Context, text string, yield func(chunk []byte) error) error
}
