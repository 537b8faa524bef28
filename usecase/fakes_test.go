package usecase

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/satriahrh/voxcal/domain"
	"github.com/satriahrh/voxcal/domain/repositories"
)

type fakeSender struct {
	mu     sync.Mutex
	events []domain.ServerEvent
	err    error
}

func (f *fakeSender) Send(event domain.ServerEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeSender) Events() []domain.ServerEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ServerEvent(nil), f.events...)
}

func (f *fakeSender) Types() []domain.EventType {
	var types []domain.EventType
	for _, e := range f.Events() {
		types = append(types, e.EventType)
	}
	return types
}

type engineCall struct {
	messages []repositories.ChatMessage
	threadID string
}

type fakeEngine struct {
	mu    sync.Mutex
	calls []engineCall
	reply string
	err   error
}

func (f *fakeEngine) Invoke(ctx context.Context, messages []repositories.ChatMessage, threadID string) ([]repositories.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, engineCall{messages: messages, threadID: threadID})
	if f.err != nil {
		return nil, f.err
	}
	return append(append([]repositories.ChatMessage(nil), messages...), repositories.ChatMessage{
		Role:    repositories.AssistantRole,
		Content: f.reply,
	}), nil
}

func (f *fakeEngine) Calls() []engineCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]engineCall(nil), f.calls...)
}

type fakeTTS struct {
	audio []byte
	err   error
}

func (f *fakeTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.audio, nil
}

type fakeStreamingTTS struct {
	fakeTTS
	chunks [][]byte
}

func (f *fakeStreamingTTS) StreamSpeech(ctx context.Context, text string, yield func([]byte) error) error {
	if f.err != nil {
		return f.err
	}
	for _, c := range f.chunks {
		if err := yield(c); err != nil {
			return err
		}
	}
	return nil
}

// fakeSTT reports every received chunk as one final fragment
type fakeSTT struct {
	mu       sync.Mutex
	configs  []repositories.AudioConfig
	received [][]byte
	err      error
}

func (f *fakeSTT) Transcribe(ctx context.Context, config repositories.AudioConfig, audio iter.Seq[[]byte], onResult func(repositories.TranscriptResult)) error {
	f.mu.Lock()
	f.configs = append(f.configs, config)
	f.mu.Unlock()

	for chunk := range audio {
		f.mu.Lock()
		f.received = append(f.received, chunk)
		f.mu.Unlock()
		onResult(repositories.TranscriptResult{Text: string(chunk) + "~", IsFinal: false})
		onResult(repositories.TranscriptResult{Text: string(chunk), IsFinal: true})
	}
	return f.err
}

func (f *fakeSTT) Configs() []repositories.AudioConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]repositories.AudioConfig(nil), f.configs...)
}

var errProvider = errors.New("provider unavailable")
