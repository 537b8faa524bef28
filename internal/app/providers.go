// Package app builds the process-wide providers selected by configuration.
package app

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/satriahrh/voxcal/adapters"
	"github.com/satriahrh/voxcal/adapters/calendar"
	"github.com/satriahrh/voxcal/adapters/llm"
	"github.com/satriahrh/voxcal/adapters/mongo"
	"github.com/satriahrh/voxcal/adapters/stt"
	"github.com/satriahrh/voxcal/adapters/tts"
	"github.com/satriahrh/voxcal/domain/repositories"
	"github.com/satriahrh/voxcal/internal/config"
)

// Providers holds the process-wide clients shared by every connection.
// SpeechToText is nil when clients transcribe locally.
type Providers struct {
	Threads      repositories.ThreadRepository
	Engine       repositories.ReasoningEngine
	SpeechToText repositories.SpeechToText
	TextToSpeech repositories.TextToSpeech

	closers []func()
}

// Close releases provider connections in reverse order of creation
func (p *Providers) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
}

// BuildProviders creates every provider named in cfg
func BuildProviders(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Providers, error) {
	p, err := BuildReasoning(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if p.SpeechToText, err = buildSpeechToText(ctx, cfg.STT, logger, p); err != nil {
		p.Close()
		return nil, err
	}
	if p.TextToSpeech, err = BuildTextToSpeech(ctx, cfg.TTS, logger, p); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// BuildReasoning creates only thread storage and the reasoning engine
func BuildReasoning(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Providers, error) {
	p := &Providers{}

	threads, err := buildThreadRepository(ctx, cfg.Storage, logger, p)
	if err != nil {
		p.Close()
		return nil, err
	}
	p.Threads = threads

	if p.Engine, err = buildEngine(ctx, cfg, threads, logger); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

func buildThreadRepository(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger, p *Providers) (repositories.ThreadRepository, error) {
	if cfg.MongoURI == "" {
		logger.Info("Using in-memory thread storage")
		return adapters.NewMemoryThreadRepository(), nil
	}

	client, err := mongo.NewClient(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
	if err != nil {
		return nil, err
	}
	p.closers = append(p.closers, func() { client.Close(context.Background()) })

	return mongo.NewThreadRepository(ctx, client.Database, logger)
}

func buildEngine(ctx context.Context, cfg *config.Config, threads repositories.ThreadRepository, logger *zap.Logger) (repositories.ReasoningEngine, error) {
	switch cfg.LLM.Provider {
	case config.ProviderMock:
		return llm.NewMockAgent(threads, logger), nil
	case config.ProviderGemini:
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLM.Provider)
	}

	var calendarOpts []option.ClientOption
	if cfg.Calendar.CredentialsFile != "" {
		calendarOpts = append(calendarOpts, option.WithCredentialsFile(cfg.Calendar.CredentialsFile))
	}
	cal, err := calendar.NewGoogleCalendar(ctx, cfg.Calendar.ID, logger, calendarOpts...)
	if err != nil {
		return nil, err
	}

	systemPrompt := llm.DefaultSystemPrompt
	if cfg.LLM.SystemPromptPath != "" {
		if systemPrompt, err = llm.LoadSystemPrompt(cfg.LLM.SystemPromptPath); err != nil {
			return nil, err
		}
	}

	client, err := llm.NewGeminiClient(ctx, cfg.LLM.APIKey)
	if err != nil {
		return nil, err
	}

	return llm.NewGeminiAgent(client, llm.NewCalendarTools(cal, logger), threads, llm.GeminiConfig{
		APIKey:        cfg.LLM.APIKey,
		Model:         cfg.LLM.Model,
		Temperature:   cfg.LLM.Temperature,
		SystemPrompt:  systemPrompt,
		MaxToolRounds: cfg.LLM.MaxToolRounds,
	}, logger)
}

// buildSpeechToText returns nil for the client provider; transcripts then arrive as control messages
func buildSpeechToText(ctx context.Context, cfg config.STTConfig, logger *zap.Logger, p *Providers) (repositories.SpeechToText, error) {
	switch cfg.Provider {
	case config.ProviderClient:
		logger.Info("Server-side transcription disabled")
		return nil, nil
	case config.ProviderMock:
		return stt.NewMockSpeechToText(logger), nil
	case config.ProviderGoogle:
		speech, err := stt.NewGoogleSpeechToText(ctx, logger)
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, closeQuietly(speech, logger))
		return speech, nil
	default:
		return nil, fmt.Errorf("unknown STT provider %q", cfg.Provider)
	}
}

// BuildTextToSpeech creates the configured synthesizer and registers its closer on p
func BuildTextToSpeech(ctx context.Context, cfg config.TTSConfig, logger *zap.Logger, p *Providers) (repositories.TextToSpeech, error) {
	switch cfg.Provider {
	case config.ProviderMock:
		return tts.NewMockTTS(logger), nil
	case config.ProviderElevenLabs:
		return tts.NewElevenLabsTTS(tts.NewElevenLabsConfigFromEnv(), logger)
	case config.ProviderGoogle:
		synth, err := tts.NewGoogleTTS(ctx, tts.GoogleConfig{
			Language:   cfg.Language,
			SampleRate: cfg.SampleRate,
		}, logger)
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, closeQuietly(synth, logger))
		return synth, nil
	default:
		return nil, fmt.Errorf("unknown TTS provider %q", cfg.Provider)
	}
}

func closeQuietly(c io.Closer, logger *zap.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Warn("Failed to close provider client", zap.Error(err))
		}
	}
}

// NewLogger returns a development logger for "debug" and a production logger at the given level otherwise
func NewLogger(level string) *zap.Logger {
	if level == "debug" {
		logger, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return logger
	}

	cfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(level); err == nil && level != "" {
		cfg.Level = lvl
	}
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
