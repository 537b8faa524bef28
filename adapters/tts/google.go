package tts

import (
	"context"
	"fmt"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/satriahrh/voxcal/domain/repositories"
)

// GoogleConfig selects the voice used by GoogleTTS
type GoogleConfig struct {
	Language   string
	SampleRate int
}

func (c GoogleConfig) withDefaults() GoogleConfig {
	if c.Language == "" {
		c.Language = "en-US"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 16000
	}
	return c
}

// GoogleTTS synthesizes a reply in one request. The LINEAR16 response carries a WAV header.
type GoogleTTS struct {
	client     *texttospeech.Client
	synthesize func(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error)
	config     GoogleConfig
	logger     *zap.Logger
}

var _ repositories.TextToSpeech = (*GoogleTTS)(nil)

// NewGoogleTTS creates the process-wide text-to-speech client
func NewGoogleTTS(ctx context.Context, config GoogleConfig, logger *zap.Logger, opts ...option.ClientOption) (*GoogleTTS, error) {
	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create text-to-speech client: %w", err)
	}

	return &GoogleTTS{
		client: client,
		synthesize: func(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error) {
			return client.SynthesizeSpeech(ctx, req)
		},
		config: config.withDefaults(),
		logger: logger,
	}, nil
}

// Close releases the underlying gRPC connection
func (g *GoogleTTS) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// Synthesize implements TextToSpeech
func (g *GoogleTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	resp, err := g.synthesize(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: g.config.Language,
			SsmlGender:   texttospeechpb.SsmlVoiceGender_NEUTRAL,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   texttospeechpb.AudioEncoding_LINEAR16,
			SampleRateHertz: int32(g.config.SampleRate),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}

	g.logger.Info("Speech synthesized",
		zap.Int("textLength", len(text)),
		zap.Int("audioBytes", len(resp.GetAudioContent())))

	return resp.GetAudioContent(), nil
}
