package tts

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/voxcal/domain/repositories"
	"github.com/satriahrh/voxcal/internal/audio"
)

var (
	_ repositories.TextToSpeech = (*MockTTS)(nil)
	_ repositories.TextToSpeech = (*GoogleTTS)(nil)
)

func TestGoogleTTS_Synthesize(t *testing.T) {
	var got *texttospeechpb.SynthesizeSpeechRequest
	tts := &GoogleTTS{
		synthesize: func(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error) {
			got = req
			return &texttospeechpb.SynthesizeSpeechResponse{AudioContent: []byte{1, 2, 3}}, nil
		},
		config: GoogleConfig{}.withDefaults(),
		logger: zaptest.NewLogger(t),
	}

	audio, err := tts.Synthesize(context.Background(), "You have two meetings")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if string(audio) != string([]byte{1, 2, 3}) {
		t.Errorf("Expected audio content to pass through, got %v", audio)
	}
	if got.GetInput().GetText() != "You have two meetings" {
		t.Errorf("Unexpected input: %v", got.GetInput())
	}
	if got.GetVoice().GetLanguageCode() != "en-US" || got.GetVoice().GetSsmlGender() != texttospeechpb.SsmlVoiceGender_NEUTRAL {
		t.Errorf("Unexpected voice: %v", got.GetVoice())
	}
	if got.GetAudioConfig().GetAudioEncoding() != texttospeechpb.AudioEncoding_LINEAR16 || got.GetAudioConfig().GetSampleRateHertz() != 16000 {
		t.Errorf("Unexpected audio config: %v", got.GetAudioConfig())
	}
}

func TestGoogleTTS_Errors(t *testing.T) {
	providerErr := errors.New("permission denied")
	tts := &GoogleTTS{
		synthesize: func(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error) {
			return nil, providerErr
		},
		config: GoogleConfig{}.withDefaults(),
		logger: zaptest.NewLogger(t),
	}

	if _, err := tts.Synthesize(context.Background(), "hello"); !errors.Is(err, providerErr) {
		t.Errorf("Expected wrapped provider error, got %v", err)
	}
	if _, err := tts.Synthesize(context.Background(), " "); err == nil {
		t.Error("Expected error for empty text")
	}
}

func TestMockTTS(t *testing.T) {
	tts := NewMockTTS(zaptest.NewLogger(t))

	data, err := tts.Synthesize(context.Background(), "book it for three")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	pcm, format, err := audio.ToLinear16(data)
	if err != nil {
		t.Fatalf("Expected valid WAV, got %v", err)
	}
	if format.SampleRate != 16000 {
		t.Errorf("Expected 16000 Hz, got %d", format.SampleRate)
	}
	if len(pcm) != 4*mockBytesPerWord {
		t.Errorf("Expected %d bytes of audio, got %d", 4*mockBytesPerWord, len(pcm))
	}
}
