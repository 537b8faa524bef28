package tts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func newElevenLabsServer(t *testing.T, audioSize int, status int) (*httptest.Server, *ElevenLabsRequest, *http.Header) {
	t.Helper()
	var got ElevenLabsRequest
	var headers http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		if !strings.HasPrefix(r.URL.Path, "/text-to-speech/voice-1/stream") {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("output_format") != "pcm_16000" {
			http.Error(w, "bad format", http.StatusBadRequest)
			return
		}
		json.NewDecoder(r.Body).Decode(&got)

		if status != http.StatusOK {
			http.Error(w, `{"detail":"quota exceeded"}`, status)
			return
		}
		w.Header().Set("Content-Type", "audio/pcm")
		w.Write(make([]byte, audioSize))
	}))
	t.Cleanup(server.Close)

	return server, &got, &headers
}

func newTestElevenLabs(t *testing.T, server *httptest.Server) *ElevenLabsTTS {
	t.Helper()
	tts, err := NewElevenLabsTTS(ElevenLabsConfig{
		APIKey:     "test-api-key",
		APIBaseURL: server.URL + "/",
		VoiceID:    "voice-1",
		HTTPClient: server.Client(),
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}
	return tts
}

func TestNewElevenLabsTTS(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Setenv("ELEVEN_LABS_API_KEY", "")
	if _, err := NewElevenLabsTTS(NewElevenLabsConfigFromEnv(), logger); err == nil {
		t.Error("Expected error when API key is not set")
	}

	t.Setenv("ELEVEN_LABS_API_KEY", "test-api-key")
	t.Setenv("ELEVEN_LABS_CHUNK_SIZE", "2048")
	t.Setenv("ELEVEN_LABS_STABILITY", "7")

	tts, err := NewElevenLabsTTS(NewElevenLabsConfigFromEnv(), logger)
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}

	if tts.apiKey != "test-api-key" {
		t.Errorf("Expected API key 'test-api-key', got '%s'", tts.apiKey)
	}
	if tts.voiceID != defaultVoiceID {
		t.Errorf("Expected default voice ID '%s', got '%s'", defaultVoiceID, tts.voiceID)
	}
	if tts.chunkSize != 2048 {
		t.Errorf("Expected chunk size 2048, got %d", tts.chunkSize)
	}
	if tts.stability != defaultStability {
		t.Errorf("Expected out-of-range stability to fall back to default, got %f", tts.stability)
	}
	if tts.outputFormat != "pcm_16000" {
		t.Errorf("Expected pcm_16000, got %s", tts.outputFormat)
	}
}

func TestValidateElevenLabsConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  ElevenLabsConfig
		wantErr bool
	}{
		{"valid", ElevenLabsConfig{APIKey: "k"}, false},
		{"missing key", ElevenLabsConfig{}, true},
		{"stability too high", ElevenLabsConfig{APIKey: "k", Stability: 1.5}, true},
		{"negative clarity", ElevenLabsConfig{APIKey: "k", Clarity: -0.1}, true},
		{"negative chunk size", ElevenLabsConfig{APIKey: "k", ChunkSize: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateElevenLabsConfig(tt.config); (err != nil) != tt.wantErr {
				t.Errorf("ValidateElevenLabsConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestElevenLabsTTS_StreamSpeech(t *testing.T) {
	server, got, headers := newElevenLabsServer(t, 10000, http.StatusOK)
	tts := newTestElevenLabs(t, server)

	var sizes []int
	err := tts.StreamSpeech(context.Background(), "Your meeting is booked", func(chunk []byte) error {
		sizes = append(sizes, len(chunk))
		return nil
	})
	if err != nil {
		t.Fatalf("StreamSpeech failed: %v", err)
	}

	if len(sizes) != 3 || sizes[0] != 4096 || sizes[1] != 4096 || sizes[2] != 1808 {
		t.Errorf("Expected chunks [4096 4096 1808], got %v", sizes)
	}
	if got.Text != "Your meeting is booked" || got.ModelID != defaultModelID {
		t.Errorf("Unexpected request payload: %+v", got)
	}
	if headers.Get("xi-api-key") != "test-api-key" {
		t.Errorf("Expected api key header, got %q", headers.Get("xi-api-key"))
	}
	if headers.Get("Accept") != "audio/pcm" {
		t.Errorf("Expected audio/pcm accept header, got %q", headers.Get("Accept"))
	}
}

func TestElevenLabsTTS_Synthesize(t *testing.T) {
	server, _, _ := newElevenLabsServer(t, 5000, http.StatusOK)
	tts := newTestElevenLabs(t, server)

	audio, err := tts.Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(audio) != 5000 {
		t.Errorf("Expected 5000 bytes, got %d", len(audio))
	}
}

func TestElevenLabsTTS_APIError(t *testing.T) {
	server, _, _ := newElevenLabsServer(t, 0, http.StatusTooManyRequests)
	tts := newTestElevenLabs(t, server)

	_, err := tts.Synthesize(context.Background(), "hello")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.Body, "quota exceeded") {
		t.Errorf("Expected body in error, got %q", apiErr.Body)
	}
}

func TestElevenLabsTTS_YieldErrorStopsStream(t *testing.T) {
	server, _, _ := newElevenLabsServer(t, 10000, http.StatusOK)
	tts := newTestElevenLabs(t, server)

	stop := errors.New("client went away")
	calls := 0
	err := tts.StreamSpeech(context.Background(), "hello", func(chunk []byte) error {
		calls++
		return stop
	})

	if !errors.Is(err, stop) {
		t.Errorf("Expected yield error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected stream to stop after first chunk, got %d calls", calls)
	}
}

func TestElevenLabsTTS_EmptyText(t *testing.T) {
	server, _, _ := newElevenLabsServer(t, 0, http.StatusOK)
	tts := newTestElevenLabs(t, server)

	noop := func([]byte) error { return nil }
	if err := tts.StreamSpeech(context.Background(), "", noop); err == nil {
		t.Error("Expected error for empty text")
	}
	if err := tts.StreamSpeech(context.Background(), "   ", noop); err == nil {
		t.Error("Expected error for whitespace-only text")
	}
}

// Integration test - only runs if ELEVEN_LABS_API_KEY is set with real API key
func TestElevenLabsTTS_StreamSpeech_Integration(t *testing.T) {
	apiKey := os.Getenv("ELEVEN_LABS_API_KEY")
	if apiKey == "" || apiKey == "test-api-key" {
		t.Skip("Skipping integration test - set ELEVEN_LABS_API_KEY environment variable with real API key")
	}

	tts, err := NewElevenLabsTTS(NewElevenLabsConfigFromEnv(), zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	totalBytes := 0
	chunkCount := 0
	err = tts.StreamSpeech(ctx, "You are free tomorrow at three.", func(chunk []byte) error {
		totalBytes += len(chunk)
		chunkCount++
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to convert text to speech: %v", err)
	}

	if totalBytes == 0 {
		t.Error("No audio data received")
	}

	t.Logf("Integration test completed: received %d chunks, %d total bytes", chunkCount, totalBytes)
}
