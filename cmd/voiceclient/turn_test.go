package main

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/voxcal/adapters"
	"github.com/satriahrh/voxcal/adapters/llm"
	"github.com/satriahrh/voxcal/adapters/stt"
	"github.com/satriahrh/voxcal/adapters/tts"
	"github.com/satriahrh/voxcal/domain"
	"github.com/satriahrh/voxcal/domain/repositories"
	"github.com/satriahrh/voxcal/internal/audio"
	"github.com/satriahrh/voxcal/internal/websocket"
	"github.com/satriahrh/voxcal/usecase"
)

// startServer runs the real hub and coordinator over mock providers
func startServer(t *testing.T) string {
	t.Helper()
	logger := zaptest.NewLogger(t)

	conversation := usecase.NewConversationService(
		llm.NewMockAgent(adapters.NewMemoryThreadRepository(), logger),
		tts.NewMockTTS(logger),
		nil,
		logger,
	)
	speech := stt.NewMockSpeechToText(logger)
	config := usecase.SessionConfig{
		Audio:       repositories.AudioConfig{SampleRate: 16000, Encoding: "LINEAR16", Language: "en-US"},
		PullTimeout: time.Second,
	}

	hub := websocket.NewHub(func(sender domain.EventSender, logger *zap.Logger) websocket.Session {
		return usecase.NewSessionCoordinator(sender, conversation, speech, config, logger)
	}, false, nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	e := echo.New()
	e.GET("/ws/voice", func(c echo.Context) error {
		return websocket.HandleWebSocket(hub, c)
	})
	server := httptest.NewServer(e)
	t.Cleanup(func() {
		server.Close()
		cancel()
	})

	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/voice"
}

func TestRunTurn_Audio(t *testing.T) {
	url := startServer(t)

	wav, err := audio.EncodeWAV(make([]byte, 20000), 8000)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := runTurn(ctx, turnOptions{
		URL:       url,
		Audio:     wav,
		ChunkSize: 3200,
		Idle:      500 * time.Millisecond,
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("runTurn failed: %v", err)
	}

	if result.Transcript != "What is on my calendar today" {
		t.Errorf("Unexpected transcript: %q", result.Transcript)
	}
	if !strings.Contains(result.Reply, "What is on my calendar today") {
		t.Errorf("Expected echo reply, got %q", result.Reply)
	}
	if result.ThreadID == "" {
		t.Error("Expected a generated chatThreadId")
	}
	if result.AudioChunks != 1 || !audio.IsWAV(result.Audio) {
		t.Errorf("Expected one WAV reply, got %d chunks", result.AudioChunks)
	}

	want := []domain.EventType{domain.EventListening, domain.EventFinalTranscript, domain.EventAgentResponse, domain.EventAudioResponse}
	if len(result.Events) != len(want) {
		t.Fatalf("Expected events %v, got %v", want, result.Events)
	}
	for i := range want {
		if result.Events[i] != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], result.Events[i])
		}
	}
}

func TestRunTurn_TextContinuesThread(t *testing.T) {
	url := startServer(t)
	logger := zaptest.NewLogger(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	first, err := runTurn(ctx, turnOptions{URL: url, Text: "hello", Idle: 300 * time.Millisecond}, logger)
	if err != nil {
		t.Fatalf("first turn failed: %v", err)
	}

	second, err := runTurn(ctx, turnOptions{URL: url, Text: "again", ThreadID: first.ThreadID, Idle: 300 * time.Millisecond}, logger)
	if err != nil {
		t.Fatalf("second turn failed: %v", err)
	}

	if second.ThreadID != first.ThreadID {
		t.Errorf("Expected thread %s to be reused, got %s", first.ThreadID, second.ThreadID)
	}
	if second.Events[0] != domain.EventChatThreadAck {
		t.Errorf("Expected chat_thread_acknowledged first, got %s", second.Events[0])
	}
	if !strings.Contains(second.Reply, "message 3") {
		t.Errorf("Expected the agent to remember the first turn, got %q", second.Reply)
	}
}

func TestTurnResult_WAV(t *testing.T) {
	raw := &turnResult{Audio: make([]byte, 100)}
	wav, err := raw.WAV(24000)
	if err != nil {
		t.Fatalf("WAV failed: %v", err)
	}
	_, format, err := audio.ToLinear16(wav)
	if err != nil || format.SampleRate != 24000 {
		t.Errorf("Expected 24000 Hz WAV, got %+v, %v", format, err)
	}

	already := &turnResult{Audio: wav}
	if got, _ := already.WAV(16000); len(got) != len(wav) {
		t.Error("Expected WAV reply to pass through unchanged")
	}
}
