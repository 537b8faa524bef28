package websocket

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/satriahrh/voxcal/domain"
)

func TestDecodeControlMessage(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantErr   bool
		eventType domain.EventType
		text      *string
		isFinal   bool
		threadID  string
	}{
		{
			name:      "start listening",
			input:     `{"event_type":"start_listening"}`,
			eventType: domain.EventStartListening,
		},
		{
			name:      "final transcript",
			input:     `{"event_type":"transcript","text":"Book","is_final":true}`,
			eventType: domain.EventTranscript,
			text:      strPtr("Book"),
			isFinal:   true,
		},
		{
			name:      "null text",
			input:     `{"event_type":"transcript","text":null,"is_final":true}`,
			eventType: domain.EventTranscript,
			isFinal:   true,
		},
		{
			name:      "existing chat",
			input:     `{"event_type":"existing_chat","chatThreadId":"abc-123"}`,
			eventType: domain.EventExistingChat,
			threadID:  "abc-123",
		},
		{
			name:      "unknown fields are ignored",
			input:     `{"event_type":"stop_listening","extra":42}`,
			eventType: domain.EventStopListening,
		},
		{
			name:    "invalid json",
			input:   `{"event_type":`,
			wantErr: true,
		},
		{
			name:    "missing event type",
			input:   `{"text":"hello"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeControlMessage([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeControlMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			if msg.EventType != tt.eventType {
				t.Errorf("Expected event type %s, got %s", tt.eventType, msg.EventType)
			}
			if (msg.Text == nil) != (tt.text == nil) || (msg.Text != nil && *msg.Text != *tt.text) {
				t.Errorf("Expected text %v, got %v", tt.text, msg.Text)
			}
			if msg.IsFinal != tt.isFinal {
				t.Errorf("Expected is_final %v, got %v", tt.isFinal, msg.IsFinal)
			}
			if msg.ChatThreadID != tt.threadID {
				t.Errorf("Expected chatThreadId %q, got %q", tt.threadID, msg.ChatThreadID)
			}
		})
	}
}

func TestDecodeControlMessage_MissingEventTypeSentinel(t *testing.T) {
	_, err := DecodeControlMessage([]byte(`{}`))
	if !errors.Is(err, ErrMissingEventType) {
		t.Errorf("Expected ErrMissingEventType, got %v", err)
	}
}

func TestEncodeEvent_AgentResponse(t *testing.T) {
	data, err := EncodeEvent(domain.NewAgentResponseEvent("See you at 3", "thread-1"))
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}

	if raw["event_type"] != "agent_response" {
		t.Errorf("Expected agent_response, got %v", raw["event_type"])
	}

	text, ok := raw["text"].(map[string]any)
	if !ok {
		t.Fatalf("Expected nested text object, got %T", raw["text"])
	}
	if text["responseText"] != "See you at 3" || text["chatThreadId"] != "thread-1" {
		t.Errorf("Unexpected agent response payload: %v", text)
	}

	resp, err := DecodeAgentResponse(data)
	if err != nil {
		t.Fatalf("DecodeAgentResponse failed: %v", err)
	}
	if resp.ChatThreadID != "thread-1" {
		t.Errorf("Expected thread-1, got %s", resp.ChatThreadID)
	}
}

func TestEncodeEvent_AudioResponse(t *testing.T) {
	audio := []byte{0x00, 0x01, 0xFE, 0xFF}

	data, err := EncodeEvent(domain.NewAudioResponseEvent(audio, "thread-1"))
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	event, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	decoded, err := base64.StdEncoding.DecodeString(event.AudioData)
	if err != nil {
		t.Fatalf("audio_data is not base64: %v", err)
	}
	if string(decoded) != string(audio) {
		t.Errorf("Expected %v, got %v", audio, decoded)
	}
	if event.ChatThreadID != "thread-1" {
		t.Errorf("Expected chatThreadId thread-1, got %s", event.ChatThreadID)
	}
}

func TestEncodeEvent_ErrorAndFinalAudio(t *testing.T) {
	data, _ := EncodeEvent(domain.NewErrorEvent())
	if string(data) != `{"event_type":"error","reason":"internal server error"}` {
		t.Errorf("Unexpected error payload: %s", data)
	}

	data, _ = EncodeEvent(domain.NewFinalAudioResponseEvent("t"))
	if string(data) != `{"event_type":"final_audio_response","chatThreadId":"t","done":true}` {
		t.Errorf("Unexpected final audio payload: %s", data)
	}
}

func strPtr(s string) *string { return &s }
