package domain

import "encoding/base64"

// EventType identifies a control message from the client or an event pushed to it
type EventType string

// Control messages sent by the client
const (
	EventStartListening EventType = "start_listening"
	EventStopListening  EventType = "stop_listening"
	EventExistingChat   EventType = "existing_chat"
	EventTranscript     EventType = "transcript"
)

// Events sent by the server
const (
	EventListening          EventType = "listening"
	EventChatThreadAck      EventType = "chat_thread_acknowledged"
	EventFinalTranscript    EventType = "final_transcript"
	EventAgentResponse      EventType = "agent_response"
	EventAudioResponse      EventType = "audio_response"
	EventFinalAudioResponse EventType = "final_audio_response"
	EventError              EventType = "error"
)

// InternalErrorReason is the only failure detail ever reported to the client
const InternalErrorReason = "internal server error"

// ControlMessage represents a JSON text frame received from the client.
// Absent fields decode to their zero value; Text is nil when the client sent null.
type ControlMessage struct {
	EventType    EventType `json:"event_type"`
	Text         *string   `json:"text,omitempty"`
	IsFinal      bool      `json:"is_final,omitempty"`
	ChatThreadID string    `json:"chatThreadId,omitempty"`
}

// ServerEvent represents a JSON text frame sent to the client
type ServerEvent struct {
	EventType    EventType `json:"event_type"`
	Text         any       `json:"text,omitempty"`
	ChatThreadID string    `json:"chatThreadId,omitempty"`
	AudioData    string    `json:"audio_data,omitempty"` // base64 encoded
	Done         bool      `json:"done,omitempty"`
	Reason       string    `json:"reason,omitempty"`
}

// AgentResponse is the payload of an agent_response event
type AgentResponse struct {
	ResponseText string `json:"responseText"`
	ChatThreadID string `json:"chatThreadId"`
}

// EventSender delivers server events to the remote peer
type EventSender interface {
	Send(event ServerEvent) error
}

func NewListeningEvent() ServerEvent {
	return ServerEvent{EventType: EventListening, Text: "Listening started"}
}

func NewChatThreadAckEvent(chatThreadID string) ServerEvent {
	return ServerEvent{EventType: EventChatThreadAck, ChatThreadID: chatThreadID}
}

func NewFinalTranscriptEvent(transcript string) ServerEvent {
	return ServerEvent{EventType: EventFinalTranscript, Text: transcript}
}

func NewAgentResponseEvent(responseText, chatThreadID string) ServerEvent {
	return ServerEvent{
		EventType: EventAgentResponse,
		Text: AgentResponse{
			ResponseText: responseText,
			ChatThreadID: chatThreadID,
		},
	}
}

// NewAudioResponseEvent wraps one synthesized audio chunk (or the whole reply) for the client
func NewAudioResponseEvent(audio []byte, chatThreadID string) ServerEvent {
	return ServerEvent{
		EventType:    EventAudioResponse,
		AudioData:    base64.StdEncoding.EncodeToString(audio),
		ChatThreadID: chatThreadID,
	}
}

func NewFinalAudioResponseEvent(chatThreadID string) ServerEvent {
	return ServerEvent{EventType: EventFinalAudioResponse, Done: true, ChatThreadID: chatThreadID}
}

func NewErrorEvent() ServerEvent {
	return ServerEvent{EventType: EventError, Reason: InternalErrorReason}
}
