package websocket

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/satriahrh/voxcal/domain"
)

// ErrMissingEventType is returned for control messages without event_type
var ErrMissingEventType = errors.New("message missing event_type field")

// DecodeControlMessage parses a JSON text frame. Fields other than event_type are
// optional and default to their zero values.
func DecodeControlMessage(data []byte) (domain.ControlMessage, error) {
	var msg domain.ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return domain.ControlMessage{}, fmt.Errorf("failed to parse message: %w", err)
	}

	if msg.EventType == "" {
		return domain.ControlMessage{}, ErrMissingEventType
	}

	return msg, nil
}

// EncodeControlMessage serializes a control message for sending to the server
func EncodeControlMessage(msg domain.ControlMessage) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal control message: %w", err)
	}
	return data, nil
}

// EncodeEvent serializes a server event into a text frame payload
func EncodeEvent(event domain.ServerEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", event.EventType, err)
	}
	return data, nil
}

// DecodeEvent parses a server event. An agent_response payload is left as a
// map; use DecodeAgentResponse to read it.
func DecodeEvent(data []byte) (domain.ServerEvent, error) {
	var event domain.ServerEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.ServerEvent{}, fmt.Errorf("failed to parse event: %w", err)
	}
	return event, nil
}

// DecodeAgentResponse extracts the agent_response payload from a raw event
func DecodeAgentResponse(data []byte) (domain.AgentResponse, error) {
	var envelope struct {
		Text domain.AgentResponse `json:"text"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return domain.AgentResponse{}, fmt.Errorf("failed to parse agent response: %w", err)
	}
	return envelope.Text, nil
}
