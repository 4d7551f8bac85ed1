package websocket

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	// TypeState carries a full NotesState projection. The server never
	// sends diffs; clients replace their copy wholesale.
	TypeState MessageType = "state"

	// TypeNotification carries a transient user-facing event.
	TypeNotification MessageType = "notification"

	// TypeSelect is client -> server: change the active note.
	TypeSelect MessageType = "select"

	TypePing MessageType = "ping"
	TypePong MessageType = "pong"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type SelectPayload struct {
	NoteID string `json:"note_id"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
