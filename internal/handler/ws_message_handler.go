package handler

import (
	"context"
	"fmt"

	"collabnotes-server/internal/session"
	"collabnotes-server/internal/store"
	"collabnotes-server/internal/websocket"
)

// WSMessageHandler routes inbound websocket messages into the
// client's session store.
type WSMessageHandler struct {
	sessions *session.Manager
}

func NewWSMessageHandler(sessions *session.Manager) *WSMessageHandler {
	return &WSMessageHandler{sessions: sessions}
}

func (h *WSMessageHandler) HandleWebSocketMessage(client *websocket.Client, msg *websocket.Message) error {
	switch msg.Type {
	case websocket.TypeSelect:
		var payload websocket.SelectPayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return fmt.Errorf("invalid select payload: %w", err)
		}
		sess := h.sessions.Session(client.UserID)
		sess.Store.Dispatch(context.Background(), store.SelectNote{ID: payload.NoteID})
		return nil

	case websocket.TypePing:
		pong, err := websocket.NewMessage(websocket.TypePong, nil)
		if err != nil {
			return err
		}
		return client.Manager.SendToClient(client.ID, pong)

	default:
		return nil
	}
}
