package handler

import (
	"encoding/json"
	"net/http"

	"collabnotes-server/internal/session"
	"collabnotes-server/internal/websocket"
	"collabnotes-server/pkg/jwt"
	"collabnotes-server/pkg/response"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WebSocketHandler struct {
	manager   *websocket.Manager
	sessions  *session.Manager
	jwtSecret string
	upgrader  ws.Upgrader
	logger    *zap.Logger
}

func NewWebSocketHandler(manager *websocket.Manager, sessions *session.Manager, jwtSecret string, readBuf, writeBuf int, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		manager:   manager,
		sessions:  sessions,
		jwtSecret: jwtSecret,
		upgrader: ws.Upgrader{
			ReadBufferSize:  readBuf,
			WriteBufferSize: writeBuf,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

// HandleConnection upgrades the connection, authenticates it via the
// token query parameter, and seeds the new client with the current
// state so it renders immediately instead of waiting for a change.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	claims, err := jwt.ValidateToken(token, h.jwtSecret)
	if err != nil {
		response.Unauthorized(w, "Invalid or missing token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sess := h.sessions.Session(claims.UserID)
	client := websocket.NewClient(uuid.New().String(), claims.UserID, conn, h.manager)

	if msg, err := websocket.NewMessage(websocket.TypeState, sess.Store.State()); err == nil {
		if raw, err := json.Marshal(msg); err == nil {
			client.Send <- raw
		}
	}

	h.manager.Register <- client

	go client.ReadPump()
	go client.WritePump()
}
