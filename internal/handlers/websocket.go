package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"pawmatch-backend/internal/middleware"
	"pawmatch-backend/internal/services"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for MVP
	},
}

// ClientFrame is an inbound realtime frame
type ClientFrame struct {
	Action  string `json:"action"`
	MatchID string `json:"match_id,omitempty"`
	Content string `json:"content,omitempty"`
}

// WebSocketHandler handles realtime connections: the bearer-token handshake,
// room join/leave, and inbound message sends.
type WebSocketHandler struct {
	hub         *services.Hub
	userService *services.UserService
	swipes      *services.SwipeService
	chats       *services.ChatService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.Hub,
	userService *services.UserService,
	swipes *services.SwipeService,
	chats *services.ChatService,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		userService: userService,
		swipes:      swipes,
		chats:       chats,
	}
}

// HandleWebSocket handles GET /ws?token=...
// The token is validated before the upgrade: a missing or invalid credential
// terminates the attempt with no connection registered and no room joined.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	userID, err := middleware.ValidateWebSocketToken(token, h.userService)
	if err != nil {
		respondError(w, "invalid token", "unauthenticated", http.StatusUnauthorized)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer wsConn.Close()

	conn := services.NewConnection(uuid.New().String(), userID)
	h.hub.Register(conn)
	defer h.hub.Unregister(conn.ID)

	go h.writeLoop(wsConn, conn)

	log.Info().Str("user_id", userID).Str("session_id", conn.ID).Msg("WebSocket connection established")

	ctx := r.Context()
	for {
		_, frameBytes, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var frame ClientFrame
		if err := json.Unmarshal(frameBytes, &frame); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket frame")
			h.sendError(conn, "Invalid frame format")
			continue
		}

		if err := h.handleFrame(ctx, conn, frame); err != nil {
			log.Error().
				Err(err).
				Str("user_id", userID).
				Str("action", frame.Action).
				Msg("Failed to handle frame")
			h.sendError(conn, err.Error())
		}
	}
}

// writeLoop pumps hub events onto the socket. It owns all writes, so events
// reach the wire in the order the hub queued them. Eviction from the hub
// closes the socket, which in turn ends the read loop.
func (h *WebSocketHandler) writeLoop(wsConn *websocket.Conn, conn *services.Connection) {
	for {
		select {
		case ev := <-conn.Events():
			data, err := json.Marshal(ev)
			if err != nil {
				log.Error().Err(err).Str("session_id", conn.ID).Msg("Failed to marshal event")
				continue
			}
			if err := wsConn.WriteMessage(websocket.TextMessage, data); err != nil {
				wsConn.Close()
				return
			}
		case <-conn.Done():
			wsConn.Close()
			return
		}
	}
}

// handleFrame processes one inbound frame
func (h *WebSocketHandler) handleFrame(ctx context.Context, conn *services.Connection, frame ClientFrame) error {
	switch frame.Action {
	case "join":
		return h.handleJoin(ctx, conn, frame.MatchID)
	case "leave":
		h.hub.Leave(conn.ID, frame.MatchID)
		return nil
	case "send":
		_, err := h.chats.Send(ctx, conn.UserID, frame.MatchID, frame.Content)
		return err
	default:
		h.sendError(conn, "Unknown action")
		return nil
	}
}

// handleJoin verifies the caller is a participant of the match before
// granting room membership. Joining twice is a no-op.
func (h *WebSocketHandler) handleJoin(ctx context.Context, conn *services.Connection, matchID string) error {
	if matchID == "" {
		h.sendError(conn, "match_id is required")
		return nil
	}

	if _, err := h.swipes.GetMatch(ctx, conn.UserID, matchID); err != nil {
		return err
	}

	return h.hub.Join(conn.ID, matchID)
}

// sendError pushes an error event onto the offending connection's stream
func (h *WebSocketHandler) sendError(conn *services.Connection, message string) {
	if err := h.hub.SendToSession(conn.ID, services.NewErrorEvent(message)); err != nil {
		log.Debug().Err(err).Str("session_id", conn.ID).Msg("Failed to send error event")
	}
}
