package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"messenger-service/internal/auth"
	"messenger-service/internal/delivery"
	"messenger-service/internal/models"
	"messenger-service/internal/observability"
)

// ClientHandler upgrades websocket connections, registers presence for the
// authenticated user and feeds inbound events to the delivery engine.
type ClientHandler struct {
	hub     *Hub
	engine  *delivery.Engine
	tokens  *auth.TokenManager
	decoder EventDecoder
	logger  *zap.SugaredLogger
}

// NewClientHandler constructs a ClientHandler.
func NewClientHandler(hub *Hub, engine *delivery.Engine, tokens *auth.TokenManager, logger *zap.SugaredLogger) *ClientHandler {
	return &ClientHandler{hub: hub, engine: engine, tokens: tokens, logger: logger}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and starts the per-connection read loop.
// The identity is resolved once here; every event handled afterwards carries
// it explicitly instead of re-reading ambient session state.
func (h *ClientHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("messenger-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token == "" {
		token = c.Query("token")
		if token != "" {
			token = "Bearer " + token
		}
	}

	identity, err := h.verifyToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      identity.UserID,
		Username:    identity.Username,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.Register(identity.UserID, conn, info)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	h.publishLifecycle(ctx, "ws_connect", info, "")

	go h.readLoop(ctx, conn, identity, info)
}

// readLoop processes one connection's events in arrival order until the
// socket closes, then unregisters the handle promptly so fan-out stops
// targeting it.
func (h *ClientHandler) readLoop(ctx context.Context, conn *websocket.Conn, identity auth.Identity, info ConnInfo) {
	var closeReason string
	defer func() {
		h.hub.Unregister(identity.UserID, conn)
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		h.publishLifecycle(ctx, "ws_disconnect", info, closeReason)
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
				h.publishLifecycle(ctx, "ws_error", info, closeReason)
			}
			return
		}

		event, err := h.decoder.Decode(data)
		if err != nil {
			h.logger.Debugw("undecodable client event dropped", "user_id", identity.UserID, "error", err)
			observability.IncEventDropped("unknown", "undecodable")
			continue
		}

		switch ev := event.(type) {
		case models.JoinEvent:
			// presence was registered at handshake; a re-join refreshes the handle
			h.hub.Register(identity.UserID, conn, info)
		case models.SendMessageEvent:
			h.engine.SendMessage(ctx, identity, ev)
		case models.MarkAsReadEvent:
			h.engine.MarkAsRead(ctx, identity, ev)
		case models.TypingEvent:
			h.engine.Typing(identity, ev)
		case models.StopTypingEvent:
			h.engine.StopTyping(identity, ev)
		}
	}
}

func (h *ClientHandler) publishLifecycle(ctx context.Context, name string, info ConnInfo, reason string) {
	durationMs := int64(0)
	if name != "ws_connect" {
		durationMs = time.Since(info.ConnectedAt).Milliseconds()
	}

	_ = observability.PublishEvent(ctx, wsRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: name,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"event":       name,
				"conn_id":     info.ConnID,
				"duration_ms": durationMs,
				"reason":      reason,
			},
			"identity": map[string]interface{}{
				"user_id":   info.UserID,
				"username":  info.Username,
				"device_id": info.DeviceID,
				"ip":        info.IP,
			},
		},
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}

func (h *ClientHandler) verifyToken(header string) (auth.Identity, error) {
	parts := strings.Split(header, " ")
	if len(parts) == 2 {
		return h.tokens.Verify(parts[1])
	}
	return auth.Identity{}, auth.ErrInvalidToken
}
