package http

import (
	"context"
	"time"

	"plant-shop/internal/catalog/domain/model"
	"plant-shop/internal/catalog/usecase"
	"plant-shop/internal/shared/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	writeWait  = 10 * time.Second
)

// WebSocketHandler streams collection change events to websocket clients.
type WebSocketHandler struct {
	collections usecase.CollectionUsecase
	log         logger.Logger
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(uc usecase.CollectionUsecase, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{collections: uc, log: log.WithComponent("ws-handler")}
}

// RegisterRoutes mounts /collections/:collection on a router already scoped to the websocket prefix.
func (h *WebSocketHandler) RegisterRoutes(wsGroup fiber.Router) {
	wsGroup.Use("/collections", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	wsGroup.Get("/collections/:collection", websocket.New(h.handleConnection))
}

// handleConnection replays logged changes after resumeToken, then forwards live ones.
func (h *WebSocketHandler) handleConnection(conn *websocket.Conn) {
	collection := conn.Params("collection")
	resumeToken := conn.Query("resumeToken")
	subscriberID := uuid.NewString()
	log := h.log.WithFields(map[string]interface{}{
		"subscriberId": subscriberID,
		"collection":   collection,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Subscribe before replaying so nothing falls in the gap between the two.
	live, err := h.collections.Subscribe(ctx, collection)
	if err != nil {
		h.closeWithError(conn, err)
		return
	}

	log.Info("WebSocket subscriber connected")
	defer log.Info("WebSocket subscriber disconnected")

	replayed := make(map[string]struct{})
	if resumeToken != "" {
		events, err := h.collections.ChangesSince(ctx, collection, resumeToken)
		if err != nil {
			log.Warnf("Replay failed: %v", err)
		}
		for _, ev := range events {
			if err := h.write(conn, ev); err != nil {
				return
			}
			replayed[ev.ResumeToken] = struct{}{}
		}
	}

	go h.readLoop(conn, cancel)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-live:
			if !ok {
				return
			}
			if _, seen := replayed[ev.ResumeToken]; seen && ev.ResumeToken != "" {
				continue
			}
			if err := h.write(conn, ev); err != nil {
				log.Debugf("Write failed, closing: %v", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains client frames so control messages are processed and a
// closed socket cancels the subscription.
func (h *WebSocketHandler) readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debugf("WebSocket read error: %v", err)
			}
			return
		}
	}
}

func (h *WebSocketHandler) write(conn *websocket.Conn, ev *model.ChangeEvent) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ev)
}

func (h *WebSocketHandler) closeWithError(conn *websocket.Conn, err error) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteJSON(ErrorResponse{Error: "invalid_input", Message: err.Error()})
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid collection"))
}
