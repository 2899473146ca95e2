package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/lihuiat/x402chainpay/internal/events"
	"go.uber.org/zap"
)

// wsConn is the write surface of a websocket connection. The library
// permits only one concurrent writer per connection.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
}

// WSHub broadcasts payment events to connected dashboard clients. The feed
// is display-only; no client input is acted on. Events are funneled through
// a single writer goroutine, so publishers never touch a connection
// directly.
type WSHub struct {
	subscriber  events.Subscriber
	log         *zap.Logger
	feed        chan events.Event
	mu          sync.RWMutex
	connections []wsConn
}

func NewWSHub(subscriber events.Subscriber, log *zap.Logger) *WSHub {
	return &WSHub{
		subscriber: subscriber,
		log:        log,
		feed:       make(chan events.Event, 256),
	}
}

// Start subscribes to the payment stream and launches the writer loop.
// Subscription handlers may run on publishing goroutines, so they only
// enqueue; when the feed is saturated the event is dropped rather than
// stalling a purchase.
func (h *WSHub) Start(ctx context.Context) {
	_ = h.subscriber.Subscribe(ctx, events.StreamPayments, func(event events.Event) {
		select {
		case h.feed <- event:
		default:
			h.log.Debug("ws feed full, dropping event", zap.String("type", event.Type))
		}
	})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-h.feed:
				h.broadcast(event)
			}
		}
	}()
}

// broadcast is only ever called from the writer goroutine.
func (h *WSHub) broadcast(event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections {
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}
}

func (h *WSHub) addConn(conn wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections = append(h.connections, conn)
}

func (h *WSHub) removeConn(conn wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, c := range h.connections {
		if c == conn {
			h.connections = append(h.connections[:i], h.connections[i+1:]...)
			break
		}
	}
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	h.addConn(conn)
	defer func() {
		h.removeConn(conn)
		conn.Close()
	}()

	// Read loop: keep the connection alive, discard client messages.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
