// Package websocket is the transport boundary: it accepts connections, pumps
// frames, and fans server events out to connected peers. It knows nothing
// about the game; inbound frames are handed to the bus and outbound frames
// arrive from it.
package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/nimred/encounter/internal/middleware"
	"github.com/nimred/encounter/internal/protocol"
	"github.com/nimred/encounter/internal/pubsub"
)

// Bridge manages all WebSocket connections and routes frames between them
// and the message bus.
type Bridge struct {
	publisher pubsub.Publisher

	// clients maps connection IDs to their clients.
	clients map[string]*Client

	// register is the channel new clients announce themselves on.
	register chan *Client

	// unregister is the channel closing clients announce themselves on.
	unregister chan *Client

	// broadcast carries frames destined for every connection.
	broadcast chan []byte

	// direct carries frames destined for one connection.
	direct chan directFrame

	// origins are the accepted Origin header patterns. Empty means accept
	// any origin (development mode).
	origins []string

	mu sync.RWMutex
}

type directFrame struct {
	connID  string
	payload []byte
}

// NewBridge initializes a bridge, ready to accept connections.
func NewBridge(pub pubsub.Publisher, origins []string) *Bridge {
	return &Bridge{
		publisher:  pub,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		direct:     make(chan directFrame, 16),
		origins:    origins,
	}
}

// Run starts the bridge's connection-management loop. It must run in its own
// goroutine and owns the clients map.
func (b *Bridge) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-b.register:
			b.mu.Lock()
			b.clients[client.ID] = client
			b.mu.Unlock()
			slog.Info("Client registered", "connID", client.ID, "total", b.clientCount())

		case client := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[client.ID]; ok {
				delete(b.clients, client.ID)
				close(client.send)
			}
			b.mu.Unlock()
			slog.Info("Client unregistered", "connID", client.ID, "total", b.clientCount())
			// Published off the loop so a busy bus can never stall
			// connection management.
			go b.publishLifecycle(ctx, client.ID, protocol.TypeClientDisconnected)

		case frame := <-b.broadcast:
			b.mu.RLock()
			for _, client := range b.clients {
				select {
				case client.send <- frame:
				default:
					// The peer is lagging badly; drop the frame. Observers
					// recover by requesting a full resync.
					slog.Warn("Client send buffer full, dropping frame", "connID", client.ID)
				}
			}
			b.mu.RUnlock()

		case frame := <-b.direct:
			b.mu.RLock()
			if client, ok := b.clients[frame.connID]; ok {
				select {
				case client.send <- frame.payload:
				default:
					slog.Warn("Client send buffer full, dropping direct frame", "connID", frame.connID)
				}
			}
			b.mu.RUnlock()
		}
	}
}

func (b *Bridge) clientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Broadcast queues a frame for every connected client.
func (b *Bridge) Broadcast(payload []byte) {
	b.broadcast <- payload
}

// SendDirect queues a frame for one connection. Frames for connections that
// are already gone are silently discarded.
func (b *Bridge) SendDirect(connID string, payload []byte) {
	b.direct <- directFrame{connID: connID, payload: payload}
}

// Handler returns the echo handler that upgrades requests to WebSocket
// connections.
func (b *Bridge) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		opts := &websocket.AcceptOptions{}
		if len(b.origins) == 0 {
			opts.InsecureSkipVerify = true // Development mode; set allowed origins in production.
		} else {
			opts.OriginPatterns = b.origins
		}

		logger := middleware.FromContext(c.Request().Context())

		conn, err := websocket.Accept(c.Response(), c.Request(), opts)
		if err != nil {
			logger.Error("Failed to upgrade connection to WebSocket", "error", err)
			return err
		}

		client := &Client{
			ID:     uuid.NewString(),
			conn:   conn,
			send:   make(chan []byte, 256),
			bridge: b,
		}
		b.register <- client

		go client.writePump()
		go client.readPump()

		// Announce the connection on the command topic so the gateway can
		// push the current state to the newcomer. The request context dies
		// with the upgrade, so the publish uses its own.
		b.publishLifecycle(context.Background(), client.ID, protocol.TypeClientConnected)

		return nil
	}
}

func (b *Bridge) publishLifecycle(ctx context.Context, connID, frameType string) {
	if err := b.publisher.Publish(ctx, pubsub.Message{
		Topic:   pubsub.TopicCommands,
		ConnID:  connID,
		Payload: lifecycleFrame(frameType),
	}); err != nil {
		slog.Error("Failed to publish lifecycle frame", "connID", connID, "type", frameType, "error", err)
	}
}

// StartSubscribers wires the bridge onto the outbound bus topics. Broadcast
// frames fan out to everyone; direct frames go to the connection named by the
// message's ConnID.
func (b *Bridge) StartSubscribers(ctx context.Context, sub pubsub.Subscriber) error {
	if err := sub.Subscribe(ctx, pubsub.TopicBroadcast, func(ctx context.Context, msg pubsub.Message) error {
		b.Broadcast(msg.Payload)
		return nil
	}); err != nil {
		return err
	}
	return sub.Subscribe(ctx, pubsub.TopicDirect, func(ctx context.Context, msg pubsub.Message) error {
		b.SendDirect(msg.ConnID, msg.Payload)
		return nil
	})
}
