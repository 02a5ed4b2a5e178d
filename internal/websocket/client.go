package websocket

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/nimred/encounter/internal/protocol"
	"github.com/nimred/encounter/internal/pubsub"
)

// Client is a single connected WebSocket peer. Every connection gets its own
// opaque ID at accept time; identity (GM or observer) is a property of the
// session layer, not of the connection itself.
type Client struct {
	// ID is the unique identifier assigned to this connection.
	ID string
	// conn is the underlying WebSocket connection.
	conn *websocket.Conn
	// send is a buffered channel of outbound frames for this connection.
	send chan []byte
	// bridge is a reference back to the bridge that manages this client.
	bridge *Bridge
}

// readPump forwards frames from the connection onto the command topic. Each
// frame is wrapped with the connection ID so the gateway can resolve the
// caller's session.
func (c *Client) readPump() {
	defer func() {
		c.bridge.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "client disconnected")
	}()

	for {
		_, frame, err := c.conn.Read(context.Background())
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || websocket.CloseStatus(err) == websocket.StatusGoingAway {
				slog.Info("WebSocket closed by client", "connID", c.ID)
			} else if err != io.EOF {
				slog.Error("WebSocket read error", "connID", c.ID, "error", err)
			}
			return
		}

		if err := c.bridge.publisher.Publish(context.Background(), pubsub.Message{
			Topic:   pubsub.TopicCommands,
			ConnID:  c.ID,
			Payload: frame,
		}); err != nil {
			slog.Error("Failed to publish client frame", "connID", c.ID, "error", err)
		}
	}
}

// writePump drains the send channel onto the connection.
func (c *Client) writePump() {
	defer func() {
		c.conn.Close(websocket.StatusNormalClosure, "server-side cleanup")
	}()

	for frame := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.conn.Write(ctx, websocket.MessageText, frame)
		cancel()
		if err != nil {
			slog.Error("WebSocket write error", "connID", c.ID, "error", err)
			return
		}
	}
}

// lifecycleFrame builds the synthetic connect/disconnect envelope published
// on the command topic for a connection.
func lifecycleFrame(frameType string) []byte {
	frame, _ := protocol.NewEvent(frameType, nil)
	return frame
}
