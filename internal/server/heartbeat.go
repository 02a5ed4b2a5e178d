package server

import (
	"context"
	"log/slog"

	"github.com/nimred/encounter/internal/protocol"
	"github.com/nimred/encounter/internal/pubsub"
)

func (s *Server) broadcastHello(ctx context.Context) {
	frame, err := protocol.NewEvent(protocol.EventHello, "world")
	if err != nil {
		slog.Error("Failed to marshal heartbeat", "error", err)
		return
	}
	if err := s.bus.Publish(ctx, pubsub.Message{Topic: pubsub.TopicBroadcast, Payload: frame}); err != nil {
		slog.Error("Failed to publish heartbeat", "error", err)
	}
}
