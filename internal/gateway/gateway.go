// Package gateway is the synchronization core: it drains the command topic
// one frame at a time, resolves the caller's session, runs the requested
// mutation, and on every committed change broadcasts the new canonical state
// before persisting it.
package gateway

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nimred/encounter/internal/domain"
	"github.com/nimred/encounter/internal/engine"
	"github.com/nimred/encounter/internal/protocol"
	"github.com/nimred/encounter/internal/pubsub"
	"github.com/nimred/encounter/internal/session"
	"github.com/nimred/encounter/internal/storage"
)

// Gateway dispatches client frames against the tracker. It subscribes to the
// command topic exactly once; because that subscription handles messages
// serially, every mutation runs validate -> apply -> commit -> broadcast ->
// persist to completion before the next frame is looked at.
type Gateway struct {
	tracker   *engine.Tracker
	auth      *session.Authorizer
	sessions  *session.Registry
	store     *storage.StateStore
	publisher pubsub.Publisher
}

// New wires a gateway.
func New(tracker *engine.Tracker, auth *session.Authorizer, sessions *session.Registry, store *storage.StateStore, pub pubsub.Publisher) *Gateway {
	return &Gateway{
		tracker:   tracker,
		auth:      auth,
		sessions:  sessions,
		store:     store,
		publisher: pub,
	}
}

// Start subscribes the gateway to the command topic.
func (g *Gateway) Start(ctx context.Context, sub pubsub.Subscriber) error {
	return sub.Subscribe(ctx, pubsub.TopicCommands, g.handleFrame)
}

// handleFrame processes one inbound frame. It never returns an error for a
// bad request; rejections are either silent by design or answered directly,
// and a nacked frame would only be redelivered to no better effect.
func (g *Gateway) handleFrame(ctx context.Context, msg pubsub.Message) error {
	env, err := protocol.ParseEnvelope(msg.Payload)
	if err != nil {
		slog.Debug("Dropping malformed frame", "connID", msg.ConnID, "error", err)
		return nil
	}

	switch env.Type {
	case protocol.TypeClientConnected:
		g.sendState(ctx, msg.ConnID)
	case protocol.TypeClientDisconnected:
		g.sessions.Drop(msg.ConnID)
	case protocol.TypeLoginRequest:
		g.handleLogin(ctx, msg.ConnID, env.Payload)
	case protocol.TypeReconnect:
		g.handleReconnect(msg.ConnID, env.Payload)
	case protocol.TypeGetFullState:
		g.sendState(ctx, msg.ConnID)
	case protocol.TypeUndo:
		g.finish(ctx, msg.ConnID, env.Type, g.tracker.Undo(g.secretFor(msg.ConnID)))
	case protocol.TypeRedo:
		g.finish(ctx, msg.ConnID, env.Type, g.tracker.Redo(g.secretFor(msg.ConnID)))
	default:
		g.handleMutation(ctx, msg.ConnID, env)
	}
	return nil
}

func (g *Gateway) secretFor(connID string) string {
	return g.sessions.Resolve(connID)
}

// handleLogin records the presented secret when it is the GM secret, and
// always answers the requester with the outcome.
func (g *Gateway) handleLogin(ctx context.Context, connID string, payload []byte) {
	req, err := protocol.Decode[protocol.Login](payload)
	success := err == nil && g.auth.IsGM(req.Secret)
	if success {
		g.sessions.Record(connID, req.Secret)
	}
	g.sendDirect(ctx, connID, protocol.EventLoginResult, protocol.LoginResult{Success: success})
}

// handleReconnect silently re-upgrades a connection presenting the GM secret.
// Unlike login there is no result event; a stale client that lost the race
// just stays an observer.
func (g *Gateway) handleReconnect(connID string, payload []byte) {
	req, err := protocol.Decode[protocol.Login](payload)
	if err != nil || !g.auth.IsGM(req.Secret) {
		return
	}
	g.sessions.Record(connID, req.Secret)
}

// handleMutation decodes and runs a roster operation.
func (g *Gateway) handleMutation(ctx context.Context, connID string, env protocol.Envelope) {
	secret := g.secretFor(connID)

	var result engine.Result
	switch env.Type {
	case protocol.TypeAddEntity:
		req, err := protocol.Decode[protocol.AddEntity](env.Payload)
		if err != nil {
			g.reject(ctx, connID, env.Type, err)
			return
		}
		result = g.tracker.AddEntity(secret, req)
	case protocol.TypeEditEntity:
		req, err := protocol.Decode[protocol.EditEntity](env.Payload)
		if err != nil {
			g.reject(ctx, connID, env.Type, err)
			return
		}
		result = g.tracker.EditEntity(secret, req)
	case protocol.TypeSetEntityState:
		req, err := protocol.Decode[protocol.SetEntityState](env.Payload)
		if err != nil {
			g.reject(ctx, connID, env.Type, err)
			return
		}
		result = g.tracker.SetEntityState(secret, req)
	case protocol.TypeDeleteEntity:
		req, err := protocol.Decode[protocol.EntityRef](env.Payload)
		if err != nil {
			g.reject(ctx, connID, env.Type, err)
			return
		}
		result = g.tracker.DeleteEntity(secret, req.EntityID)
	case protocol.TypeToggleTurnDone:
		req, err := protocol.Decode[protocol.EntityRef](env.Payload)
		if err != nil {
			g.reject(ctx, connID, env.Type, err)
			return
		}
		result = g.tracker.ToggleTurnDone(secret, req.EntityID)
	case protocol.TypeFullRest:
		req, err := protocol.Decode[protocol.EntityRef](env.Payload)
		if err != nil {
			g.reject(ctx, connID, env.Type, err)
			return
		}
		result = g.tracker.FullRest(secret, req.EntityID)
	case protocol.TypeDuplicateEntity:
		req, err := protocol.Decode[protocol.EntityRef](env.Payload)
		if err != nil {
			g.reject(ctx, connID, env.Type, err)
			return
		}
		result = g.tracker.DuplicateEntity(secret, req.EntityID)
	case protocol.TypeToggleAffiliation:
		req, err := protocol.Decode[protocol.EntityRef](env.Payload)
		if err != nil {
			g.reject(ctx, connID, env.Type, err)
			return
		}
		result = g.tracker.ToggleAffiliation(secret, req.EntityID)
	case protocol.TypeResetTurns:
		result = g.tracker.ResetTurns(secret)
	default:
		slog.Debug("Dropping frame of unknown type", "connID", connID, "type", env.Type)
		return
	}

	g.finish(ctx, connID, env.Type, result)
}

// finish turns a tracker result into its observable effects: a committed
// state is broadcast to everyone and persisted; invalid input is acked back
// to the requester; everything else is dropped without a trace.
func (g *Gateway) finish(ctx context.Context, connID, op string, result engine.Result) {
	switch result.Verdict {
	case engine.Accepted:
		g.broadcastState(ctx, result.State)
		if err := g.store.Save(result.State); err != nil {
			// In-memory state stays authoritative; tell the caller the
			// durable copy is behind and keep serving.
			slog.Error("Failed to persist state", "op", op, "error", err)
			g.sendDirect(ctx, connID, protocol.EventCommandRejected, protocol.CommandRejected{
				Op: op, Reason: "state not persisted",
			})
		}
	case engine.Invalid:
		g.reject(ctx, connID, op, result.Err)
	case engine.Unauthorized, engine.NotFound, engine.NoChange:
		slog.Debug("Dropping request", "connID", connID, "op", op, "verdict", result.Verdict, "error", result.Err)
	}
}

func (g *Gateway) reject(ctx context.Context, connID, op string, err error) {
	// Only input problems are surfaced; authorization failures stay silent
	// even when they arrive wrapped in a decode error.
	if errors.Is(err, domain.ErrUnauthorized) {
		return
	}
	slog.Debug("Rejecting request", "connID", connID, "op", op, "error", err)
	g.sendDirect(ctx, connID, protocol.EventCommandRejected, protocol.CommandRejected{
		Op: op, Reason: "invalid input",
	})
}

func (g *Gateway) broadcastState(ctx context.Context, state domain.GameState) {
	frame, err := protocol.StateEvent(state)
	if err != nil {
		slog.Error("Failed to marshal state broadcast", "error", err)
		return
	}
	if err := g.publisher.Publish(ctx, pubsub.Message{Topic: pubsub.TopicBroadcast, Payload: frame}); err != nil {
		slog.Error("Failed to publish state broadcast", "error", err)
	}
}

// sendState answers one connection with the full current state.
func (g *Gateway) sendState(ctx context.Context, connID string) {
	frame, err := protocol.StateEvent(g.tracker.Current())
	if err != nil {
		slog.Error("Failed to marshal state resync", "error", err)
		return
	}
	if err := g.publisher.Publish(ctx, pubsub.Message{Topic: pubsub.TopicDirect, ConnID: connID, Payload: frame}); err != nil {
		slog.Error("Failed to publish state resync", "connID", connID, "error", err)
	}
}

func (g *Gateway) sendDirect(ctx context.Context, connID, eventType string, payload any) {
	frame, err := protocol.NewEvent(eventType, payload)
	if err != nil {
		slog.Error("Failed to marshal direct event", "event", eventType, "error", err)
		return
	}
	if err := g.publisher.Publish(ctx, pubsub.Message{Topic: pubsub.TopicDirect, ConnID: connID, Payload: frame}); err != nil {
		slog.Error("Failed to publish direct event", "connID", connID, "event", eventType, "error", err)
	}
}
