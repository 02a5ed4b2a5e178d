// Package protocol defines the JSON wire shapes exchanged over the WebSocket
// connection. Every frame, in either direction, is an Envelope: a type tag
// plus a type-specific payload.
package protocol

import (
	"encoding/json"

	"github.com/nimred/encounter/internal/domain"
)

// Client -> server request types.
const (
	TypeLoginRequest      = "login-request"
	TypeReconnect         = "reconnect"
	TypeAddEntity         = "add-entity"
	TypeEditEntity        = "edit-entity"
	TypeSetEntityState    = "entity-set-state"
	TypeDeleteEntity      = "delete-entity"
	TypeToggleTurnDone    = "toggle-turn-done"
	TypeFullRest          = "full-rest"
	TypeDuplicateEntity   = "duplicate-entity"
	TypeToggleAffiliation = "toggle-affiliation"
	TypeResetTurns        = "reset-turns"
	TypeUndo              = "undo"
	TypeRedo              = "redo"
	TypeGetFullState      = "get-full-state"
)

// Server -> client event types. EventState is the one canonical event every
// committed mutation broadcasts; everything else is addressed to a single
// connection.
const (
	EventState           = "entities-state"
	EventLoginResult     = "login-result"
	EventCommandRejected = "command-rejected"
	EventHello           = "hello"
)

// Connection lifecycle frames. These are synthesized by the transport, never
// sent by clients, and flow through the same serialized command queue as
// mutations so that session bookkeeping cannot race a mutation.
const (
	TypeClientConnected    = "client-connected"
	TypeClientDisconnected = "client-disconnected"
)

// Envelope is the outer frame for every message on the wire.
type Envelope struct {
	Type    string          `json:"type" validate:"required"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Login carries the secret presented by a connection that wants GM
// privileges. Reconnect reuses the same shape.
type Login struct {
	Secret string `json:"secret" validate:"required"`
}

// AddEntity creates a new combatant. The three bar values are strings on the
// wire (the client sends form input verbatim) and must parse as non-negative
// integers.
type AddEntity struct {
	Name       string `json:"name" validate:"required"`
	HP         string `json:"hp" validate:"required"`
	MP         string `json:"mp" validate:"required"`
	PE         string `json:"pe" validate:"required"`
	EntityType string `json:"entityType" validate:"required,oneof=ally foe"`
	ImgSource  string `json:"imgSource"`
}

// EditEntity edits either one of the three bars or one of the free-text
// fields, discriminated by Field. ValueType is only meaningful for bar edits.
type EditEntity struct {
	EntityID  string `json:"entityID" validate:"required"`
	Field     string `json:"barType" validate:"required,oneof=HP MP PE conditions imgSource name"`
	ValueType string `json:"valueType" validate:"omitempty,oneof=current max"`
	Value     string `json:"value"`
}

// SetEntityState changes a combatant's life status, or toggles the stat
// visibility flag when NewState is "visible-stats".
type SetEntityState struct {
	EntityID string `json:"entityID" validate:"required"`
	NewState string `json:"newState" validate:"required,oneof=alive unconscious dead visible-stats"`
}

// EntityRef addresses an existing combatant. Used by delete, toggle-turn-done,
// full-rest, duplicate and toggle-affiliation.
type EntityRef struct {
	EntityID string `json:"entityID" validate:"required"`
}

// LoginResult is the direct answer to a login-request.
type LoginResult struct {
	Success bool `json:"success"`
}

// CommandRejected is the direct answer to a request that failed input
// validation or whose state could not be persisted. Authorization failures
// deliberately produce no answer at all.
type CommandRejected struct {
	Op     string `json:"op"`
	Reason string `json:"reason"`
}

// NewEvent marshals a server event into its wire envelope.
func NewEvent(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: eventType, Payload: raw})
}

// StateEvent marshals the canonical full-state broadcast.
func StateEvent(state domain.GameState) ([]byte, error) {
	return NewEvent(EventState, state)
}
