package domain

import "encoding/json"

// GameState is the canonical roster broadcast to observers and written to
// durable storage. An entity belongs to exactly one of the two sequences at a
// time; IDs are unique across both combined.
//
// Clocks are part of the persisted shape but are never touched by the
// mutation pipeline. They are carried as raw JSON so whatever the client
// stores there survives a load/save cycle untouched.
type GameState struct {
	Allies []Entity          `json:"allies"`
	Foes   []Entity          `json:"foes"`
	Clocks []json.RawMessage `json:"clocks"`
}

// NewGameState returns an empty roster with non-nil sequences, so the state
// always serializes as [] rather than null.
func NewGameState() GameState {
	return GameState{
		Allies: []Entity{},
		Foes:   []Entity{},
		Clocks: []json.RawMessage{},
	}
}

// Clone returns a deep copy of the state. Entities hold no reference types,
// so copying the backing arrays is enough; clock payloads are byte slices and
// are copied individually.
func (s GameState) Clone() GameState {
	out := GameState{
		Allies: make([]Entity, len(s.Allies)),
		Foes:   make([]Entity, len(s.Foes)),
		Clocks: make([]json.RawMessage, len(s.Clocks)),
	}
	copy(out.Allies, s.Allies)
	copy(out.Foes, s.Foes)
	for i, c := range s.Clocks {
		out.Clocks[i] = append(json.RawMessage(nil), c...)
	}
	return out
}

// Find returns a pointer to the entity with the given ID along with its
// affiliation, or nil if no entity matches. The pointer aliases the state's
// own backing array, so callers editing through it must own the state.
func (s *GameState) Find(id string) (*Entity, Affiliation) {
	for i := range s.Allies {
		if s.Allies[i].ID == id {
			return &s.Allies[i], AffiliationAlly
		}
	}
	for i := range s.Foes {
		if s.Foes[i].ID == id {
			return &s.Foes[i], AffiliationFoe
		}
	}
	return nil, ""
}

// Remove deletes the entity with the given ID from whichever sequence holds
// it. It reports whether an entity was removed.
func (s *GameState) Remove(id string) bool {
	for i := range s.Allies {
		if s.Allies[i].ID == id {
			s.Allies = append(s.Allies[:i], s.Allies[i+1:]...)
			return true
		}
	}
	for i := range s.Foes {
		if s.Foes[i].ID == id {
			s.Foes = append(s.Foes[:i], s.Foes[i+1:]...)
			return true
		}
	}
	return false
}

// Append adds the entity to the end of the sequence for the given affiliation.
func (s *GameState) Append(e Entity, side Affiliation) {
	if side == AffiliationFoe {
		s.Foes = append(s.Foes, e)
		return
	}
	s.Allies = append(s.Allies, e)
}

// Normalize replaces nil sequences with empty ones. Useful after
// deserializing states written by older clients.
func (s *GameState) Normalize() {
	if s.Allies == nil {
		s.Allies = []Entity{}
	}
	if s.Foes == nil {
		s.Foes = []Entity{}
	}
	if s.Clocks == nil {
		s.Clocks = []json.RawMessage{}
	}
}
