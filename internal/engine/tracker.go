package engine

import (
	"errors"

	"github.com/nimred/encounter/internal/domain"
	"github.com/nimred/encounter/internal/protocol"
)

// Authorizer decides whether a presented secret carries GM privilege.
type Authorizer interface {
	IsGM(secret string) bool
}

// Verdict classifies the outcome of a request after the single
// authorization-and-validation gate.
type Verdict int

const (
	// Accepted: the state changed; the caller must broadcast and persist.
	Accepted Verdict = iota
	// Unauthorized: the caller lacks GM privilege. Silent drop.
	Unauthorized
	// NotFound: the referenced entity does not exist. Silent drop.
	NotFound
	// Invalid: the payload failed validation. Acked back to the caller.
	Invalid
	// NoChange: the operation would not alter the state. Silent drop.
	NoChange
)

// Result is what every tracker operation hands back to the gateway.
type Result struct {
	Verdict Verdict
	State   domain.GameState
	Err     error
}

// Tracker owns the authoritative roster and its history. All writes funnel
// through a single gate: check privilege, apply the mutation to a deep copy,
// and commit the copy only on success, so a rejected request can never leave
// a partial edit behind.
//
// Tracker is not safe for concurrent use; the gateway serializes access to it.
type Tracker struct {
	history *History
	auth    Authorizer
}

// NewTracker wraps an initial state.
func NewTracker(initial domain.GameState, auth Authorizer) *Tracker {
	return &Tracker{history: NewHistory(initial), auth: auth}
}

// Current returns the canonical state.
func (t *Tracker) Current() domain.GameState {
	return t.history.Current()
}

// apply is the one gate every mutation passes through.
func (t *Tracker) apply(secret string, m mutation) Result {
	if !t.auth.IsGM(secret) {
		return Result{Verdict: Unauthorized, State: t.history.Current(), Err: domain.ErrUnauthorized}
	}

	next := t.history.Current().Clone()
	if err := m(&next); err != nil {
		return Result{Verdict: classify(err), State: t.history.Current(), Err: err}
	}

	t.history.Commit(next)
	return Result{Verdict: Accepted, State: next}
}

func classify(err error) Verdict {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return NotFound
	case errors.Is(err, domain.ErrNoChange):
		return NoChange
	default:
		return Invalid
	}
}

// AddEntity appends a freshly created combatant to the requested side.
func (t *Tracker) AddEntity(secret string, req protocol.AddEntity) Result {
	return t.apply(secret, addEntity(req))
}

// EditEntity applies a bar or text-field edit to an existing combatant.
func (t *Tracker) EditEntity(secret string, req protocol.EditEntity) Result {
	return t.apply(secret, editEntity(req))
}

// SetEntityState changes life status or toggles stat visibility.
func (t *Tracker) SetEntityState(secret string, req protocol.SetEntityState) Result {
	return t.apply(secret, setEntityState(req))
}

// DeleteEntity removes a combatant from whichever side holds it.
func (t *Tracker) DeleteEntity(secret, entityID string) Result {
	return t.apply(secret, deleteEntity(entityID))
}

// ToggleTurnDone flips a combatant's turn-completion flag.
func (t *Tracker) ToggleTurnDone(secret, entityID string) Result {
	return t.apply(secret, toggleTurnDone(entityID))
}

// FullRest refills health and magic and revives the combatant.
func (t *Tracker) FullRest(secret, entityID string) Result {
	return t.apply(secret, fullRest(entityID))
}

// DuplicateEntity clones a combatant onto the foe side at full bars.
func (t *Tracker) DuplicateEntity(secret, entityID string) Result {
	return t.apply(secret, duplicateEntity(entityID))
}

// ToggleAffiliation moves a combatant to the opposite side, keeping its ID.
func (t *Tracker) ToggleAffiliation(secret, entityID string) Result {
	return t.apply(secret, toggleAffiliation(entityID))
}

// ResetTurns clears every turn-completion flag.
func (t *Tracker) ResetTurns(secret string) Result {
	return t.apply(secret, resetTurns())
}

// Undo restores the previous snapshot. An empty undo stack is a NoChange.
func (t *Tracker) Undo(secret string) Result {
	if !t.auth.IsGM(secret) {
		return Result{Verdict: Unauthorized, State: t.history.Current(), Err: domain.ErrUnauthorized}
	}
	if !t.history.Undo() {
		return Result{Verdict: NoChange, State: t.history.Current(), Err: domain.ErrNoChange}
	}
	return Result{Verdict: Accepted, State: t.history.Current()}
}

// Redo reapplies the most recently undone snapshot.
func (t *Tracker) Redo(secret string) Result {
	if !t.auth.IsGM(secret) {
		return Result{Verdict: Unauthorized, State: t.history.Current(), Err: domain.ErrUnauthorized}
	}
	if !t.history.Redo() {
		return Result{Verdict: NoChange, State: t.history.Current(), Err: domain.ErrNoChange}
	}
	return Result{Verdict: Accepted, State: t.history.Current()}
}
