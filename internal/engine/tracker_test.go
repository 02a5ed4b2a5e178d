package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimred/encounter/internal/domain"
	"github.com/nimred/encounter/internal/protocol"
	"github.com/nimred/encounter/internal/session"
)

const gmSecret = "table-secret"

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	return NewTracker(domain.NewGameState(), session.NewAuthorizer(gmSecret))
}

// addCombatant commits an add operation and returns the new entity's ID.
func addCombatant(t *testing.T, tr *Tracker, name, hp, mp, pe, side string) string {
	t.Helper()
	res := tr.AddEntity(gmSecret, protocol.AddEntity{
		Name: name, HP: hp, MP: mp, PE: pe, EntityType: side,
	})
	require.Equal(t, Accepted, res.Verdict)

	var seq []domain.Entity
	if side == "foe" {
		seq = res.State.Foes
	} else {
		seq = res.State.Allies
	}
	require.NotEmpty(t, seq)
	return seq[len(seq)-1].ID
}

func TestTracker_AddEntity(t *testing.T) {
	tr := newTestTracker(t)

	id := addCombatant(t, tr, "Orc", "20", "5", "3", "ally")
	state := tr.Current()
	require.Len(t, state.Allies, 1)

	orc := state.Allies[0]
	assert.Equal(t, id, orc.ID)
	assert.Equal(t, "Orc", orc.Name)
	assert.Equal(t, domain.Bar{CurrentValue: 20, MaxValue: 20}, orc.HealthPoints)
	assert.Equal(t, domain.Bar{CurrentValue: 5, MaxValue: 5}, orc.MagicPoints)
	assert.Equal(t, domain.Bar{CurrentValue: 3, MaxValue: 3}, orc.EquipmentPoints)
	assert.Equal(t, domain.StatusAlive, orc.Status)
	assert.False(t, orc.StatsVisibleByPlayers)
	assert.Empty(t, orc.Conditions)

	t.Run("malformed bar value is rejected before it can persist", func(t *testing.T) {
		res := tr.AddEntity(gmSecret, protocol.AddEntity{
			Name: "Ghost", HP: "twenty", MP: "0", PE: "0", EntityType: "foe",
		})
		assert.Equal(t, Invalid, res.Verdict)
		assert.Empty(t, tr.Current().Foes)
	})

	t.Run("ids are unique across additions", func(t *testing.T) {
		other := addCombatant(t, tr, "Orc", "20", "5", "3", "foe")
		assert.NotEqual(t, id, other)
	})
}

func TestTracker_EditEntity(t *testing.T) {
	tr := newTestTracker(t)
	id := addCombatant(t, tr, "Mage", "12", "30", "4", "ally")

	t.Run("bar edit applies arithmetic and clamping", func(t *testing.T) {
		res := tr.EditEntity(gmSecret, protocol.EditEntity{
			EntityID: id, Field: "MP", ValueType: "current", Value: "-10",
		})
		require.Equal(t, Accepted, res.Verdict)
		assert.Equal(t, domain.Bar{CurrentValue: 20, MaxValue: 30}, res.State.Allies[0].MagicPoints)
	})

	t.Run("shrinking a max drags current down", func(t *testing.T) {
		res := tr.EditEntity(gmSecret, protocol.EditEntity{
			EntityID: id, Field: "MP", ValueType: "max", Value: "15",
		})
		require.Equal(t, Accepted, res.Verdict)
		assert.Equal(t, domain.Bar{CurrentValue: 15, MaxValue: 15}, res.State.Allies[0].MagicPoints)
	})

	t.Run("text fields replace verbatim", func(t *testing.T) {
		for field, want := range map[string]string{
			"name":       "Archmage",
			"conditions": "stunned, prone",
			"imgSource":  "https://example.com/mage.png",
		} {
			res := tr.EditEntity(gmSecret, protocol.EditEntity{EntityID: id, Field: field, Value: want})
			require.Equal(t, Accepted, res.Verdict, field)
		}
		mage := tr.Current().Allies[0]
		assert.Equal(t, "Archmage", mage.Name)
		assert.Equal(t, "stunned, prone", mage.Conditions)
		assert.Equal(t, "https://example.com/mage.png", mage.ImgSource)
	})

	t.Run("invalid bar value leaves state untouched", func(t *testing.T) {
		before := tr.Current()
		res := tr.EditEntity(gmSecret, protocol.EditEntity{
			EntityID: id, Field: "HP", ValueType: "current", Value: "abc",
		})
		assert.Equal(t, Invalid, res.Verdict)
		assert.Equal(t, before, tr.Current())
	})

	t.Run("unknown entity is not found", func(t *testing.T) {
		res := tr.EditEntity(gmSecret, protocol.EditEntity{
			EntityID: "nope", Field: "HP", ValueType: "current", Value: "1",
		})
		assert.Equal(t, NotFound, res.Verdict)
	})
}

func TestTracker_SetEntityState(t *testing.T) {
	tr := newTestTracker(t)
	id := addCombatant(t, tr, "Knight", "40", "0", "10", "ally")

	t.Run("dead zeroes health on top of the status write", func(t *testing.T) {
		res := tr.SetEntityState(gmSecret, protocol.SetEntityState{EntityID: id, NewState: "dead"})
		require.Equal(t, Accepted, res.Verdict)
		knight := res.State.Allies[0]
		assert.Equal(t, domain.StatusDead, knight.Status)
		assert.Equal(t, 0, knight.HealthPoints.CurrentValue)
		assert.Equal(t, 40, knight.HealthPoints.MaxValue)
	})

	t.Run("alive does not refill health", func(t *testing.T) {
		res := tr.SetEntityState(gmSecret, protocol.SetEntityState{EntityID: id, NewState: "alive"})
		require.Equal(t, Accepted, res.Verdict)
		knight := res.State.Allies[0]
		assert.Equal(t, domain.StatusAlive, knight.Status)
		assert.Equal(t, 0, knight.HealthPoints.CurrentValue)
	})

	t.Run("unconscious zeroes health", func(t *testing.T) {
		tr.EditEntity(gmSecret, protocol.EditEntity{EntityID: id, Field: "HP", ValueType: "current", Value: "10"})
		res := tr.SetEntityState(gmSecret, protocol.SetEntityState{EntityID: id, NewState: "unconscious"})
		require.Equal(t, Accepted, res.Verdict)
		assert.Equal(t, 0, res.State.Allies[0].HealthPoints.CurrentValue)
	})

	t.Run("visible-stats toggles the flag without touching status", func(t *testing.T) {
		before := tr.Current().Allies[0]
		res := tr.SetEntityState(gmSecret, protocol.SetEntityState{EntityID: id, NewState: "visible-stats"})
		require.Equal(t, Accepted, res.Verdict)
		after := res.State.Allies[0]
		assert.Equal(t, !before.StatsVisibleByPlayers, after.StatsVisibleByPlayers)
		assert.Equal(t, before.Status, after.Status)
		assert.Equal(t, before.HealthPoints, after.HealthPoints)
	})
}

func TestTracker_DeleteEntity(t *testing.T) {
	tr := newTestTracker(t)
	id := addCombatant(t, tr, "Bandit", "8", "0", "0", "foe")

	res := tr.DeleteEntity(gmSecret, id)
	require.Equal(t, Accepted, res.Verdict)
	assert.Empty(t, res.State.Foes)

	t.Run("deleting a nonexistent id is a silent no-op", func(t *testing.T) {
		depth := tr.history.UndoDepth()
		res := tr.DeleteEntity(gmSecret, id)
		assert.Equal(t, NotFound, res.Verdict)
		assert.Equal(t, depth, tr.history.UndoDepth())
	})
}

func TestTracker_TurnBookkeeping(t *testing.T) {
	tr := newTestTracker(t)
	allyID := addCombatant(t, tr, "Scout", "10", "0", "0", "ally")
	foeID := addCombatant(t, tr, "Wolf", "6", "0", "0", "foe")

	t.Run("toggle flips the turn flag", func(t *testing.T) {
		res := tr.ToggleTurnDone(gmSecret, allyID)
		require.Equal(t, Accepted, res.Verdict)
		assert.True(t, res.State.Allies[0].TurnDone)

		res = tr.ToggleTurnDone(gmSecret, allyID)
		require.Equal(t, Accepted, res.Verdict)
		assert.False(t, res.State.Allies[0].TurnDone)
	})

	t.Run("reset clears every flag on both sides", func(t *testing.T) {
		tr.ToggleTurnDone(gmSecret, allyID)
		tr.ToggleTurnDone(gmSecret, foeID)

		res := tr.ResetTurns(gmSecret)
		require.Equal(t, Accepted, res.Verdict)
		assert.False(t, res.State.Allies[0].TurnDone)
		assert.False(t, res.State.Foes[0].TurnDone)
	})

	t.Run("reset with nothing set is a no-change", func(t *testing.T) {
		res := tr.ResetTurns(gmSecret)
		assert.Equal(t, NoChange, res.Verdict)
	})
}

func TestTracker_FullRest(t *testing.T) {
	tr := newTestTracker(t)
	id := addCombatant(t, tr, "Cleric", "25", "18", "6", "ally")

	tr.EditEntity(gmSecret, protocol.EditEntity{EntityID: id, Field: "HP", ValueType: "current", Value: "3"})
	tr.EditEntity(gmSecret, protocol.EditEntity{EntityID: id, Field: "MP", ValueType: "current", Value: "0"})
	tr.EditEntity(gmSecret, protocol.EditEntity{EntityID: id, Field: "PE", ValueType: "current", Value: "1"})
	tr.SetEntityState(gmSecret, protocol.SetEntityState{EntityID: id, NewState: "unconscious"})

	res := tr.FullRest(gmSecret, id)
	require.Equal(t, Accepted, res.Verdict)

	cleric := res.State.Allies[0]
	assert.Equal(t, domain.StatusAlive, cleric.Status)
	assert.Equal(t, 25, cleric.HealthPoints.CurrentValue)
	assert.Equal(t, 18, cleric.MagicPoints.CurrentValue)
	// Equipment points do not recover by resting.
	assert.Equal(t, 1, cleric.EquipmentPoints.CurrentValue)
}

func TestTracker_Duplicate(t *testing.T) {
	tr := newTestTracker(t)
	id := addCombatant(t, tr, "Dragon", "100", "50", "0", "ally")
	tr.EditEntity(gmSecret, protocol.EditEntity{EntityID: id, Field: "HP", ValueType: "current", Value: "30"})

	res := tr.DuplicateEntity(gmSecret, id)
	require.Equal(t, Accepted, res.Verdict)

	// The copy lands on the foe side at full bars, whatever the source's
	// side and current values were.
	require.Len(t, res.State.Foes, 1)
	clone := res.State.Foes[0]
	assert.Equal(t, "Dragon", clone.Name)
	assert.NotEqual(t, id, clone.ID)
	assert.Equal(t, domain.Bar{CurrentValue: 100, MaxValue: 100}, clone.HealthPoints)
	assert.Equal(t, domain.Bar{CurrentValue: 50, MaxValue: 50}, clone.MagicPoints)
	assert.Equal(t, domain.StatusAlive, clone.Status)

	// The source is untouched.
	require.Len(t, res.State.Allies, 1)
	assert.Equal(t, 30, res.State.Allies[0].HealthPoints.CurrentValue)
}

func TestTracker_ToggleAffiliation(t *testing.T) {
	tr := newTestTracker(t)
	id := addCombatant(t, tr, "Turncoat", "10", "0", "0", "ally")
	other := addCombatant(t, tr, "Bystander", "10", "0", "0", "foe")

	res := tr.ToggleAffiliation(gmSecret, id)
	require.Equal(t, Accepted, res.Verdict)
	assert.Empty(t, res.State.Allies)
	require.Len(t, res.State.Foes, 2)
	// Appended at the end, identity preserved.
	assert.Equal(t, other, res.State.Foes[0].ID)
	assert.Equal(t, id, res.State.Foes[1].ID)

	res = tr.ToggleAffiliation(gmSecret, id)
	require.Equal(t, Accepted, res.Verdict)
	require.Len(t, res.State.Allies, 1)
	assert.Equal(t, id, res.State.Allies[0].ID)
}

func TestTracker_Authorization(t *testing.T) {
	tr := newTestTracker(t)
	id := addCombatant(t, tr, "Orc", "20", "0", "5", "ally")
	before := tr.Current()

	for name, attempt := range map[string]func(secret string) Result{
		"add": func(s string) Result {
			return tr.AddEntity(s, protocol.AddEntity{Name: "X", HP: "1", MP: "1", PE: "1", EntityType: "foe"})
		},
		"edit": func(s string) Result {
			return tr.EditEntity(s, protocol.EditEntity{EntityID: id, Field: "HP", ValueType: "current", Value: "-5"})
		},
		"delete":      func(s string) Result { return tr.DeleteEntity(s, id) },
		"status":      func(s string) Result { return tr.SetEntityState(s, protocol.SetEntityState{EntityID: id, NewState: "dead"}) },
		"turn":        func(s string) Result { return tr.ToggleTurnDone(s, id) },
		"rest":        func(s string) Result { return tr.FullRest(s, id) },
		"duplicate":   func(s string) Result { return tr.DuplicateEntity(s, id) },
		"affiliation": func(s string) Result { return tr.ToggleAffiliation(s, id) },
		"reset":       func(s string) Result { return tr.ResetTurns(s) },
		"undo":        func(s string) Result { return tr.Undo(s) },
		"redo":        func(s string) Result { return tr.Redo(s) },
	} {
		t.Run(name+" with wrong secret", func(t *testing.T) {
			res := attempt("wrong")
			assert.Equal(t, Unauthorized, res.Verdict)
			assert.Equal(t, before, tr.Current())
		})
		t.Run(name+" with empty secret", func(t *testing.T) {
			res := attempt("")
			assert.Equal(t, Unauthorized, res.Verdict)
			assert.Equal(t, before, tr.Current())
		})
	}
}

func TestTracker_UndoRedo(t *testing.T) {
	tr := newTestTracker(t)
	addCombatant(t, tr, "One", "1", "0", "0", "ally")
	addCombatant(t, tr, "Two", "2", "0", "0", "ally")

	res := tr.Undo(gmSecret)
	require.Equal(t, Accepted, res.Verdict)
	assert.Len(t, res.State.Allies, 1)

	res = tr.Redo(gmSecret)
	require.Equal(t, Accepted, res.Verdict)
	assert.Len(t, res.State.Allies, 2)

	t.Run("a fresh commit empties the redo branch", func(t *testing.T) {
		tr.Undo(gmSecret)
		addCombatant(t, tr, "Three", "3", "0", "0", "ally")
		res := tr.Redo(gmSecret)
		assert.Equal(t, NoChange, res.Verdict)
	})

	t.Run("undo on an empty stack is a no-op", func(t *testing.T) {
		for tr.Undo(gmSecret).Verdict == Accepted {
		}
		res := tr.Undo(gmSecret)
		assert.Equal(t, NoChange, res.Verdict)
	})
}

// TestTracker_Scenario walks the full add -> damage -> duplicate -> defect
// sequence end to end.
func TestTracker_Scenario(t *testing.T) {
	tr := newTestTracker(t)

	res := tr.AddEntity(gmSecret, protocol.AddEntity{
		Name: "Orc", HP: "20", MP: "0", PE: "5", EntityType: "ally",
	})
	require.Equal(t, Accepted, res.Verdict)
	require.Len(t, res.State.Allies, 1)
	orcID := res.State.Allies[0].ID
	assert.Equal(t, domain.Bar{CurrentValue: 20, MaxValue: 20}, res.State.Allies[0].HealthPoints)

	res = tr.EditEntity(gmSecret, protocol.EditEntity{
		EntityID: orcID, Field: "HP", ValueType: "current", Value: "-25",
	})
	require.Equal(t, Accepted, res.Verdict)
	assert.Equal(t, domain.Bar{CurrentValue: 0, MaxValue: 20}, res.State.Allies[0].HealthPoints)

	res = tr.DuplicateEntity(gmSecret, orcID)
	require.Equal(t, Accepted, res.Verdict)
	require.Len(t, res.State.Foes, 1)
	assert.Equal(t, domain.Bar{CurrentValue: 20, MaxValue: 20}, res.State.Foes[0].HealthPoints)
	assert.NotEqual(t, orcID, res.State.Foes[0].ID)

	res = tr.ToggleAffiliation(gmSecret, orcID)
	require.Equal(t, Accepted, res.Verdict)
	assert.Empty(t, res.State.Allies)
	require.Len(t, res.State.Foes, 2)
	assert.Equal(t, orcID, res.State.Foes[1].ID)
}
