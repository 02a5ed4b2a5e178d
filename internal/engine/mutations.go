package engine

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/nimred/encounter/internal/domain"
	"github.com/nimred/encounter/internal/protocol"
)

// barFields maps the wire bar selector to an accessor on the entity.
var barFields = map[string]func(*domain.Entity) *domain.Bar{
	"HP": func(e *domain.Entity) *domain.Bar { return &e.HealthPoints },
	"MP": func(e *domain.Entity) *domain.Bar { return &e.MagicPoints },
	"PE": func(e *domain.Entity) *domain.Bar { return &e.EquipmentPoints },
}

// A mutation edits a private copy of the roster in place. Returning a non-nil
// error means the request is rejected and the copy is discarded.
type mutation func(*domain.GameState) error

func addEntity(req protocol.AddEntity) mutation {
	return func(s *domain.GameState) error {
		hp, err := parseInitialBar("hp", req.HP)
		if err != nil {
			return err
		}
		mp, err := parseInitialBar("mp", req.MP)
		if err != nil {
			return err
		}
		pe, err := parseInitialBar("pe", req.PE)
		if err != nil {
			return err
		}

		s.Append(domain.Entity{
			ID:              uuid.NewString(),
			Name:            req.Name,
			HealthPoints:    domain.Full(hp),
			MagicPoints:     domain.Full(mp),
			EquipmentPoints: domain.Full(pe),
			ImgSource:       req.ImgSource,
			Status:          domain.StatusAlive,
		}, domain.Affiliation(req.EntityType))
		return nil
	}
}

// parseInitialBar validates a creation-time max value. Rejecting here keeps
// malformed numbers out of the persisted state entirely.
func parseInitialBar(field, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer, got %q", domain.ErrInvalidInput, field, raw)
	}
	return n, nil
}

func editEntity(req protocol.EditEntity) mutation {
	return func(s *domain.GameState) error {
		entity, _ := s.Find(req.EntityID)
		if entity == nil {
			return domain.ErrNotFound
		}

		if barOf, ok := barFields[req.Field]; ok {
			bar, err := ComputeBar(*barOf(entity), ValueType(req.ValueType), req.Value)
			if err != nil {
				return err
			}
			*barOf(entity) = bar
			return nil
		}

		switch req.Field {
		case "conditions":
			entity.Conditions = req.Value
		case "imgSource":
			entity.ImgSource = req.Value
		case "name":
			entity.Name = req.Value
		default:
			return fmt.Errorf("%w: unknown field %q", domain.ErrInvalidInput, req.Field)
		}
		return nil
	}
}

func setEntityState(req protocol.SetEntityState) mutation {
	return func(s *domain.GameState) error {
		entity, _ := s.Find(req.EntityID)
		if entity == nil {
			return domain.ErrNotFound
		}

		if req.NewState == "visible-stats" {
			entity.StatsVisibleByPlayers = !entity.StatsVisibleByPlayers
			return nil
		}

		entity.Status = domain.Status(req.NewState)
		// Dropping out of the fight always empties the health bar, on top of
		// the status write itself.
		if entity.Status == domain.StatusDead || entity.Status == domain.StatusUnconscious {
			entity.HealthPoints.CurrentValue = 0
		}
		return nil
	}
}

func deleteEntity(id string) mutation {
	return func(s *domain.GameState) error {
		if !s.Remove(id) {
			return domain.ErrNotFound
		}
		return nil
	}
}

func toggleTurnDone(id string) mutation {
	return func(s *domain.GameState) error {
		entity, _ := s.Find(id)
		if entity == nil {
			return domain.ErrNotFound
		}
		entity.TurnDone = !entity.TurnDone
		return nil
	}
}

// fullRest refills health and magic and revives the combatant. Equipment
// points are deliberately untouched; they do not recover by resting.
func fullRest(id string) mutation {
	return func(s *domain.GameState) error {
		entity, _ := s.Find(id)
		if entity == nil {
			return domain.ErrNotFound
		}
		entity.HealthPoints.CurrentValue = entity.HealthPoints.MaxValue
		entity.MagicPoints.CurrentValue = entity.MagicPoints.MaxValue
		entity.Status = domain.StatusAlive
		return nil
	}
}

// duplicateEntity re-runs the add operation with the source's name, image and
// max bar values. The copy always lands on the foe side regardless of where
// the source sits, and comes in at full bars with a fresh identity.
func duplicateEntity(id string) mutation {
	return func(s *domain.GameState) error {
		source, _ := s.Find(id)
		if source == nil {
			return domain.ErrNotFound
		}
		return addEntity(protocol.AddEntity{
			Name:       source.Name,
			ImgSource:  source.ImgSource,
			HP:         strconv.Itoa(source.HealthPoints.MaxValue),
			MP:         strconv.Itoa(source.MagicPoints.MaxValue),
			PE:         strconv.Itoa(source.EquipmentPoints.MaxValue),
			EntityType: string(domain.AffiliationFoe),
		})(s)
	}
}

// toggleAffiliation moves a combatant to the opposite sequence. The entity is
// re-inserted as a copy appended at the end, but its identity is preserved;
// only the membership changes.
func toggleAffiliation(id string) mutation {
	return func(s *domain.GameState) error {
		entity, side := s.Find(id)
		if entity == nil {
			return domain.ErrNotFound
		}
		moved := *entity
		s.Remove(id)
		if side == domain.AffiliationAlly {
			s.Append(moved, domain.AffiliationFoe)
		} else {
			s.Append(moved, domain.AffiliationAlly)
		}
		return nil
	}
}

// resetTurns clears every turn-completion flag on both sides. When no flag
// was set the roster is already in the requested shape and the operation is
// reported as a no-change, so nothing is committed or broadcast.
func resetTurns() mutation {
	return func(s *domain.GameState) error {
		changed := false
		for i := range s.Allies {
			if s.Allies[i].TurnDone {
				s.Allies[i].TurnDone = false
				changed = true
			}
		}
		for i := range s.Foes {
			if s.Foes[i].TurnDone {
				s.Foes[i].TurnDone = false
				changed = true
			}
		}
		if !changed {
			return domain.ErrNoChange
		}
		return nil
	}
}
