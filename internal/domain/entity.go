package domain

// Status is the life state of a combatant. It is a closed set; the mutation
// pipeline never writes any other value.
type Status string

const (
	StatusAlive       Status = "alive"
	StatusUnconscious Status = "unconscious"
	StatusDead        Status = "dead"
)

// Affiliation partitions the roster into the two ordered sequences.
type Affiliation string

const (
	AffiliationAlly Affiliation = "ally"
	AffiliationFoe  Affiliation = "foe"
)

// Bar is a bounded resource (health, magic or equipment points).
// Invariant: 0 <= CurrentValue <= MaxValue.
type Bar struct {
	CurrentValue int `json:"currentValue"`
	MaxValue     int `json:"maxValue"`
}

// Full returns a bar with both values set to max.
func Full(max int) Bar {
	return Bar{CurrentValue: max, MaxValue: max}
}

// Entity is a single combatant on the roster. The ID is assigned once at
// creation and is never reassigned or reused; it stays with the entity even
// when it switches affiliation.
type Entity struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Conditions            string `json:"conditions"`
	HealthPoints          Bar    `json:"healthPoints"`
	MagicPoints           Bar    `json:"magicPoints"`
	EquipmentPoints       Bar    `json:"equipmentPoints"`
	ImgSource             string `json:"imgSource"`
	Status                Status `json:"status"`
	StatsVisibleByPlayers bool   `json:"statsVisibleByPlayers"`
	TurnDone              bool   `json:"turnDone,omitempty"`
}
