// Package encounter builds opposing forces and decides whether a pilot can
// flee from them.
package encounter

import "spacewars/internal/combat"

const (
	MinTier = 1
	MaxTier = 5
)

// Pirate lane facts that fix a fleet. The same context always yields the
// same fleet, so preview, escape and fight all see identical ships.
type Context struct {
	EncounterID    int64
	EncounterCount int
	PlayerID       int64
	Tier           int
	FleetSize      int
	CaptainName    string
}

// Item is a catalog entry pirates may carry.
type Item struct {
	ID   int64
	Name string
}

type Catalog struct {
	Minerals []Item
	Plans    []Item
}

type CargoStack struct {
	MineralID int64  `json:"mineral_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

type PirateShip struct {
	combat.Combatant
	Class string       `json:"class"`
	Cargo []CargoStack `json:"cargo"`
	Plan  *Item        `json:"plan,omitempty"`
}

type Fleet struct {
	Captain string       `json:"captain"`
	Tier    int          `json:"tier"`
	Seed    int64        `json:"seed"`
	Ships   []PirateShip `json:"ships"`
}

func (f Fleet) Combatants() []combat.Combatant {
	out := make([]combat.Combatant, 0, len(f.Ships))
	for _, s := range f.Ships {
		out = append(out, s.Combatant)
	}
	return out
}

// ShipsByRef indexes the fleet by combatant Ref.
func (f Fleet) ShipsByRef() map[int64]PirateShip {
	out := make(map[int64]PirateShip, len(f.Ships))
	for _, s := range f.Ships {
		out[s.Ref] = s
	}
	return out
}

// ColonyGarrison is the defended state used to synthesize colony drones.
type ColonyGarrison struct {
	DefenseRating    int
	GarrisonStrength int
	DevelopmentLevel int
}
