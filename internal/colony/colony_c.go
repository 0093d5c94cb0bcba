// Package colony runs sieges against player colonies.
package colony

import (
	"time"

	"spacewars/internal/combat"
	"spacewars/internal/death"
)

const (
	// Aftermath adjustments applied to a colony's stored defense.
	CaptureGarrisonLoss = 50
	CaptureDefenseLoss  = 20
	RepelDefenseGain    = 10
)

type Options struct {
	Now  func() time.Time
	Seed func() int64
}

// AttackRequest names the attacker and any co-located allies joining the
// assault. Allies fight on the attacking side; ownership goes to AttackerID.
type AttackRequest struct {
	AttackerID int64
	ColonyID   int64
	AllyIDs    []int64
}

type Death struct {
	Result  death.Result `json:"result"`
	Message string       `json:"message"`
}

type AttackResult struct {
	SessionUUID      string         `json:"combat_session"`
	ColonyName       string         `json:"colony"`
	Captured         bool           `json:"captured"`
	NewOwnerID       int64          `json:"new_owner_id,omitempty"`
	InstantCapture   bool           `json:"instant_capture"`
	Outcome          combat.Outcome `json:"outcome"`
	DamagedBuildings []int64        `json:"damaged_buildings"`
	PopulationLoss   int            `json:"population_loss"`
	XPPerAttacker    int64          `json:"xp_per_attacker"`
	DefenseRating    int            `json:"defense_rating"`
	GarrisonStrength int            `json:"garrison_strength"`
	Deaths           []Death        `json:"deaths"`
}
