// Package repair prices and performs hull and component repairs.
package repair

import "spacewars/internal/pgsql"

const (
	HullCostPerPoint      = 10
	ComponentCostPerLevel = 50
)

// Repair targets besides individual component names.
const (
	TargetHull       = "hull"
	TargetComponents = "components"
	TargetAll        = "all"
)

var displayNames = map[string]string{
	pgsql.ComponentWeapons:   "Weapons",
	pgsql.ComponentSensors:   "Sensors",
	pgsql.ComponentWarpDrive: "Warp Drive",
	pgsql.ComponentMaxHull:   "Hull Plating",
}

// Deficit is a component sitting below its base value.
type Deficit struct {
	Component string `json:"component"`
	Name      string `json:"name"`
	Current   int    `json:"current"`
	ShouldBe  int    `json:"should_be"`
	Deficit   int    `json:"deficit"`
	Cost      int64  `json:"repair_cost"`
}

type Quote struct {
	ShipID        int64     `json:"ship_id"`
	HullDamage    int       `json:"hull_damage"`
	HullCost      int64     `json:"hull_repair_cost"`
	Components    []Deficit `json:"downgraded_components"`
	ComponentCost int64     `json:"component_repair_cost"`
	Total         int64     `json:"total_repair_cost"`
}

func (q Quote) NeedsHull() bool       { return q.HullDamage > 0 }
func (q Quote) NeedsComponents() bool { return len(q.Components) > 0 }

type Result struct {
	Target             string   `json:"target"`
	Cost               int64    `json:"cost"`
	HullRepaired       int      `json:"hull_repaired"`
	ComponentsRepaired []string `json:"components_repaired"`
	CreditsRemaining   int64    `json:"credits_remaining"`
	Message            string   `json:"message"`
}
