package combat

import "fmt"

const (
	// BuildingAbsorption is the share of surplus attacker damage that lands
	// on colony buildings once the garrison is gone.
	BuildingAbsorption = 0.5
	// BuildingDamageThreshold is the absorbed damage that disables one building.
	BuildingDamageThreshold = 50
	// PopulationLossPerRound and PopulationLossCap are percentages.
	PopulationLossPerRound = 5
	PopulationLossCap      = 50
)

type Building struct {
	ID      int64  `json:"id"`
	Type    string `json:"type"`
	Damaged bool   `json:"damaged"`
}

// ColonyDefense is the defended state of a colony before the siege.
type ColonyDefense struct {
	Name             string
	OwnerName        string
	DefenseRating    int
	GarrisonStrength int
	Population       int
	DevelopmentLevel int
	Buildings        []Building
}

func (c ColonyDefense) Undefended() bool {
	return c.DefenseRating <= 0 && c.GarrisonStrength <= 0
}

type ColonyOutcome struct {
	Outcome
	InstantCapture   bool    `json:"instant_capture"`
	Captured         bool    `json:"captured"`
	DamagedBuildings []int64 `json:"damaged_buildings"`
	PopulationLoss   int     `json:"population_loss"`
}

// ResolveColony resolves a siege. An undefended colony is captured in zero
// rounds without a fight; otherwise garrison fights the attackers and, on
// attacker victory, surplus damage spills onto buildings and population.
func (r *Resolver) ResolveColony(attackers []Combatant, colony ColonyDefense, garrison []Combatant) ColonyOutcome {
	title := fmt.Sprintf("🏰 COLONY SIEGE: %s", colony.Name)

	if colony.Undefended() || len(garrison) == 0 {
		b := &battle{}
		b.add(EntryHeader, "%s", title)
		b.add(EntryCapture, "%s had no defenses and was captured without a fight!", colony.Name)
		return ColonyOutcome{
			Outcome: Outcome{
				Victor:    SideAttacker,
				Attackers: settle(enlist(attackers, SideAttacker)),
				Defenders: []Fighter{},
				Log:       b.log,
				Seed:      r.opts.Seed,
			},
			InstantCapture:   true,
			Captured:         true,
			DamagedBuildings: []int64{},
		}
	}

	out := r.Resolve(Engagement{
		Title:       title,
		Attackers:   attackers,
		Defenders:   garrison,
		VictoryText: fmt.Sprintf("🏆 %s has fallen to the attackers!", colony.Name),
		DefeatText:  fmt.Sprintf("🛡️ %s repelled the attack!", colony.Name),
	})
	res := ColonyOutcome{Outcome: out, DamagedBuildings: []int64{}}
	if out.Victor != SideAttacker {
		return res
	}

	res.Captured = true
	b := &battle{log: out.Log, round: out.Rounds}

	absorbed := int(float64(out.Surplus) * BuildingAbsorption)
	hits := absorbed / BuildingDamageThreshold
	for _, bld := range colony.Buildings {
		if hits == 0 {
			break
		}
		if bld.Damaged {
			continue
		}
		res.DamagedBuildings = append(res.DamagedBuildings, bld.ID)
		b.add(EntryDamage, "  🔥 %s was damaged in the assault.", bld.Type)
		hits--
	}

	pct := out.Rounds * PopulationLossPerRound
	if pct > PopulationLossCap {
		pct = PopulationLossCap
	}
	res.PopulationLoss = colony.Population * pct / 100
	if res.PopulationLoss > 0 {
		b.add(EntryDamage, "  ☠️ %d colonists were lost during the siege.", res.PopulationLoss)
	}
	b.add(EntryCapture, "🏴 %s has been captured!", colony.Name)
	res.Log = b.log
	return res
}
