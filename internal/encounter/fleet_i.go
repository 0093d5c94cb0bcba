package encounter

import (
	"encoding/binary"
	"fmt"
	"math/rand"

	"lukechampine.com/blake3"

	"spacewars/internal/combat"
)

type shipClass struct {
	name        string
	hullBonus   int
	weaponBonus int
	speed       int
	warp        int
}

var (
	sparrow     = shipClass{"Sparrow-class Light Freighter", 0, 0, 8, 1}
	phantom     = shipClass{"Phantom-class Scout", 5, 1, 16, 3}
	viper       = shipClass{"Viper-class Fighter", 10, 3, 14, 2}
	interdictor = shipClass{"Interdictor-class Corvette", 20, 2, 12, 2}
	corsair     = shipClass{"Corsair-class Gunship", 25, 4, 11, 3}
	leviathan   = shipClass{"Leviathan-class Battleship", 30, 5, 7, 4}
)

type weightedClass struct {
	class  shipClass
	weight int
}

var tierPreferences = map[int][]weightedClass{
	1: {{sparrow, 40}, {viper, 40}, {interdictor, 20}},
	2: {{viper, 50}, {interdictor, 30}, {phantom, 20}},
	3: {{interdictor, 40}, {corsair, 30}, {viper, 30}},
	4: {{corsair, 50}, {interdictor, 30}, {leviathan, 20}},
	5: {{corsair, 40}, {leviathan, 40}, {interdictor, 20}},
}

// Per-tier base stats. The gap between tiers exceeds the largest class
// bonus, so any ship of tier n+1 outclasses any ship of tier n.
var (
	tierBaseHull    = [MaxTier + 1]int{0, 80, 120, 170, 230, 300}
	tierBaseWeapons = [MaxTier + 1]int{0, 10, 16, 23, 31, 40}
)

var (
	namePrefixes = []string{
		"Crimson", "Shadow", "Dark", "Blood", "Iron", "Steel", "Void", "Ghost",
		"Phantom", "Vengeful", "Savage", "Black", "Red", "Death", "Hell", "Doom",
	}
	nameSuffixes = []string{
		"Dagger", "Talon", "Reaver", "Serpent", "Fang", "Claw", "Terror", "Raider",
		"Marauder", "Scourge", "Fury", "Vengeance", "Blade", "Edge", "Storm", "Wraith",
	}
)

const (
	planDropPercent  = 10
	maxMineralStacks = 3
)

// Seed derives a deterministic RNG seed from a domain label and ids.
func Seed(label string, parts ...int64) int64 {
	buf := make([]byte, 0, len(label)+8*len(parts))
	buf = append(buf, label...)
	for _, p := range parts {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(p))
	}
	sum := blake3.Sum256(buf)
	return int64(binary.LittleEndian.Uint64(sum[:8]))
}

// ClampTier forces t into [MinTier, MaxTier].
func ClampTier(t int) int {
	if t < MinTier {
		return MinTier
	}
	if t > MaxTier {
		return MaxTier
	}
	return t
}

// GenerateFleet builds the pirate fleet for one encounter. Fleet size is at
// least one ship.
func GenerateFleet(ec Context, catalog Catalog) Fleet {
	tier := ClampTier(ec.Tier)
	size := ec.FleetSize
	if size < 1 {
		size = 1
	}
	seed := Seed("pirate-fleet", ec.EncounterID, int64(ec.EncounterCount), ec.PlayerID)
	rng := rand.New(rand.NewSource(seed))

	fleet := Fleet{Captain: ec.CaptainName, Tier: tier, Seed: seed, Ships: make([]PirateShip, 0, size)}
	for i := 0; i < size; i++ {
		class := pickClass(rng, tier)
		hull := tierBaseHull[tier] + class.hullBonus
		ship := PirateShip{
			Combatant: combat.Combatant{
				Kind:      combat.KindPirateShip,
				Ref:       int64(i),
				Name:      fmt.Sprintf("The %s %s", namePrefixes[rng.Intn(len(namePrefixes))], nameSuffixes[rng.Intn(len(nameSuffixes))]),
				Hull:      hull,
				MaxHull:   hull,
				Weapons:   tierBaseWeapons[tier] + class.weaponBonus,
				Speed:     class.speed,
				WarpDrive: class.warp,
			},
			Class: class.name,
			Cargo: generateCargo(rng, tier, catalog.Minerals),
		}
		if len(catalog.Plans) > 0 && rng.Intn(100) < planDropPercent {
			plan := catalog.Plans[rng.Intn(len(catalog.Plans))]
			ship.Plan = &plan
		}
		fleet.Ships = append(fleet.Ships, ship)
	}
	return fleet
}

func pickClass(rng *rand.Rand, tier int) shipClass {
	prefs := tierPreferences[tier]
	total := 0
	for _, p := range prefs {
		total += p.weight
	}
	roll := rng.Intn(total)
	for _, p := range prefs {
		if roll < p.weight {
			return p.class
		}
		roll -= p.weight
	}
	return prefs[len(prefs)-1].class
}

// generateCargo picks 1-3 distinct minerals, each 10*tier to 50*tier units.
func generateCargo(rng *rand.Rand, tier int, minerals []Item) []CargoStack {
	out := make([]CargoStack, 0, maxMineralStacks)
	if len(minerals) == 0 {
		return out
	}
	n := 1 + rng.Intn(maxMineralStacks)
	if n > len(minerals) {
		n = len(minerals)
	}
	lo, hi := 10*tier, 50*tier
	for _, idx := range rng.Perm(len(minerals))[:n] {
		m := minerals[idx]
		out = append(out, CargoStack{MineralID: m.ID, Name: m.Name, Quantity: lo + rng.Intn(hi-lo+1)})
	}
	return out
}

const maxColonyDrones = 5

// GenerateColonyDefenders synthesizes "Defense Drone N" combatants from a
// colony's stored defense. A colony with any defense or garrison always gets
// at least one drone.
func GenerateColonyDefenders(g ColonyGarrison) []combat.Combatant {
	dev := g.DevelopmentLevel
	if dev < 0 {
		dev = 0
	}
	count := dev/2 + g.GarrisonStrength/50
	if count > maxColonyDrones {
		count = maxColonyDrones
	}
	if count < 1 && (g.GarrisonStrength > 0 || g.DefenseRating > 0) {
		count = 1
	}

	hull := 50 + dev*10
	weapons := 15 + dev*3 + g.DefenseRating/10
	out := make([]combat.Combatant, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, combat.Combatant{
			Kind:    combat.KindColonyDefender,
			Ref:     int64(i),
			Name:    fmt.Sprintf("Defense Drone %d", i+1),
			Hull:    hull,
			MaxHull: hull,
			Weapons: weapons,
		})
	}
	return out
}
