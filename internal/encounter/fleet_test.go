package encounter

import (
	"reflect"
	"testing"
)

var testCatalog = Catalog{
	Minerals: []Item{{ID: 1, Name: "Iron"}, {ID: 2, Name: "Titanium"}, {ID: 3, Name: "Quantium"}, {ID: 4, Name: "Nickel"}},
	Plans:    []Item{{ID: 10, Name: "Weapons Mk I"}},
}

func TestGenerateFleetIsDeterministic(t *testing.T) {
	ec := Context{EncounterID: 4, EncounterCount: 2, PlayerID: 9, Tier: 3, FleetSize: 4, CaptainName: "Redbeard"}
	a := GenerateFleet(ec, testCatalog)
	b := GenerateFleet(ec, testCatalog)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same context produced different fleets")
	}

	ec.EncounterCount++
	c := GenerateFleet(ec, testCatalog)
	if c.Seed == a.Seed {
		t.Fatalf("next encounter should reseed the fleet")
	}
}

func TestGenerateFleetScalesWithTier(t *testing.T) {
	prevHull, prevWeapons := 0, 0
	for tier := MinTier; tier <= MaxTier; tier++ {
		f := GenerateFleet(Context{EncounterID: 1, PlayerID: 1, Tier: tier, FleetSize: 3}, testCatalog)
		hull, weapons := 0, 0
		for _, s := range f.Ships {
			hull += s.MaxHull
			weapons += s.Weapons
		}
		if hull <= prevHull || weapons <= prevWeapons {
			t.Fatalf("tier %d not stronger than tier %d: hull %d<=%d or weapons %d<=%d", tier, tier-1, hull, prevHull, weapons, prevWeapons)
		}
		prevHull, prevWeapons = hull, weapons
	}
}

func TestGenerateFleetCargoBounds(t *testing.T) {
	for id := int64(1); id <= 20; id++ {
		f := GenerateFleet(Context{EncounterID: id, PlayerID: 5, Tier: 2, FleetSize: 2}, testCatalog)
		if len(f.Ships) != 2 {
			t.Fatalf("expected 2 ships, got %d", len(f.Ships))
		}
		for _, s := range f.Ships {
			if len(s.Cargo) < 1 || len(s.Cargo) > 3 {
				t.Fatalf("expected 1-3 cargo stacks, got %d", len(s.Cargo))
			}
			seen := map[int64]bool{}
			for _, c := range s.Cargo {
				if c.Quantity < 20 || c.Quantity > 100 {
					t.Fatalf("tier 2 quantity %d outside [20,100]", c.Quantity)
				}
				if seen[c.MineralID] {
					t.Fatalf("duplicate mineral %d in one hold", c.MineralID)
				}
				seen[c.MineralID] = true
			}
			if s.Hull != s.MaxHull || s.Hull <= 0 {
				t.Fatalf("pirate should start at full hull, got %d/%d", s.Hull, s.MaxHull)
			}
		}
	}
}

func TestGenerateFleetClampsInput(t *testing.T) {
	f := GenerateFleet(Context{Tier: 9, FleetSize: 0}, Catalog{})
	if f.Tier != MaxTier || len(f.Ships) != 1 {
		t.Fatalf("expected one tier-5 ship, got tier %d with %d ships", f.Tier, len(f.Ships))
	}
	if len(f.Ships[0].Cargo) != 0 || f.Ships[0].Plan != nil {
		t.Fatalf("empty catalog must yield empty holds")
	}
}

func TestGenerateColonyDefenders(t *testing.T) {
	tests := []struct {
		name  string
		in    ColonyGarrison
		count int
		hull  int
	}{
		{"undefended", ColonyGarrison{}, 0, 0},
		{"garrison below threshold still gets a drone", ColonyGarrison{GarrisonStrength: 10}, 1, 50},
		{"defense only", ColonyGarrison{DefenseRating: 20}, 1, 50},
		{"development and garrison", ColonyGarrison{DevelopmentLevel: 4, GarrisonStrength: 100}, 4, 90},
		{"capped at five", ColonyGarrison{DevelopmentLevel: 10, GarrisonStrength: 500}, 5, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drones := GenerateColonyDefenders(tt.in)
			if len(drones) != tt.count {
				t.Fatalf("expected %d drones, got %d", tt.count, len(drones))
			}
			for i, d := range drones {
				if d.Hull != tt.hull {
					t.Fatalf("expected hull %d, got %d", tt.hull, d.Hull)
				}
				if want := "Defense Drone " + string(rune('1'+i)); d.Name != want {
					t.Fatalf("expected %q, got %q", want, d.Name)
				}
			}
		})
	}
}
