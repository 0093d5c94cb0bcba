package combat

import (
	"math/rand"
	"reflect"
	"strings"
	"testing"
)

func ship(owner int64, name string, hull, weapons int) Combatant {
	return Combatant{Kind: KindPlayerShip, Ref: owner, Name: name, OwnerID: owner, OwnerName: "pilot-" + name, Hull: hull, MaxHull: hull, Weapons: weapons}
}

func pirate(idx int64, name string, hull, weapons int) Combatant {
	return Combatant{Kind: KindPirateShip, Ref: idx, Name: name, Hull: hull, MaxHull: hull, Weapons: weapons}
}

func TestResolveDeterministic(t *testing.T) {
	r := NewResolver(Options{Variance: 0})
	out := r.Resolve(Engagement{
		Attackers: []Combatant{ship(1, "Falcon", 100, 30)},
		Defenders: []Combatant{pirate(0, "Raider", 50, 10)},
	})

	if out.Victor != SideAttacker {
		t.Fatalf("expected attacker victory, got %s", out.Victor)
	}
	if out.Rounds != 2 {
		t.Fatalf("expected 2 rounds, got %d", out.Rounds)
	}
	if got := out.Attackers[0].Hull; got != 90 {
		t.Fatalf("expected attacker hull 90, got %d", got)
	}
	if got := out.Defenders[0].Hull; got != 0 {
		t.Fatalf("expected destroyed defender at hull 0, got %d", got)
	}
	if out.Surplus != 10 {
		t.Fatalf("expected overkill surplus 10, got %d", out.Surplus)
	}
	last := out.Log[len(out.Log)-1]
	if last.Kind != EntryVictory {
		t.Fatalf("expected victory entry last, got %s", last.Kind)
	}
}

func TestResolveTargetsLowestHull(t *testing.T) {
	r := NewResolver(Options{Variance: 0})
	out := r.Resolve(Engagement{
		Attackers: []Combatant{ship(1, "Falcon", 500, 5)},
		Defenders: []Combatant{pirate(0, "Big", 50, 1), pirate(1, "Small", 20, 1), pirate(2, "AlsoSmall", 20, 1)},
	})

	var firstAttack string
	for _, e := range out.Log {
		if e.Kind == EntryAttack {
			firstAttack = e.Message
			break
		}
	}
	if !strings.Contains(firstAttack, "fires at Small ") {
		t.Fatalf("expected first shot at Small (lowest hull, earliest), got %q", firstAttack)
	}
	if out.Victor != SideAttacker {
		t.Fatalf("expected attacker victory, got %s", out.Victor)
	}
}

func TestResolveSeededIsReproducible(t *testing.T) {
	eng := Engagement{
		Attackers: []Combatant{ship(1, "A", 120, 25), ship(2, "B", 90, 30)},
		Defenders: []Combatant{pirate(0, "X", 100, 20), pirate(1, "Y", 140, 18)},
	}
	a := NewResolver(Options{Variance: DefaultVariance, Seed: 42}).Resolve(eng)
	b := NewResolver(Options{Variance: DefaultVariance, Seed: 42}).Resolve(eng)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different outcomes")
	}
}

func TestResolveVarianceBoundsAndTimeout(t *testing.T) {
	r := NewResolver(Options{Variance: DefaultVariance, MaxRounds: 50, Seed: 7})
	out := r.Resolve(Engagement{
		Attackers: []Combatant{ship(1, "A", 100, 100)},
		Defenders: []Combatant{pirate(0, "Wall", 100000, 0)},
	})

	if !out.TimedOut || out.Rounds != 50 {
		t.Fatalf("expected timeout after 50 rounds, got timedOut=%v rounds=%d", out.TimedOut, out.Rounds)
	}
	if out.Victor != SideDefender {
		t.Fatalf("expected defenders to hold on timeout, got %s", out.Victor)
	}
	taken := out.Defenders[0].DamageTaken
	if taken < 50*80 || taken > 50*120 {
		t.Fatalf("damage %d outside ±20%% bounds", taken)
	}
	if out.Attackers[0].Hull != 100 {
		t.Fatalf("zero-weapon defender should deal no damage, hull %d", out.Attackers[0].Hull)
	}
}

func TestDamageStaysInsideVarianceWindow(t *testing.T) {
	tests := []struct {
		weapons int
		lo, hi  int
	}{
		{weapons: 1, lo: 1, hi: 1},
		{weapons: 3, lo: 3, hi: 3},
		{weapons: 4, lo: 4, hi: 4},
		{weapons: 5, lo: 4, hi: 6},
		{weapons: 12, lo: 10, hi: 14},
		{weapons: 100, lo: 80, hi: 120},
	}
	for _, tc := range tests {
		b := &battle{rng: rand.New(rand.NewSource(11)), variance: DefaultVariance}
		seen := map[int]bool{}
		for i := 0; i < 5000; i++ {
			d := b.damage(tc.weapons)
			if d < tc.lo || d > tc.hi {
				t.Fatalf("weapons %d: damage %d outside [%d,%d]", tc.weapons, d, tc.lo, tc.hi)
			}
			seen[d] = true
		}
		if !seen[tc.lo] || !seen[tc.hi] {
			t.Fatalf("weapons %d: expected both bounds to be rolled, saw %v", tc.weapons, seen)
		}
	}
}

func TestResolveHullNeverNegative(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		out := NewResolver(Options{Variance: DefaultVariance, Seed: seed}).Resolve(Engagement{
			Attackers: []Combatant{ship(1, "A", 30, 200), ship(2, "B", 10, 5)},
			Defenders: []Combatant{pirate(0, "X", 15, 40), pirate(1, "Y", 5, 40)},
		})
		for _, f := range append(out.Attackers, out.Defenders...) {
			if f.Hull < 0 || f.Hull > f.MaxHull {
				t.Fatalf("seed %d: hull %d out of [0,%d]", seed, f.Hull, f.MaxHull)
			}
		}
		if out.Rounds < 1 {
			t.Fatalf("seed %d: expected at least one round", seed)
		}
	}
}

func TestResolveDefenderVictory(t *testing.T) {
	out := NewResolver(Options{}).Resolve(Engagement{
		Attackers: []Combatant{ship(1, "Weak", 10, 1)},
		Defenders: []Combatant{pirate(0, "Brute", 200, 50)},
	})
	if out.Victor != SideDefender {
		t.Fatalf("expected defender victory, got %s", out.Victor)
	}
	if len(out.Fallen(SideAttacker)) != 1 || len(out.Survivors(SideDefender)) != 1 {
		t.Fatalf("unexpected fallen/survivor split")
	}
	if out.Log[len(out.Log)-1].Kind != EntryDefeat {
		t.Fatalf("expected defeat entry last")
	}
}
