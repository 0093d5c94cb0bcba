package session

import (
	"context"
	"testing"

	"spacewars/internal/apperr"
	"spacewars/internal/authz"
	"spacewars/internal/combat"
	"spacewars/internal/pgsql"
	"spacewars/internal/pgsql/memrepo"
)

func TestSaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := memrepo.New()
	repos := store.Repos()
	alice, _ := repos.Player.Create(ctx, pgsql.Player{Name: "alice"})
	bob, _ := repos.Player.Create(ctx, pgsql.Player{Name: "bob"})
	carol, _ := repos.Player.Create(ctx, pgsql.Player{Name: "carol"})

	res := combat.NewResolver(combat.Options{}).Resolve(combat.Engagement{
		Attackers: []combat.Combatant{{Kind: combat.KindPlayerShip, Ref: 1, Name: "A", OwnerID: alice, Hull: 100, MaxHull: 100, Weapons: 50}},
		Defenders: []combat.Combatant{{Kind: combat.KindPlayerShip, Ref: 2, Name: "B", OwnerID: bob, Hull: 40, MaxHull: 40, Weapons: 5}},
	})

	saved, err := Save(ctx, repos, Record{
		CombatType: pgsql.CombatPvP,
		Outcome:    res,
		Participants: []Participant{
			{PlayerID: alice, ShipID: 1, Fighter: res.Attackers[0], XP: 100},
			{PlayerID: bob, ShipID: 2, Fighter: res.Defenders[0]},
		},
		Rewards: map[string]int{"xp": 100},
	})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if saved.UUID == "" || saved.VictorType != "attacker" {
		t.Fatalf("unexpected session %+v", saved)
	}

	svc := NewService(store, authz.NewStaticPolicy([]int64{carol + 100}))
	v, err := svc.Get(ctx, bob, saved.UUID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(v.Log) != len(res.Log) || v.Rounds != res.Rounds || len(v.Participants) != 2 {
		t.Fatalf("view does not match outcome: %+v", v)
	}
	if !v.Participants[0].Survived || v.Participants[1].Survived || v.Participants[1].FinalHull != 0 {
		t.Fatalf("survival flags wrong: %+v", v.Participants)
	}
	if string(v.Rewards) != `{"xp":100}` {
		t.Fatalf("rewards mismatch: %s", v.Rewards)
	}

	if _, err := svc.Get(ctx, carol, saved.UUID); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected Forbidden for outsider, got %v", err)
	}
	if _, err := svc.Get(ctx, carol+100, saved.UUID); err != nil {
		t.Fatalf("admin should read any session: %v", err)
	}
	if _, err := svc.Get(ctx, bob, "nope"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
