package memrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"spacewars/internal/pgsql"
)

func TestInTxRestoresStateOnError(t *testing.T) {
	ctx := context.Background()
	store := New()
	pid, err := store.Repos().Player.Create(ctx, pgsql.Player{Name: "ada", Credits: 500})
	if err != nil {
		t.Fatalf("create player failed: %v", err)
	}

	boom := errors.New("boom")
	err = store.InTx(ctx, func(tx pgsql.Repos) error {
		p, err := tx.Player.Read(ctx, pid)
		if err != nil {
			return err
		}
		p.Credits = 0
		if err := tx.Player.Update(ctx, p); err != nil {
			return err
		}
		if _, err := tx.PirateEncounter.Create(ctx, pgsql.PirateEncounter{CaptainName: "Red", Tier: 1, FleetSize: 1}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	p, err := store.Repos().Player.Read(ctx, pid)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if p.Credits != 500 {
		t.Fatalf("expected credits restored to 500, got %d", p.Credits)
	}
	if _, err := store.Repos().PirateEncounter.ReadByLocation(ctx, 0); !pgsql.IsNotFound(err) {
		t.Fatalf("expected encounter insert rolled back, got %v", err)
	}
}

func TestPlayerPlansGrantIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repos := New().Repos()
	planID, _ := repos.Plan.Create(ctx, pgsql.Plan{Name: "Weapons Mk I", Component: "weapons", Bonus: 5})

	for i := 0; i < 2; i++ {
		if err := repos.PlayerPlan.Grant(ctx, 1, planID, time.Now()); err != nil {
			t.Fatalf("grant failed: %v", err)
		}
	}
	plans, _ := repos.PlayerPlan.ListByPlayer(ctx, 1)
	if len(plans) != 1 {
		t.Fatalf("expected one owned plan, got %d", len(plans))
	}
	n, _ := repos.PlayerPlan.DeleteByPlayer(ctx, 1)
	if n != 1 {
		t.Fatalf("expected one plan stripped, got %d", n)
	}
	if has, _ := repos.PlayerPlan.Has(ctx, 1, planID); has {
		t.Fatalf("plan still owned after strip")
	}
}
