package death

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"spacewars/internal/pgsql"
	"spacewars/internal/pgsql/memrepo"
)

type fixture struct {
	ctx    context.Context
	store  *memrepo.Store
	repos  pgsql.Repos
	player pgsql.Player
	ship   pgsql.PlayerShip
}

func newFixture(t *testing.T, credits int64, lastHub sql.NullInt64) fixture {
	t.Helper()
	ctx := context.Background()
	store := memrepo.New()
	repos := store.Repos()

	pid, err := repos.Player.Create(ctx, pgsql.Player{Name: "vex", Credits: credits, Experience: 1234, GalaxyID: 1, LocationID: 42, LastHubID: lastHub})
	if err != nil {
		t.Fatalf("create player failed: %v", err)
	}
	sid, err := repos.PlayerShip.Create(ctx, pgsql.PlayerShip{
		PlayerID: pid, Name: "Dawn Runner", Class: "Viper-class Fighter",
		Hull: 40, MaxHull: 130, Weapons: 25, Sensors: 2, Speed: 12, WarpDrive: 3, CargoHold: 100,
		BaseMaxHull: 120, BaseWeapons: 20, BaseSensors: 1, BaseWarpDrive: 2, IsActive: true,
	})
	if err != nil {
		t.Fatalf("create ship failed: %v", err)
	}
	iron, _ := repos.Mineral.Create(ctx, pgsql.Mineral{Name: "Iron", BasePrice: 5})
	if err := repos.Cargo.Add(ctx, sid, iron, 30); err != nil {
		t.Fatalf("add cargo failed: %v", err)
	}
	for _, name := range []string{"Weapons Mk I", "Hull Mk II"} {
		planID, _ := repos.Plan.Create(ctx, pgsql.Plan{Name: name, Component: "weapons", Bonus: 1})
		if err := repos.PlayerPlan.Grant(ctx, pid, planID, time.Now()); err != nil {
			t.Fatalf("grant plan failed: %v", err)
		}
	}

	player, _ := repos.Player.Read(ctx, pid)
	ship, _ := repos.PlayerShip.Read(ctx, sid)
	return fixture{ctx: ctx, store: store, repos: repos, player: player, ship: ship}
}

func (f fixture) die(t *testing.T) Result {
	t.Helper()
	var res Result
	err := f.store.InTx(f.ctx, func(tx pgsql.Repos) error {
		var err error
		res, err = NewService(Options{MinimumCredits: DefaultMinimumCredits}).ProcessPlayerDeath(f.ctx, tx, f.player.ID, f.ship.ID)
		return err
	})
	if err != nil {
		t.Fatalf("process death failed: %v", err)
	}
	return res
}

func TestProcessPlayerDeathGrantsShortfall(t *testing.T) {
	f := newFixture(t, 1200, sql.NullInt64{})
	res := f.die(t)

	if res.CreditsRetained != 1200 || res.CreditsGranted != 3800 || res.CreditsAfter != 5000 {
		t.Fatalf("unexpected credits %+v", res)
	}
	p, _ := f.repos.Player.Read(f.ctx, f.player.ID)
	if p.Credits != 5000 || p.Experience != 1234 {
		t.Fatalf("expected 5000 credits and 1234 XP, got %d / %d", p.Credits, p.Experience)
	}
	if _, err := f.repos.PlayerShip.Read(f.ctx, f.ship.ID); !pgsql.IsNotFound(err) {
		t.Fatalf("expected ship deleted, got %v", err)
	}
	cargo, _ := f.repos.Cargo.ListByShip(f.ctx, f.ship.ID)
	plans, _ := f.repos.PlayerPlan.ListByPlayer(f.ctx, f.player.ID)
	if len(cargo) != 0 || len(plans) != 0 {
		t.Fatalf("expected cargo and plans stripped, got %d cargo %d plans", len(cargo), len(plans))
	}
	if res.Losses.PlansLost != 2 || res.Losses.CargoUnitsLost != 30 || res.Losses.EstimatedCargoValue != 150 {
		t.Fatalf("unexpected losses %+v", res.Losses)
	}
	// weapons +5, sensors +1, warp +1, hull +10
	if res.Losses.UpgradeLevelsLost != 17 {
		t.Fatalf("expected 17 upgrade levels lost, got %d", res.Losses.UpgradeLevelsLost)
	}
}

func TestZeroOptionsKeepDefaultFloor(t *testing.T) {
	f := newFixture(t, 100, sql.NullInt64{})
	var res Result
	err := f.store.InTx(f.ctx, func(tx pgsql.Repos) error {
		var err error
		res, err = NewService(Options{}).ProcessPlayerDeath(f.ctx, tx, f.player.ID, f.ship.ID)
		return err
	})
	if err != nil {
		t.Fatalf("process death failed: %v", err)
	}
	if res.CreditsGranted != 4900 || res.CreditsAfter != 5000 {
		t.Fatalf("expected 4900 granted up to 5000, got %+v", res)
	}
}

func TestProcessPlayerDeathKeepsCreditsAboveFloor(t *testing.T) {
	f := newFixture(t, 8000, sql.NullInt64{})
	res := f.die(t)
	if res.CreditsGranted != 0 || res.CreditsAfter != 8000 {
		t.Fatalf("expected no grant, got %+v", res)
	}
}

func TestRespawnPriority(t *testing.T) {
	t.Run("last hub with ships", func(t *testing.T) {
		f := newFixture(t, 6000, sql.NullInt64{})
		hub, _ := f.repos.TradingHub.Create(f.ctx, pgsql.TradingHub{Name: "Home", GalaxyID: 1, LocationID: 77, IsActive: true, ShipStock: 1})
		f.repos.TradingHub.Create(f.ctx, pgsql.TradingHub{Name: "Other", GalaxyID: 1, LocationID: 78, IsActive: true, ShipStock: 4})
		f.player.LastHubID = sql.NullInt64{Int64: hub, Valid: true}
		f.repos.Player.Update(f.ctx, f.player)

		res := f.die(t)
		if res.RespawnRule != RespawnLastHub || res.Respawn.ID != hub {
			t.Fatalf("expected last hub, got %s %+v", res.RespawnRule, res.Respawn)
		}
		p, _ := f.repos.Player.Read(f.ctx, f.player.ID)
		if p.LocationID != 77 {
			t.Fatalf("expected player moved to 77, got %d", p.LocationID)
		}
	})

	t.Run("last hub without ships falls back to galaxy hub", func(t *testing.T) {
		f := newFixture(t, 6000, sql.NullInt64{})
		bare, _ := f.repos.TradingHub.Create(f.ctx, pgsql.TradingHub{Name: "Bare", GalaxyID: 1, LocationID: 77, IsActive: true})
		stocked, _ := f.repos.TradingHub.Create(f.ctx, pgsql.TradingHub{Name: "Yard", GalaxyID: 1, LocationID: 79, IsActive: true, ShipStock: 2})
		f.player.LastHubID = sql.NullInt64{Int64: bare, Valid: true}
		f.repos.Player.Update(f.ctx, f.player)

		res := f.die(t)
		if res.RespawnRule != RespawnGalaxyHub || res.Respawn.ID != stocked || !res.RespawnHasShips {
			t.Fatalf("expected galaxy hub with ships, got %s %+v", res.RespawnRule, res.Respawn)
		}
	})

	t.Run("no stock anywhere uses any active hub", func(t *testing.T) {
		f := newFixture(t, 6000, sql.NullInt64{})
		bare, _ := f.repos.TradingHub.Create(f.ctx, pgsql.TradingHub{Name: "Bare", GalaxyID: 1, LocationID: 77, IsActive: true})

		res := f.die(t)
		if res.RespawnRule != RespawnAnyHub || res.Respawn.ID != bare || res.RespawnHasShips {
			t.Fatalf("expected generic hub, got %s %+v", res.RespawnRule, res.Respawn)
		}
	})

	t.Run("no hubs at all", func(t *testing.T) {
		f := newFixture(t, 6000, sql.NullInt64{})
		res := f.die(t)
		if res.RespawnRule != RespawnNone || res.Respawn != nil {
			t.Fatalf("expected no respawn hub, got %+v", res)
		}
	})
}

func TestGenerateDeathMessage(t *testing.T) {
	msg := GenerateDeathMessage(Result{
		Losses:          Losses{ShipName: "Dawn Runner", ShipClass: "Viper-class Fighter", CargoItemsLost: 1, PlansLost: 2},
		CreditsRetained: 1200,
		CreditsGranted:  3800,
		CreditsAfter:    5000,
		XPRetained:      1234,
		Respawn:         &pgsql.TradingHub{Name: "Port Ember"},
		RespawnHasShips: true,
	})
	for _, want := range []string{"ESCAPE POD", "Dawn Runner", "LOSSES:", "RETAINED:", "$1,200", "EMERGENCY GRANT: $3,800", "Port Ember"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("death message missing %q:\n%s", want, msg)
		}
	}
}
