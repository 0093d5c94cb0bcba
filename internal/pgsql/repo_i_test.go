package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	ilog "spacewars/internal/log"
)

func newSQLiteStore(t *testing.T) (*SQLStore, context.Context) {
	t.Helper()
	ilog.SetupLogger(ilog.LevelWarn)
	ctx := context.Background()

	connector := NewConnector(DriverSQLite, ":memory:")
	if err := connector.Connect(ctx); err != nil {
		t.Fatalf("connect sqlite failed: %v", err)
	}
	t.Cleanup(func() { _ = connector.Close() })

	if err := Migrate(ctx, connector); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return NewSQLStore(connector), ctx
}

func seedPilot(t *testing.T, ctx context.Context, repos Repos, name string) (Player, PlayerShip) {
	t.Helper()
	pid, err := repos.Player.Create(ctx, Player{Name: name, Credits: 10000, GalaxyID: 1, LocationID: 7})
	if err != nil {
		t.Fatalf("create player failed: %v", err)
	}
	sid, err := repos.PlayerShip.Create(ctx, PlayerShip{
		PlayerID: pid, Name: name + "-ship", Class: "Sparrow",
		Hull: 100, MaxHull: 100, Weapons: 20, Speed: 10, WarpDrive: 2, CargoHold: 50,
		BaseMaxHull: 100, BaseWeapons: 20, BaseSensors: 1, BaseWarpDrive: 2, IsActive: true,
	})
	if err != nil {
		t.Fatalf("create ship failed: %v", err)
	}
	p, err := repos.Player.Read(ctx, pid)
	if err != nil {
		t.Fatalf("read player failed: %v", err)
	}
	s, err := repos.PlayerShip.ReadActive(ctx, pid)
	if err != nil {
		t.Fatalf("read active ship failed: %v", err)
	}
	if s.ID != sid {
		t.Fatalf("expected active ship %d, got %d", sid, s.ID)
	}
	return p, s
}

func TestCargoAddMergesStacks(t *testing.T) {
	store, ctx := newSQLiteStore(t)
	repos := store.Repos()
	_, ship := seedPilot(t, ctx, repos, "ada")

	ore, err := repos.Mineral.Create(ctx, Mineral{Name: "Titanium", BasePrice: 40})
	if err != nil {
		t.Fatalf("create mineral failed: %v", err)
	}
	if err := repos.Cargo.Add(ctx, ship.ID, ore, 10); err != nil {
		t.Fatalf("add cargo failed: %v", err)
	}
	if err := repos.Cargo.Add(ctx, ship.ID, ore, 5); err != nil {
		t.Fatalf("add cargo failed: %v", err)
	}

	items, err := repos.Cargo.ListByShip(ctx, ship.ID)
	if err != nil {
		t.Fatalf("list cargo failed: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 15 || items[0].MineralName != "Titanium" {
		t.Fatalf("expected one Titanium stack of 15, got %+v", items)
	}

	n, err := repos.Cargo.DeleteByShip(ctx, ship.ID)
	if err != nil || n != 1 {
		t.Fatalf("expected one deleted stack, got n=%d err=%v", n, err)
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	store, ctx := newSQLiteStore(t)
	player, _ := seedPilot(t, ctx, store.Repos(), "bob")

	boom := errors.New("boom")
	err := store.InTx(ctx, func(tx Repos) error {
		p, err := tx.Player.Read(ctx, player.ID)
		if err != nil {
			return err
		}
		p.Credits = 1
		if err := tx.Player.Update(ctx, p); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, err := store.Repos().Player.Read(ctx, player.ID)
	if err != nil {
		t.Fatalf("read player failed: %v", err)
	}
	if got.Credits != 10000 {
		t.Fatalf("expected rollback to keep 10000 credits, got %d", got.Credits)
	}
}

func TestChallengeTransitionIsConditional(t *testing.T) {
	store, ctx := newSQLiteStore(t)
	repos := store.Repos()
	a, _ := seedPilot(t, ctx, repos, "a")
	b, _ := seedPilot(t, ctx, repos, "b")

	now := time.Now().UTC()
	id, err := repos.Challenge.Create(ctx, PvPChallenge{
		UUID: "c-1", ChallengerID: a.ID, TargetID: b.ID, Status: ChallengePending,
		WagerCredits: 100, MaxTeamSize: 1, LocationID: 7, ChallengedAt: now, ExpiresAt: now.Add(5 * time.Minute),
	})
	if err != nil {
		t.Fatalf("create challenge failed: %v", err)
	}

	ok, err := repos.Challenge.TransitionStatus(ctx, id, ChallengePending, ChallengeAccepted, now)
	if err != nil || !ok {
		t.Fatalf("expected first transition to succeed, ok=%v err=%v", ok, err)
	}
	ok, err = repos.Challenge.TransitionStatus(ctx, id, ChallengePending, ChallengeDeclined, now)
	if err != nil || ok {
		t.Fatalf("expected second transition to be refused, ok=%v err=%v", ok, err)
	}

	c, err := repos.Challenge.ReadByUUID(ctx, "c-1")
	if err != nil {
		t.Fatalf("read challenge failed: %v", err)
	}
	if c.Status != ChallengeAccepted || !c.RespondedAt.Valid {
		t.Fatalf("unexpected challenge state %+v", c)
	}

	pending, err := repos.Challenge.ListPendingForPlayer(ctx, a.ID)
	if err != nil || len(pending) != 0 {
		t.Fatalf("expected no pending challenges, got %d err=%v", len(pending), err)
	}
}

func TestSalvageCollectedOnce(t *testing.T) {
	store, ctx := newSQLiteStore(t)
	repos := store.Repos()

	sid, err := repos.CombatSession.Create(ctx, CombatSession{
		UUID: "s-1", CombatType: CombatPirate, Status: SessionCompleted, VictorType: "attacker",
		Rewards: "{}", StartedAt: time.Now().UTC(), CombatLog: []byte{1, 2, 3},
	})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if _, err := repos.SalvageLot.Create(ctx, SalvageLot{CombatSessionID: sid, Kind: SalvageMineral, Name: "Iron", Quantity: 30}); err != nil {
		t.Fatalf("create lot failed: %v", err)
	}

	first, err := repos.CombatSession.MarkSalvageCollected(ctx, sid, time.Now())
	if err != nil || !first {
		t.Fatalf("expected first collection to stamp, ok=%v err=%v", first, err)
	}
	second, err := repos.CombatSession.MarkSalvageCollected(ctx, sid, time.Now())
	if err != nil || second {
		t.Fatalf("expected second collection to be refused, ok=%v err=%v", second, err)
	}

	s, err := repos.CombatSession.ReadByUUID(ctx, "s-1")
	if err != nil {
		t.Fatalf("read session failed: %v", err)
	}
	if len(s.CombatLog) != 3 || !s.SalvageCollectedAt.Valid {
		t.Fatalf("unexpected session %+v", s)
	}
}

func TestRespawnHubQueries(t *testing.T) {
	store, ctx := newSQLiteStore(t)
	repos := store.Repos()

	if _, err := repos.TradingHub.FirstActive(ctx, 1); !IsNotFound(err) {
		t.Fatalf("expected not found on empty hubs, got %v", err)
	}

	mustHub := func(h TradingHub) int64 {
		id, err := repos.TradingHub.Create(ctx, h)
		if err != nil {
			t.Fatalf("create hub failed: %v", err)
		}
		return id
	}
	mustHub(TradingHub{Name: "Far", GalaxyID: 2, IsActive: true, ShipStock: 3})
	closed := mustHub(TradingHub{Name: "Closed", GalaxyID: 1, IsActive: false, ShipStock: 9})
	bare := mustHub(TradingHub{Name: "Bare", GalaxyID: 1, IsActive: true})
	stocked := mustHub(TradingHub{Name: "Stocked", GalaxyID: 1, IsActive: true, ShipStock: 2})

	h, err := repos.TradingHub.FirstWithShipStock(ctx, 1)
	if err != nil || h.ID != stocked {
		t.Fatalf("expected stocked hub %d, got %+v err=%v", stocked, h, err)
	}
	h, err = repos.TradingHub.FirstActive(ctx, 1)
	if err != nil || h.ID != bare {
		t.Fatalf("expected first active in-galaxy hub %d, got %+v err=%v", bare, h, err)
	}
	if h.ID == closed {
		t.Fatalf("inactive hub returned")
	}
	if _, err := repos.TradingHub.Read(ctx, 999); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}
