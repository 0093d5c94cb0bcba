// Package salvage moves loot from a defeated force into the victor's hold.
package salvage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"spacewars/internal/apperr"
	ilog "spacewars/internal/log"
	"spacewars/internal/pgsql"
)

type MineralLot struct {
	MineralID int64  `json:"mineral_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

type PlanLot struct {
	PlanID int64  `json:"plan_id"`
	Name   string `json:"name"`
	Owned  bool   `json:"already_owned"`
}

type Listing struct {
	SessionUUID string       `json:"combat_session"`
	Collected   bool         `json:"collected"`
	Minerals    []MineralLot `json:"minerals"`
	Plans       []PlanLot    `json:"plans"`
	CargoFree   int          `json:"cargo_free"`
}

// Selection picks what to take. All takes every lot in full.
type Selection struct {
	All      bool
	Minerals map[int64]int
	Plans    []int64
}

type MineralMove struct {
	MineralID   int64  `json:"mineral_id"`
	Name        string `json:"name"`
	Requested   int    `json:"requested"`
	Transferred int    `json:"transferred"`
}

type PlanMove struct {
	PlanID      int64  `json:"plan_id"`
	Name        string `json:"name"`
	Transferred bool   `json:"transferred"`
}

type TransferResult struct {
	AlreadyCollected bool          `json:"already_collected"`
	Minerals         []MineralMove `json:"minerals"`
	Plans            []PlanMove    `json:"plans"`
	Messages         []string      `json:"messages"`
	CargoFree        int           `json:"cargo_free"`
}

type Options struct {
	Now func() time.Time
}

type Service struct {
	store  pgsql.Store
	now    func() time.Time
	logger *zap.SugaredLogger
}

func NewService(store pgsql.Store, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{store: store, now: opts.Now, logger: ilog.Component("salvage")}
}

// List shows the loot of a session the player won.
func (s *Service) List(ctx context.Context, playerID int64, sessionUUID string) (Listing, error) {
	var out Listing
	err := s.store.InTx(ctx, func(repos pgsql.Repos) error {
		session, err := eligibleSession(ctx, repos, playerID, sessionUUID)
		if err != nil {
			return err
		}
		minerals, plans, err := groupLots(ctx, repos, session.ID)
		if err != nil {
			return err
		}
		for i := range plans {
			if plans[i].Owned, err = repos.PlayerPlan.Has(ctx, playerID, plans[i].PlanID); err != nil {
				return fmt.Errorf("check plan ownership: %w", err)
			}
		}
		out = Listing{
			SessionUUID: session.UUID,
			Collected:   session.SalvageCollectedAt.Valid,
			Minerals:    minerals,
			Plans:       plans,
		}
		if ship, err := repos.PlayerShip.ReadActive(ctx, playerID); err == nil {
			if out.CargoFree, err = FreeSpace(ctx, repos, ship); err != nil {
				return err
			}
		} else if !pgsql.IsNotFound(err) {
			return fmt.Errorf("read active ship: %w", err)
		}
		return nil
	})
	return out, err
}

// Transfer moves the selected loot into the player's active ship. Minerals
// are clamped to the lot and then to free cargo space; plans ignore cargo
// space and are skipped when already owned. A session's salvage can be
// collected once; later calls report AlreadyCollected and change nothing.
func (s *Service) Transfer(ctx context.Context, playerID int64, sessionUUID string, sel Selection) (TransferResult, error) {
	var out TransferResult
	err := s.store.InTx(ctx, func(repos pgsql.Repos) error {
		session, err := eligibleSession(ctx, repos, playerID, sessionUUID)
		if err != nil {
			return err
		}
		ship, err := repos.PlayerShip.ReadActive(ctx, playerID)
		if err != nil {
			if pgsql.IsNotFound(err) {
				return apperr.New(apperr.KindNoActiveShip, "you need an active ship to collect salvage")
			}
			return fmt.Errorf("read active ship: %w", err)
		}

		first, err := repos.CombatSession.MarkSalvageCollected(ctx, session.ID, s.now())
		if err != nil {
			return fmt.Errorf("mark salvage collected: %w", err)
		}
		if !first {
			out = TransferResult{
				AlreadyCollected: true,
				Minerals:         []MineralMove{},
				Plans:            []PlanMove{},
				Messages:         []string{"Salvage from this combat has already been collected."},
			}
			out.CargoFree, err = FreeSpace(ctx, repos, ship)
			return err
		}

		minerals, plans, err := groupLots(ctx, repos, session.ID)
		if err != nil {
			return err
		}
		free, err := FreeSpace(ctx, repos, ship)
		if err != nil {
			return err
		}
		out, err = s.apply(ctx, repos, playerID, ship.ID, free, minerals, plans, sel)
		return err
	})
	if err != nil {
		return TransferResult{}, err
	}
	if !out.AlreadyCollected {
		s.logger.Infof("player %d collected salvage from %s (%d mineral stacks, %d plans)",
			playerID, sessionUUID, len(out.Minerals), len(out.Plans))
	}
	return out, nil
}

func (s *Service) apply(ctx context.Context, repos pgsql.Repos, playerID, shipID int64, free int,
	minerals []MineralLot, plans []PlanLot, sel Selection) (TransferResult, error) {
	out := TransferResult{Minerals: []MineralMove{}, Plans: []PlanMove{}, Messages: []string{}}

	available := make(map[int64]MineralLot, len(minerals))
	for _, m := range minerals {
		available[m.MineralID] = m
	}
	for id, qty := range sel.Minerals {
		if _, ok := available[id]; !ok {
			return out, apperr.New(apperr.KindInvalidRequest, fmt.Sprintf("mineral %d is not in this salvage", id))
		}
		if qty < 0 {
			return out, apperr.New(apperr.KindInvalidRequest, "quantities must not be negative")
		}
	}
	offered := make(map[int64]PlanLot, len(plans))
	for _, p := range plans {
		offered[p.PlanID] = p
	}
	for _, id := range sel.Plans {
		if _, ok := offered[id]; !ok {
			return out, apperr.New(apperr.KindInvalidRequest, fmt.Sprintf("plan %d is not in this salvage", id))
		}
	}

	for _, lot := range minerals {
		requested := lot.Quantity
		if !sel.All {
			qty, ok := sel.Minerals[lot.MineralID]
			if !ok {
				continue
			}
			requested = qty
		}
		move := MineralMove{MineralID: lot.MineralID, Name: lot.Name, Requested: requested}
		n := min(requested, lot.Quantity, free)
		if n > 0 {
			if err := repos.Cargo.Add(ctx, shipID, lot.MineralID, n); err != nil {
				return out, fmt.Errorf("add %s to cargo: %w", lot.Name, err)
			}
			free -= n
			move.Transferred = n
		}
		switch {
		case n == requested:
			out.Messages = append(out.Messages, fmt.Sprintf("Transferred %d units of %s.", n, lot.Name))
		case n > 0:
			out.Messages = append(out.Messages, fmt.Sprintf("Transferred %d of %d units of %s (cargo hold full).", n, requested, lot.Name))
		default:
			out.Messages = append(out.Messages, fmt.Sprintf("No cargo space left for %s.", lot.Name))
		}
		out.Minerals = append(out.Minerals, move)
	}

	wanted := make(map[int64]bool, len(sel.Plans))
	for _, id := range sel.Plans {
		wanted[id] = true
	}
	for _, p := range plans {
		if !sel.All && !wanted[p.PlanID] {
			continue
		}
		move := PlanMove{PlanID: p.PlanID, Name: p.Name}
		owned, err := repos.PlayerPlan.Has(ctx, playerID, p.PlanID)
		if err != nil {
			return out, fmt.Errorf("check plan ownership: %w", err)
		}
		if owned {
			out.Messages = append(out.Messages, fmt.Sprintf("You already own the %s plan.", p.Name))
		} else {
			if err := repos.PlayerPlan.Grant(ctx, playerID, p.PlanID, s.now()); err != nil {
				return out, fmt.Errorf("grant plan %d: %w", p.PlanID, err)
			}
			move.Transferred = true
			out.Messages = append(out.Messages, fmt.Sprintf("Acquired upgrade plan: %s.", p.Name))
		}
		out.Plans = append(out.Plans, move)
	}

	out.CargoFree = free
	return out, nil
}

// FreeSpace is the ship's hold capacity minus the units it carries.
func FreeSpace(ctx context.Context, repos pgsql.Repos, ship pgsql.PlayerShip) (int, error) {
	cargo, err := repos.Cargo.ListByShip(ctx, ship.ID)
	if err != nil {
		return 0, fmt.Errorf("list cargo: %w", err)
	}
	used := 0
	for _, c := range cargo {
		used += c.Quantity
	}
	if free := ship.CargoHold - used; free > 0 {
		return free, nil
	}
	return 0, nil
}

func eligibleSession(ctx context.Context, repos pgsql.Repos, playerID int64, sessionUUID string) (pgsql.CombatSession, error) {
	session, err := repos.CombatSession.ReadByUUID(ctx, sessionUUID)
	if err != nil {
		if pgsql.IsNotFound(err) {
			return pgsql.CombatSession{}, apperr.New(apperr.KindNotFound, "combat session not found")
		}
		return pgsql.CombatSession{}, fmt.Errorf("read session %s: %w", sessionUUID, err)
	}
	if session.CombatType != pgsql.CombatPirate && session.CombatType != pgsql.CombatColony {
		return pgsql.CombatSession{}, apperr.New(apperr.KindSalvageNotAvailable, "this combat left no salvage")
	}
	participants, err := repos.CombatParticipant.ListBySession(ctx, session.ID)
	if err != nil {
		return pgsql.CombatSession{}, fmt.Errorf("list participants: %w", err)
	}
	for _, p := range participants {
		if p.PlayerID != playerID {
			continue
		}
		if p.Side != session.VictorType || !p.Survived {
			return pgsql.CombatSession{}, apperr.New(apperr.KindSalvageNotAvailable, "only surviving victors may collect salvage")
		}
		return session, nil
	}
	return pgsql.CombatSession{}, apperr.New(apperr.KindNotInChallenge, "you did not take part in this combat")
}

// groupLots sums mineral lots per mineral and lists plan lots once each.
func groupLots(ctx context.Context, repos pgsql.Repos, sessionID int64) ([]MineralLot, []PlanLot, error) {
	lots, err := repos.SalvageLot.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("list salvage lots: %w", err)
	}
	minerals := make([]MineralLot, 0)
	plans := make([]PlanLot, 0)
	index := map[int64]int{}
	seenPlan := map[int64]bool{}
	for _, l := range lots {
		switch l.Kind {
		case pgsql.SalvageMineral:
			if !l.MineralID.Valid || l.Quantity <= 0 {
				continue
			}
			if i, ok := index[l.MineralID.Int64]; ok {
				minerals[i].Quantity += l.Quantity
				continue
			}
			index[l.MineralID.Int64] = len(minerals)
			minerals = append(minerals, MineralLot{MineralID: l.MineralID.Int64, Name: l.Name, Quantity: l.Quantity})
		case pgsql.SalvagePlan:
			if !l.PlanID.Valid || seenPlan[l.PlanID.Int64] {
				continue
			}
			seenPlan[l.PlanID.Int64] = true
			plans = append(plans, PlanLot{PlanID: l.PlanID.Int64, Name: l.Name})
		}
	}
	return minerals, plans, nil
}
