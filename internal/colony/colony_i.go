package colony

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"spacewars/internal/apperr"
	"spacewars/internal/combat"
	"spacewars/internal/death"
	"spacewars/internal/encounter"
	ilog "spacewars/internal/log"
	"spacewars/internal/pgsql"
	"spacewars/internal/reward"
	"spacewars/internal/session"
)

type Service struct {
	store    pgsql.Store
	resolver *combat.Resolver
	deaths   *death.Service
	now      func() time.Time
	seed     func() int64
	logger   *zap.SugaredLogger
}

func NewService(store pgsql.Store, resolver *combat.Resolver, deaths *death.Service, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Seed == nil {
		opts.Seed = func() int64 { return time.Now().UnixNano() }
	}
	return &Service{
		store:    store,
		resolver: resolver,
		deaths:   deaths,
		now:      opts.Now,
		seed:     opts.Seed,
		logger:   ilog.Component("colony"),
	}
}

type attacker struct {
	player pgsql.Player
	ship   pgsql.PlayerShip
}

func (a attacker) combatant() combat.Combatant {
	return combat.Combatant{
		Kind:      combat.KindPlayerShip,
		Ref:       a.ship.ID,
		Name:      a.ship.Name,
		OwnerID:   a.player.ID,
		OwnerName: a.player.Name,
		Hull:      a.ship.Hull,
		MaxHull:   a.ship.MaxHull,
		Weapons:   a.ship.Weapons,
		Speed:     a.ship.Speed,
		WarpDrive: a.ship.WarpDrive,
	}
}

// Attack besieges a colony. The whole siege, including ownership transfer
// and the death of fallen attackers, commits in one transaction.
func (s *Service) Attack(ctx context.Context, req AttackRequest) (AttackResult, error) {
	var out AttackResult
	err := s.store.InTx(ctx, func(repos pgsql.Repos) error {
		col, err := repos.Colony.Read(ctx, req.ColonyID)
		if err != nil {
			if pgsql.IsNotFound(err) {
				return apperr.New(apperr.KindNotFound, "colony not found")
			}
			return fmt.Errorf("read colony %d: %w", req.ColonyID, err)
		}
		if col.PlayerID == req.AttackerID {
			return apperr.New(apperr.KindAlreadyOwnColony, "you cannot attack your own colony")
		}

		side, err := s.assemble(ctx, repos, col, req)
		if err != nil {
			return err
		}

		ownerName := ""
		if owner, err := repos.Player.Read(ctx, col.PlayerID); err == nil {
			ownerName = owner.Name
		} else if !pgsql.IsNotFound(err) {
			return fmt.Errorf("read colony owner: %w", err)
		}
		stored, err := repos.ColonyBuilding.ListByColony(ctx, col.ID)
		if err != nil {
			return fmt.Errorf("list buildings: %w", err)
		}
		buildings := make([]combat.Building, 0, len(stored))
		for _, b := range stored {
			buildings = append(buildings, combat.Building{
				ID: b.ID, Type: b.BuildingType, Damaged: b.Status == pgsql.BuildingDamaged,
			})
		}

		startedAt := s.now().UTC()
		combatants := make([]combat.Combatant, 0, len(side))
		for _, a := range side {
			combatants = append(combatants, a.combatant())
		}
		garrison := encounter.GenerateColonyDefenders(encounter.ColonyGarrison{
			DefenseRating:    col.DefenseRating,
			GarrisonStrength: col.GarrisonStrength,
			DevelopmentLevel: col.DevelopmentLevel,
		})
		res := s.resolver.WithSeed(s.seed()).ResolveColony(combatants, combat.ColonyDefense{
			Name:             col.Name,
			OwnerName:        ownerName,
			DefenseRating:    col.DefenseRating,
			GarrisonStrength: col.GarrisonStrength,
			Population:       col.Population,
			DevelopmentLevel: col.DevelopmentLevel,
			Buildings:        buildings,
		}, garrison)

		out = AttackResult{
			ColonyName:       col.Name,
			Captured:         res.Captured,
			InstantCapture:   res.InstantCapture,
			DamagedBuildings: res.DamagedBuildings,
			PopulationLoss:   res.PopulationLoss,
			Deaths:           []Death{},
		}
		log := res.Log

		if res.Captured {
			col.GarrisonStrength = max(0, col.GarrisonStrength-CaptureGarrisonLoss)
			col.DefenseRating = max(0, col.DefenseRating-CaptureDefenseLoss)
			col.Population = max(0, col.Population-res.PopulationLoss)
			col.PlayerID = newOwner(side, res.Attackers)
			out.NewOwnerID = col.PlayerID
			for _, id := range res.DamagedBuildings {
				if err := repos.ColonyBuilding.UpdateStatus(ctx, id, pgsql.BuildingDamaged); err != nil {
					return fmt.Errorf("damage building %d: %w", id, err)
				}
			}
		} else {
			col.DefenseRating += RepelDefenseGain
		}
		col.UpdatedAt = startedAt
		if err := repos.Colony.Update(ctx, col); err != nil {
			return fmt.Errorf("update colony: %w", err)
		}
		out.DefenseRating, out.GarrisonStrength = col.DefenseRating, col.GarrisonStrength

		survivors := res.Survivors(combat.SideAttacker)
		if res.Captured && len(survivors) > 0 {
			out.XPPerAttacker = reward.SplitXP(reward.ColonySiegeXP, len(survivors))
		}

		participants := make([]session.Participant, 0, len(side))
		for i, f := range res.Attackers {
			a := side[i]
			p := session.Participant{PlayerID: a.player.ID, ShipID: a.ship.ID, Fighter: f}
			if f.Hull > 0 {
				if err := s.survive(ctx, repos, a, f.Hull, out.XPPerAttacker); err != nil {
					return err
				}
				p.XP = out.XPPerAttacker
				if p.XP > 0 {
					log = combat.Append(log, combat.EntryReward,
						fmt.Sprintf("⭐ %s earned %d XP", a.player.Name, p.XP))
				}
			} else {
				dr, err := s.deaths.ProcessPlayerDeath(ctx, repos, a.player.ID, a.ship.ID)
				if err != nil {
					return err
				}
				out.Deaths = append(out.Deaths, Death{Result: dr, Message: death.GenerateDeathMessage(dr)})
				log = combat.Append(log, combat.EntryDeath,
					fmt.Sprintf("☠️  %s's %s was destroyed", a.player.Name, a.ship.Name))
			}
			participants = append(participants, p)
		}
		res.Log = log

		var victorID int64
		if res.Captured {
			victorID = col.PlayerID
		}
		saved, err := session.Save(ctx, repos, session.Record{
			CombatType:     pgsql.CombatColony,
			LocationID:     col.LocationID,
			ColonyID:       col.ID,
			Outcome:        res.Outcome,
			VictorPlayerID: victorID,
			Participants:   participants,
			Rewards: map[string]any{
				"captured":          res.Captured,
				"xp_per_attacker":   out.XPPerAttacker,
				"population_loss":   res.PopulationLoss,
				"damaged_buildings": res.DamagedBuildings,
			},
			StartedAt: startedAt,
			EndedAt:   s.now().UTC(),
		})
		if err != nil {
			return err
		}
		out.SessionUUID = saved.UUID
		out.Outcome = res.Outcome
		return nil
	})
	if err != nil {
		return AttackResult{}, err
	}
	s.logger.Infof("colony %d attacked by player %d: captured=%v instant=%v rounds=%d deaths=%d",
		req.ColonyID, req.AttackerID, out.Captured, out.InstantCapture, out.Outcome.Rounds, len(out.Deaths))
	return out, nil
}

// assemble validates the attacker and allies in request order. Duplicate
// ally ids are ignored.
func (s *Service) assemble(ctx context.Context, repos pgsql.Repos, col pgsql.Colony, req AttackRequest) ([]attacker, error) {
	ids := []int64{req.AttackerID}
	seen := map[int64]bool{req.AttackerID: true}
	for _, id := range req.AllyIDs {
		if seen[id] {
			continue
		}
		if id == col.PlayerID {
			return nil, apperr.New(apperr.KindAlreadyOwnColony, "the colony owner cannot join the attack")
		}
		seen[id] = true
		ids = append(ids, id)
	}

	side := make([]attacker, 0, len(ids))
	for i, id := range ids {
		who := "you are"
		if i > 0 {
			who = fmt.Sprintf("ally %d is", id)
		}
		p, err := repos.Player.Read(ctx, id)
		if err != nil {
			if pgsql.IsNotFound(err) {
				return nil, apperr.New(apperr.KindNotFound, fmt.Sprintf("player %d not found", id))
			}
			return nil, fmt.Errorf("read player %d: %w", id, err)
		}
		if p.LocationID != col.LocationID {
			return nil, apperr.New(apperr.KindNotCoLocated, who+" not at the colony's location")
		}
		ship, err := repos.PlayerShip.ReadActive(ctx, id)
		if err != nil {
			if pgsql.IsNotFound(err) {
				return nil, apperr.New(apperr.KindNoActiveShip, fmt.Sprintf("player %d has no active ship", id))
			}
			return nil, fmt.Errorf("read active ship: %w", err)
		}
		side = append(side, attacker{player: p, ship: ship})
	}
	return side, nil
}

func (s *Service) survive(ctx context.Context, repos pgsql.Repos, a attacker, hull int, xp int64) error {
	ship, err := repos.PlayerShip.Read(ctx, a.ship.ID)
	if err != nil {
		return fmt.Errorf("read ship %d: %w", a.ship.ID, err)
	}
	ship.Hull = hull
	if err := repos.PlayerShip.Update(ctx, ship); err != nil {
		return fmt.Errorf("update hull: %w", err)
	}
	if xp == 0 {
		return nil
	}
	p, err := repos.Player.Read(ctx, a.player.ID)
	if err != nil {
		return fmt.Errorf("read player %d: %w", a.player.ID, err)
	}
	p.Experience += xp
	if err := repos.Player.Update(ctx, p); err != nil {
		return fmt.Errorf("award xp: %w", err)
	}
	return nil
}

// newOwner picks the first attacker in roster order whose ship survived.
// The initiating pilot leads the roster, so they keep the claim while alive.
func newOwner(side []attacker, fighters []combat.Fighter) int64 {
	for i, f := range fighters {
		if f.Hull > 0 {
			return side[i].player.ID
		}
	}
	return side[0].player.ID
}
