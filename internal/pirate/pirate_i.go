package pirate

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"strings"
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
	store        pgsql.Store
	resolver     *combat.Resolver
	deaths       *death.Service
	now          func() time.Time
	seed         func() int64
	stealPercent int
	logger       *zap.SugaredLogger
}

func NewService(store pgsql.Store, resolver *combat.Resolver, deaths *death.Service, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Seed == nil {
		opts.Seed = func() int64 { return time.Now().UnixNano() }
	}
	if opts.StealPercent <= 0 {
		opts.StealPercent = DefaultStealPercent
	}
	return &Service{
		store:        store,
		resolver:     resolver,
		deaths:       deaths,
		now:          opts.Now,
		seed:         opts.Seed,
		stealPercent: min(opts.StealPercent, 100),
		logger:       ilog.Component("pirate"),
	}
}

// scene is a pilot facing one encounter's fleet.
type scene struct {
	player    pgsql.Player
	ship      pgsql.PlayerShip
	encounter pgsql.PirateEncounter
	fleet     encounter.Fleet
}

func (sc scene) combatant() combat.Combatant {
	return combat.Combatant{
		Kind:      combat.KindPlayerShip,
		Ref:       sc.ship.ID,
		Name:      sc.ship.Name,
		OwnerID:   sc.player.ID,
		OwnerName: sc.player.Name,
		Hull:      sc.ship.Hull,
		MaxHull:   sc.ship.MaxHull,
		Weapons:   sc.ship.Weapons,
		Speed:     sc.ship.Speed,
		WarpDrive: sc.ship.WarpDrive,
	}
}

func (s *Service) load(ctx context.Context, repos pgsql.Repos, playerID, encounterID int64) (scene, error) {
	var sc scene
	var err error
	if sc.player, err = repos.Player.Read(ctx, playerID); err != nil {
		if pgsql.IsNotFound(err) {
			return scene{}, apperr.New(apperr.KindNotFound, "player not found")
		}
		return scene{}, fmt.Errorf("read player %d: %w", playerID, err)
	}
	if sc.ship, err = repos.PlayerShip.ReadActive(ctx, playerID); err != nil {
		if pgsql.IsNotFound(err) {
			return scene{}, apperr.New(apperr.KindNoActiveShip, "no active ship")
		}
		return scene{}, fmt.Errorf("read active ship: %w", err)
	}
	if sc.encounter, err = repos.PirateEncounter.Read(ctx, encounterID); err != nil {
		if pgsql.IsNotFound(err) {
			return scene{}, apperr.New(apperr.KindNotFound, "pirate encounter not found")
		}
		return scene{}, fmt.Errorf("read encounter %d: %w", encounterID, err)
	}
	if sc.encounter.LocationID != sc.player.LocationID {
		return scene{}, apperr.New(apperr.KindNotCoLocated, "there are no such pirates here")
	}

	minerals, err := repos.Mineral.List(ctx)
	if err != nil {
		return scene{}, fmt.Errorf("list minerals: %w", err)
	}
	plans, err := repos.Plan.List(ctx)
	if err != nil {
		return scene{}, fmt.Errorf("list plans: %w", err)
	}
	catalog := encounter.Catalog{
		Minerals: make([]encounter.Item, 0, len(minerals)),
		Plans:    make([]encounter.Item, 0, len(plans)),
	}
	for _, m := range minerals {
		catalog.Minerals = append(catalog.Minerals, encounter.Item{ID: m.ID, Name: m.Name})
	}
	for _, p := range plans {
		catalog.Plans = append(catalog.Plans, encounter.Item{ID: p.ID, Name: p.Name})
	}

	sc.fleet = encounter.GenerateFleet(encounter.Context{
		EncounterID:    sc.encounter.ID,
		EncounterCount: sc.encounter.EncounterCount,
		PlayerID:       sc.player.ID,
		Tier:           sc.encounter.Tier,
		FleetSize:      sc.encounter.FleetSize,
		CaptainName:    sc.encounter.CaptainName,
	}, catalog)
	return sc, nil
}

// Preview shows the fleet with a rough fight estimate and the escape odds.
// It changes nothing.
func (s *Service) Preview(ctx context.Context, playerID, encounterID int64) (PreviewResult, error) {
	var out PreviewResult
	err := s.store.InTx(ctx, func(repos pgsql.Repos) error {
		sc, err := s.load(ctx, repos, playerID, encounterID)
		if err != nil {
			return err
		}
		enemies := sc.fleet.Combatants()
		out = PreviewResult{
			Captain: sc.fleet.Captain,
			Tier:    sc.fleet.Tier,
			Fleet:   sc.fleet.Ships,
			Combat:  combat.PreviewFight(sc.combatant(), enemies),
			Escape:  encounter.AnalyzeEscape(sc.combatant(), enemies),
		}
		return nil
	})
	return out, err
}

// Escape tries to outrun the fleet. A pilot who fails is intercepted and
// fights in the same call.
func (s *Service) Escape(ctx context.Context, playerID, encounterID int64) (EscapeResult, error) {
	var out EscapeResult
	err := s.store.InTx(ctx, func(repos pgsql.Repos) error {
		sc, err := s.load(ctx, repos, playerID, encounterID)
		if err != nil {
			return err
		}
		out.Attempt = encounter.AttemptEscape(sc.combatant(), sc.fleet.Combatants())
		if out.Attempt.Success {
			out.Escaped = true
			return s.record(ctx, repos, sc)
		}
		fight, err := s.fight(ctx, repos, sc, out.Attempt.Message)
		if err != nil {
			return err
		}
		out.Fight = &fight
		return nil
	})
	if err != nil {
		return EscapeResult{}, err
	}
	s.logger.Infof("player %d escape from encounter %d: escaped=%v", playerID, encounterID, out.Escaped)
	return out, nil
}

// Fight engages the fleet. Victory pays XP and leaves the pirates' cargo as
// salvage; defeat destroys the pilot's ship.
func (s *Service) Fight(ctx context.Context, playerID, encounterID int64) (FightResult, error) {
	var out FightResult
	err := s.store.InTx(ctx, func(repos pgsql.Repos) error {
		sc, err := s.load(ctx, repos, playerID, encounterID)
		if err != nil {
			return err
		}
		out, err = s.fight(ctx, repos, sc, "")
		return err
	})
	if err != nil {
		return FightResult{}, err
	}
	s.logger.Infof("player %d fought encounter %d: victory=%v rounds=%d xp=%d",
		playerID, encounterID, out.Victory, out.Outcome.Rounds, out.XPEarned)
	return out, nil
}

func (s *Service) fight(ctx context.Context, repos pgsql.Repos, sc scene, prelude string) (FightResult, error) {
	startedAt := s.now().UTC()
	title := "⚔️  COMBAT INITIATED  ⚔️"
	if prelude != "" {
		title = "⚔️  " + prelude
	}
	outcome := s.resolver.WithSeed(s.seed()).Resolve(combat.Engagement{
		Title:       title,
		Attackers:   []combat.Combatant{sc.combatant()},
		Defenders:   sc.fleet.Combatants(),
		VictoryText: "🏆 VICTORY! All enemy ships destroyed!",
		DefeatText:  "☠️  DEFEAT - the pirates hold the lane.",
	})
	me := outcome.Attackers[0]
	out := FightResult{
		Victory:       outcome.Victor == combat.SideAttacker,
		HullRemaining: max(me.Hull, 0),
	}

	var lots []pgsql.SalvageLot
	if out.Victory {
		totalWeapons := 0
		for _, p := range sc.fleet.Ships {
			totalWeapons += p.Weapons
		}
		out.XPEarned = reward.PirateXP(len(sc.fleet.Ships), totalWeapons)
		player, err := repos.Player.Read(ctx, sc.player.ID)
		if err != nil {
			return FightResult{}, fmt.Errorf("read player %d: %w", sc.player.ID, err)
		}
		player.Experience += out.XPEarned
		if err := repos.Player.Update(ctx, player); err != nil {
			return FightResult{}, fmt.Errorf("award xp: %w", err)
		}
		outcome.Log = combat.Append(outcome.Log, combat.EntryInfo,
			fmt.Sprintf("Your remaining hull: %d/%d", me.Hull, me.MaxHull))
		outcome.Log = combat.Append(outcome.Log, combat.EntryReward, fmt.Sprintf("⭐ +%d XP earned!", out.XPEarned))

		out.Salvage, lots = salvageOf(sc.fleet)
	}

	if me.Hull > 0 {
		ship, err := repos.PlayerShip.Read(ctx, sc.ship.ID)
		if err != nil {
			return FightResult{}, fmt.Errorf("read ship %d: %w", sc.ship.ID, err)
		}
		ship.Hull = me.Hull
		if err := repos.PlayerShip.Update(ctx, ship); err != nil {
			return FightResult{}, fmt.Errorf("update hull: %w", err)
		}
	} else {
		dr, err := s.deaths.ProcessPlayerDeath(ctx, repos, sc.player.ID, sc.ship.ID)
		if err != nil {
			return FightResult{}, err
		}
		out.Death = &dr
		out.DeathMessage = death.GenerateDeathMessage(dr)
		outcome.Log = combat.Append(outcome.Log, combat.EntryDeath, "☠️  YOUR SHIP HAS BEEN DESTROYED!")
	}

	var victorID int64
	if out.Victory {
		victorID = sc.player.ID
	}
	saved, err := session.Save(ctx, repos, session.Record{
		CombatType:     pgsql.CombatPirate,
		LocationID:     sc.encounter.LocationID,
		EncounterID:    sc.encounter.ID,
		Outcome:        outcome,
		VictorPlayerID: victorID,
		Participants: []session.Participant{{
			PlayerID: sc.player.ID, ShipID: sc.ship.ID, Fighter: me, XP: out.XPEarned,
		}},
		Rewards:   map[string]any{"xp": out.XPEarned, "fleet_seed": sc.fleet.Seed},
		Salvage:   lots,
		StartedAt: startedAt,
		EndedAt:   s.now().UTC(),
	})
	if err != nil {
		return FightResult{}, err
	}
	out.SessionUUID = saved.UUID
	out.Outcome = outcome
	return out, s.record(ctx, repos, sc)
}

// salvageOf turns the destroyed fleet's holds into salvage lots.
func salvageOf(fleet encounter.Fleet) (*Salvage, []pgsql.SalvageLot) {
	summary := &Salvage{Minerals: []encounter.CargoStack{}, Plans: []encounter.Item{}}
	lots := make([]pgsql.SalvageLot, 0)
	index := map[int64]int{}
	seenPlan := map[int64]bool{}
	for _, ship := range fleet.Ships {
		for _, c := range ship.Cargo {
			lots = append(lots, pgsql.SalvageLot{
				Kind:      pgsql.SalvageMineral,
				MineralID: nullID(c.MineralID),
				Name:      c.Name,
				Quantity:  c.Quantity,
			})
			if i, ok := index[c.MineralID]; ok {
				summary.Minerals[i].Quantity += c.Quantity
				continue
			}
			index[c.MineralID] = len(summary.Minerals)
			summary.Minerals = append(summary.Minerals, c)
		}
		if ship.Plan != nil {
			lots = append(lots, pgsql.SalvageLot{
				Kind:     pgsql.SalvagePlan,
				PlanID:   nullID(ship.Plan.ID),
				Name:     ship.Plan.Name,
				Quantity: 1,
			})
			if !seenPlan[ship.Plan.ID] {
				seenPlan[ship.Plan.ID] = true
				summary.Plans = append(summary.Plans, *ship.Plan)
			}
		}
	}
	return summary, lots
}

// Surrender gives up the hold. Pirates may also board, take every plan
// and strip one or two components, though never below the ship's base.
func (s *Service) Surrender(ctx context.Context, playerID, encounterID int64) (SurrenderResult, error) {
	var out SurrenderResult
	err := s.store.InTx(ctx, func(repos pgsql.Repos) error {
		sc, err := s.load(ctx, repos, playerID, encounterID)
		if err != nil {
			return err
		}
		cargo, err := repos.Cargo.ListByShip(ctx, sc.ship.ID)
		if err != nil {
			return fmt.Errorf("list cargo: %w", err)
		}
		if _, err := repos.Cargo.DeleteByShip(ctx, sc.ship.ID); err != nil {
			return fmt.Errorf("jettison cargo: %w", err)
		}
		out = SurrenderResult{CargoLost: len(cargo), Downgrades: []Downgrade{}}

		rng := rand.New(rand.NewSource(s.seed()))
		if rng.Intn(100) < s.stealPercent {
			out.UpgradesStolen = true
			if out.PlansStolen, err = repos.PlayerPlan.DeleteByPlayer(ctx, sc.player.ID); err != nil {
				return fmt.Errorf("steal plans: %w", err)
			}
			ship := sc.ship
			picks := rng.Perm(len(pgsql.Components))[:1+rng.Intn(2)]
			for _, i := range picks {
				out.Downgrades = append(out.Downgrades, downgrade(&ship, pgsql.Components[i], 1+rng.Intn(3)))
			}
			if err := repos.PlayerShip.Update(ctx, ship); err != nil {
				return fmt.Errorf("update ship: %w", err)
			}
		}
		out.Message = surrenderMessage(out, sc.fleet.Captain)
		return s.record(ctx, repos, sc)
	})
	if err != nil {
		return SurrenderResult{}, err
	}
	s.logger.Infof("player %d surrendered to encounter %d: cargo lost %d, upgrades stolen %v",
		playerID, encounterID, out.CargoLost, out.UpgradesStolen)
	return out, nil
}

func downgrade(ship *pgsql.PlayerShip, component string, amount int) Downgrade {
	cur, base, _ := ship.Component(component)
	from := *cur
	to := max(base, from-amount)
	if to > from {
		to = from
	}
	*cur = to
	d := Downgrade{Component: component, From: from, To: to, Amount: from - to}
	if component == pgsql.ComponentMaxHull && d.Amount > 0 {
		ship.Hull = max(1, ship.Hull-d.Amount)
	}
	if ship.Hull > ship.MaxHull {
		ship.Hull = ship.MaxHull
	}
	return d
}

func surrenderMessage(r SurrenderResult, captain string) string {
	if captain == "" {
		captain = "the pirates"
	}
	lines := []string{
		fmt.Sprintf("You surrender to %s.", captain),
		fmt.Sprintf("Your cargo bay is emptied (%d items jettisoned).", r.CargoLost),
	}
	if !r.UpgradesStolen {
		lines = append(lines, "", "The pirates let you go with a warning...this time.")
		return strings.Join(lines, "\n")
	}
	lines = append(lines, "", "The pirates board your ship and strip valuable components!")
	if r.PlansStolen > 0 {
		lines = append(lines, fmt.Sprintf("  - %d upgrade plans stolen", r.PlansStolen))
	}
	for _, d := range r.Downgrades {
		if d.Amount > 0 {
			name := strings.ReplaceAll(d.Component, "_", " ")
			name = strings.ToUpper(name[:1]) + name[1:]
			lines = append(lines, fmt.Sprintf("  - %s: %d → %d (-%d)", name, d.From, d.To, d.Amount))
		}
	}
	return strings.Join(lines, "\n")
}

// record bumps the encounter count, which rolls a fresh fleet next time.
func (s *Service) record(ctx context.Context, repos pgsql.Repos, sc scene) error {
	if err := repos.PirateEncounter.MarkEncountered(ctx, sc.encounter.ID, s.now().UTC()); err != nil {
		return fmt.Errorf("record encounter %d: %w", sc.encounter.ID, err)
	}
	return nil
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id > 0}
}
