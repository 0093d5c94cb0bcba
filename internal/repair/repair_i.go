package repair

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"spacewars/internal/apperr"
	ilog "spacewars/internal/log"
	"spacewars/internal/pgsql"
)

type Service struct {
	store  pgsql.Store
	logger *zap.SugaredLogger
}

func NewService(store pgsql.Store) *Service {
	return &Service{store: store, logger: ilog.Component("repair")}
}

// Estimate prices every repair the ship currently needs.
func Estimate(ship pgsql.PlayerShip) Quote {
	q := Quote{ShipID: ship.ID, Components: []Deficit{}}
	if ship.Hull < ship.MaxHull {
		q.HullDamage = ship.MaxHull - ship.Hull
		q.HullCost = int64(q.HullDamage) * HullCostPerPoint
	}
	for _, name := range pgsql.Components {
		cur, base, _ := ship.Component(name)
		if *cur >= base {
			continue
		}
		d := Deficit{
			Component: name,
			Name:      displayNames[name],
			Current:   *cur,
			ShouldBe:  base,
			Deficit:   base - *cur,
		}
		d.Cost = int64(d.Deficit) * ComponentCostPerLevel
		q.Components = append(q.Components, d)
		q.ComponentCost += d.Cost
	}
	q.Total = q.HullCost + q.ComponentCost
	return q
}

func (s *Service) Quote(ctx context.Context, playerID int64) (Quote, error) {
	var q Quote
	err := s.store.InTx(ctx, func(repos pgsql.Repos) error {
		ship, err := activeShip(ctx, repos, playerID)
		if err != nil {
			return err
		}
		q = Estimate(ship)
		return nil
	})
	return q, err
}

// Repair fixes the hull, all components, everything, or one named
// component, charging the quoted price.
func (s *Service) Repair(ctx context.Context, playerID int64, target string) (Result, error) {
	target = strings.ToLower(strings.TrimSpace(target))
	if target == "" {
		target = TargetAll
	}
	if !validTarget(target) {
		return Result{}, apperr.WithMetadata(apperr.KindInvalidComponent,
			fmt.Sprintf("unknown repair target %q", target),
			map[string]string{"valid": strings.Join(append([]string{TargetHull, TargetComponents, TargetAll}, pgsql.Components...), ",")})
	}

	var out Result
	err := s.store.InTx(ctx, func(repos pgsql.Repos) error {
		player, err := repos.Player.Read(ctx, playerID)
		if err != nil {
			if pgsql.IsNotFound(err) {
				return apperr.New(apperr.KindNotFound, "player not found")
			}
			return fmt.Errorf("read player %d: %w", playerID, err)
		}
		ship, err := activeShip(ctx, repos, playerID)
		if err != nil {
			return err
		}

		q := Estimate(ship)
		hull := target == TargetHull || target == TargetAll
		var fix []Deficit
		switch target {
		case TargetHull:
		case TargetComponents, TargetAll:
			fix = q.Components
		default:
			for _, d := range q.Components {
				if d.Component == target {
					fix = append(fix, d)
				}
			}
		}
		if hull && !q.NeedsHull() {
			hull = false
		}
		if !hull && len(fix) == 0 {
			return apperr.New(apperr.KindInvalidRequest, nothingMessage(target))
		}

		var cost int64
		if hull {
			cost += q.HullCost
		}
		for _, d := range fix {
			cost += d.Cost
		}
		if player.Credits < cost {
			return apperr.WithMetadata(apperr.KindInsufficientCredits,
				fmt.Sprintf("repairs cost %d credits, you have %d", cost, player.Credits),
				map[string]string{"cost": strconv.FormatInt(cost, 10), "credits": strconv.FormatInt(player.Credits, 10)})
		}

		out = Result{Target: target, Cost: cost, ComponentsRepaired: []string{}}
		var lines []string
		if hull {
			out.HullRepaired = q.HullDamage
			ship.Hull = ship.MaxHull
			lines = append(lines, fmt.Sprintf("Hull repaired: %d points restored", q.HullDamage))
		}
		for _, d := range fix {
			cur, _, _ := ship.Component(d.Component)
			*cur = d.ShouldBe
			out.ComponentsRepaired = append(out.ComponentsRepaired, d.Name)
		}
		if len(fix) > 0 {
			lines = append(lines, "Components repaired: "+strings.Join(out.ComponentsRepaired, ", "))
		}
		out.Message = strings.Join(lines, "\n")

		player.Credits -= cost
		out.CreditsRemaining = player.Credits
		if err := repos.Player.Update(ctx, player); err != nil {
			return fmt.Errorf("charge repairs: %w", err)
		}
		if err := repos.PlayerShip.Update(ctx, ship); err != nil {
			return fmt.Errorf("update ship: %w", err)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	s.logger.Infof("player %d repaired %s for %d credits", playerID, target, out.Cost)
	return out, nil
}

func validTarget(target string) bool {
	switch target {
	case TargetHull, TargetComponents, TargetAll:
		return true
	}
	_, ok := displayNames[target]
	return ok
}

func nothingMessage(target string) string {
	switch target {
	case TargetHull:
		return "hull is not damaged"
	case TargetComponents:
		return "no components need repair"
	case TargetAll:
		return "ship is already in perfect condition"
	}
	return fmt.Sprintf("%s is not below its base value", displayNames[target])
}

func activeShip(ctx context.Context, repos pgsql.Repos, playerID int64) (pgsql.PlayerShip, error) {
	ship, err := repos.PlayerShip.ReadActive(ctx, playerID)
	if err != nil {
		if pgsql.IsNotFound(err) {
			return pgsql.PlayerShip{}, apperr.New(apperr.KindNoActiveShip, "no active ship")
		}
		return pgsql.PlayerShip{}, fmt.Errorf("read active ship: %w", err)
	}
	return ship, nil
}
