// Package death applies the permanent consequences of losing a ship.
package death

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"spacewars/internal/apperr"
	ilog "spacewars/internal/log"
	"spacewars/internal/pgsql"
)

// DefaultMinimumCredits is the balance a pilot is topped up to after death.
const DefaultMinimumCredits = 5000

// Respawn rules, in priority order.
const (
	RespawnLastHub   = "last_hub"
	RespawnGalaxyHub = "galaxy_hub"
	RespawnAnyHub    = "any_hub"
	RespawnNone      = "none"
)

type Losses struct {
	ShipName            string `json:"ship_name"`
	ShipClass           string `json:"ship_class"`
	CargoItemsLost      int    `json:"cargo_items_lost"`
	CargoUnitsLost      int    `json:"cargo_units_lost"`
	EstimatedCargoValue int64  `json:"estimated_cargo_value"`
	PlansLost           int    `json:"upgrade_plans_lost"`
	UpgradeLevelsLost   int    `json:"upgrade_levels_lost"`
}

// Result describes one pilot's death. It is computed, applied and returned;
// it is never stored on its own.
type Result struct {
	PlayerID        int64             `json:"player_id"`
	Losses          Losses            `json:"losses"`
	CreditsRetained int64             `json:"credits_retained"`
	CreditsGranted  int64             `json:"credits_granted"`
	CreditsAfter    int64             `json:"credits_after"`
	XPRetained      int64             `json:"xp_retained"`
	Respawn         *pgsql.TradingHub `json:"respawn,omitempty"`
	RespawnRule     string            `json:"respawn_rule"`
	RespawnHasShips bool              `json:"respawn_has_ships"`
}

type Options struct {
	MinimumCredits int64
}

type Service struct {
	minimumCredits int64
	logger         *zap.SugaredLogger
}

func NewService(opts Options) *Service {
	if opts.MinimumCredits <= 0 {
		opts.MinimumCredits = DefaultMinimumCredits
	}
	return &Service{minimumCredits: opts.MinimumCredits, logger: ilog.Component("death")}
}

// ProcessPlayerDeath destroys the ship with its cargo, strips every plan the
// player owns, tops credits up to the minimum and moves the pilot to a hub.
// Credits and experience are otherwise untouched. It must run on the Repos
// of the caller's transaction so a failure rolls back the whole combat.
func (s *Service) ProcessPlayerDeath(ctx context.Context, repos pgsql.Repos, playerID, shipID int64) (Result, error) {
	player, err := repos.Player.Read(ctx, playerID)
	if err != nil {
		if pgsql.IsNotFound(err) {
			return Result{}, apperr.New(apperr.KindNotFound, "player not found")
		}
		return Result{}, fmt.Errorf("read player %d: %w", playerID, err)
	}
	ship, err := repos.PlayerShip.Read(ctx, shipID)
	if err != nil {
		if pgsql.IsNotFound(err) {
			return Result{}, apperr.New(apperr.KindNotFound, "ship not found")
		}
		return Result{}, fmt.Errorf("read ship %d: %w", shipID, err)
	}
	if ship.PlayerID != playerID {
		return Result{}, apperr.WithMetadata(apperr.KindForbidden, "ship does not belong to player",
			map[string]string{"ship_id": fmt.Sprint(shipID)})
	}

	res := Result{
		PlayerID:        playerID,
		CreditsRetained: player.Credits,
		XPRetained:      player.Experience,
	}
	if res.Losses, err = s.tallyLosses(ctx, repos, player.ID, ship); err != nil {
		return Result{}, err
	}

	// cargo rows go before the ship that owns them
	if _, err := repos.Cargo.DeleteByShip(ctx, ship.ID); err != nil {
		return Result{}, fmt.Errorf("delete cargo of ship %d: %w", ship.ID, err)
	}
	if err := repos.PlayerShip.Delete(ctx, ship.ID); err != nil {
		return Result{}, fmt.Errorf("delete ship %d: %w", ship.ID, err)
	}
	if _, err := repos.PlayerPlan.DeleteByPlayer(ctx, player.ID); err != nil {
		return Result{}, fmt.Errorf("strip plans of player %d: %w", player.ID, err)
	}

	if player.Credits < s.minimumCredits {
		res.CreditsGranted = s.minimumCredits - player.Credits
		player.Credits = s.minimumCredits
	}
	res.CreditsAfter = player.Credits

	hub, rule, err := s.chooseRespawn(ctx, repos, player)
	if err != nil {
		return Result{}, err
	}
	res.RespawnRule = rule
	if hub != nil {
		res.Respawn = hub
		res.RespawnHasShips = hub.ShipStock > 0
		player.LocationID = hub.LocationID
		player.LastHubID.Int64, player.LastHubID.Valid = hub.ID, true
	}

	if err := repos.Player.Update(ctx, player); err != nil {
		return Result{}, fmt.Errorf("update player %d: %w", player.ID, err)
	}

	s.logger.Infof("player %d lost ship %d (%s); granted %d credits; respawn rule %s",
		player.ID, ship.ID, ship.Name, res.CreditsGranted, rule)
	return res, nil
}

func (s *Service) tallyLosses(ctx context.Context, repos pgsql.Repos, playerID int64, ship pgsql.PlayerShip) (Losses, error) {
	l := Losses{ShipName: ship.Name, ShipClass: ship.Class}
	if l.ShipClass == "" {
		l.ShipClass = "Unknown"
	}

	cargo, err := repos.Cargo.ListByShip(ctx, ship.ID)
	if err != nil {
		return Losses{}, fmt.Errorf("list cargo of ship %d: %w", ship.ID, err)
	}
	l.CargoItemsLost = len(cargo)
	for _, item := range cargo {
		l.CargoUnitsLost += item.Quantity
		m, err := repos.Mineral.Read(ctx, item.MineralID)
		if err != nil {
			return Losses{}, fmt.Errorf("read mineral %d: %w", item.MineralID, err)
		}
		l.EstimatedCargoValue += int64(item.Quantity) * m.BasePrice
	}

	plans, err := repos.PlayerPlan.ListByPlayer(ctx, playerID)
	if err != nil {
		return Losses{}, fmt.Errorf("list plans of player %d: %w", playerID, err)
	}
	l.PlansLost = len(plans)

	for _, d := range [][2]int{
		{ship.Weapons, ship.BaseWeapons},
		{ship.Sensors, ship.BaseSensors},
		{ship.WarpDrive, ship.BaseWarpDrive},
		{ship.MaxHull, ship.BaseMaxHull},
	} {
		if d[0] > d[1] {
			l.UpgradeLevelsLost += d[0] - d[1]
		}
	}
	return l, nil
}

// chooseRespawn prefers the last visited hub when it sells ships, then any
// galaxy hub selling ships, then any active hub at all.
func (s *Service) chooseRespawn(ctx context.Context, repos pgsql.Repos, player pgsql.Player) (*pgsql.TradingHub, string, error) {
	if player.LastHubID.Valid {
		hub, err := repos.TradingHub.Read(ctx, player.LastHubID.Int64)
		switch {
		case err == nil:
			if hub.IsActive && hub.ShipStock > 0 {
				return &hub, RespawnLastHub, nil
			}
		case !pgsql.IsNotFound(err):
			return nil, "", fmt.Errorf("read hub %d: %w", player.LastHubID.Int64, err)
		}
	}

	hub, err := repos.TradingHub.FirstWithShipStock(ctx, player.GalaxyID)
	if err == nil {
		return &hub, RespawnGalaxyHub, nil
	}
	if !pgsql.IsNotFound(err) {
		return nil, "", fmt.Errorf("find hub with ships: %w", err)
	}

	hub, err = repos.TradingHub.FirstActive(ctx, player.GalaxyID)
	if err == nil {
		return &hub, RespawnAnyHub, nil
	}
	if !pgsql.IsNotFound(err) {
		return nil, "", fmt.Errorf("find active hub: %w", err)
	}
	s.logger.Warnf("no trading hub available to respawn player %d", player.ID)
	return nil, RespawnNone, nil
}

const banner = "═══════════════════════════════════════════════"

// GenerateDeathMessage renders the escape-pod narrative shown to the pilot.
func GenerateDeathMessage(r Result) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line(banner)
	line("           SHIP DESTROYED - ESCAPE POD LAUNCHED")
	line(banner)
	line("")
	line("Your ship, the %s (%s), has been destroyed!", r.Losses.ShipName, r.Losses.ShipClass)
	line("")
	line("LOSSES:")
	line("  Cargo Items: %d items, %d units (~$%s)", r.Losses.CargoItemsLost, r.Losses.CargoUnitsLost, formatCredits(r.Losses.EstimatedCargoValue))
	line("  Upgrade Plans: %d plans", r.Losses.PlansLost)
	if r.Losses.UpgradeLevelsLost > 0 {
		line("  Ship Upgrades: %d levels", r.Losses.UpgradeLevelsLost)
	}
	line("")
	line("RETAINED:")
	line("  Credits: $%s", formatCredits(r.CreditsRetained))
	line("  Experience: %d XP", r.XPRetained)
	if r.CreditsGranted > 0 {
		line("")
		line("EMERGENCY GRANT: $%s issued by the Pilots' Guild (balance now $%s)", formatCredits(r.CreditsGranted), formatCredits(r.CreditsAfter))
	}
	line("")
	if r.Respawn != nil {
		line("Your escape pod drifts to %s...", r.Respawn.Name)
		if r.RespawnHasShips {
			line("Ships are available for purchase there. You'll need a new ship to continue your journey.")
		} else {
			line("No ships are for sale there right now. Check other hubs for a replacement.")
		}
	} else {
		line("Your escape pod is drifting in space...")
		line("No safe haven found!")
	}
	b.WriteString(banner)
	return b.String()
}

func formatCredits(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := fmt.Sprint(n)
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
