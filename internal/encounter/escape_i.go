package encounter

import (
	"fmt"

	"spacewars/internal/combat"
)

type EscapeAnalysis struct {
	CanEscape      bool `json:"can_escape"`
	YourSpeed      int  `json:"your_speed"`
	YourWarp       int  `json:"your_warp"`
	TheirMaxSpeed  int  `json:"their_max_speed"`
	TheirMaxWarp   int  `json:"their_max_warp"`
	SpeedAdvantage int  `json:"speed_advantage"`
	WarpAdvantage  int  `json:"warp_advantage"`
	// EscapeChance is for display only: 100 when both stats win, 0 when
	// both lose, 50 otherwise.
	EscapeChance int `json:"escape_chance"`
}

// AnalyzeEscape reports whether ship outruns every opponent. Escape needs
// strictly higher speed and strictly higher warp than the fastest opponent.
func AnalyzeEscape(ship combat.Combatant, opponents []combat.Combatant) EscapeAnalysis {
	a := EscapeAnalysis{YourSpeed: ship.Speed, YourWarp: ship.WarpDrive}
	for _, o := range opponents {
		if o.Speed > a.TheirMaxSpeed {
			a.TheirMaxSpeed = o.Speed
		}
		if o.WarpDrive > a.TheirMaxWarp {
			a.TheirMaxWarp = o.WarpDrive
		}
	}
	a.SpeedAdvantage = ship.Speed - a.TheirMaxSpeed
	a.WarpAdvantage = ship.WarpDrive - a.TheirMaxWarp

	faster := a.SpeedAdvantage > 0
	warpier := a.WarpAdvantage > 0
	a.CanEscape = faster && warpier
	switch {
	case faster && warpier:
		a.EscapeChance = 100
	case !faster && !warpier:
		a.EscapeChance = 0
	default:
		a.EscapeChance = 50
	}
	return a
}

type EscapeAttempt struct {
	Success     bool           `json:"success"`
	Message     string         `json:"message"`
	Interceptor string         `json:"interceptor,omitempty"`
	Analysis    EscapeAnalysis `json:"analysis"`
}

// AttemptEscape resolves a flight attempt. On failure the caller must force
// the pilot into combat.
func AttemptEscape(ship combat.Combatant, opponents []combat.Combatant) EscapeAttempt {
	analysis := AnalyzeEscape(ship, opponents)
	if len(opponents) == 0 {
		return EscapeAttempt{Success: true, Message: "No pirates to escape from.", Analysis: analysis}
	}
	if analysis.CanEscape {
		return EscapeAttempt{
			Success:  true,
			Message:  "Your ship's superior speed and warp capabilities allow you to escape!",
			Analysis: analysis,
		}
	}

	for _, o := range opponents {
		slowerShip := ship.Speed <= o.Speed
		if slowerShip || ship.WarpDrive <= o.WarpDrive {
			reason := "warp drive"
			if slowerShip {
				reason = "speed"
			}
			return EscapeAttempt{
				Message:     fmt.Sprintf("%s intercepts you! Their superior %s prevents your escape.", o.Name, reason),
				Interceptor: o.Name,
				Analysis:    analysis,
			}
		}
	}
	return EscapeAttempt{Message: "Escape failed.", Analysis: analysis}
}
