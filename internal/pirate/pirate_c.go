// Package pirate handles a pilot meeting a pirate fleet on a lane: preview,
// flight, surrender and battle.
package pirate

import (
	"time"

	"spacewars/internal/combat"
	"spacewars/internal/death"
	"spacewars/internal/encounter"
)

// DefaultStealPercent is the chance that pirates strip upgrades from a pilot
// who surrenders.
const DefaultStealPercent = 25

type Options struct {
	Now  func() time.Time
	Seed func() int64
	// StealPercent overrides DefaultStealPercent when positive.
	StealPercent int
}

type PreviewResult struct {
	Captain string                   `json:"captain"`
	Tier    int                      `json:"tier"`
	Fleet   []encounter.PirateShip   `json:"fleet"`
	Combat  combat.Preview           `json:"combat"`
	Escape  encounter.EscapeAnalysis `json:"escape"`
}

type Salvage struct {
	Minerals []encounter.CargoStack `json:"minerals"`
	Plans    []encounter.Item       `json:"plans"`
}

type FightResult struct {
	SessionUUID   string         `json:"combat_session"`
	Victory       bool           `json:"victory"`
	Outcome       combat.Outcome `json:"outcome"`
	XPEarned      int64          `json:"xp_earned"`
	HullRemaining int            `json:"player_hull_remaining"`
	Salvage       *Salvage       `json:"salvage,omitempty"`
	Death         *death.Result  `json:"death,omitempty"`
	DeathMessage  string         `json:"death_message,omitempty"`
}

type EscapeResult struct {
	Escaped bool                    `json:"escaped"`
	Attempt encounter.EscapeAttempt `json:"attempt"`
	// Fight is the battle forced on a pilot who failed to get away.
	Fight *FightResult `json:"fight,omitempty"`
}

type Downgrade struct {
	Component string `json:"component"`
	From      int    `json:"from"`
	To        int    `json:"to"`
	Amount    int    `json:"amount"`
}

type SurrenderResult struct {
	CargoLost      int         `json:"cargo_lost"`
	PlansStolen    int64       `json:"plans_stolen"`
	UpgradesStolen bool        `json:"upgrades_stolen"`
	Downgrades     []Downgrade `json:"components_downgraded"`
	Message        string      `json:"message"`
}
