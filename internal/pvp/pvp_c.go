// Package pvp runs player challenges: issue, team up, accept and settle.
package pvp

import (
	"time"

	"spacewars/internal/combat"
	"spacewars/internal/death"
	"spacewars/internal/pgsql"
	"spacewars/internal/reward"
)

const (
	DefaultChallengeTTL = 5 * time.Minute
	MaxWager            = 1_000_000
	MaxTeamSize         = 10
)

type IssueRequest struct {
	ChallengerID int64
	TargetID     int64
	Message      string
	Wager        int64
	MaxTeamSize  int
}

type InviteRequest struct {
	ChallengeUUID string
	InviterID     int64
	InviteeID     int64
	Side          string
}

// Challenge is a challenge together with its team invitations.
type Challenge struct {
	pgsql.PvPChallenge
	Invitations []pgsql.PvPTeamInvitation `json:"invitations"`
}

// Result is the settled outcome of an accepted challenge.
type Result struct {
	ChallengeUUID string          `json:"challenge"`
	SessionUUID   string          `json:"combat_session"`
	Team          bool            `json:"team"`
	Outcome       combat.Outcome  `json:"outcome"`
	XPPerVictor   int64           `json:"xp_per_victor"`
	Pot           int64           `json:"pot"`
	Payouts       []reward.Payout `json:"payouts"`
	Deaths        []death.Result  `json:"deaths"`
	DeathMessages []string        `json:"death_messages"`
}

type Options struct {
	ChallengeTTL time.Duration
	Now          func() time.Time
	// Seed returns the RNG seed for the next fight.
	Seed func() int64
}
