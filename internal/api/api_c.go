// Package api exposes the combat services over form-encoded HTTP.
package api

import (
	"context"

	"spacewars/internal/colony"
	"spacewars/internal/pgsql"
	"spacewars/internal/pirate"
	"spacewars/internal/pvp"
	"spacewars/internal/repair"
	"spacewars/internal/salvage"
	"spacewars/internal/session"
)

// Response is the envelope of every answer. Data is omitted on errors, Kind
// and Message on success.
type Response struct {
	Status  string `json:"status"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type PirateService interface {
	Preview(ctx context.Context, playerID, encounterID int64) (pirate.PreviewResult, error)
	Escape(ctx context.Context, playerID, encounterID int64) (pirate.EscapeResult, error)
	Fight(ctx context.Context, playerID, encounterID int64) (pirate.FightResult, error)
	Surrender(ctx context.Context, playerID, encounterID int64) (pirate.SurrenderResult, error)
}

type SalvageService interface {
	List(ctx context.Context, playerID int64, sessionUUID string) (salvage.Listing, error)
	Transfer(ctx context.Context, playerID int64, sessionUUID string, sel salvage.Selection) (salvage.TransferResult, error)
}

type PvPService interface {
	Issue(ctx context.Context, req pvp.IssueRequest) (pgsql.PvPChallenge, error)
	Accept(ctx context.Context, playerID int64, challengeUUID string) (pvp.Result, error)
	Decline(ctx context.Context, playerID int64, challengeUUID string) (pgsql.PvPChallenge, error)
	Cancel(ctx context.Context, playerID int64, challengeUUID string) (pgsql.PvPChallenge, error)
	Invite(ctx context.Context, req pvp.InviteRequest) (pgsql.PvPTeamInvitation, error)
	AcceptInvitation(ctx context.Context, playerID, invitationID int64) (pgsql.PvPTeamInvitation, error)
	DeclineInvitation(ctx context.Context, playerID, invitationID int64) (pgsql.PvPTeamInvitation, error)
	Get(ctx context.Context, playerID int64, challengeUUID string) (pvp.Challenge, error)
	ListPending(ctx context.Context, playerID int64) ([]pvp.Challenge, error)
}

type ColonyService interface {
	Attack(ctx context.Context, req colony.AttackRequest) (colony.AttackResult, error)
}

type SessionService interface {
	Get(ctx context.Context, viewerID int64, sessionUUID string) (session.View, error)
}

type RepairService interface {
	Quote(ctx context.Context, playerID int64) (repair.Quote, error)
	Repair(ctx context.Context, playerID int64, target string) (repair.Result, error)
}

// Services groups the backends a HandlerI dispatches to. A nil service
// leaves its routes unregistered.
type Services struct {
	Pirates  PirateService
	Salvage  SalvageService
	PvP      PvPService
	Colonies ColonyService
	Sessions SessionService
	Repairs  RepairService
}
