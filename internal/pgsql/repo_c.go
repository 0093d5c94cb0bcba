package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// c-layer contracts exposed to other packages. Reads of a missing row return
// sql.ErrNoRows; use IsNotFound to test for it.

type PlayerRepo interface {
	Create(ctx context.Context, p Player) (int64, error)
	Read(ctx context.Context, id int64) (Player, error)
	Update(ctx context.Context, p Player) error
}

type PlayerShipRepo interface {
	Create(ctx context.Context, s PlayerShip) (int64, error)
	Read(ctx context.Context, id int64) (PlayerShip, error)
	// ReadActive returns the player's active, operational ship.
	ReadActive(ctx context.Context, playerID int64) (PlayerShip, error)
	Update(ctx context.Context, s PlayerShip) error
	Delete(ctx context.Context, id int64) error
}

type MineralRepo interface {
	Create(ctx context.Context, m Mineral) (int64, error)
	Read(ctx context.Context, id int64) (Mineral, error)
	List(ctx context.Context) ([]Mineral, error)
}

type PlanRepo interface {
	Create(ctx context.Context, p Plan) (int64, error)
	Read(ctx context.Context, id int64) (Plan, error)
	List(ctx context.Context) ([]Plan, error)
}

type CargoRepo interface {
	ListByShip(ctx context.Context, shipID int64) ([]CargoItem, error)
	// Add increases the quantity of a mineral stack, creating it if needed.
	Add(ctx context.Context, shipID, mineralID int64, quantity int) error
	DeleteByShip(ctx context.Context, shipID int64) (int64, error)
}

type PlayerPlanRepo interface {
	ListByPlayer(ctx context.Context, playerID int64) ([]Plan, error)
	Has(ctx context.Context, playerID, planID int64) (bool, error)
	// Grant is a no-op when the player already owns the plan.
	Grant(ctx context.Context, playerID, planID int64, at time.Time) error
	DeleteByPlayer(ctx context.Context, playerID int64) (int64, error)
}

type TradingHubRepo interface {
	Create(ctx context.Context, h TradingHub) (int64, error)
	Read(ctx context.Context, id int64) (TradingHub, error)
	// FirstWithShipStock returns the lowest-id active hub in the galaxy
	// that has at least one ship for sale.
	FirstWithShipStock(ctx context.Context, galaxyID int64) (TradingHub, error)
	// FirstActive returns the lowest-id active hub, preferring the galaxy.
	FirstActive(ctx context.Context, galaxyID int64) (TradingHub, error)
}

type PirateEncounterRepo interface {
	Create(ctx context.Context, e PirateEncounter) (int64, error)
	Read(ctx context.Context, id int64) (PirateEncounter, error)
	ReadByLocation(ctx context.Context, locationID int64) (PirateEncounter, error)
	MarkEncountered(ctx context.Context, id int64, at time.Time) error
}

type ColonyRepo interface {
	Create(ctx context.Context, c Colony) (int64, error)
	Read(ctx context.Context, id int64) (Colony, error)
	Update(ctx context.Context, c Colony) error
}

type ColonyBuildingRepo interface {
	Create(ctx context.Context, b ColonyBuilding) (int64, error)
	ListByColony(ctx context.Context, colonyID int64) ([]ColonyBuilding, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

type CombatSessionRepo interface {
	Create(ctx context.Context, s CombatSession) (int64, error)
	Read(ctx context.Context, id int64) (CombatSession, error)
	ReadByUUID(ctx context.Context, uuid string) (CombatSession, error)
	// MarkSalvageCollected stamps the session once; it reports false when
	// salvage had already been collected.
	MarkSalvageCollected(ctx context.Context, id int64, at time.Time) (bool, error)
}

type CombatParticipantRepo interface {
	Create(ctx context.Context, p CombatParticipant) (int64, error)
	ListBySession(ctx context.Context, sessionID int64) ([]CombatParticipant, error)
}

type SalvageLotRepo interface {
	Create(ctx context.Context, l SalvageLot) (int64, error)
	ListBySession(ctx context.Context, sessionID int64) ([]SalvageLot, error)
}

type ChallengeRepo interface {
	Create(ctx context.Context, c PvPChallenge) (int64, error)
	Read(ctx context.Context, id int64) (PvPChallenge, error)
	ReadByUUID(ctx context.Context, uuid string) (PvPChallenge, error)
	// ListPendingForPlayer returns pending challenges the player issued or received.
	ListPendingForPlayer(ctx context.Context, playerID int64) ([]PvPChallenge, error)
	// TransitionStatus moves a challenge from one status to another and
	// reports false when it was no longer in the from status.
	TransitionStatus(ctx context.Context, id int64, from, to string, at time.Time) (bool, error)
	AttachSession(ctx context.Context, id, sessionID int64) error
}

type InvitationRepo interface {
	Create(ctx context.Context, inv PvPTeamInvitation) (int64, error)
	Read(ctx context.Context, id int64) (PvPTeamInvitation, error)
	ListByChallenge(ctx context.Context, challengeID int64) ([]PvPTeamInvitation, error)
	TransitionStatus(ctx context.Context, id int64, from, to string, at time.Time) (bool, error)
}

type Repos struct {
	Player            PlayerRepo
	PlayerShip        PlayerShipRepo
	Mineral           MineralRepo
	Plan              PlanRepo
	Cargo             CargoRepo
	PlayerPlan        PlayerPlanRepo
	TradingHub        TradingHubRepo
	PirateEncounter   PirateEncounterRepo
	Colony            ColonyRepo
	ColonyBuilding    ColonyBuildingRepo
	CombatSession     CombatSessionRepo
	CombatParticipant CombatParticipantRepo
	SalvageLot        SalvageLotRepo
	Challenge         ChallengeRepo
	Invitation        InvitationRepo
}

func NewRepos(db DBTX) Repos {
	return Repos{
		Player:            NewPlayerRepoI(db),
		PlayerShip:        NewPlayerShipRepoI(db),
		Mineral:           NewMineralRepoI(db),
		Plan:              NewPlanRepoI(db),
		Cargo:             NewCargoRepoI(db),
		PlayerPlan:        NewPlayerPlanRepoI(db),
		TradingHub:        NewTradingHubRepoI(db),
		PirateEncounter:   NewPirateEncounterRepoI(db),
		Colony:            NewColonyRepoI(db),
		ColonyBuilding:    NewColonyBuildingRepoI(db),
		CombatSession:     NewCombatSessionRepoI(db),
		CombatParticipant: NewCombatParticipantRepoI(db),
		SalvageLot:        NewSalvageLotRepoI(db),
		Challenge:         NewChallengeRepoI(db),
		Invitation:        NewInvitationRepoI(db),
	}
}

// Store hands out repositories and runs work atomically. Every mutation made
// through the Repos passed to fn is committed together or not at all.
type Store interface {
	Repos() Repos
	InTx(ctx context.Context, fn func(Repos) error) error
}

func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
