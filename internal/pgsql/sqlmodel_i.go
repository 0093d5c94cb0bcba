package pgsql

import (
	"database/sql"
	"time"
)

type Player struct {
	ID         int64         `db:"id"`
	Name       string        `db:"name"`
	Credits    int64         `db:"credits"`
	Experience int64         `db:"experience"`
	Level      int           `db:"level"`
	GalaxyID   int64         `db:"galaxy_id"`
	LocationID int64         `db:"location_id"`
	LastHubID  sql.NullInt64 `db:"last_hub_id"`
	CreatedAt  time.Time     `db:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at"`
}

// Ship status values.
const (
	ShipOperational = "operational"
	ShipDestroyed   = "destroyed"
)

type PlayerShip struct {
	ID            int64     `db:"id"`
	PlayerID      int64     `db:"player_id"`
	Name          string    `db:"name"`
	Class         string    `db:"class"`
	Hull          int       `db:"hull"`
	MaxHull       int       `db:"max_hull"`
	Weapons       int       `db:"weapons"`
	Sensors       int       `db:"sensors"`
	Speed         int       `db:"speed"`
	WarpDrive     int       `db:"warp_drive"`
	CargoHold     int       `db:"cargo_hold"`
	BaseMaxHull   int       `db:"base_max_hull"`
	BaseWeapons   int       `db:"base_weapons"`
	BaseSensors   int       `db:"base_sensors"`
	BaseWarpDrive int       `db:"base_warp_drive"`
	IsActive      bool      `db:"is_active"`
	Status        string    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// Ship components that can be upgraded, stolen or restored.
const (
	ComponentWeapons   = "weapons"
	ComponentSensors   = "sensors"
	ComponentWarpDrive = "warp_drive"
	ComponentMaxHull   = "max_hull"
)

var Components = []string{ComponentWeapons, ComponentSensors, ComponentWarpDrive, ComponentMaxHull}

// Component returns a pointer to the named component and its base value.
func (s *PlayerShip) Component(name string) (*int, int, bool) {
	switch name {
	case ComponentWeapons:
		return &s.Weapons, s.BaseWeapons, true
	case ComponentSensors:
		return &s.Sensors, s.BaseSensors, true
	case ComponentWarpDrive:
		return &s.WarpDrive, s.BaseWarpDrive, true
	case ComponentMaxHull:
		return &s.MaxHull, s.BaseMaxHull, true
	}
	return nil, 0, false
}

type Mineral struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	BasePrice int64  `db:"base_price"`
}

type Plan struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	Component string `db:"component"`
	Bonus     int    `db:"bonus"`
}

type CargoItem struct {
	ID           int64  `db:"id"`
	PlayerShipID int64  `db:"player_ship_id"`
	MineralID    int64  `db:"mineral_id"`
	MineralName  string `db:"mineral_name"`
	Quantity     int    `db:"quantity"`
}

type TradingHub struct {
	ID         int64  `db:"id"`
	Name       string `db:"name"`
	GalaxyID   int64  `db:"galaxy_id"`
	LocationID int64  `db:"location_id"`
	IsActive   bool   `db:"is_active"`
	ShipStock  int    `db:"ship_stock"`
}

type PirateEncounter struct {
	ID              int64        `db:"id"`
	LocationID      int64        `db:"location_id"`
	CaptainName     string       `db:"captain_name"`
	Tier            int          `db:"tier"`
	FleetSize       int          `db:"fleet_size"`
	EncounterCount  int          `db:"encounter_count"`
	LastEncounterAt sql.NullTime `db:"last_encounter_at"`
}

type Colony struct {
	ID               int64     `db:"id"`
	UUID             string    `db:"uuid"`
	PlayerID         int64     `db:"player_id"`
	Name             string    `db:"name"`
	LocationID       int64     `db:"location_id"`
	Population       int       `db:"population"`
	DevelopmentLevel int       `db:"development_level"`
	DefenseRating    int       `db:"defense_rating"`
	GarrisonStrength int       `db:"garrison_strength"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// Building status values.
const (
	BuildingOperational = "operational"
	BuildingDamaged     = "damaged"
)

type ColonyBuilding struct {
	ID           int64  `db:"id"`
	ColonyID     int64  `db:"colony_id"`
	BuildingType string `db:"building_type"`
	Status       string `db:"status"`
}

// Combat session values.
const (
	CombatPirate = "pirate"
	CombatPvP    = "pvp"
	CombatColony = "colony_attack"

	SessionPending   = "pending"
	SessionCompleted = "completed"
)

type CombatSession struct {
	ID                 int64         `db:"id"`
	UUID               string        `db:"uuid"`
	CombatType         string        `db:"combat_type"`
	Status             string        `db:"status"`
	CurrentRound       int           `db:"current_round"`
	VictorType         string        `db:"victor_type"`
	VictorPlayerID     sql.NullInt64 `db:"victor_player_id"`
	LocationID         int64         `db:"location_id"`
	PvPChallengeID     sql.NullInt64 `db:"pvp_challenge_id"`
	TargetColonyID     sql.NullInt64 `db:"target_colony_id"`
	PirateEncounterID  sql.NullInt64 `db:"pirate_encounter_id"`
	RNGSeed            int64         `db:"rng_seed"`
	CombatLog          []byte        `db:"combat_log"` // lz4-compressed JSON
	Rewards            string        `db:"rewards"`    // JSON
	SalvageCollectedAt sql.NullTime  `db:"salvage_collected_at"`
	StartedAt          time.Time     `db:"started_at"`
	EndedAt            sql.NullTime  `db:"ended_at"`
}

type CombatParticipant struct {
	ID              int64         `db:"id"`
	CombatSessionID int64         `db:"combat_session_id"`
	PlayerID        int64         `db:"player_id"`
	PlayerShipID    sql.NullInt64 `db:"player_ship_id"`
	Side            string        `db:"side"`
	StartingHull    int           `db:"starting_hull"`
	FinalHull       int           `db:"final_hull"`
	DamageDealt     int           `db:"damage_dealt"`
	DamageTaken     int           `db:"damage_taken"`
	Survived        bool          `db:"survived"`
	XPEarned        int64         `db:"xp_earned"`
	CreditsEarned   int64         `db:"credits_earned"`
}

// Salvage lot kinds.
const (
	SalvageMineral = "mineral"
	SalvagePlan    = "plan"
)

type SalvageLot struct {
	ID              int64         `db:"id"`
	CombatSessionID int64         `db:"combat_session_id"`
	Kind            string        `db:"kind"`
	MineralID       sql.NullInt64 `db:"mineral_id"`
	PlanID          sql.NullInt64 `db:"plan_id"`
	Name            string        `db:"name"`
	Quantity        int           `db:"quantity"`
}

// Challenge and invitation status values.
const (
	ChallengePending   = "pending"
	ChallengeAccepted  = "accepted"
	ChallengeDeclined  = "declined"
	ChallengeExpired   = "expired"
	ChallengeCancelled = "cancelled"

	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"
)

type PvPChallenge struct {
	ID              int64          `db:"id"`
	UUID            string         `db:"uuid"`
	ChallengerID    int64          `db:"challenger_id"`
	TargetID        int64          `db:"target_id"`
	Status          string         `db:"status"`
	Message         sql.NullString `db:"message"`
	WagerCredits    int64          `db:"wager_credits"`
	MaxTeamSize     int            `db:"max_team_size"`
	LocationID      int64          `db:"location_id"`
	ChallengedAt    time.Time      `db:"challenged_at"`
	RespondedAt     sql.NullTime   `db:"responded_at"`
	ExpiresAt       time.Time      `db:"expires_at"`
	CombatSessionID sql.NullInt64  `db:"combat_session_id"`
}

type PvPTeamInvitation struct {
	ID                int64        `db:"id"`
	PvPChallengeID    int64        `db:"pvp_challenge_id"`
	InvitedPlayerID   int64        `db:"invited_player_id"`
	InvitedByPlayerID int64        `db:"invited_by_player_id"`
	Side              string       `db:"side"`
	Status            string       `db:"status"`
	RespondedAt       sql.NullTime `db:"responded_at"`
	CreatedAt         time.Time    `db:"created_at"`
}
