package pgsql

import (
	"context"
	"time"
)

type PirateEncounterRepoI struct{ db DBTX }

func NewPirateEncounterRepoI(db DBTX) *PirateEncounterRepoI {
	return &PirateEncounterRepoI{db: db}
}

const encounterColumns = `id, location_id, captain_name, tier, fleet_size, encounter_count, last_encounter_at`

func scanEncounter(row rowScanner) (PirateEncounter, error) {
	var e PirateEncounter
	err := row.Scan(&e.ID, &e.LocationID, &e.CaptainName, &e.Tier, &e.FleetSize, &e.EncounterCount, &e.LastEncounterAt)
	return e, err
}

func (r *PirateEncounterRepoI) Create(ctx context.Context, e PirateEncounter) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO pirate_encounters (location_id, captain_name, tier, fleet_size, encounter_count, last_encounter_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, e.LocationID, e.CaptainName, e.Tier, e.FleetSize, e.EncounterCount, e.LastEncounterAt).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PirateEncounterRepoI) Read(ctx context.Context, id int64) (PirateEncounter, error) {
	e, err := scanEncounter(r.db.QueryRowContext(ctx, `SELECT `+encounterColumns+` FROM pirate_encounters WHERE id = $1`, id))
	if err != nil {
		return PirateEncounter{}, err
	}
	return e, nil
}

func (r *PirateEncounterRepoI) ReadByLocation(ctx context.Context, locationID int64) (PirateEncounter, error) {
	e, err := scanEncounter(r.db.QueryRowContext(ctx, `
		SELECT `+encounterColumns+` FROM pirate_encounters WHERE location_id = $1 ORDER BY id ASC LIMIT 1
	`, locationID))
	if err != nil {
		return PirateEncounter{}, err
	}
	return e, nil
}

func (r *PirateEncounterRepoI) MarkEncountered(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE pirate_encounters
		SET encounter_count = encounter_count + 1, last_encounter_at = $2
		WHERE id = $1
	`, id, at.UTC())
	return err
}

type CombatSessionRepoI struct{ db DBTX }

func NewCombatSessionRepoI(db DBTX) *CombatSessionRepoI {
	return &CombatSessionRepoI{db: db}
}

const sessionColumns = `id, uuid, combat_type, status, current_round, victor_type, victor_player_id, location_id,
	pvp_challenge_id, target_colony_id, pirate_encounter_id, rng_seed, combat_log, rewards,
	salvage_collected_at, started_at, ended_at`

func scanSession(row rowScanner) (CombatSession, error) {
	var s CombatSession
	err := row.Scan(&s.ID, &s.UUID, &s.CombatType, &s.Status, &s.CurrentRound, &s.VictorType, &s.VictorPlayerID,
		&s.LocationID, &s.PvPChallengeID, &s.TargetColonyID, &s.PirateEncounterID, &s.RNGSeed, &s.CombatLog,
		&s.Rewards, &s.SalvageCollectedAt, &s.StartedAt, &s.EndedAt)
	return s, err
}

func (r *CombatSessionRepoI) Create(ctx context.Context, s CombatSession) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO combat_sessions (uuid, combat_type, status, current_round, victor_type, victor_player_id, location_id,
			pvp_challenge_id, target_colony_id, pirate_encounter_id, rng_seed, combat_log, rewards,
			salvage_collected_at, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`, s.UUID, s.CombatType, s.Status, s.CurrentRound, s.VictorType, s.VictorPlayerID, s.LocationID,
		s.PvPChallengeID, s.TargetColonyID, s.PirateEncounterID, s.RNGSeed, s.CombatLog, s.Rewards,
		s.SalvageCollectedAt, s.StartedAt.UTC(), s.EndedAt).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *CombatSessionRepoI) Read(ctx context.Context, id int64) (CombatSession, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM combat_sessions WHERE id = $1`, id))
	if err != nil {
		return CombatSession{}, err
	}
	return s, nil
}

func (r *CombatSessionRepoI) ReadByUUID(ctx context.Context, uuid string) (CombatSession, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM combat_sessions WHERE uuid = $1`, uuid))
	if err != nil {
		return CombatSession{}, err
	}
	return s, nil
}

func (r *CombatSessionRepoI) MarkSalvageCollected(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE combat_sessions
		SET salvage_collected_at = $2
		WHERE id = $1 AND salvage_collected_at IS NULL
	`, id, at.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

type CombatParticipantRepoI struct{ db DBTX }

func NewCombatParticipantRepoI(db DBTX) *CombatParticipantRepoI {
	return &CombatParticipantRepoI{db: db}
}

func (r *CombatParticipantRepoI) Create(ctx context.Context, p CombatParticipant) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO combat_participants (combat_session_id, player_id, player_ship_id, side, starting_hull, final_hull,
			damage_dealt, damage_taken, survived, xp_earned, credits_earned)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, p.CombatSessionID, p.PlayerID, p.PlayerShipID, p.Side, p.StartingHull, p.FinalHull,
		p.DamageDealt, p.DamageTaken, p.Survived, p.XPEarned, p.CreditsEarned).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *CombatParticipantRepoI) ListBySession(ctx context.Context, sessionID int64) ([]CombatParticipant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, combat_session_id, player_id, player_ship_id, side, starting_hull, final_hull,
			damage_dealt, damage_taken, survived, xp_earned, credits_earned
		FROM combat_participants
		WHERE combat_session_id = $1
		ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CombatParticipant, 0)
	for rows.Next() {
		var p CombatParticipant
		if err := rows.Scan(&p.ID, &p.CombatSessionID, &p.PlayerID, &p.PlayerShipID, &p.Side, &p.StartingHull,
			&p.FinalHull, &p.DamageDealt, &p.DamageTaken, &p.Survived, &p.XPEarned, &p.CreditsEarned); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type SalvageLotRepoI struct{ db DBTX }

func NewSalvageLotRepoI(db DBTX) *SalvageLotRepoI {
	return &SalvageLotRepoI{db: db}
}

func (r *SalvageLotRepoI) Create(ctx context.Context, l SalvageLot) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO salvage_lots (combat_session_id, kind, mineral_id, plan_id, name, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, l.CombatSessionID, l.Kind, l.MineralID, l.PlanID, l.Name, l.Quantity).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *SalvageLotRepoI) ListBySession(ctx context.Context, sessionID int64) ([]SalvageLot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, combat_session_id, kind, mineral_id, plan_id, name, quantity
		FROM salvage_lots
		WHERE combat_session_id = $1
		ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]SalvageLot, 0)
	for rows.Next() {
		var l SalvageLot
		if err := rows.Scan(&l.ID, &l.CombatSessionID, &l.Kind, &l.MineralID, &l.PlanID, &l.Name, &l.Quantity); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
