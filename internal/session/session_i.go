// Package session persists resolved fights and serves them back.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"spacewars/internal/apperr"
	"spacewars/internal/authz"
	"spacewars/internal/combat"
	ilog "spacewars/internal/log"
	"spacewars/internal/pgsql"
)

// Participant links a player's fighter to the rewards it earned.
type Participant struct {
	PlayerID int64
	ShipID   int64
	Fighter  combat.Fighter
	XP       int64
	Credits  int64
}

// Record is everything needed to store one completed fight.
type Record struct {
	CombatType     string
	LocationID     int64
	ChallengeID    int64
	ColonyID       int64
	EncounterID    int64
	Outcome        combat.Outcome
	VictorPlayerID int64
	Participants   []Participant
	Rewards        any
	Salvage        []pgsql.SalvageLot
	StartedAt      time.Time
	EndedAt        time.Time
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id > 0}
}

// Save writes the session, its participants and its salvage lots. It must
// run on the Repos of the caller's transaction.
func Save(ctx context.Context, repos pgsql.Repos, rec Record) (pgsql.CombatSession, error) {
	blob, err := combat.EncodeLog(rec.Outcome.Log)
	if err != nil {
		return pgsql.CombatSession{}, err
	}
	rewards := "{}"
	if rec.Rewards != nil {
		b, err := json.Marshal(rec.Rewards)
		if err != nil {
			return pgsql.CombatSession{}, fmt.Errorf("marshal rewards: %w", err)
		}
		rewards = string(b)
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now().UTC()
	}
	if rec.EndedAt.IsZero() {
		rec.EndedAt = rec.StartedAt
	}

	s := pgsql.CombatSession{
		UUID:              uuid.NewString(),
		CombatType:        rec.CombatType,
		Status:            pgsql.SessionCompleted,
		CurrentRound:      rec.Outcome.Rounds,
		VictorType:        string(rec.Outcome.Victor),
		VictorPlayerID:    nullID(rec.VictorPlayerID),
		LocationID:        rec.LocationID,
		PvPChallengeID:    nullID(rec.ChallengeID),
		TargetColonyID:    nullID(rec.ColonyID),
		PirateEncounterID: nullID(rec.EncounterID),
		RNGSeed:           rec.Outcome.Seed,
		CombatLog:         blob,
		Rewards:           rewards,
		StartedAt:         rec.StartedAt,
		EndedAt:           sql.NullTime{Time: rec.EndedAt, Valid: true},
	}
	if s.ID, err = repos.CombatSession.Create(ctx, s); err != nil {
		return pgsql.CombatSession{}, fmt.Errorf("create combat session: %w", err)
	}

	for _, p := range rec.Participants {
		_, err := repos.CombatParticipant.Create(ctx, pgsql.CombatParticipant{
			CombatSessionID: s.ID,
			PlayerID:        p.PlayerID,
			PlayerShipID:    nullID(p.ShipID),
			Side:            string(p.Fighter.Side),
			StartingHull:    p.Fighter.StartingHull,
			FinalHull:       max(p.Fighter.Hull, 0),
			DamageDealt:     p.Fighter.DamageDealt,
			DamageTaken:     p.Fighter.DamageTaken,
			Survived:        p.Fighter.Hull > 0,
			XPEarned:        p.XP,
			CreditsEarned:   p.Credits,
		})
		if err != nil {
			return pgsql.CombatSession{}, fmt.Errorf("record participant %d: %w", p.PlayerID, err)
		}
	}
	for _, lot := range rec.Salvage {
		lot.CombatSessionID = s.ID
		if _, err := repos.SalvageLot.Create(ctx, lot); err != nil {
			return pgsql.CombatSession{}, fmt.Errorf("record salvage lot: %w", err)
		}
	}
	return s, nil
}

// View is a stored session as shown to a player.
type View struct {
	UUID         string                    `json:"uuid"`
	CombatType   string                    `json:"combat_type"`
	Status       string                    `json:"status"`
	Rounds       int                       `json:"rounds"`
	VictorType   string                    `json:"victor_type"`
	Seed         int64                     `json:"rng_seed"`
	Participants []pgsql.CombatParticipant `json:"participants"`
	Rewards      json.RawMessage           `json:"rewards"`
	Log          []combat.LogEntry         `json:"combat_log"`
	Text         string                    `json:"combat_text"`
	Salvage      bool                      `json:"salvage_collected"`
	StartedAt    time.Time                 `json:"started_at"`
}

type Service struct {
	store  pgsql.Store
	policy authz.Policy
	logger *zap.SugaredLogger
}

func NewService(store pgsql.Store, policy authz.Policy) *Service {
	return &Service{store: store, policy: policy, logger: ilog.Component("combat")}
}

// Get loads a session for viewer. Only participants and admins may read it.
func (s *Service) Get(ctx context.Context, viewerID int64, sessionUUID string) (View, error) {
	var v View
	err := s.store.InTx(ctx, func(repos pgsql.Repos) error {
		cs, err := repos.CombatSession.ReadByUUID(ctx, sessionUUID)
		if err != nil {
			if pgsql.IsNotFound(err) {
				return apperr.New(apperr.KindNotFound, "combat session not found")
			}
			return fmt.Errorf("read session %s: %w", sessionUUID, err)
		}
		parts, err := repos.CombatParticipant.ListBySession(ctx, cs.ID)
		if err != nil {
			return fmt.Errorf("list participants: %w", err)
		}
		ids := make([]int64, 0, len(parts))
		for _, p := range parts {
			ids = append(ids, p.PlayerID)
		}
		if !s.policy.CanViewSession(viewerID, ids) {
			return apperr.New(apperr.KindForbidden, "you may not view this combat")
		}
		entries, err := combat.DecodeLog(cs.CombatLog)
		if err != nil {
			return err
		}
		rewards := json.RawMessage(cs.Rewards)
		if len(rewards) == 0 {
			rewards = json.RawMessage("{}")
		}
		v = View{
			UUID:         cs.UUID,
			CombatType:   cs.CombatType,
			Status:       cs.Status,
			Rounds:       cs.CurrentRound,
			VictorType:   cs.VictorType,
			Seed:         cs.RNGSeed,
			Participants: parts,
			Rewards:      rewards,
			Log:          entries,
			Text:         combat.RenderText(entries),
			Salvage:      cs.SalvageCollectedAt.Valid,
			StartedAt:    cs.StartedAt,
		}
		return nil
	})
	return v, err
}
