package pgsql

import (
	"context"
	"time"
)

type ChallengeRepoI struct{ db DBTX }

func NewChallengeRepoI(db DBTX) *ChallengeRepoI {
	return &ChallengeRepoI{db: db}
}

const challengeColumns = `id, uuid, challenger_id, target_id, status, message, wager_credits, max_team_size,
	location_id, challenged_at, responded_at, expires_at, combat_session_id`

func scanChallenge(row rowScanner) (PvPChallenge, error) {
	var c PvPChallenge
	err := row.Scan(&c.ID, &c.UUID, &c.ChallengerID, &c.TargetID, &c.Status, &c.Message, &c.WagerCredits,
		&c.MaxTeamSize, &c.LocationID, &c.ChallengedAt, &c.RespondedAt, &c.ExpiresAt, &c.CombatSessionID)
	return c, err
}

func (r *ChallengeRepoI) Create(ctx context.Context, c PvPChallenge) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO pvp_challenges (uuid, challenger_id, target_id, status, message, wager_credits, max_team_size,
			location_id, challenged_at, responded_at, expires_at, combat_session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, c.UUID, c.ChallengerID, c.TargetID, c.Status, c.Message, c.WagerCredits, c.MaxTeamSize,
		c.LocationID, c.ChallengedAt.UTC(), c.RespondedAt, c.ExpiresAt.UTC(), c.CombatSessionID).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *ChallengeRepoI) Read(ctx context.Context, id int64) (PvPChallenge, error) {
	c, err := scanChallenge(r.db.QueryRowContext(ctx, `SELECT `+challengeColumns+` FROM pvp_challenges WHERE id = $1`, id))
	if err != nil {
		return PvPChallenge{}, err
	}
	return c, nil
}

func (r *ChallengeRepoI) ReadByUUID(ctx context.Context, uuid string) (PvPChallenge, error) {
	c, err := scanChallenge(r.db.QueryRowContext(ctx, `SELECT `+challengeColumns+` FROM pvp_challenges WHERE uuid = $1`, uuid))
	if err != nil {
		return PvPChallenge{}, err
	}
	return c, nil
}

func (r *ChallengeRepoI) ListPendingForPlayer(ctx context.Context, playerID int64) ([]PvPChallenge, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+challengeColumns+`
		FROM pvp_challenges
		WHERE status = $2 AND (challenger_id = $1 OR target_id = $1)
		ORDER BY id ASC
	`, playerID, ChallengePending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]PvPChallenge, 0)
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ChallengeRepoI) TransitionStatus(ctx context.Context, id int64, from, to string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pvp_challenges
		SET status = $3, responded_at = $4
		WHERE id = $1 AND status = $2
	`, id, from, to, at.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *ChallengeRepoI) AttachSession(ctx context.Context, id, sessionID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE pvp_challenges SET combat_session_id = $2 WHERE id = $1`, id, sessionID)
	return err
}

type InvitationRepoI struct{ db DBTX }

func NewInvitationRepoI(db DBTX) *InvitationRepoI {
	return &InvitationRepoI{db: db}
}

const invitationColumns = `id, pvp_challenge_id, invited_player_id, invited_by_player_id, side, status, responded_at, created_at`

func scanInvitation(row rowScanner) (PvPTeamInvitation, error) {
	var inv PvPTeamInvitation
	err := row.Scan(&inv.ID, &inv.PvPChallengeID, &inv.InvitedPlayerID, &inv.InvitedByPlayerID, &inv.Side,
		&inv.Status, &inv.RespondedAt, &inv.CreatedAt)
	return inv, err
}

func (r *InvitationRepoI) Create(ctx context.Context, inv PvPTeamInvitation) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO pvp_team_invitations (pvp_challenge_id, invited_player_id, invited_by_player_id, side, status, responded_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, inv.PvPChallengeID, inv.InvitedPlayerID, inv.InvitedByPlayerID, inv.Side, inv.Status, inv.RespondedAt,
		inv.CreatedAt.UTC()).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *InvitationRepoI) Read(ctx context.Context, id int64) (PvPTeamInvitation, error) {
	inv, err := scanInvitation(r.db.QueryRowContext(ctx, `SELECT `+invitationColumns+` FROM pvp_team_invitations WHERE id = $1`, id))
	if err != nil {
		return PvPTeamInvitation{}, err
	}
	return inv, nil
}

func (r *InvitationRepoI) ListByChallenge(ctx context.Context, challengeID int64) ([]PvPTeamInvitation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+invitationColumns+`
		FROM pvp_team_invitations
		WHERE pvp_challenge_id = $1
		ORDER BY id ASC
	`, challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]PvPTeamInvitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *InvitationRepoI) TransitionStatus(ctx context.Context, id int64, from, to string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pvp_team_invitations
		SET status = $3, responded_at = $4
		WHERE id = $1 AND status = $2
	`, id, from, to, at.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
