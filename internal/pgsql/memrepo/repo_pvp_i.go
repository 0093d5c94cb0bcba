package memrepo

import (
	"context"
	"fmt"
	"time"

	"spacewars/internal/pgsql"
)

type challengeRepo struct{ c *conn }

func (r challengeRepo) Create(_ context.Context, ch pgsql.PvPChallenge) (id int64, err error) {
	err = r.c.do(func(st *state) error {
		for _, v := range st.challenges {
			if v.UUID == ch.UUID {
				return fmt.Errorf("pvp_challenges: duplicate uuid %s", ch.UUID)
			}
		}
		ch.ID = st.nextID()
		st.challenges[ch.ID] = ch
		id = ch.ID
		return nil
	})
	return id, err
}

func (r challengeRepo) Read(_ context.Context, id int64) (ch pgsql.PvPChallenge, err error) {
	err = r.c.do(func(st *state) error {
		var ok bool
		if ch, ok = st.challenges[id]; !ok {
			return errNoRows
		}
		return nil
	})
	return ch, err
}

func (r challengeRepo) ReadByUUID(_ context.Context, uuid string) (ch pgsql.PvPChallenge, err error) {
	err = r.c.do(func(st *state) error {
		for _, v := range st.challenges {
			if v.UUID == uuid {
				ch = v
				return nil
			}
		}
		return errNoRows
	})
	return ch, err
}

func (r challengeRepo) ListPendingForPlayer(_ context.Context, playerID int64) (out []pgsql.PvPChallenge, err error) {
	err = r.c.do(func(st *state) error {
		out = sorted(st.challenges, func(v pgsql.PvPChallenge) bool {
			return v.Status == pgsql.ChallengePending && (v.ChallengerID == playerID || v.TargetID == playerID)
		})
		return nil
	})
	return out, err
}

func (r challengeRepo) TransitionStatus(_ context.Context, id int64, from, to string, at time.Time) (ok bool, err error) {
	err = r.c.do(func(st *state) error {
		ch, found := st.challenges[id]
		if !found || ch.Status != from {
			return nil
		}
		ch.Status = to
		ch.RespondedAt.Time, ch.RespondedAt.Valid = at.UTC(), true
		st.challenges[id] = ch
		ok = true
		return nil
	})
	return ok, err
}

func (r challengeRepo) AttachSession(_ context.Context, id, sessionID int64) error {
	return r.c.do(func(st *state) error {
		if ch, ok := st.challenges[id]; ok {
			ch.CombatSessionID.Int64, ch.CombatSessionID.Valid = sessionID, true
			st.challenges[id] = ch
		}
		return nil
	})
}

type invitationRepo struct{ c *conn }

func (r invitationRepo) Create(_ context.Context, inv pgsql.PvPTeamInvitation) (id int64, err error) {
	err = r.c.do(func(st *state) error {
		for _, v := range st.invitations {
			if v.PvPChallengeID == inv.PvPChallengeID && v.InvitedPlayerID == inv.InvitedPlayerID {
				return fmt.Errorf("pvp_team_invitations: player %d already invited to challenge %d", inv.InvitedPlayerID, inv.PvPChallengeID)
			}
		}
		inv.ID = st.nextID()
		st.invitations[inv.ID] = inv
		id = inv.ID
		return nil
	})
	return id, err
}

func (r invitationRepo) Read(_ context.Context, id int64) (inv pgsql.PvPTeamInvitation, err error) {
	err = r.c.do(func(st *state) error {
		var ok bool
		if inv, ok = st.invitations[id]; !ok {
			return errNoRows
		}
		return nil
	})
	return inv, err
}

func (r invitationRepo) ListByChallenge(_ context.Context, challengeID int64) (out []pgsql.PvPTeamInvitation, err error) {
	err = r.c.do(func(st *state) error {
		out = sorted(st.invitations, func(v pgsql.PvPTeamInvitation) bool { return v.PvPChallengeID == challengeID })
		return nil
	})
	return out, err
}

func (r invitationRepo) TransitionStatus(_ context.Context, id int64, from, to string, at time.Time) (ok bool, err error) {
	err = r.c.do(func(st *state) error {
		inv, found := st.invitations[id]
		if !found || inv.Status != from {
			return nil
		}
		inv.Status = to
		inv.RespondedAt.Time, inv.RespondedAt.Valid = at.UTC(), true
		st.invitations[id] = inv
		ok = true
		return nil
	})
	return ok, err
}
