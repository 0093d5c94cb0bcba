package memrepo

import (
	"context"
	"fmt"
	"time"

	"spacewars/internal/pgsql"
)

type encounterRepo struct{ c *conn }

func (r encounterRepo) Create(_ context.Context, e pgsql.PirateEncounter) (id int64, err error) {
	err = r.c.do(func(st *state) error {
		e.ID = st.nextID()
		st.encounters[e.ID] = e
		id = e.ID
		return nil
	})
	return id, err
}

func (r encounterRepo) Read(_ context.Context, id int64) (e pgsql.PirateEncounter, err error) {
	err = r.c.do(func(st *state) error {
		var ok bool
		if e, ok = st.encounters[id]; !ok {
			return errNoRows
		}
		return nil
	})
	return e, err
}

func (r encounterRepo) ReadByLocation(_ context.Context, locationID int64) (e pgsql.PirateEncounter, err error) {
	err = r.c.do(func(st *state) error {
		found := sorted(st.encounters, func(v pgsql.PirateEncounter) bool { return v.LocationID == locationID })
		if len(found) == 0 {
			return errNoRows
		}
		e = found[0]
		return nil
	})
	return e, err
}

func (r encounterRepo) MarkEncountered(_ context.Context, id int64, at time.Time) error {
	return r.c.do(func(st *state) error {
		e, ok := st.encounters[id]
		if !ok {
			return nil
		}
		e.EncounterCount++
		e.LastEncounterAt.Time, e.LastEncounterAt.Valid = at.UTC(), true
		st.encounters[id] = e
		return nil
	})
}

type sessionRepo struct{ c *conn }

func (r sessionRepo) Create(_ context.Context, s pgsql.CombatSession) (id int64, err error) {
	err = r.c.do(func(st *state) error {
		for _, v := range st.sessions {
			if v.UUID == s.UUID {
				return fmt.Errorf("combat_sessions: duplicate uuid %s", s.UUID)
			}
		}
		s.ID = st.nextID()
		s.CombatLog = append([]byte(nil), s.CombatLog...)
		st.sessions[s.ID] = s
		id = s.ID
		return nil
	})
	return id, err
}

func (r sessionRepo) Read(_ context.Context, id int64) (s pgsql.CombatSession, err error) {
	err = r.c.do(func(st *state) error {
		var ok bool
		if s, ok = st.sessions[id]; !ok {
			return errNoRows
		}
		return nil
	})
	return s, err
}

func (r sessionRepo) ReadByUUID(_ context.Context, uuid string) (s pgsql.CombatSession, err error) {
	err = r.c.do(func(st *state) error {
		for _, v := range st.sessions {
			if v.UUID == uuid {
				s = v
				return nil
			}
		}
		return errNoRows
	})
	return s, err
}

func (r sessionRepo) MarkSalvageCollected(_ context.Context, id int64, at time.Time) (ok bool, err error) {
	err = r.c.do(func(st *state) error {
		s, found := st.sessions[id]
		if !found || s.SalvageCollectedAt.Valid {
			return nil
		}
		s.SalvageCollectedAt.Time, s.SalvageCollectedAt.Valid = at.UTC(), true
		st.sessions[id] = s
		ok = true
		return nil
	})
	return ok, err
}

type participantRepo struct{ c *conn }

func (r participantRepo) Create(_ context.Context, p pgsql.CombatParticipant) (id int64, err error) {
	err = r.c.do(func(st *state) error {
		if _, ok := st.sessions[p.CombatSessionID]; !ok {
			return fmt.Errorf("combat_participants: unknown session %d", p.CombatSessionID)
		}
		for _, v := range st.participants {
			if v.CombatSessionID == p.CombatSessionID && v.PlayerID == p.PlayerID {
				return fmt.Errorf("combat_participants: player %d already in session %d", p.PlayerID, p.CombatSessionID)
			}
		}
		p.ID = st.nextID()
		st.participants[p.ID] = p
		id = p.ID
		return nil
	})
	return id, err
}

func (r participantRepo) ListBySession(_ context.Context, sessionID int64) (out []pgsql.CombatParticipant, err error) {
	err = r.c.do(func(st *state) error {
		out = sorted(st.participants, func(v pgsql.CombatParticipant) bool { return v.CombatSessionID == sessionID })
		return nil
	})
	return out, err
}

type lotRepo struct{ c *conn }

func (r lotRepo) Create(_ context.Context, l pgsql.SalvageLot) (id int64, err error) {
	err = r.c.do(func(st *state) error {
		if _, ok := st.sessions[l.CombatSessionID]; !ok {
			return fmt.Errorf("salvage_lots: unknown session %d", l.CombatSessionID)
		}
		l.ID = st.nextID()
		st.lots[l.ID] = l
		id = l.ID
		return nil
	})
	return id, err
}

func (r lotRepo) ListBySession(_ context.Context, sessionID int64) (out []pgsql.SalvageLot, err error) {
	err = r.c.do(func(st *state) error {
		out = sorted(st.lots, func(v pgsql.SalvageLot) bool { return v.CombatSessionID == sessionID })
		return nil
	})
	return out, err
}

type colonyRepo struct{ c *conn }

func (r colonyRepo) Create(_ context.Context, col pgsql.Colony) (id int64, err error) {
	err = r.c.do(func(st *state) error {
		col.ID = st.nextID()
		col.UpdatedAt = time.Now().UTC()
		st.colonies[col.ID] = col
		id = col.ID
		return nil
	})
	return id, err
}

func (r colonyRepo) Read(_ context.Context, id int64) (col pgsql.Colony, err error) {
	err = r.c.do(func(st *state) error {
		var ok bool
		if col, ok = st.colonies[id]; !ok {
			return errNoRows
		}
		return nil
	})
	return col, err
}

func (r colonyRepo) Update(_ context.Context, col pgsql.Colony) error {
	return r.c.do(func(st *state) error {
		old, ok := st.colonies[col.ID]
		if !ok {
			return nil
		}
		col.UUID, col.LocationID = old.UUID, old.LocationID
		col.UpdatedAt = time.Now().UTC()
		st.colonies[col.ID] = col
		return nil
	})
}

type buildingRepo struct{ c *conn }

func (r buildingRepo) Create(_ context.Context, b pgsql.ColonyBuilding) (id int64, err error) {
	err = r.c.do(func(st *state) error {
		b.ID = st.nextID()
		if b.Status == "" {
			b.Status = pgsql.BuildingOperational
		}
		st.buildings[b.ID] = b
		id = b.ID
		return nil
	})
	return id, err
}

func (r buildingRepo) ListByColony(_ context.Context, colonyID int64) (out []pgsql.ColonyBuilding, err error) {
	err = r.c.do(func(st *state) error {
		out = sorted(st.buildings, func(v pgsql.ColonyBuilding) bool { return v.ColonyID == colonyID })
		return nil
	})
	return out, err
}

func (r buildingRepo) UpdateStatus(_ context.Context, id int64, status string) error {
	return r.c.do(func(st *state) error {
		if b, ok := st.buildings[id]; ok {
			b.Status = status
			st.buildings[id] = b
		}
		return nil
	})
}
