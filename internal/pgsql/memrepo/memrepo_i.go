// Package memrepo is an in-memory pgsql.Store. InTx snapshots the whole
// state and restores it when fn fails, giving the same all-or-nothing
// behavior as a database transaction.
package memrepo

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	ilog "spacewars/internal/log"
	"spacewars/internal/pgsql"
)

type state struct {
	seq          int64
	players      map[int64]pgsql.Player
	ships        map[int64]pgsql.PlayerShip
	minerals     map[int64]pgsql.Mineral
	plans        map[int64]pgsql.Plan
	cargo        map[int64]pgsql.CargoItem
	playerPlans  map[int64]map[int64]time.Time
	hubs         map[int64]pgsql.TradingHub
	encounters   map[int64]pgsql.PirateEncounter
	colonies     map[int64]pgsql.Colony
	buildings    map[int64]pgsql.ColonyBuilding
	sessions     map[int64]pgsql.CombatSession
	participants map[int64]pgsql.CombatParticipant
	lots         map[int64]pgsql.SalvageLot
	challenges   map[int64]pgsql.PvPChallenge
	invitations  map[int64]pgsql.PvPTeamInvitation
}

func newState() *state {
	return &state{
		players:      map[int64]pgsql.Player{},
		ships:        map[int64]pgsql.PlayerShip{},
		minerals:     map[int64]pgsql.Mineral{},
		plans:        map[int64]pgsql.Plan{},
		cargo:        map[int64]pgsql.CargoItem{},
		playerPlans:  map[int64]map[int64]time.Time{},
		hubs:         map[int64]pgsql.TradingHub{},
		encounters:   map[int64]pgsql.PirateEncounter{},
		colonies:     map[int64]pgsql.Colony{},
		buildings:    map[int64]pgsql.ColonyBuilding{},
		sessions:     map[int64]pgsql.CombatSession{},
		participants: map[int64]pgsql.CombatParticipant{},
		lots:         map[int64]pgsql.SalvageLot{},
		challenges:   map[int64]pgsql.PvPChallenge{},
		invitations:  map[int64]pgsql.PvPTeamInvitation{},
	}
}

func copyMap[T any](m map[int64]T) map[int64]T {
	out := make(map[int64]T, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	c := &state{
		seq:          s.seq,
		players:      copyMap(s.players),
		ships:        copyMap(s.ships),
		minerals:     copyMap(s.minerals),
		plans:        copyMap(s.plans),
		cargo:        copyMap(s.cargo),
		playerPlans:  make(map[int64]map[int64]time.Time, len(s.playerPlans)),
		hubs:         copyMap(s.hubs),
		encounters:   copyMap(s.encounters),
		colonies:     copyMap(s.colonies),
		buildings:    copyMap(s.buildings),
		sessions:     copyMap(s.sessions),
		participants: copyMap(s.participants),
		lots:         copyMap(s.lots),
		challenges:   copyMap(s.challenges),
		invitations:  copyMap(s.invitations),
	}
	for pid, owned := range s.playerPlans {
		c.playerPlans[pid] = copyMap(owned)
	}
	return c
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

// sorted returns the values of m ordered by id, filtered by keep.
func sorted[T any](m map[int64]T, keep func(T) bool) []T {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep == nil || keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

var _ pgsql.Store = (*Store)(nil)

type Store struct {
	mu sync.Mutex
	st *state
}

func New() *Store {
	return &Store{st: newState()}
}

func (s *Store) Repos() pgsql.Repos { return s.repos(false) }

func (s *Store) InTx(ctx context.Context, fn func(pgsql.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(s.repos(true)); err != nil {
		ilog.Component("memrepo").Debugf("transaction rolled back: %v", err)
		s.st = snapshot
		return err
	}
	return nil
}

type conn struct {
	store  *Store
	locked bool
}

func (c *conn) do(fn func(st *state) error) error {
	if !c.locked {
		c.store.mu.Lock()
		defer c.store.mu.Unlock()
	}
	return fn(c.store.st)
}

func (s *Store) repos(locked bool) pgsql.Repos {
	c := &conn{store: s, locked: locked}
	return pgsql.Repos{
		Player:            playerRepo{c},
		PlayerShip:        shipRepo{c},
		Mineral:           mineralRepo{c},
		Plan:              planRepo{c},
		Cargo:             cargoRepo{c},
		PlayerPlan:        playerPlanRepo{c},
		TradingHub:        hubRepo{c},
		PirateEncounter:   encounterRepo{c},
		Colony:            colonyRepo{c},
		ColonyBuilding:    buildingRepo{c},
		CombatSession:     sessionRepo{c},
		CombatParticipant: participantRepo{c},
		SalvageLot:        lotRepo{c},
		Challenge:         challengeRepo{c},
		Invitation:        invitationRepo{c},
	}
}

var errNoRows = sql.ErrNoRows
