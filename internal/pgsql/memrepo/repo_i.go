package memrepo

import (
	"context"
	"fmt"
	"time"

	"spacewars/internal/pgsql"
)

type playerRepo struct{ c *conn }

func (r playerRepo) Create(_ context.Context, p pgsql.Player) (id int64, err error) {
	err = r.c.do(func(st *state) error {
		now := time.Now().UTC()
		p.ID = st.nextID()
		if p.Level == 0 {
			p.Level = 1
		}
		p.CreatedAt, p.UpdatedAt = now, now
		st.players[p.ID] = p
		id = p.ID
		return nil
	})
	return id, err
}

func (r playerRepo) Read(_ context.Context, id int64) (p pgsql.Player, err error) {
	err = r.c.do(func(st *state) error {
		var ok bool
		if p, ok = st.players[id]; !ok {
			return errNoRows
		}
		return nil
	})
	return p, err
}

func (r playerRepo) Update(_ context.Context, p pgsql.Player) error {
	return r.c.do(func(st *state) error {
		old, ok := st.players[p.ID]
		if !ok {
			return nil
		}
		p.CreatedAt = old.CreatedAt
		p.UpdatedAt = time.Now().UTC()
		st.players[p.ID] = p
		return nil
	})
}

type shipRepo struct{ c *conn }

func (r shipRepo) Create(_ context.Context, s pgsql.PlayerShip) (id int64, err error) {
	err = r.c.do(func(st *state) error {
		if _, ok := st.players[s.PlayerID]; !ok {
			return fmt.Errorf("player_ships: unknown player %d", s.PlayerID)
		}
		now := time.Now().UTC()
		s.ID = st.nextID()
		if s.Status == "" {
			s.Status = pgsql.ShipOperational
		}
		s.CreatedAt, s.UpdatedAt = now, now
		st.ships[s.ID] = s
		id = s.ID
		return nil
	})
	return id, err
}

func (r shipRepo) Read(_ context.Context, id int64) (s pgsql.PlayerShip, err error) {
	err = r.c.do(func(st *state) error {
		var ok bool
		if s, ok = st.ships[id]; !ok {
			return errNoRows
		}
		return nil
	})
	return s, err
}

func (r shipRepo) ReadActive(_ context.Context, playerID int64) (s pgsql.PlayerShip, err error) {
	err = r.c.do(func(st *state) error {
		active := sorted(st.ships, func(v pgsql.PlayerShip) bool {
			return v.PlayerID == playerID && v.IsActive && v.Status == pgsql.ShipOperational
		})
		if len(active) == 0 {
			return errNoRows
		}
		s = active[0]
		return nil
	})
	return s, err
}

func (r shipRepo) Update(_ context.Context, s pgsql.PlayerShip) error {
	return r.c.do(func(st *state) error {
		old, ok := st.ships[s.ID]
		if !ok {
			return nil
		}
		// base stats and ownership are not updatable
		s.PlayerID = old.PlayerID
		s.BaseMaxHull, s.BaseWeapons, s.BaseSensors, s.BaseWarpDrive = old.BaseMaxHull, old.BaseWeapons, old.BaseSensors, old.BaseWarpDrive
		s.CreatedAt = old.CreatedAt
		s.UpdatedAt = time.Now().UTC()
		st.ships[s.ID] = s
		return nil
	})
}

func (r shipRepo) Delete(_ context.Context, id int64) error {
	return r.c.do(func(st *state) error {
		for cid, item := range st.cargo {
			if item.PlayerShipID == id {
				delete(st.cargo, cid)
			}
		}
		delete(st.ships, id)
		return nil
	})
}

type mineralRepo struct{ c *conn }

func (r mineralRepo) Create(_ context.Context, m pgsql.Mineral) (id int64, err error) {
	err = r.c.do(func(st *state) error {
		m.ID = st.nextID()
		st.minerals[m.ID] = m
		id = m.ID
		return nil
	})
	return id, err
}

func (r mineralRepo) Read(_ context.Context, id int64) (m pgsql.Mineral, err error) {
	err = r.c.do(func(st *state) error {
		var ok bool
		if m, ok = st.minerals[id]; !ok {
			return errNoRows
		}
		return nil
	})
	return m, err
}

func (r mineralRepo) List(_ context.Context) (out []pgsql.Mineral, err error) {
	err = r.c.do(func(st *state) error {
		out = sorted(st.minerals, nil)
		return nil
	})
	return out, err
}

type planRepo struct{ c *conn }

func (r planRepo) Create(_ context.Context, p pgsql.Plan) (id int64, err error) {
	err = r.c.do(func(st *state) error {
		p.ID = st.nextID()
		st.plans[p.ID] = p
		id = p.ID
		return nil
	})
	return id, err
}

func (r planRepo) Read(_ context.Context, id int64) (p pgsql.Plan, err error) {
	err = r.c.do(func(st *state) error {
		var ok bool
		if p, ok = st.plans[id]; !ok {
			return errNoRows
		}
		return nil
	})
	return p, err
}

func (r planRepo) List(_ context.Context) (out []pgsql.Plan, err error) {
	err = r.c.do(func(st *state) error {
		out = sorted(st.plans, nil)
		return nil
	})
	return out, err
}

type cargoRepo struct{ c *conn }

func (r cargoRepo) ListByShip(_ context.Context, shipID int64) (out []pgsql.CargoItem, err error) {
	err = r.c.do(func(st *state) error {
		out = sorted(st.cargo, func(v pgsql.CargoItem) bool { return v.PlayerShipID == shipID })
		for i := range out {
			out[i].MineralName = st.minerals[out[i].MineralID].Name
		}
		return nil
	})
	return out, err
}

func (r cargoRepo) Add(_ context.Context, shipID, mineralID int64, quantity int) error {
	return r.c.do(func(st *state) error {
		if _, ok := st.ships[shipID]; !ok {
			return fmt.Errorf("player_cargo: unknown ship %d", shipID)
		}
		if _, ok := st.minerals[mineralID]; !ok {
			return fmt.Errorf("player_cargo: unknown mineral %d", mineralID)
		}
		for id, item := range st.cargo {
			if item.PlayerShipID == shipID && item.MineralID == mineralID {
				item.Quantity += quantity
				st.cargo[id] = item
				return nil
			}
		}
		id := st.nextID()
		st.cargo[id] = pgsql.CargoItem{ID: id, PlayerShipID: shipID, MineralID: mineralID, Quantity: quantity}
		return nil
	})
}

func (r cargoRepo) DeleteByShip(_ context.Context, shipID int64) (n int64, err error) {
	err = r.c.do(func(st *state) error {
		for id, item := range st.cargo {
			if item.PlayerShipID == shipID {
				delete(st.cargo, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

type playerPlanRepo struct{ c *conn }

func (r playerPlanRepo) ListByPlayer(_ context.Context, playerID int64) (out []pgsql.Plan, err error) {
	err = r.c.do(func(st *state) error {
		owned := st.playerPlans[playerID]
		out = sorted(st.plans, func(p pgsql.Plan) bool {
			_, ok := owned[p.ID]
			return ok
		})
		return nil
	})
	return out, err
}

func (r playerPlanRepo) Has(_ context.Context, playerID, planID int64) (has bool, err error) {
	err = r.c.do(func(st *state) error {
		_, has = st.playerPlans[playerID][planID]
		return nil
	})
	return has, err
}

func (r playerPlanRepo) Grant(_ context.Context, playerID, planID int64, at time.Time) error {
	return r.c.do(func(st *state) error {
		if _, ok := st.plans[planID]; !ok {
			return fmt.Errorf("player_plans: unknown plan %d", planID)
		}
		owned := st.playerPlans[playerID]
		if owned == nil {
			owned = map[int64]time.Time{}
			st.playerPlans[playerID] = owned
		}
		if _, ok := owned[planID]; !ok {
			owned[planID] = at.UTC()
		}
		return nil
	})
}

func (r playerPlanRepo) DeleteByPlayer(_ context.Context, playerID int64) (n int64, err error) {
	err = r.c.do(func(st *state) error {
		n = int64(len(st.playerPlans[playerID]))
		delete(st.playerPlans, playerID)
		return nil
	})
	return n, err
}

type hubRepo struct{ c *conn }

func (r hubRepo) Create(_ context.Context, h pgsql.TradingHub) (id int64, err error) {
	err = r.c.do(func(st *state) error {
		h.ID = st.nextID()
		st.hubs[h.ID] = h
		id = h.ID
		return nil
	})
	return id, err
}

func (r hubRepo) Read(_ context.Context, id int64) (h pgsql.TradingHub, err error) {
	err = r.c.do(func(st *state) error {
		var ok bool
		if h, ok = st.hubs[id]; !ok {
			return errNoRows
		}
		return nil
	})
	return h, err
}

func (r hubRepo) FirstWithShipStock(_ context.Context, galaxyID int64) (h pgsql.TradingHub, err error) {
	err = r.c.do(func(st *state) error {
		hubs := sorted(st.hubs, func(v pgsql.TradingHub) bool {
			return v.GalaxyID == galaxyID && v.IsActive && v.ShipStock > 0
		})
		if len(hubs) == 0 {
			return errNoRows
		}
		h = hubs[0]
		return nil
	})
	return h, err
}

func (r hubRepo) FirstActive(_ context.Context, galaxyID int64) (h pgsql.TradingHub, err error) {
	err = r.c.do(func(st *state) error {
		active := sorted(st.hubs, func(v pgsql.TradingHub) bool { return v.IsActive })
		if len(active) == 0 {
			return errNoRows
		}
		h = active[0]
		for _, v := range active {
			if v.GalaxyID == galaxyID {
				h = v
				break
			}
		}
		return nil
	})
	return h, err
}
