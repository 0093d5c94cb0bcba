package pgsql

import (
	"context"
	"time"
)

// i-layer implementations.

type rowScanner interface {
	Scan(dest ...any) error
}

type PlayerRepoI struct{ db DBTX }

func NewPlayerRepoI(db DBTX) *PlayerRepoI {
	return &PlayerRepoI{db: db}
}

const playerColumns = `id, name, credits, experience, level, galaxy_id, location_id, last_hub_id, created_at, updated_at`

func scanPlayer(row rowScanner) (Player, error) {
	var p Player
	err := row.Scan(&p.ID, &p.Name, &p.Credits, &p.Experience, &p.Level, &p.GalaxyID, &p.LocationID, &p.LastHubID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *PlayerRepoI) Create(ctx context.Context, p Player) (int64, error) {
	now := time.Now().UTC()
	if p.Level == 0 {
		p.Level = 1
	}
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO players (name, credits, experience, level, galaxy_id, location_id, last_hub_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id
	`, p.Name, p.Credits, p.Experience, p.Level, p.GalaxyID, p.LocationID, p.LastHubID, now).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PlayerRepoI) Read(ctx context.Context, id int64) (Player, error) {
	p, err := scanPlayer(r.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id))
	if err != nil {
		return Player{}, err
	}
	return p, nil
}

func (r *PlayerRepoI) Update(ctx context.Context, p Player) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE players
		SET name = $2, credits = $3, experience = $4, level = $5, galaxy_id = $6,
		    location_id = $7, last_hub_id = $8, updated_at = $9
		WHERE id = $1
	`, p.ID, p.Name, p.Credits, p.Experience, p.Level, p.GalaxyID, p.LocationID, p.LastHubID, time.Now().UTC())
	return err
}

type PlayerShipRepoI struct{ db DBTX }

func NewPlayerShipRepoI(db DBTX) *PlayerShipRepoI {
	return &PlayerShipRepoI{db: db}
}

const shipColumns = `id, player_id, name, class, hull, max_hull, weapons, sensors, speed, warp_drive, cargo_hold,
	base_max_hull, base_weapons, base_sensors, base_warp_drive, is_active, status, created_at, updated_at`

func scanShip(row rowScanner) (PlayerShip, error) {
	var s PlayerShip
	err := row.Scan(&s.ID, &s.PlayerID, &s.Name, &s.Class, &s.Hull, &s.MaxHull, &s.Weapons, &s.Sensors, &s.Speed,
		&s.WarpDrive, &s.CargoHold, &s.BaseMaxHull, &s.BaseWeapons, &s.BaseSensors, &s.BaseWarpDrive,
		&s.IsActive, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *PlayerShipRepoI) Create(ctx context.Context, s PlayerShip) (int64, error) {
	now := time.Now().UTC()
	if s.Status == "" {
		s.Status = ShipOperational
	}
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO player_ships (player_id, name, class, hull, max_hull, weapons, sensors, speed, warp_drive, cargo_hold,
			base_max_hull, base_weapons, base_sensors, base_warp_drive, is_active, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17)
		RETURNING id
	`, s.PlayerID, s.Name, s.Class, s.Hull, s.MaxHull, s.Weapons, s.Sensors, s.Speed, s.WarpDrive, s.CargoHold,
		s.BaseMaxHull, s.BaseWeapons, s.BaseSensors, s.BaseWarpDrive, s.IsActive, s.Status, now).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PlayerShipRepoI) Read(ctx context.Context, id int64) (PlayerShip, error) {
	s, err := scanShip(r.db.QueryRowContext(ctx, `SELECT `+shipColumns+` FROM player_ships WHERE id = $1`, id))
	if err != nil {
		return PlayerShip{}, err
	}
	return s, nil
}

func (r *PlayerShipRepoI) ReadActive(ctx context.Context, playerID int64) (PlayerShip, error) {
	s, err := scanShip(r.db.QueryRowContext(ctx, `
		SELECT `+shipColumns+`
		FROM player_ships
		WHERE player_id = $1 AND is_active = TRUE AND status = $2
		ORDER BY id ASC
		LIMIT 1
	`, playerID, ShipOperational))
	if err != nil {
		return PlayerShip{}, err
	}
	return s, nil
}

func (r *PlayerShipRepoI) Update(ctx context.Context, s PlayerShip) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE player_ships
		SET name = $2, class = $3, hull = $4, max_hull = $5, weapons = $6, sensors = $7, speed = $8,
		    warp_drive = $9, cargo_hold = $10, is_active = $11, status = $12, updated_at = $13
		WHERE id = $1
	`, s.ID, s.Name, s.Class, s.Hull, s.MaxHull, s.Weapons, s.Sensors, s.Speed, s.WarpDrive, s.CargoHold,
		s.IsActive, s.Status, time.Now().UTC())
	return err
}

func (r *PlayerShipRepoI) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM player_ships WHERE id = $1`, id)
	return err
}

type MineralRepoI struct{ db DBTX }

func NewMineralRepoI(db DBTX) *MineralRepoI {
	return &MineralRepoI{db: db}
}

func (r *MineralRepoI) Create(ctx context.Context, m Mineral) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO minerals (name, base_price) VALUES ($1, $2) RETURNING id
	`, m.Name, m.BasePrice).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *MineralRepoI) Read(ctx context.Context, id int64) (Mineral, error) {
	var m Mineral
	err := r.db.QueryRowContext(ctx, `SELECT id, name, base_price FROM minerals WHERE id = $1`, id).
		Scan(&m.ID, &m.Name, &m.BasePrice)
	if err != nil {
		return Mineral{}, err
	}
	return m, nil
}

func (r *MineralRepoI) List(ctx context.Context) ([]Mineral, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, base_price FROM minerals ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Mineral, 0)
	for rows.Next() {
		var m Mineral
		if err := rows.Scan(&m.ID, &m.Name, &m.BasePrice); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type PlanRepoI struct{ db DBTX }

func NewPlanRepoI(db DBTX) *PlanRepoI {
	return &PlanRepoI{db: db}
}

func (r *PlanRepoI) Create(ctx context.Context, p Plan) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO plans (name, component, bonus) VALUES ($1, $2, $3) RETURNING id
	`, p.Name, p.Component, p.Bonus).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PlanRepoI) Read(ctx context.Context, id int64) (Plan, error) {
	var p Plan
	err := r.db.QueryRowContext(ctx, `SELECT id, name, component, bonus FROM plans WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Component, &p.Bonus)
	if err != nil {
		return Plan{}, err
	}
	return p, nil
}

func (r *PlanRepoI) List(ctx context.Context) ([]Plan, error) {
	return queryPlans(ctx, r.db, `SELECT id, name, component, bonus FROM plans ORDER BY id ASC`)
}

func queryPlans(ctx context.Context, db DBTX, query string, args ...any) ([]Plan, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Plan, 0)
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.Component, &p.Bonus); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type CargoRepoI struct{ db DBTX }

func NewCargoRepoI(db DBTX) *CargoRepoI {
	return &CargoRepoI{db: db}
}

func (r *CargoRepoI) ListByShip(ctx context.Context, shipID int64) ([]CargoItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.player_ship_id, c.mineral_id, m.name, c.quantity
		FROM player_cargo c
		JOIN minerals m ON m.id = c.mineral_id
		WHERE c.player_ship_id = $1
		ORDER BY c.id ASC
	`, shipID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CargoItem, 0)
	for rows.Next() {
		var c CargoItem
		if err := rows.Scan(&c.ID, &c.PlayerShipID, &c.MineralID, &c.MineralName, &c.Quantity); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CargoRepoI) Add(ctx context.Context, shipID, mineralID int64, quantity int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO player_cargo (player_ship_id, mineral_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (player_ship_id, mineral_id)
		DO UPDATE SET quantity = player_cargo.quantity + EXCLUDED.quantity
	`, shipID, mineralID, quantity)
	return err
}

func (r *CargoRepoI) DeleteByShip(ctx context.Context, shipID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM player_cargo WHERE player_ship_id = $1`, shipID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type PlayerPlanRepoI struct{ db DBTX }

func NewPlayerPlanRepoI(db DBTX) *PlayerPlanRepoI {
	return &PlayerPlanRepoI{db: db}
}

func (r *PlayerPlanRepoI) ListByPlayer(ctx context.Context, playerID int64) ([]Plan, error) {
	return queryPlans(ctx, r.db, `
		SELECT p.id, p.name, p.component, p.bonus
		FROM player_plans pp
		JOIN plans p ON p.id = pp.plan_id
		WHERE pp.player_id = $1
		ORDER BY p.id ASC
	`, playerID)
}

func (r *PlayerPlanRepoI) Has(ctx context.Context, playerID, planID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM player_plans WHERE player_id = $1 AND plan_id = $2
	`, playerID, planID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PlayerPlanRepoI) Grant(ctx context.Context, playerID, planID int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO player_plans (player_id, plan_id, acquired_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (player_id, plan_id) DO NOTHING
	`, playerID, planID, at.UTC())
	return err
}

func (r *PlayerPlanRepoI) DeleteByPlayer(ctx context.Context, playerID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM player_plans WHERE player_id = $1`, playerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type TradingHubRepoI struct{ db DBTX }

func NewTradingHubRepoI(db DBTX) *TradingHubRepoI {
	return &TradingHubRepoI{db: db}
}

const hubColumns = `id, name, galaxy_id, location_id, is_active, ship_stock`

func scanHub(row rowScanner) (TradingHub, error) {
	var h TradingHub
	err := row.Scan(&h.ID, &h.Name, &h.GalaxyID, &h.LocationID, &h.IsActive, &h.ShipStock)
	return h, err
}

func (r *TradingHubRepoI) Create(ctx context.Context, h TradingHub) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO trading_hubs (name, galaxy_id, location_id, is_active, ship_stock)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, h.Name, h.GalaxyID, h.LocationID, h.IsActive, h.ShipStock).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *TradingHubRepoI) Read(ctx context.Context, id int64) (TradingHub, error) {
	h, err := scanHub(r.db.QueryRowContext(ctx, `SELECT `+hubColumns+` FROM trading_hubs WHERE id = $1`, id))
	if err != nil {
		return TradingHub{}, err
	}
	return h, nil
}

func (r *TradingHubRepoI) FirstWithShipStock(ctx context.Context, galaxyID int64) (TradingHub, error) {
	h, err := scanHub(r.db.QueryRowContext(ctx, `
		SELECT `+hubColumns+`
		FROM trading_hubs
		WHERE galaxy_id = $1 AND is_active = TRUE AND ship_stock > 0
		ORDER BY id ASC
		LIMIT 1
	`, galaxyID))
	if err != nil {
		return TradingHub{}, err
	}
	return h, nil
}

func (r *TradingHubRepoI) FirstActive(ctx context.Context, galaxyID int64) (TradingHub, error) {
	h, err := scanHub(r.db.QueryRowContext(ctx, `
		SELECT `+hubColumns+`
		FROM trading_hubs
		WHERE is_active = TRUE
		ORDER BY CASE WHEN galaxy_id = $1 THEN 0 ELSE 1 END, id ASC
		LIMIT 1
	`, galaxyID))
	if err != nil {
		return TradingHub{}, err
	}
	return h, nil
}
