package pgsql

import (
	"context"
	"time"
)

type ColonyRepoI struct{ db DBTX }

func NewColonyRepoI(db DBTX) *ColonyRepoI {
	return &ColonyRepoI{db: db}
}

const colonyColumns = `id, uuid, player_id, name, location_id, population, development_level, defense_rating, garrison_strength, updated_at`

func (r *ColonyRepoI) Create(ctx context.Context, c Colony) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO colonies (uuid, player_id, name, location_id, population, development_level, defense_rating, garrison_strength, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, c.UUID, c.PlayerID, c.Name, c.LocationID, c.Population, c.DevelopmentLevel, c.DefenseRating,
		c.GarrisonStrength, time.Now().UTC()).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *ColonyRepoI) Read(ctx context.Context, id int64) (Colony, error) {
	var c Colony
	err := r.db.QueryRowContext(ctx, `SELECT `+colonyColumns+` FROM colonies WHERE id = $1`, id).Scan(
		&c.ID, &c.UUID, &c.PlayerID, &c.Name, &c.LocationID, &c.Population, &c.DevelopmentLevel,
		&c.DefenseRating, &c.GarrisonStrength, &c.UpdatedAt)
	if err != nil {
		return Colony{}, err
	}
	return c, nil
}

func (r *ColonyRepoI) Update(ctx context.Context, c Colony) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE colonies
		SET player_id = $2, name = $3, population = $4, development_level = $5,
		    defense_rating = $6, garrison_strength = $7, updated_at = $8
		WHERE id = $1
	`, c.ID, c.PlayerID, c.Name, c.Population, c.DevelopmentLevel, c.DefenseRating, c.GarrisonStrength, time.Now().UTC())
	return err
}

type ColonyBuildingRepoI struct{ db DBTX }

func NewColonyBuildingRepoI(db DBTX) *ColonyBuildingRepoI {
	return &ColonyBuildingRepoI{db: db}
}

func (r *ColonyBuildingRepoI) Create(ctx context.Context, b ColonyBuilding) (int64, error) {
	if b.Status == "" {
		b.Status = BuildingOperational
	}
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO colony_buildings (colony_id, building_type, status) VALUES ($1, $2, $3) RETURNING id
	`, b.ColonyID, b.BuildingType, b.Status).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *ColonyBuildingRepoI) ListByColony(ctx context.Context, colonyID int64) ([]ColonyBuilding, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, colony_id, building_type, status
		FROM colony_buildings
		WHERE colony_id = $1
		ORDER BY id ASC
	`, colonyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ColonyBuilding, 0)
	for rows.Next() {
		var b ColonyBuilding
		if err := rows.Scan(&b.ID, &b.ColonyID, &b.BuildingType, &b.Status); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ColonyBuildingRepoI) UpdateStatus(ctx context.Context, id int64, status string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE colony_buildings SET status = $2 WHERE id = $1`, id, status)
	return err
}
