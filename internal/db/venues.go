package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/susu3304/smashmate/internal/domain"
)

const venueColumns = `id, name, address, courts, price_per_hour, maps_url, lat, lng, created_at`

func scanVenue(row pgx.Row) (*domain.Venue, error) {
	var v domain.Venue
	if err := row.Scan(&v.ID, &v.Name, &v.Address, &v.Courts, &v.PricePerHour, &v.MapsURL, &v.Lat, &v.Lng, &v.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &v, nil
}

func (db *DB) CreateVenue(ctx context.Context, v *domain.Venue) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO venues (id, name, address, courts, price_per_hour, maps_url, lat, lng, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		v.ID, v.Name, v.Address, v.Courts, v.PricePerHour, v.MapsURL, v.Lat, v.Lng, v.CreatedAt,
	)
	return mapErr(err)
}

func (db *DB) GetVenue(ctx context.Context, id string) (*domain.Venue, error) {
	return scanVenue(db.pool.QueryRow(ctx, `SELECT `+venueColumns+` FROM venues WHERE id = $1`, id))
}

func (db *DB) ListVenues(ctx context.Context) ([]*domain.Venue, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+venueColumns+` FROM venues ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
