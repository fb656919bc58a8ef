package db

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/susu3304/smashmate/internal/domain"
	"github.com/susu3304/smashmate/internal/geo"
)

const playerColumns = `id, name, email, avatar_url, level, hand, bio, preferred_days, home_venue_id, created_at`

func scanPlayer(row pgx.Row) (*domain.Player, error) {
	var p domain.Player
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.AvatarURL, &p.Level, &p.Hand, &p.Bio, &p.PreferredDays, &p.HomeVenueID, &p.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

// UpsertPlayer records a login. Name, email and avatar follow the identity
// provider; profile fields edited in the app are kept.
func (db *DB) UpsertPlayer(ctx context.Context, id, name, email, avatarURL string) (*domain.Player, error) {
	return scanPlayer(db.pool.QueryRow(ctx,
		`INSERT INTO players (id, name, email, avatar_url)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name, email = EXCLUDED.email, avatar_url = EXCLUDED.avatar_url
		 RETURNING `+playerColumns,
		id, name, email, avatarURL,
	))
}

func (db *DB) GetPlayer(ctx context.Context, id string) (*domain.Player, error) {
	return scanPlayer(db.pool.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id))
}

func (db *DB) UpdatePlayer(ctx context.Context, id string, u domain.ProfileUpdate) (*domain.Player, error) {
	return scanPlayer(db.pool.QueryRow(ctx,
		`UPDATE players SET
			name = COALESCE($2, name),
			avatar_url = COALESCE($3, avatar_url),
			level = COALESCE($4, level),
			hand = COALESCE($5, hand),
			bio = COALESCE($6, bio),
			preferred_days = COALESCE($7, preferred_days),
			home_venue_id = COALESCE($8, home_venue_id)
		 WHERE id = $1
		 RETURNING `+playerColumns,
		id, u.Name, u.AvatarURL, u.Level, u.Hand, u.Bio, u.PreferredDays, u.HomeVenueID,
	))
}

// DiscoverPlayers returns players the viewer has not swiped on yet, nearest
// home venue first. Players without coordinates go last.
func (db *DB) DiscoverPlayers(ctx context.Context, viewerID string, limit int) ([]domain.PlayerCard, error) {
	var viewerLat, viewerLng *float64
	err := db.pool.QueryRow(ctx,
		`SELECT v.lat, v.lng FROM players p LEFT JOIN venues v ON v.id = p.home_venue_id WHERE p.id = $1`,
		viewerID,
	).Scan(&viewerLat, &viewerLng)
	if err != nil {
		return nil, mapErr(err)
	}

	rows, err := db.pool.Query(ctx,
		`SELECT p.id, p.name, p.avatar_url, p.level, p.hand, p.bio, p.preferred_days, p.home_venue_id, p.created_at, v.lat, v.lng
		 FROM players p
		 LEFT JOIN venues v ON v.id = p.home_venue_id
		 WHERE p.id <> $1
		   AND NOT EXISTS (SELECT 1 FROM swipes s WHERE s.swiper_id = $1 AND s.target_id = p.id)
		 ORDER BY p.created_at DESC`,
		viewerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []domain.PlayerCard
	for rows.Next() {
		var c domain.PlayerCard
		var lat, lng *float64
		if err := rows.Scan(&c.ID, &c.Name, &c.AvatarURL, &c.Level, &c.Hand, &c.Bio, &c.PreferredDays, &c.HomeVenueID, &c.CreatedAt, &lat, &lng); err != nil {
			return nil, err
		}
		if viewerLat != nil && viewerLng != nil && lat != nil && lng != nil {
			d := geo.DistanceMeters(*viewerLat, *viewerLng, *lat, *lng)
			c.DistanceMeters = &d
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(cards, func(i, j int) bool {
		a, b := cards[i].DistanceMeters, cards[j].DistanceMeters
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	if limit > 0 && len(cards) > limit {
		cards = cards[:limit]
	}
	return cards, nil
}
