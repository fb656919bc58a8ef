package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/susu3304/smashmate/internal/domain"
)

const clubSelect = `SELECT c.id, c.name, c.description, c.venue_id, c.meeting_days, c.owner_id, c.created_at,
	(SELECT COUNT(*) FROM club_members m WHERE m.club_id = c.id)
	FROM clubs c`

func scanClub(row pgx.Row) (*domain.Club, error) {
	var c domain.Club
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.VenueID, &c.MeetingDays, &c.OwnerID, &c.CreatedAt, &c.MemberCount); err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

// CreateClub inserts the club and makes its owner the first member.
func (db *DB) CreateClub(ctx context.Context, c *domain.Club) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if c.MeetingDays == nil {
		c.MeetingDays = []string{}
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO clubs (id, name, description, venue_id, meeting_days, owner_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Name, c.Description, c.VenueID, c.MeetingDays, c.OwnerID, c.CreatedAt,
	); err != nil {
		return mapErr(err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO club_members (club_id, player_id) VALUES ($1, $2)`,
		c.ID, c.OwnerID,
	); err != nil {
		return mapErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	c.MemberCount = 1
	return nil
}

func (db *DB) GetClub(ctx context.Context, id string) (*domain.Club, error) {
	return scanClub(db.pool.QueryRow(ctx, clubSelect+` WHERE c.id = $1`, id))
}

func (db *DB) ListClubs(ctx context.Context) ([]*domain.Club, error) {
	rows, err := db.pool.Query(ctx, clubSelect+` ORDER BY c.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Club
	for rows.Next() {
		c, err := scanClub(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// JoinClub fails with domain.ErrConflict when the player is already a member.
func (db *DB) JoinClub(ctx context.Context, clubID, playerID string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO club_members (club_id, player_id) VALUES ($1, $2)`,
		clubID, playerID,
	)
	return mapErr(err)
}

func (db *DB) LeaveClub(ctx context.Context, clubID, playerID string) error {
	ct, err := db.pool.Exec(ctx,
		`DELETE FROM club_members WHERE club_id = $1 AND player_id = $2`,
		clubID, playerID,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
