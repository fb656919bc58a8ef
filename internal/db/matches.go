package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/susu3304/smashmate/internal/domain"
)

// Swipe records a like or pass. A like answered by an earlier like from the
// target creates the match in the same transaction. Swiping twice on the same
// player overwrites the earlier decision.
func (db *DB) Swipe(ctx context.Context, swiperID, targetID string, liked bool) (domain.SwipeResult, error) {
	var res domain.SwipeResult

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return res, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO swipes (swiper_id, target_id, liked) VALUES ($1, $2, $3)
		 ON CONFLICT (swiper_id, target_id) DO UPDATE SET liked = EXCLUDED.liked, created_at = now()`,
		swiperID, targetID, liked,
	); err != nil {
		return res, mapErr(err)
	}

	if liked {
		var mutual bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM swipes WHERE swiper_id = $1 AND target_id = $2 AND liked = TRUE)`,
			targetID, swiperID,
		).Scan(&mutual); err != nil {
			return res, err
		}
		if mutual {
			a, b := swiperID, targetID
			if b < a {
				a, b = b, a
			}
			if err := tx.QueryRow(ctx,
				`INSERT INTO matches (id, player_a, player_b) VALUES ($1, $2, $3)
				 ON CONFLICT (player_a, player_b) DO UPDATE SET player_a = EXCLUDED.player_a
				 RETURNING id`,
				uuid.New().String(), a, b,
			).Scan(&res.MatchID); err != nil {
				return res, err
			}
			res.Matched = true
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.SwipeResult{}, err
	}
	return res, nil
}

func scanMatch(row pgx.Row) (*domain.Match, error) {
	var m domain.Match
	if err := row.Scan(&m.ID, &m.PlayerA, &m.PlayerB, &m.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

func (db *DB) GetMatch(ctx context.Context, id string) (*domain.Match, error) {
	return scanMatch(db.pool.QueryRow(ctx, `SELECT id, player_a, player_b, created_at FROM matches WHERE id = $1`, id))
}

func (db *DB) ListMatches(ctx context.Context, playerID string) ([]*domain.Match, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, player_a, player_b, created_at FROM matches
		 WHERE player_a = $1 OR player_b = $1
		 ORDER BY created_at DESC`,
		playerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (db *DB) AddMessage(ctx context.Context, matchID, senderID, body string) (*domain.Message, error) {
	m := &domain.Message{
		ID:        uuid.New().String(),
		MatchID:   matchID,
		SenderID:  senderID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO messages (id, match_id, sender_id, body, created_at) VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.MatchID, m.SenderID, m.Body, m.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return m, nil
}

// ListMessages returns a match's messages oldest first.
func (db *DB) ListMessages(ctx context.Context, matchID string) ([]*domain.Message, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, match_id, sender_id, body, created_at FROM messages WHERE match_id = $1 ORDER BY created_at, id`,
		matchID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.MatchID, &m.SenderID, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
