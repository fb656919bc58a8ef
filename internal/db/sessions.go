package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/susu3304/smashmate/internal/domain"
	"github.com/susu3304/smashmate/internal/fare"
)

// ReminderDue is a session whose unpaid reminder should be sent now.
type ReminderDue struct {
	SessionID       string
	ChannelID       string
	IntervalMinutes int
}

const sessionColumns = `id, date, start_time, duration, venue_id, total_cost, split_mode, status, creator_id, version, created_at`

func scanSession(row pgx.Row) (*domain.Session, error) {
	var s domain.Session
	if err := row.Scan(&s.ID, &s.Date, &s.Time, &s.Duration, &s.VenueID, &s.TotalCost, &s.SplitMode, &s.Status, &s.CreatorID, &s.Version, &s.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

func (db *DB) participants(ctx context.Context, sessionID string) ([]domain.Participant, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT player_id, name, avatar_url, share, custom_share, percentage, paid
		 FROM session_participants
		 WHERE session_id = $1
		 ORDER BY position`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Participant{}
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.PlayerID, &p.Name, &p.AvatarURL, &p.Share, &p.CustomShare, &p.Percentage, &p.Paid); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (db *DB) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	s, err := scanSession(db.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if s.Participants, err = db.participants(ctx, id); err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	return s, nil
}

// ListSessionsForPlayer returns sessions the player created or takes part in,
// most recent date first.
func (db *DB) ListSessionsForPlayer(ctx context.Context, playerID string) ([]*domain.Session, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions s
		 WHERE s.creator_id = $1
		    OR EXISTS (SELECT 1 FROM session_participants p WHERE p.session_id = s.id AND p.player_id = $1)
		 ORDER BY s.date DESC, s.start_time DESC`,
		playerID,
	)
	if err != nil {
		return nil, err
	}
	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, s := range out {
		if s.Participants, err = db.participants(ctx, s.ID); err != nil {
			return nil, fmt.Errorf("load participants: %w", err)
		}
	}
	return out, nil
}

func (db *DB) CreateSession(ctx context.Context, s *domain.Session) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO sessions (id, date, start_time, duration, venue_id, total_cost, split_mode, status, creator_id, version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.ID, s.Date, s.Time, s.Duration, s.VenueID, s.TotalCost, s.SplitMode, s.Status, s.CreatorID, s.Version, s.CreatedAt,
	); err != nil {
		return mapErr(err)
	}

	for i, p := range s.Participants {
		if _, err := tx.Exec(ctx,
			`INSERT INTO session_participants (session_id, player_id, position, name, avatar_url, share, custom_share, percentage, paid)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			s.ID, p.PlayerID, i, p.Name, p.AvatarURL, p.Share, p.CustomShare, p.Percentage, p.Paid,
		); err != nil {
			return mapErr(err)
		}
	}
	return tx.Commit(ctx)
}

func (db *DB) UpdateSession(ctx context.Context, s *domain.Session) (int, error) {
	var version int
	err := db.pool.QueryRow(ctx,
		`UPDATE sessions
		 SET date = $3, start_time = $4, duration = $5, venue_id = $6, total_cost = $7, split_mode = $8, version = version + 1
		 WHERE id = $1 AND version = $2
		 RETURNING version`,
		s.ID, s.Version, s.Date, s.Time, s.Duration, s.VenueID, s.TotalCost, s.SplitMode,
	).Scan(&version)
	if err != nil {
		return 0, db.versionErr(ctx, s.ID, mapErr(err))
	}
	return version, nil
}

// versionErr tells a missing session apart from a stale version after an
// update matched no rows.
func (db *DB) versionErr(ctx context.Context, id string, err error) error {
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	var exists bool
	if qerr := db.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1)`, id).Scan(&exists); qerr != nil {
		return qerr
	}
	if exists {
		return domain.ErrVersionConflict
	}
	return domain.ErrNotFound
}

// SetSessionStatus moves the session only if it is still in status from.
func (db *DB) SetSessionStatus(ctx context.Context, id string, from, to domain.SessionStatus) error {
	ct, err := db.pool.Exec(ctx,
		`UPDATE sessions SET status = $3 WHERE id = $1 AND status = $2`,
		id, from, to,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: session %s is no longer %s", domain.ErrInvalidTransition, id, from)
	}
	return nil
}

func (db *DB) SetParticipantPaid(ctx context.Context, sessionID, playerID string, paid bool) (int, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx,
		`UPDATE session_participants SET paid = $3 WHERE session_id = $1 AND player_id = $2`,
		sessionID, playerID, paid,
	)
	if err != nil {
		return 0, err
	}
	if ct.RowsAffected() == 0 {
		return 0, domain.ErrNotFound
	}
	if _, err := tx.Exec(ctx,
		`UPDATE session_allocations SET is_paid = $3 WHERE session_id = $1 AND participant_id = $2`,
		sessionID, playerID, paid,
	); err != nil {
		return 0, err
	}

	var version int
	if err := tx.QueryRow(ctx,
		`UPDATE sessions SET version = version + 1 WHERE id = $1 RETURNING version`,
		sessionID,
	).Scan(&version); err != nil {
		return 0, mapErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return version, nil
}

func (db *DB) DeleteSession(ctx context.Context, id string) error {
	ct, err := db.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetAllocation returns the saved allocation in participant order, or nil when
// the organizer never saved one.
func (db *DB) GetAllocation(ctx context.Context, sessionID string) ([]fare.Allocation, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT participant_id, name, avatar_url, amount, percentage, is_included, is_paid
		 FROM session_allocations
		 WHERE session_id = $1
		 ORDER BY position`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []fare.Allocation
	for rows.Next() {
		var a fare.Allocation
		if err := rows.Scan(&a.ParticipantID, &a.Name, &a.AvatarURL, &a.Amount, &a.Percentage, &a.IsIncluded, &a.IsPaid); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ReplaceAllocation swaps the saved allocation and mirrors amounts and paid
// flags onto the participants. The session row is locked for the duration so
// concurrent saves serialize on the version check.
func (db *DB) ReplaceAllocation(ctx context.Context, sessionID string, expectedVersion int, allocs []fare.Allocation) (int, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current int
	if err := tx.QueryRow(ctx,
		`SELECT version FROM sessions WHERE id = $1 FOR UPDATE`,
		sessionID,
	).Scan(&current); err != nil {
		return 0, mapErr(err)
	}
	if current != expectedVersion {
		return 0, fmt.Errorf("%w: expected version %d, found %d", domain.ErrVersionConflict, expectedVersion, current)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM session_allocations WHERE session_id = $1`, sessionID); err != nil {
		return 0, err
	}
	for i, a := range allocs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO session_allocations (session_id, participant_id, position, name, avatar_url, amount, percentage, is_included, is_paid)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			sessionID, a.ParticipantID, i, a.Name, a.AvatarURL, a.Amount, a.Percentage, a.IsIncluded, a.IsPaid,
		); err != nil {
			return 0, mapErr(err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE session_participants SET share = $3, paid = $4 WHERE session_id = $1 AND player_id = $2`,
			sessionID, a.ParticipantID, a.Amount, a.IsPaid,
		); err != nil {
			return 0, err
		}
	}

	var version int
	if err := tx.QueryRow(ctx,
		`UPDATE sessions SET version = version + 1 WHERE id = $1 RETURNING version`,
		sessionID,
	).Scan(&version); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return version, nil
}

// GetReminder returns nil without error when no schedule exists.
func (db *DB) GetReminder(ctx context.Context, sessionID string) (*domain.ReminderSchedule, error) {
	var r domain.ReminderSchedule
	err := db.pool.QueryRow(ctx,
		`SELECT session_id, enabled, interval_minutes, channel_id, next_due_at, last_sent_at
		 FROM session_reminders WHERE session_id = $1`,
		sessionID,
	).Scan(&r.SessionID, &r.Enabled, &r.IntervalMinutes, &r.ChannelID, &r.NextDueAt, &r.LastSentAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (db *DB) UpsertReminder(ctx context.Context, r domain.ReminderSchedule) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO session_reminders (session_id, enabled, interval_minutes, channel_id, next_due_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (session_id) DO UPDATE
		 SET enabled = EXCLUDED.enabled,
		     interval_minutes = EXCLUDED.interval_minutes,
		     channel_id = EXCLUDED.channel_id,
		     next_due_at = EXCLUDED.next_due_at`,
		r.SessionID, r.Enabled, r.IntervalMinutes, r.ChannelID, r.NextDueAt,
	)
	return mapErr(err)
}

// DueReminders returns enabled reminders that are due for sessions which are
// not cancelled and still have someone unpaid.
func (db *DB) DueReminders(ctx context.Context, now time.Time) ([]ReminderDue, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT r.session_id, r.channel_id, r.interval_minutes
		 FROM session_reminders r
		 JOIN sessions s ON s.id = r.session_id
		 WHERE r.enabled = TRUE
		   AND s.status <> 'cancelled'
		   AND (r.next_due_at IS NULL OR r.next_due_at <= $1)
		   AND EXISTS (
			 SELECT 1 FROM session_participants p
			 WHERE p.session_id = r.session_id AND p.paid = FALSE
		   )`,
		now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []ReminderDue
	for rows.Next() {
		var r ReminderDue
		if err := rows.Scan(&r.SessionID, &r.ChannelID, &r.IntervalMinutes); err != nil {
			return nil, err
		}
		targets = append(targets, r)
	}
	return targets, rows.Err()
}

// MarkReminderSent updates reminder schedule timestamps.
func (db *DB) MarkReminderSent(ctx context.Context, sessionID string, sentAt, nextDue time.Time) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE session_reminders SET last_sent_at = $2, next_due_at = $3 WHERE session_id = $1`,
		sessionID, sentAt, nextDue,
	)
	return err
}

// DelayReminder updates next_due_at without touching last_sent_at.
func (db *DB) DelayReminder(ctx context.Context, sessionID string, nextDue time.Time) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE session_reminders SET next_due_at = $2 WHERE session_id = $1`,
		sessionID, nextDue,
	)
	return err
}
