package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/susu3304/smashmate/internal/domain"
)

const tournamentSelect = `SELECT t.id, t.name, t.date, t.venue_id, t.format, t.entry_fee, t.max_participants, t.prizes, t.organizer_id, t.created_at,
	(SELECT COUNT(*) FROM tournament_entries e WHERE e.tournament_id = t.id)
	FROM tournaments t`

func scanTournament(row pgx.Row) (*domain.Tournament, error) {
	var t domain.Tournament
	if err := row.Scan(&t.ID, &t.Name, &t.Date, &t.VenueID, &t.Format, &t.EntryFee, &t.MaxParticipants, &t.Prizes, &t.OrganizerID, &t.CreatedAt, &t.EntryCount); err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (db *DB) CreateTournament(ctx context.Context, t *domain.Tournament) error {
	if t.Prizes == nil {
		t.Prizes = []string{}
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO tournaments (id, name, date, venue_id, format, entry_fee, max_participants, prizes, organizer_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.Name, t.Date, t.VenueID, t.Format, t.EntryFee, t.MaxParticipants, t.Prizes, t.OrganizerID, t.CreatedAt,
	)
	return mapErr(err)
}

func (db *DB) GetTournament(ctx context.Context, id string) (*domain.Tournament, error) {
	return scanTournament(db.pool.QueryRow(ctx, tournamentSelect+` WHERE t.id = $1`, id))
}

// ListTournaments returns tournaments on or after fromDate (YYYY-MM-DD), soonest
// first. An empty fromDate lists everything.
func (db *DB) ListTournaments(ctx context.Context, fromDate string) ([]*domain.Tournament, error) {
	rows, err := db.pool.Query(ctx, tournamentSelect+` WHERE ($1 = '' OR t.date >= $1) ORDER BY t.date, t.name`, fromDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Tournament
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// EnterTournament registers a player. The tournament row is locked so the
// capacity check and insert cannot race. A max of 0 means unlimited.
func (db *DB) EnterTournament(ctx context.Context, tournamentID, playerID string) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var limit int
	if err := tx.QueryRow(ctx,
		`SELECT max_participants FROM tournaments WHERE id = $1 FOR UPDATE`,
		tournamentID,
	).Scan(&limit); err != nil {
		return mapErr(err)
	}

	var entries int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM tournament_entries WHERE tournament_id = $1`,
		tournamentID,
	).Scan(&entries); err != nil {
		return err
	}
	if limit > 0 && entries >= limit {
		return fmt.Errorf("%w: %d/%d entries", domain.ErrTournamentFull, entries, limit)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO tournament_entries (tournament_id, player_id) VALUES ($1, $2)`,
		tournamentID, playerID,
	); err != nil {
		return mapErr(err)
	}
	return tx.Commit(ctx)
}

func (db *DB) CreateJob(ctx context.Context, j *domain.Job) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO jobs (id, tournament_id, role, description, pay, slots, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		j.ID, j.TournamentID, j.Role, j.Description, j.Pay, j.Slots, j.CreatedAt,
	)
	return mapErr(err)
}

const jobSelect = `SELECT j.id, j.tournament_id, j.role, j.description, j.pay, j.slots, j.created_at,
	(SELECT COUNT(*) FROM job_applications a WHERE a.job_id = j.id)
	FROM jobs j`

func scanJob(row pgx.Row) (*domain.Job, error) {
	var j domain.Job
	if err := row.Scan(&j.ID, &j.TournamentID, &j.Role, &j.Description, &j.Pay, &j.Slots, &j.CreatedAt, &j.ApplicationCount); err != nil {
		return nil, mapErr(err)
	}
	return &j, nil
}

func (db *DB) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	return scanJob(db.pool.QueryRow(ctx, jobSelect+` WHERE j.id = $1`, id))
}

func (db *DB) ListJobs(ctx context.Context, tournamentID string) ([]*domain.Job, error) {
	rows, err := db.pool.Query(ctx, jobSelect+` WHERE j.tournament_id = $1 ORDER BY j.created_at`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// ApplyForJob fails with domain.ErrConflict when the player already applied.
func (db *DB) ApplyForJob(ctx context.Context, a *domain.JobApplication) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO job_applications (id, job_id, player_id, message, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.JobID, a.PlayerID, a.Message, a.Status, a.CreatedAt,
	)
	return mapErr(err)
}
