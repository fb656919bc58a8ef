package domain

import "time"

type Tournament struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Date            string    `json:"date"`
	VenueID         *string   `json:"venueId,omitempty"`
	Format          string    `json:"format"`
	EntryFee        float64   `json:"entryFee"`
	MaxParticipants int       `json:"maxParticipants"`
	Prizes          []string  `json:"prizes"`
	OrganizerID     string    `json:"organizerId"`
	EntryCount      int       `json:"entryCount"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Job is a staff role (umpire, line judge, desk) an organizer posts for a
// tournament.
type Job struct {
	ID               string    `json:"id"`
	TournamentID     string    `json:"tournamentId"`
	Role             string    `json:"role"`
	Description      string    `json:"description"`
	Pay              float64   `json:"pay"`
	Slots            int       `json:"slots"`
	ApplicationCount int       `json:"applicationCount"`
	CreatedAt        time.Time `json:"createdAt"`
}

type JobApplication struct {
	ID        string    `json:"id"`
	JobID     string    `json:"jobId"`
	PlayerID  string    `json:"playerId"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
