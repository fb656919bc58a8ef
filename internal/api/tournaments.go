package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/susu3304/smashmate/internal/domain"
)

var tournamentFormats = []string{"singles", "doubles", "mixed"}

type createTournamentRequest struct {
	Name            string   `json:"name"`
	Date            string   `json:"date"`
	VenueID         *string  `json:"venueId"`
	Format          string   `json:"format"`
	EntryFee        float64  `json:"entryFee"`
	MaxParticipants int      `json:"maxParticipants"`
	Prizes          []string `json:"prizes"`
}

func (req *createTournamentRequest) validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrValidation)
	}
	if req.Format == "" {
		req.Format = tournamentFormats[0]
	}
	valid := false
	for _, f := range tournamentFormats {
		if f == req.Format {
			valid = true
		}
	}
	if !valid {
		return fmt.Errorf("%w: format must be one of %s", domain.ErrValidation, strings.Join(tournamentFormats, ", "))
	}
	if req.EntryFee < 0 || req.MaxParticipants < 0 {
		return fmt.Errorf("%w: entryFee and maxParticipants must not be negative", domain.ErrValidation)
	}
	return nil
}

type createJobRequest struct {
	Role        string  `json:"role"`
	Description string  `json:"description"`
	Pay         float64 `json:"pay"`
	Slots       int     `json:"slots"`
}

func (a *API) handleListTournaments(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	if from != "" {
		if _, err := time.Parse("2006-01-02", from); err != nil {
			writeError(w, r, fmt.Errorf("%w: from must be YYYY-MM-DD", domain.ErrValidation))
			return
		}
	}
	ts, err := a.store.ListTournaments(r.Context(), from)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(ts))
}

func (a *API) handleGetTournament(w http.ResponseWriter, r *http.Request) {
	t, err := a.store.GetTournament(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *API) handleCreateTournament(w http.ResponseWriter, r *http.Request) {
	var req createTournamentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, err)
		return
	}

	t := &domain.Tournament{
		ID:              uuid.New().String(),
		Name:            strings.TrimSpace(req.Name),
		Date:            req.Date,
		VenueID:         req.VenueID,
		Format:          req.Format,
		EntryFee:        req.EntryFee,
		MaxParticipants: req.MaxParticipants,
		Prizes:          nonNil(req.Prizes),
		OrganizerID:     identityFrom(r.Context()).UserID,
		CreatedAt:       a.now(),
	}
	if err := a.store.CreateTournament(r.Context(), t); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (a *API) handleEnterTournament(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := a.store.EnterTournament(r.Context(), id, identityFrom(r.Context()).UserID); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := a.store.GetTournament(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *API) handleListJobs(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := a.store.GetTournament(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	jobs, err := a.store.ListJobs(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(jobs))
}

// handleCreateJob lets the organizer post a staff role.
func (a *API) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Role) == "" {
		writeError(w, r, fmt.Errorf("%w: role is required", domain.ErrValidation))
		return
	}
	if req.Slots == 0 {
		req.Slots = 1
	}
	if req.Slots < 0 || req.Pay < 0 {
		writeError(w, r, fmt.Errorf("%w: slots and pay must not be negative", domain.ErrValidation))
		return
	}

	t, err := a.store.GetTournament(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	if t.OrganizerID != identityFrom(r.Context()).UserID {
		writeError(w, r, fmt.Errorf("%w: only the organizer can post jobs", domain.ErrForbidden))
		return
	}

	j := &domain.Job{
		ID:           uuid.New().String(),
		TournamentID: t.ID,
		Role:         strings.TrimSpace(req.Role),
		Description:  req.Description,
		Pay:          req.Pay,
		Slots:        req.Slots,
		CreatedAt:    a.now(),
	}
	if err := a.store.CreateJob(r.Context(), j); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, j)
}

func (a *API) handleApplyForJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	job, err := a.store.GetJob(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	app := &domain.JobApplication{
		ID:        uuid.New().String(),
		JobID:     job.ID,
		PlayerID:  identityFrom(r.Context()).UserID,
		Message:   req.Message,
		Status:    "pending",
		CreatedAt: a.now(),
	}
	if err := a.store.ApplyForJob(r.Context(), app); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}
