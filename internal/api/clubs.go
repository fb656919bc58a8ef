package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/susu3304/smashmate/internal/domain"
)

type createClubRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	VenueID     *string  `json:"venueId"`
	MeetingDays []string `json:"meetingDays"`
}

func (a *API) handleListClubs(w http.ResponseWriter, r *http.Request) {
	clubs, err := a.store.ListClubs(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(clubs))
}

func (a *API) handleGetClub(w http.ResponseWriter, r *http.Request) {
	c, err := a.store.GetClub(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) handleCreateClub(w http.ResponseWriter, r *http.Request) {
	var req createClubRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, fmt.Errorf("%w: name is required", domain.ErrValidation))
		return
	}
	for _, d := range req.MeetingDays {
		if !domain.ValidDay(d) {
			writeError(w, r, fmt.Errorf("%w: unknown day %q", domain.ErrValidation, d))
			return
		}
	}

	c := &domain.Club{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		VenueID:     req.VenueID,
		MeetingDays: nonNil(req.MeetingDays),
		OwnerID:     identityFrom(r.Context()).UserID,
		CreatedAt:   a.now(),
	}
	if err := a.store.CreateClub(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (a *API) handleJoinClub(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := a.store.JoinClub(r.Context(), id, identityFrom(r.Context()).UserID); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := a.store.GetClub(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) handleLeaveClub(w http.ResponseWriter, r *http.Request) {
	if err := a.store.LeaveClub(r.Context(), mux.Vars(r)["id"], identityFrom(r.Context()).UserID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
