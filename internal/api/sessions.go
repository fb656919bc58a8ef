package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/susu3304/smashmate/internal/domain"
	"github.com/susu3304/smashmate/internal/fare"
	"github.com/susu3304/smashmate/internal/session"
)

type participantRequest struct {
	PlayerID    string   `json:"playerId"`
	Name        string   `json:"name"`
	AvatarURL   string   `json:"avatarUrl"`
	Share       float64  `json:"share"`
	CustomShare *float64 `json:"customShare"`
	Percentage  *float64 `json:"percentage"`
	Paid        bool     `json:"paid"`
}

type createSessionRequest struct {
	Date         string               `json:"date"`
	Time         string               `json:"time"`
	Duration     *float64             `json:"duration"`
	VenueID      string               `json:"venueId"`
	TotalCost    *float64             `json:"totalCost"`
	SplitMode    *domain.SplitMode    `json:"splitMode"`
	Participants []participantRequest `json:"participants"`
}

func (req createSessionRequest) toInput() session.CreateInput {
	in := session.CreateInput{
		Date:      req.Date,
		Time:      req.Time,
		Duration:  req.Duration,
		VenueID:   req.VenueID,
		TotalCost: req.TotalCost,
		SplitMode: req.SplitMode,
	}
	for _, p := range req.Participants {
		in.Participants = append(in.Participants, session.ParticipantInput{
			PlayerID:    p.PlayerID,
			Name:        p.Name,
			AvatarURL:   p.AvatarURL,
			Share:       p.Share,
			CustomShare: p.CustomShare,
			Percentage:  p.Percentage,
			Paid:        p.Paid,
		})
	}
	return in
}

// patchSessionRequest is either a partial field update or, with action
// "payment", a single participant's paid flag.
type patchSessionRequest struct {
	SessionID string `json:"sessionId"`
	Action    string `json:"action"`
	PlayerID  string `json:"playerId"`
	Paid      *bool  `json:"paid"`

	Date      *string           `json:"date"`
	Time      *string           `json:"time"`
	Duration  *float64          `json:"duration"`
	VenueID   *string           `json:"venueId"`
	TotalCost *float64          `json:"totalCost"`
	SplitMode *domain.SplitMode `json:"splitMode"`
}

func (req patchSessionRequest) toPatch() domain.SessionPatch {
	return domain.SessionPatch{
		Date:      req.Date,
		Time:      req.Time,
		Duration:  req.Duration,
		VenueID:   req.VenueID,
		TotalCost: req.TotalCost,
		SplitMode: req.SplitMode,
	}
}

type saveAllocationRequest struct {
	Version     *int              `json:"version"`
	Allocations []fare.Allocation `json:"allocations"`
}

type reminderRequest struct {
	Enabled         bool   `json:"enabled"`
	IntervalMinutes int    `json:"intervalMinutes"`
	ChannelID       string `json:"channelId"`
}

type remindResponse struct {
	Sent   bool              `json:"sent"`
	Unpaid []fare.Allocation `json:"unpaid"`
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (a *API) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := a.sessions.List(r.Context(), identityFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(sessions))
}

func (a *API) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s, err := a.sessions.Create(r.Context(), identityFrom(r.Context()), req.toInput())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (a *API) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, err := a.sessions.Get(r.Context(), identityFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (a *API) handlePatchSession(w http.ResponseWriter, r *http.Request) {
	var req patchSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	actor := identityFrom(r.Context())
	id := mux.Vars(r)["id"]
	if req.SessionID != "" && req.SessionID != id {
		writeError(w, r, fmt.Errorf("%w: sessionId does not match the path", domain.ErrValidation))
		return
	}

	var (
		s   *domain.Session
		err error
	)
	switch req.Action {
	case "":
		s, err = a.sessions.Update(r.Context(), actor, id, req.toPatch())
	case "payment":
		if req.Paid == nil {
			err = fmt.Errorf("%w: paid is required", domain.ErrValidation)
			break
		}
		if !req.toPatch().Empty() {
			err = fmt.Errorf("%w: payment updates cannot change other fields", domain.ErrValidation)
			break
		}
		s, err = a.sessions.SetPayment(r.Context(), actor, id, req.PlayerID, *req.Paid)
	default:
		err = fmt.Errorf("%w: unknown action %q", domain.ErrValidation, req.Action)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (a *API) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Delete(r.Context(), identityFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status domain.SessionStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s, err := a.sessions.Transition(r.Context(), identityFrom(r.Context()), mux.Vars(r)["id"], req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (a *API) handleGetAllocation(w http.ResponseWriter, r *http.Request) {
	view, err := a.sessions.LoadAllocation(r.Context(), identityFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleSaveAllocation(w http.ResponseWriter, r *http.Request) {
	var req saveAllocationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Version == nil {
		writeError(w, r, fmt.Errorf("%w: version is required", domain.ErrValidation))
		return
	}
	view, err := a.sessions.SaveAllocation(r.Context(), identityFrom(r.Context()), mux.Vars(r)["id"], *req.Version, req.Allocations)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleUnpaid(w http.ResponseWriter, r *http.Request) {
	unpaid, err := a.sessions.Unpaid(r.Context(), identityFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(unpaid))
}

func (a *API) handleRemind(w http.ResponseWriter, r *http.Request) {
	unpaid, err := a.sessions.Remind(r.Context(), identityFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, remindResponse{Sent: len(unpaid) > 0, Unpaid: nonNil(unpaid)})
}

func (a *API) handleConfigureReminder(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	schedule, err := a.sessions.ConfigureReminder(r.Context(), identityFrom(r.Context()), mux.Vars(r)["id"], session.ReminderInput{
		Enabled:         req.Enabled,
		IntervalMinutes: req.IntervalMinutes,
		ChannelID:       req.ChannelID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}
