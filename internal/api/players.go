package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gorilla/mux"
	"github.com/susu3304/smashmate/internal/domain"
)

const (
	defaultDiscoverLimit = 20
	maxDiscoverLimit     = 100
	maxMessageLength     = 2000
	maxBioLength         = 500
)

type updateProfileRequest struct {
	Name          *string  `json:"name"`
	AvatarURL     *string  `json:"avatarUrl"`
	Level         *string  `json:"level"`
	Hand          *string  `json:"hand"`
	Bio           *string  `json:"bio"`
	PreferredDays []string `json:"preferredDays"`
	HomeVenueID   *string  `json:"homeVenueId"`
}

func (req updateProfileRequest) validate() error {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", domain.ErrValidation)
	}
	if req.Level != nil && !domain.ValidLevel(*req.Level) {
		return fmt.Errorf("%w: level must be one of %s", domain.ErrValidation, strings.Join(domain.Levels, ", "))
	}
	if req.Hand != nil && !domain.ValidHand(*req.Hand) {
		return fmt.Errorf("%w: hand must be one of %s", domain.ErrValidation, strings.Join(domain.Hands, ", "))
	}
	if req.Bio != nil && utf8.RuneCountInString(*req.Bio) > maxBioLength {
		return fmt.Errorf("%w: bio is longer than %d characters", domain.ErrValidation, maxBioLength)
	}
	for _, d := range req.PreferredDays {
		if !domain.ValidDay(d) {
			return fmt.Errorf("%w: unknown day %q", domain.ErrValidation, d)
		}
	}
	return nil
}

func (a *API) handleGetMe(w http.ResponseWriter, r *http.Request) {
	p, err := a.store.GetPlayer(r.Context(), identityFrom(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if req.HomeVenueID != nil {
		if _, err := a.store.GetVenue(r.Context(), *req.HomeVenueID); err != nil {
			writeError(w, r, fmt.Errorf("home venue: %w", err))
			return
		}
	}

	p, err := a.store.UpdatePlayer(r.Context(), identityFrom(r.Context()).UserID, domain.ProfileUpdate{
		Name:          req.Name,
		AvatarURL:     req.AvatarURL,
		Level:         req.Level,
		Hand:          req.Hand,
		Bio:           req.Bio,
		PreferredDays: req.PreferredDays,
		HomeVenueID:   req.HomeVenueID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) handleDiscover(w http.ResponseWriter, r *http.Request) {
	limit := defaultDiscoverLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, r, fmt.Errorf("%w: limit must be a positive integer", domain.ErrValidation))
			return
		}
		limit = min(n, maxDiscoverLimit)
	}

	cards, err := a.store.DiscoverPlayers(r.Context(), identityFrom(r.Context()).UserID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	for i := range cards {
		cards[i].Email = ""
	}
	writeJSON(w, http.StatusOK, nonNil(cards))
}

func (a *API) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, err := a.store.GetPlayer(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if id != identityFrom(r.Context()).UserID {
		p.Email = ""
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) handleSwipe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetID string `json:"targetId"`
		Liked    *bool  `json:"liked"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	me := identityFrom(r.Context()).UserID
	switch {
	case req.TargetID == "" || req.Liked == nil:
		writeError(w, r, fmt.Errorf("%w: targetId and liked are required", domain.ErrValidation))
		return
	case req.TargetID == me:
		writeError(w, r, fmt.Errorf("%w: cannot swipe on yourself", domain.ErrValidation))
		return
	}

	res, err := a.store.Swipe(r.Context(), me, req.TargetID, *req.Liked)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) handleListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := a.store.ListMatches(r.Context(), identityFrom(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(matches))
}

// matchFor loads a match the caller is part of.
func (a *API) matchFor(r *http.Request) (*domain.Match, error) {
	m, err := a.store.GetMatch(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		return nil, err
	}
	if !m.Has(identityFrom(r.Context()).UserID) {
		return nil, fmt.Errorf("%w: not part of this match", domain.ErrForbidden)
	}
	return m, nil
}

func (a *API) handleListMessages(w http.ResponseWriter, r *http.Request) {
	m, err := a.matchFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	msgs, err := a.store.ListMessages(r.Context(), m.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(msgs))
}

func (a *API) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Body string `json:"body"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	body := strings.TrimSpace(req.Body)
	if body == "" || utf8.RuneCountInString(body) > maxMessageLength {
		writeError(w, r, fmt.Errorf("%w: message must be 1-%d characters", domain.ErrValidation, maxMessageLength))
		return
	}

	m, err := a.matchFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	msg, err := a.store.AddMessage(r.Context(), m.ID, identityFrom(r.Context()).UserID, body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}
