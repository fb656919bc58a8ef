package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/susu3304/smashmate/internal/domain"
	"github.com/susu3304/smashmate/internal/geo"
)

type createVenueRequest struct {
	Name         string  `json:"name"`
	Address      string  `json:"address"`
	Courts       int     `json:"courts"`
	PricePerHour float64 `json:"pricePerHour"`
	MapsURL      string  `json:"mapsUrl"`
}

func (a *API) handleListVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := a.store.ListVenues(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(venues))
}

func (a *API) handleCreateVenue(w http.ResponseWriter, r *http.Request) {
	var req createVenueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, fmt.Errorf("%w: name is required", domain.ErrValidation))
		return
	}
	if req.Courts == 0 {
		req.Courts = 1
	}
	if req.Courts < 0 || req.PricePerHour < 0 {
		writeError(w, r, fmt.Errorf("%w: courts and pricePerHour must not be negative", domain.ErrValidation))
		return
	}

	v := &domain.Venue{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		Address:      req.Address,
		Courts:       req.Courts,
		PricePerHour: req.PricePerHour,
		MapsURL:      req.MapsURL,
		CreatedAt:    a.now(),
	}
	if req.MapsURL != "" {
		lat, lng, err := a.resolver.Resolve(r.Context(), req.MapsURL)
		switch {
		case errors.Is(err, geo.ErrNoCoordinates):
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrValidation, err))
			return
		case err != nil:
			log.Printf("api: resolve map link %q: %v", req.MapsURL, err)
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: "could not resolve map link"})
			return
		}
		v.Lat, v.Lng = &lat, &lng
	}

	if err := a.store.CreateVenue(r.Context(), v); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}
