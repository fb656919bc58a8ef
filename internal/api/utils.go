package api

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/susu3304/smashmate/internal/domain"
	"github.com/susu3304/smashmate/internal/fare"
)

type errorResponse struct {
	Error      string         `json:"error"`
	Difference *float64       `json:"difference,omitempty"`
	Direction  fare.Direction `json:"direction,omitempty"`
}

func generateRandomString(length int) string {
	// base64 grows the input by 4/3, so length bytes is always enough
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand: %v", err))
	}
	encoded := base64.RawURLEncoding.EncodeToString(b)
	return encoded[:length]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err)
	}
	return nil
}

// decodeOptionalJSON is decodeJSON for endpoints where the body may be empty.
func decodeOptionalJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err)
}

// writeError maps domain errors to status codes. Anything unrecognized is
// logged and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var imbalance *fare.ImbalanceError
	if errors.As(err, &imbalance) {
		diff, _ := decimal.NewFromFloat(imbalance.Difference).Round(2).Float64()
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:      imbalance.Error(),
			Difference: &diff,
			Direction:  imbalance.Direction(),
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNotBalanced):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrVersionConflict),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrTournamentFull):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		log.Printf("api: %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, status, errorResponse{Error: "internal server error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
