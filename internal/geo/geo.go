// Package geo resolves venue coordinates from map links and measures
// distances between them.
package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"
)

var (
	reAt     = regexp.MustCompile(`@(-?\d+(?:\.\d+)?),(-?\d+(?:\.\d+)?)`)
	re3d4d   = regexp.MustCompile(`!3d(-?\d+(?:\.\d+)?)!4d(-?\d+(?:\.\d+)?)`)
	reSearch = regexp.MustCompile(`/maps/search/(-?\d+(?:\.\d+)?),\s*\+?\s*(-?\d+(?:\.\d+)?)`)
	rePair   = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*$`)
)

var ErrNoCoordinates = errors.New("coordinates not found in map link")

type Resolver struct {
	client *http.Client
}

func NewResolver() *Resolver {
	return &Resolver{client: &http.Client{
		Timeout: 15 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("too many redirects")
			}
			return nil
		},
	}}
}

// Resolve returns the coordinates in a Google Maps link. Short links
// (maps.app.goo.gl and friends) are followed to their final URL first.
func (r *Resolver) Resolve(ctx context.Context, link string) (lat, lng float64, err error) {
	if lat, lng, ok := ExtractFromURL(link); ok {
		return lat, lng, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; smashmate/1.0)")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	if resp.Request == nil || resp.Request.URL == nil {
		return 0, 0, errors.New("failed to determine final URL")
	}
	finalURL := resp.Request.URL.String()
	lat, lng, ok := ExtractFromURL(finalURL)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", ErrNoCoordinates, finalURL)
	}
	return lat, lng, nil
}

func ExtractFromURL(s string) (lat, lng float64, ok bool) {
	for _, re := range []*regexp.Regexp{reAt, re3d4d, reSearch} {
		if m := re.FindStringSubmatch(s); len(m) == 3 {
			return parse2(m[1], m[2])
		}
	}

	u, err := url.Parse(s)
	if err != nil {
		return 0, 0, false
	}
	for _, key := range []string{"q", "query"} {
		if v := u.Query().Get(key); v != "" {
			if m := rePair.FindStringSubmatch(v); len(m) == 3 {
				return parse2(m[1], m[2])
			}
		}
	}
	return 0, 0, false
}

func parse2(a, b string) (lat, lng float64, ok bool) {
	la, err1 := strconv.ParseFloat(a, 64)
	lo, err2 := strconv.ParseFloat(b, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	if la < -90 || la > 90 || lo < -180 || lo > 180 {
		return 0, 0, false
	}
	return la, lo, true
}

// DistanceMeters is the haversine distance between two WGS84 points.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const R = 6371008.8 // mean Earth radius (m)
	φ1 := lat1 * math.Pi / 180.0
	φ2 := lat2 * math.Pi / 180.0
	dφ := (lat2 - lat1) * math.Pi / 180.0
	dλ := (lng2 - lng1) * math.Pi / 180.0

	sinDφ := math.Sin(dφ / 2)
	sinDλ := math.Sin(dλ / 2)

	a := sinDφ*sinDφ + math.Cos(φ1)*math.Cos(φ2)*sinDλ*sinDλ
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}

func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0fm", meters)
	}
	return fmt.Sprintf("%.1fkm", meters/1000.0)
}
