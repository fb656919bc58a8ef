package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFromURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantLat float64
		wantLng float64
		wantOk  bool
	}{
		{
			name:    "at sign with zoom",
			url:     "https://www.google.com/maps/@51.5072,-0.1276,15z",
			wantLat: 51.5072,
			wantLng: -0.1276,
			wantOk:  true,
		},
		{
			name:    "place with 3d/4d",
			url:     "https://www.google.com/maps/place/Sports+Hall!3d53.4808!4d-2.2426",
			wantLat: 53.4808,
			wantLng: -2.2426,
			wantOk:  true,
		},
		{
			name:    "search path with plus",
			url:     "https://www.google.com/maps/search/52.2053,+0.1218?entry=tts",
			wantLat: 52.2053,
			wantLng: 0.1218,
			wantOk:  true,
		},
		{
			name:    "search path with space",
			url:     "https://www.google.com/maps/search/52.2053, 0.1218",
			wantLat: 52.2053,
			wantLng: 0.1218,
			wantOk:  true,
		},
		{
			name:    "q parameter",
			url:     "https://www.google.com/maps?q=55.9533,-3.1883",
			wantLat: 55.9533,
			wantLng: -3.1883,
			wantOk:  true,
		},
		{
			name:    "query parameter",
			url:     "https://www.google.com/maps?query=-33.8688, 151.2093",
			wantLat: -33.8688,
			wantLng: 151.2093,
			wantOk:  true,
		},
		{
			name:   "out of range",
			url:    "https://www.google.com/maps?q=95.0,10.0",
			wantOk: false,
		},
		{
			name:   "no coordinates",
			url:    "https://www.google.com/maps/place/Leisure+Centre",
			wantOk: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lng, ok := ExtractFromURL(tt.url)
			require.Equal(t, tt.wantOk, ok)
			if !tt.wantOk {
				return
			}
			assert.Equal(t, tt.wantLat, lat)
			assert.Equal(t, tt.wantLng, lng)
		})
	}
}

func TestResolve_FollowsShortLink(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/short", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/maps/@51.5072,-0.1276,15z", http.StatusFound)
	})
	mux.HandleFunc("/maps/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	lat, lng, err := NewResolver().Resolve(context.Background(), srv.URL+"/short")

	require.NoError(t, err)
	assert.Equal(t, 51.5072, lat)
	assert.Equal(t, -0.1276, lng)
}

func TestResolve_NoCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, _, err := NewResolver().Resolve(context.Background(), srv.URL+"/nowhere")
	assert.ErrorIs(t, err, ErrNoCoordinates)
}

func TestDistanceMeters(t *testing.T) {
	assert.Zero(t, DistanceMeters(51.5, -0.12, 51.5, -0.12))

	// London to Manchester is roughly 262km
	d := DistanceMeters(51.5072, -0.1276, 53.4808, -2.2426)
	assert.InDelta(t, 262000, d, 3000)
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "850m", FormatDistance(850))
	assert.Equal(t, "2.5km", FormatDistance(2500))
}
