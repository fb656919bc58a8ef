package domain

import "time"

type Venue struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	Courts       int       `json:"courts"`
	PricePerHour float64   `json:"pricePerHour"`
	MapsURL      string    `json:"mapsUrl,omitempty"`
	Lat          *float64  `json:"lat,omitempty"`
	Lng          *float64  `json:"lng,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
