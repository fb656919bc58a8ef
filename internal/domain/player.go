package domain

import "time"

type Player struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	AvatarURL     string    `json:"avatarUrl"`
	Level         string    `json:"level"`
	Hand          string    `json:"hand"`
	Bio           string    `json:"bio"`
	PreferredDays []string  `json:"preferredDays"`
	HomeVenueID   *string   `json:"homeVenueId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// PlayerCard is a discovery feed entry. DistanceMeters is nil when either side
// has no home venue with coordinates.
type PlayerCard struct {
	Player
	DistanceMeters *float64 `json:"distanceMeters,omitempty"`
}

type ProfileUpdate struct {
	Name          *string
	AvatarURL     *string
	Level         *string
	Hand          *string
	Bio           *string
	PreferredDays []string
	HomeVenueID   *string
}

var (
	Levels  = []string{"beginner", "intermediate", "advanced", "expert"}
	Hands   = []string{"right", "left"}
	Weekday = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}
)

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func ValidLevel(v string) bool { return oneOf(v, Levels) }
func ValidHand(v string) bool  { return oneOf(v, Hands) }
func ValidDay(v string) bool   { return oneOf(v, Weekday) }
