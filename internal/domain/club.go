package domain

import "time"

type Club struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	VenueID     *string   `json:"venueId,omitempty"`
	MeetingDays []string  `json:"meetingDays"`
	OwnerID     string    `json:"ownerId"`
	MemberCount int       `json:"memberCount"`
	CreatedAt   time.Time `json:"createdAt"`
}
