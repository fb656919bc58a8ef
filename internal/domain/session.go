package domain

import "time"

type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionConfirmed SessionStatus = "confirmed"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

type SplitMode string

const (
	SplitEqual      SplitMode = "equal"
	SplitCustom     SplitMode = "custom"
	SplitPercentage SplitMode = "percentage"
)

func (m SplitMode) Valid() bool {
	switch m {
	case SplitEqual, SplitCustom, SplitPercentage:
		return true
	}
	return false
}

// Session is one costed court booking at a venue.
type Session struct {
	ID           string        `json:"id"`
	Date         string        `json:"date"`
	Time         string        `json:"time"`
	Duration     float64       `json:"duration"`
	VenueID      string        `json:"venueId"`
	TotalCost    float64       `json:"totalCost"`
	SplitMode    SplitMode     `json:"splitMode"`
	Status       SessionStatus `json:"status"`
	CreatorID    string        `json:"creatorId"`
	Version      int           `json:"version"`
	CreatedAt    time.Time     `json:"createdAt"`
	Participants []Participant `json:"participants"`
}

func (s *Session) HasParticipant(playerID string) bool {
	for _, p := range s.Participants {
		if p.PlayerID == playerID {
			return true
		}
	}
	return false
}

type Participant struct {
	PlayerID    string   `json:"playerId"`
	Name        string   `json:"name"`
	AvatarURL   string   `json:"avatarUrl"`
	Share       float64  `json:"share"`
	CustomShare *float64 `json:"customShare,omitempty"`
	Percentage  *float64 `json:"percentage,omitempty"`
	Paid        bool     `json:"paid"`
}

// SessionPatch carries the mutable subset of session fields. Nil fields are
// left untouched.
type SessionPatch struct {
	Date      *string
	Time      *string
	Duration  *float64
	VenueID   *string
	TotalCost *float64
	SplitMode *SplitMode
}

func (p SessionPatch) Empty() bool {
	return p.Date == nil && p.Time == nil && p.Duration == nil &&
		p.VenueID == nil && p.TotalCost == nil && p.SplitMode == nil
}

// Apply copies the set fields onto s.
func (p SessionPatch) Apply(s *Session) {
	if p.Date != nil {
		s.Date = *p.Date
	}
	if p.Time != nil {
		s.Time = *p.Time
	}
	if p.Duration != nil {
		s.Duration = *p.Duration
	}
	if p.VenueID != nil {
		s.VenueID = *p.VenueID
	}
	if p.TotalCost != nil {
		s.TotalCost = *p.TotalCost
	}
	if p.SplitMode != nil {
		s.SplitMode = *p.SplitMode
	}
}

type ReminderSchedule struct {
	SessionID       string     `json:"sessionId"`
	Enabled         bool       `json:"enabled"`
	IntervalMinutes int        `json:"intervalMinutes"`
	ChannelID       string     `json:"channelId"`
	NextDueAt       *time.Time `json:"nextDueAt,omitempty"`
	LastSentAt      *time.Time `json:"lastSentAt,omitempty"`
}
