package domain

import "time"

type Match struct {
	ID        string    `json:"id"`
	PlayerA   string    `json:"playerA"`
	PlayerB   string    `json:"playerB"`
	CreatedAt time.Time `json:"createdAt"`
}

// Other returns the counterpart of playerID in the match.
func (m Match) Other(playerID string) string {
	if m.PlayerA == playerID {
		return m.PlayerB
	}
	return m.PlayerA
}

func (m Match) Has(playerID string) bool {
	return m.PlayerA == playerID || m.PlayerB == playerID
}

type SwipeResult struct {
	Matched bool   `json:"matched"`
	MatchID string `json:"matchId,omitempty"`
}

type Message struct {
	ID        string    `json:"id"`
	MatchID   string    `json:"matchId"`
	SenderID  string    `json:"senderId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}
