package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/susu3304/smashmate/internal/domain"
	"github.com/susu3304/smashmate/internal/fare"
)

type memStore struct {
	mu          sync.Mutex
	players     map[string]*domain.Player
	venues      map[string]*domain.Venue
	sessions    map[string]*domain.Session
	allocations map[string][]fare.Allocation
	reminders   map[string]domain.ReminderSchedule
}

func newMemStore() *memStore {
	return &memStore{
		players: map[string]*domain.Player{
			"creator": {ID: "creator", Name: "Casey", AvatarURL: "c.png"},
			"p2":      {ID: "p2", Name: "Pat", AvatarURL: "p.png"},
			"p3":      {ID: "p3", Name: "Robin"},
			"p4":      {ID: "p4", Name: "Sam"},
		},
		venues:      map[string]*domain.Venue{"v1": {ID: "v1", Name: "Sports Hall"}},
		sessions:    map[string]*domain.Session{},
		allocations: map[string][]fare.Allocation{},
		reminders:   map[string]domain.ReminderSchedule{},
	}
}

func cloneSession(s *domain.Session) *domain.Session {
	c := *s
	c.Participants = append([]domain.Participant(nil), s.Participants...)
	return &c
}

func (m *memStore) GetPlayer(_ context.Context, id string) (*domain.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (m *memStore) GetVenue(_ context.Context, id string) (*domain.Venue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.venues[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *v
	return &c, nil
}

func (m *memStore) GetSession(_ context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneSession(s), nil
}

func (m *memStore) ListSessionsForPlayer(_ context.Context, playerID string) ([]*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Session
	for _, s := range m.sessions {
		if s.CreatorID == playerID || s.HasParticipant(playerID) {
			out = append(out, cloneSession(s))
		}
	}
	return out, nil
}

func (m *memStore) CreateSession(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = cloneSession(s)
	return nil
}

func (m *memStore) UpdateSession(_ context.Context, s *domain.Session) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[s.ID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if cur.Version != s.Version {
		return 0, domain.ErrVersionConflict
	}
	next := cloneSession(s)
	next.Participants = cur.Participants
	next.Version = cur.Version + 1
	m.sessions[s.ID] = next
	return next.Version, nil
}

func (m *memStore) SetSessionStatus(_ context.Context, id string, from, to domain.SessionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Status != from {
		return domain.ErrInvalidTransition
	}
	cur.Status = to
	return nil
}

func (m *memStore) SetParticipantPaid(_ context.Context, sessionID, playerID string, paid bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[sessionID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	found := false
	for i := range cur.Participants {
		if cur.Participants[i].PlayerID == playerID {
			cur.Participants[i].Paid = paid
			found = true
		}
	}
	if !found {
		return 0, domain.ErrNotFound
	}
	allocs := m.allocations[sessionID]
	for i := range allocs {
		if allocs[i].ParticipantID == playerID {
			allocs[i].IsPaid = paid
		}
	}
	cur.Version++
	return cur.Version, nil
}

func (m *memStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.sessions, id)
	delete(m.allocations, id)
	delete(m.reminders, id)
	return nil
}

func (m *memStore) GetAllocation(_ context.Context, sessionID string) ([]fare.Allocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]fare.Allocation(nil), m.allocations[sessionID]...), nil
}

func (m *memStore) ReplaceAllocation(_ context.Context, sessionID string, expectedVersion int, allocs []fare.Allocation) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[sessionID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return 0, fmt.Errorf("%w: store", domain.ErrVersionConflict)
	}
	m.allocations[sessionID] = append([]fare.Allocation(nil), allocs...)
	for _, a := range allocs {
		for i := range cur.Participants {
			if cur.Participants[i].PlayerID == a.ParticipantID {
				cur.Participants[i].Share = a.Amount
				cur.Participants[i].Paid = a.IsPaid
			}
		}
	}
	cur.Version++
	return cur.Version, nil
}

func (m *memStore) GetReminder(_ context.Context, sessionID string) (*domain.ReminderSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[sessionID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memStore) UpsertReminder(_ context.Context, r domain.ReminderSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reminders[r.SessionID] = r
	return nil
}

type recordingNotifier struct {
	calls   int
	channel string
	unpaid  []fare.Allocation
	err     error
}

func (n *recordingNotifier) NotifyUnpaid(_ context.Context, _ *domain.Session, unpaid []fare.Allocation, channelID string) error {
	n.calls++
	n.channel = channelID
	n.unpaid = unpaid
	return n.err
}
