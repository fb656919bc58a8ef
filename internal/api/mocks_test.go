package api

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/susu3304/smashmate/internal/domain"
	"github.com/susu3304/smashmate/internal/fare"
	"github.com/susu3304/smashmate/internal/session"
)

type mockSessions struct{ mock.Mock }

func sessionResult(args mock.Arguments) (*domain.Session, error) {
	s, _ := args.Get(0).(*domain.Session)
	return s, args.Error(1)
}

func (m *mockSessions) Create(ctx context.Context, actor domain.Identity, in session.CreateInput) (*domain.Session, error) {
	return sessionResult(m.Called(ctx, actor, in))
}

func (m *mockSessions) Get(ctx context.Context, actor domain.Identity, id string) (*domain.Session, error) {
	return sessionResult(m.Called(ctx, actor, id))
}

func (m *mockSessions) List(ctx context.Context, actor domain.Identity) ([]*domain.Session, error) {
	args := m.Called(ctx, actor)
	s, _ := args.Get(0).([]*domain.Session)
	return s, args.Error(1)
}

func (m *mockSessions) Update(ctx context.Context, actor domain.Identity, id string, patch domain.SessionPatch) (*domain.Session, error) {
	return sessionResult(m.Called(ctx, actor, id, patch))
}

func (m *mockSessions) SetPayment(ctx context.Context, actor domain.Identity, id, playerID string, paid bool) (*domain.Session, error) {
	return sessionResult(m.Called(ctx, actor, id, playerID, paid))
}

func (m *mockSessions) Transition(ctx context.Context, actor domain.Identity, id string, to domain.SessionStatus) (*domain.Session, error) {
	return sessionResult(m.Called(ctx, actor, id, to))
}

func (m *mockSessions) Delete(ctx context.Context, actor domain.Identity, id string) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *mockSessions) LoadAllocation(ctx context.Context, actor domain.Identity, id string) (*session.AllocationView, error) {
	args := m.Called(ctx, actor, id)
	v, _ := args.Get(0).(*session.AllocationView)
	return v, args.Error(1)
}

func (m *mockSessions) SaveAllocation(ctx context.Context, actor domain.Identity, id string, version int, allocs []fare.Allocation) (*session.AllocationView, error) {
	args := m.Called(ctx, actor, id, version, allocs)
	v, _ := args.Get(0).(*session.AllocationView)
	return v, args.Error(1)
}

func (m *mockSessions) Unpaid(ctx context.Context, actor domain.Identity, id string) ([]fare.Allocation, error) {
	args := m.Called(ctx, actor, id)
	u, _ := args.Get(0).([]fare.Allocation)
	return u, args.Error(1)
}

func (m *mockSessions) Remind(ctx context.Context, actor domain.Identity, id string) ([]fare.Allocation, error) {
	args := m.Called(ctx, actor, id)
	u, _ := args.Get(0).([]fare.Allocation)
	return u, args.Error(1)
}

func (m *mockSessions) ConfigureReminder(ctx context.Context, actor domain.Identity, id string, in session.ReminderInput) (*domain.ReminderSchedule, error) {
	args := m.Called(ctx, actor, id, in)
	r, _ := args.Get(0).(*domain.ReminderSchedule)
	return r, args.Error(1)
}

// fakeStore implements the parts of Store the handler tests touch. Calling
// anything else panics on the nil embedded interface.
type fakeStore struct {
	Store

	mu       sync.Mutex
	players  map[string]*domain.Player
	venues   map[string]*domain.Venue
	matches  map[string]*domain.Match
	messages []*domain.Message
	swipes   map[[2]string]bool
	clubs    map[string]*domain.Club
	members  map[[2]string]bool
	tourneys map[string]*domain.Tournament
	entries  map[[2]string]bool
	jobs     map[string]*domain.Job
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		players: map[string]*domain.Player{
			"u1": {ID: "u1", Name: "Casey", Email: "casey@example.com", Level: "beginner", Hand: "right"},
			"u2": {ID: "u2", Name: "Pat", Email: "pat@example.com", Level: "advanced", Hand: "left"},
		},
		venues:  map[string]*domain.Venue{},
		matches: map[string]*domain.Match{"m1": {ID: "m1", PlayerA: "u1", PlayerB: "u2"}},
		swipes:  map[[2]string]bool{},
		clubs:   map[string]*domain.Club{"c1": {ID: "c1", Name: "Smashers", OwnerID: "u2", MemberCount: 1}},
		members: map[[2]string]bool{{"c1", "u2"}: true},
		tourneys: map[string]*domain.Tournament{
			"t1": {ID: "t1", Name: "Autumn Open", Date: "2026-11-07", Format: "doubles", MaxParticipants: 1, OrganizerID: "u2", Prizes: []string{}},
		},
		entries: map[[2]string]bool{},
		jobs:    map[string]*domain.Job{},
	}
}

func (f *fakeStore) UpsertPlayer(_ context.Context, id, name, email, avatarURL string) (*domain.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &domain.Player{ID: id, Name: name, Email: email, AvatarURL: avatarURL}
	f.players[id] = p
	return p, nil
}

func (f *fakeStore) GetPlayer(_ context.Context, id string) (*domain.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (f *fakeStore) Swipe(_ context.Context, swiperID, targetID string, liked bool) (domain.SwipeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.players[targetID]; !ok {
		return domain.SwipeResult{}, domain.ErrNotFound
	}
	f.swipes[[2]string{swiperID, targetID}] = liked
	if liked && f.swipes[[2]string{targetID, swiperID}] {
		return domain.SwipeResult{Matched: true, MatchID: "m-" + swiperID + "-" + targetID}, nil
	}
	return domain.SwipeResult{}, nil
}

func (f *fakeStore) GetMatch(_ context.Context, id string) (*domain.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

func (f *fakeStore) ListMessages(_ context.Context, matchID string) ([]*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Message
	for _, m := range f.messages {
		if m.MatchID == matchID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) AddMessage(_ context.Context, matchID, senderID, body string) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := &domain.Message{ID: "msg", MatchID: matchID, SenderID: senderID, Body: body}
	f.messages = append(f.messages, m)
	return m, nil
}

func (f *fakeStore) CreateVenue(_ context.Context, v *domain.Venue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.venues[v.ID] = v
	return nil
}

func (f *fakeStore) GetClub(_ context.Context, id string) (*domain.Club, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clubs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) JoinClub(_ context.Context, clubID, playerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clubs[clubID]
	if !ok {
		return domain.ErrNotFound
	}
	key := [2]string{clubID, playerID}
	if f.members[key] {
		return domain.ErrConflict
	}
	f.members[key] = true
	c.MemberCount++
	return nil
}

func (f *fakeStore) CreateTournament(_ context.Context, t *domain.Tournament) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tourneys[t.ID] = t
	return nil
}

func (f *fakeStore) GetTournament(_ context.Context, id string) (*domain.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tourneys[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) EnterTournament(_ context.Context, tournamentID, playerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tourneys[tournamentID]
	if !ok {
		return domain.ErrNotFound
	}
	key := [2]string{tournamentID, playerID}
	if f.entries[key] {
		return domain.ErrConflict
	}
	if t.MaxParticipants > 0 && t.EntryCount >= t.MaxParticipants {
		return domain.ErrTournamentFull
	}
	f.entries[key] = true
	t.EntryCount++
	return nil
}

func (f *fakeStore) CreateJob(_ context.Context, j *domain.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[j.ID] = j
	return nil
}

type stubResolver struct {
	lat, lng float64
	err      error
}

func (s stubResolver) Resolve(context.Context, string) (float64, float64, error) {
	return s.lat, s.lng, s.err
}
