// Package session owns the court session lifecycle and commits fare
// allocations for it.
package session

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/susu3304/smashmate/internal/domain"
	"github.com/susu3304/smashmate/internal/fare"
)

const (
	DefaultDuration        = 1.0
	DefaultReminderMinutes = 24 * 60
)

type Store interface {
	GetPlayer(ctx context.Context, id string) (*domain.Player, error)
	GetVenue(ctx context.Context, id string) (*domain.Venue, error)

	GetSession(ctx context.Context, id string) (*domain.Session, error)
	ListSessionsForPlayer(ctx context.Context, playerID string) ([]*domain.Session, error)
	CreateSession(ctx context.Context, s *domain.Session) error
	// UpdateSession writes the mutable fields if the stored version still
	// equals s.Version and returns the bumped version.
	UpdateSession(ctx context.Context, s *domain.Session) (int, error)
	SetSessionStatus(ctx context.Context, id string, from, to domain.SessionStatus) error
	SetParticipantPaid(ctx context.Context, sessionID, playerID string, paid bool) (int, error)
	DeleteSession(ctx context.Context, id string) error

	GetAllocation(ctx context.Context, sessionID string) ([]fare.Allocation, error)
	// ReplaceAllocation swaps the whole allocation set in one transaction
	// and returns the bumped version.
	ReplaceAllocation(ctx context.Context, sessionID string, expectedVersion int, allocs []fare.Allocation) (int, error)

	GetReminder(ctx context.Context, sessionID string) (*domain.ReminderSchedule, error)
	UpsertReminder(ctx context.Context, r domain.ReminderSchedule) error
}

// Notifier delivers "please pay" reminders. An empty channelID means the
// notifier's default destination.
type Notifier interface {
	NotifyUnpaid(ctx context.Context, s *domain.Session, unpaid []fare.Allocation, channelID string) error
}

type Service struct {
	store    Store
	notifier Notifier
	now      func() time.Time
}

func NewService(store Store, notifier Notifier) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type ParticipantInput struct {
	PlayerID    string
	Name        string
	AvatarURL   string
	Share       float64
	CustomShare *float64
	Percentage  *float64
	Paid        bool
}

type CreateInput struct {
	Date         string
	Time         string
	Duration     *float64
	VenueID      string
	TotalCost    *float64
	SplitMode    *domain.SplitMode
	Participants []ParticipantInput
}

func validateDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrValidation)
	}
	return nil
}

func validateClock(clock string) error {
	if _, err := time.Parse("15:04", clock); err != nil {
		return fmt.Errorf("%w: time must be HH:MM", domain.ErrValidation)
	}
	return nil
}

func validateFields(s *domain.Session) error {
	if err := validateDate(s.Date); err != nil {
		return err
	}
	if err := validateClock(s.Time); err != nil {
		return err
	}
	if s.VenueID == "" {
		return fmt.Errorf("%w: venueId is required", domain.ErrValidation)
	}
	if s.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", domain.ErrValidation)
	}
	if s.TotalCost < 0 {
		return fmt.Errorf("%w: totalCost must not be negative", domain.ErrValidation)
	}
	if !s.SplitMode.Valid() {
		return fmt.Errorf("%w: unknown split mode %q", domain.ErrValidation, s.SplitMode)
	}
	return nil
}

func requireCreator(actor domain.Identity, s *domain.Session) error {
	if actor.UserID == "" {
		return domain.ErrUnauthenticated
	}
	if actor.UserID != s.CreatorID {
		return fmt.Errorf("%w: only the creator can change this session", domain.ErrForbidden)
	}
	return nil
}

func requireMember(actor domain.Identity, s *domain.Session) error {
	if actor.UserID == "" {
		return domain.ErrUnauthenticated
	}
	if actor.UserID != s.CreatorID && !s.HasParticipant(actor.UserID) {
		return domain.ErrForbidden
	}
	return nil
}

// Create books a new session. Without an explicit participant list the
// creator is the only participant and owes the full cost.
func (s *Service) Create(ctx context.Context, actor domain.Identity, in CreateInput) (*domain.Session, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}
	sess := &domain.Session{
		ID:        uuid.New().String(),
		Date:      in.Date,
		Time:      in.Time,
		Duration:  DefaultDuration,
		VenueID:   in.VenueID,
		SplitMode: domain.SplitEqual,
		Status:    domain.SessionPending,
		CreatorID: actor.UserID,
		Version:   1,
		CreatedAt: s.now(),
	}
	if in.Duration != nil {
		sess.Duration = *in.Duration
	}
	if in.TotalCost != nil {
		sess.TotalCost = *in.TotalCost
	}
	if in.SplitMode != nil {
		sess.SplitMode = *in.SplitMode
	}
	if err := validateFields(sess); err != nil {
		return nil, err
	}
	if _, err := s.store.GetVenue(ctx, sess.VenueID); err != nil {
		return nil, fmt.Errorf("check venue: %w", err)
	}

	participants, err := s.buildParticipants(ctx, actor, sess, in.Participants)
	if err != nil {
		return nil, err
	}
	sess.Participants = participants

	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	log.Printf("session: created %s by %s (%d participants)", sess.ID, sess.CreatorID, len(sess.Participants))
	return sess, nil
}

func (s *Service) buildParticipants(ctx context.Context, actor domain.Identity, sess *domain.Session, in []ParticipantInput) ([]domain.Participant, error) {
	if len(in) == 0 {
		in = []ParticipantInput{{PlayerID: actor.UserID, Name: actor.Name, Share: sess.TotalCost}}
	}

	seen := make(map[string]struct{}, len(in))
	out := make([]domain.Participant, 0, len(in))
	var shareSum float64
	for _, p := range in {
		if p.PlayerID == "" {
			return nil, fmt.Errorf("%w: participant playerId is required", domain.ErrValidation)
		}
		if _, dup := seen[p.PlayerID]; dup {
			return nil, fmt.Errorf("%w: duplicate participant %s", domain.ErrValidation, p.PlayerID)
		}
		seen[p.PlayerID] = struct{}{}
		if p.Share < 0 {
			return nil, fmt.Errorf("%w: share must not be negative", domain.ErrValidation)
		}

		name, avatar := p.Name, p.AvatarURL
		if name == "" || avatar == "" {
			player, err := s.store.GetPlayer(ctx, p.PlayerID)
			if err != nil {
				return nil, fmt.Errorf("participant %s: %w", p.PlayerID, err)
			}
			if name == "" {
				name = player.Name
			}
			if avatar == "" {
				avatar = player.AvatarURL
			}
		}
		shareSum += p.Share
		out = append(out, domain.Participant{
			PlayerID:    p.PlayerID,
			Name:        name,
			AvatarURL:   avatar,
			Share:       p.Share,
			CustomShare: p.CustomShare,
			Percentage:  p.Percentage,
			Paid:        p.Paid,
		})
	}

	// A list without any shares is split evenly.
	if shareSum == 0 && sess.TotalCost > 0 {
		sheet := fare.FromParticipants(sess.TotalCost, out)
		sheet.ResetEqual()
		for i, a := range sheet.Allocations {
			out[i].Share = a.Amount
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, actor domain.Identity, id string) (*domain.Session, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if err := requireMember(actor, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Service) List(ctx context.Context, actor domain.Identity) ([]*domain.Session, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.store.ListSessionsForPlayer(ctx, actor.UserID)
}

// Update applies a partial patch. Fields left nil keep their stored value.
func (s *Service) Update(ctx context.Context, actor domain.Identity, id string, patch domain.SessionPatch) (*domain.Session, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", domain.ErrValidation)
	}
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if err := requireCreator(actor, sess); err != nil {
		return nil, err
	}

	venueChanged := patch.VenueID != nil && *patch.VenueID != sess.VenueID
	patch.Apply(sess)
	if err := validateFields(sess); err != nil {
		return nil, err
	}
	if venueChanged {
		if _, err := s.store.GetVenue(ctx, sess.VenueID); err != nil {
			return nil, fmt.Errorf("check venue: %w", err)
		}
	}

	version, err := s.store.UpdateSession(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	sess.Version = version
	return sess, nil
}

// SetPayment marks one participant paid or unpaid. The creator may do this
// for anyone, a participant only for themselves.
func (s *Service) SetPayment(ctx context.Context, actor domain.Identity, id, playerID string, paid bool) (*domain.Session, error) {
	if playerID == "" {
		return nil, fmt.Errorf("%w: playerId is required", domain.ErrValidation)
	}
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if actor.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if actor.UserID != sess.CreatorID && actor.UserID != playerID {
		return nil, fmt.Errorf("%w: only the creator can record payments for others", domain.ErrForbidden)
	}
	if !sess.HasParticipant(playerID) {
		return nil, fmt.Errorf("participant %s: %w", playerID, domain.ErrNotFound)
	}

	version, err := s.store.SetParticipantPaid(ctx, id, playerID, paid)
	if err != nil {
		return nil, fmt.Errorf("set payment: %w", err)
	}
	for i := range sess.Participants {
		if sess.Participants[i].PlayerID == playerID {
			sess.Participants[i].Paid = paid
		}
	}
	sess.Version = version
	return sess, nil
}

func (s *Service) Transition(ctx context.Context, actor domain.Identity, id string, to domain.SessionStatus) (*domain.Session, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if err := requireCreator(actor, sess); err != nil {
		return nil, err
	}
	if err := checkTransition(sess.Status, to); err != nil {
		return nil, err
	}
	if err := s.store.SetSessionStatus(ctx, id, sess.Status, to); err != nil {
		return nil, fmt.Errorf("set status: %w", err)
	}
	log.Printf("session: %s %s -> %s", id, sess.Status, to)
	sess.Status = to
	return sess, nil
}

func (s *Service) Delete(ctx context.Context, actor domain.Identity, id string) error {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if err := requireCreator(actor, sess); err != nil {
		return err
	}
	if err := s.store.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	log.Printf("session: deleted %s", id)
	return nil
}
