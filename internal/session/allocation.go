package session

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/susu3304/smashmate/internal/domain"
	"github.com/susu3304/smashmate/internal/fare"
)

// AllocationView is what an organizer edits. Version must be echoed back on
// save.
type AllocationView struct {
	SessionID   string            `json:"sessionId"`
	Version     int               `json:"version"`
	Saved       bool              `json:"saved"`
	Allocations []fare.Allocation `json:"allocations"`
	Balance     fare.Balance      `json:"balance"`
}

func (s *Service) sheetFor(ctx context.Context, sess *domain.Session) (*fare.Sheet, bool, error) {
	saved, err := s.store.GetAllocation(ctx, sess.ID)
	if err != nil {
		return nil, false, fmt.Errorf("get allocation: %w", err)
	}
	return fare.Start(sess.TotalCost, saved, sess.Participants), len(saved) > 0, nil
}

func (s *Service) LoadAllocation(ctx context.Context, actor domain.Identity, id string) (*AllocationView, error) {
	sess, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	sheet, saved, err := s.sheetFor(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &AllocationView{
		SessionID:   sess.ID,
		Version:     sess.Version,
		Saved:       saved,
		Allocations: sheet.Allocations,
		Balance:     sheet.Balance(),
	}, nil
}

func checkFullSet(sess *domain.Session, allocs []fare.Allocation) error {
	if len(allocs) != len(sess.Participants) {
		return fmt.Errorf("%w: allocation must list all %d participants", domain.ErrValidation, len(sess.Participants))
	}
	seen := make(map[string]struct{}, len(allocs))
	for _, a := range allocs {
		if !sess.HasParticipant(a.ParticipantID) {
			return fmt.Errorf("%w: %s is not a participant", domain.ErrValidation, a.ParticipantID)
		}
		if _, dup := seen[a.ParticipantID]; dup {
			return fmt.Errorf("%w: duplicate participant %s", domain.ErrValidation, a.ParticipantID)
		}
		seen[a.ParticipantID] = struct{}{}
		if a.IsIncluded && (a.Amount < 0 || a.Amount > sess.TotalCost) {
			return fmt.Errorf("%w: amount for %s must be between 0 and %.2f", domain.ErrValidation, a.ParticipantID, sess.TotalCost)
		}
	}
	return nil
}

// SaveAllocation commits a complete allocation. It fails with
// *fare.ImbalanceError when the included amounts do not add up to the total
// and with domain.ErrVersionConflict when the session changed since the
// caller loaded it. Nothing is written in either case.
func (s *Service) SaveAllocation(ctx context.Context, actor domain.Identity, id string, version int, allocs []fare.Allocation) (*AllocationView, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if err := requireCreator(actor, sess); err != nil {
		return nil, err
	}
	if version != sess.Version {
		return nil, fmt.Errorf("%w: have version %d, current is %d", domain.ErrVersionConflict, version, sess.Version)
	}
	if err := checkFullSet(sess, allocs); err != nil {
		return nil, err
	}

	sheet := &fare.Sheet{TotalCost: sess.TotalCost, Allocations: append([]fare.Allocation(nil), allocs...)}
	sheet.Normalize()
	if err := sheet.Validate(); err != nil {
		return nil, err
	}

	newVersion, err := s.store.ReplaceAllocation(ctx, id, version, sheet.Allocations)
	if err != nil {
		return nil, fmt.Errorf("save allocation: %w", err)
	}
	return &AllocationView{
		SessionID:   id,
		Version:     newVersion,
		Saved:       true,
		Allocations: sheet.Allocations,
		Balance:     sheet.Balance(),
	}, nil
}

func (s *Service) Unpaid(ctx context.Context, actor domain.Identity, id string) ([]fare.Allocation, error) {
	sess, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	sheet, _, err := s.sheetFor(ctx, sess)
	if err != nil {
		return nil, err
	}
	return sheet.Unpaid(), nil
}

// UnpaidBySessionID is the unauthenticated lookup used by the reminder worker
// and the chat bot.
func (s *Service) UnpaidBySessionID(ctx context.Context, id string) (*domain.Session, []fare.Allocation, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get session: %w", err)
	}
	sheet, _, err := s.sheetFor(ctx, sess)
	if err != nil {
		return nil, nil, err
	}
	return sess, sheet.Unpaid(), nil
}

// SummaryBySessionID returns the balance of a session's current allocation.
func (s *Service) SummaryBySessionID(ctx context.Context, id string) (*domain.Session, fare.Balance, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, fare.Balance{}, fmt.Errorf("get session: %w", err)
	}
	sheet, _, err := s.sheetFor(ctx, sess)
	if err != nil {
		return nil, fare.Balance{}, err
	}
	return sess, sheet.Balance(), nil
}

// Remind sends the current unpaid list through the notifier. It returns the
// list it sent; with nobody unpaid nothing is sent.
func (s *Service) Remind(ctx context.Context, actor domain.Identity, id string) ([]fare.Allocation, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if err := requireCreator(actor, sess); err != nil {
		return nil, err
	}
	sheet, _, err := s.sheetFor(ctx, sess)
	if err != nil {
		return nil, err
	}
	unpaid := sheet.Unpaid()
	if len(unpaid) == 0 {
		return unpaid, nil
	}

	channelID := ""
	r, err := s.store.GetReminder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	if r != nil {
		channelID = r.ChannelID
	}
	if err := s.notifier.NotifyUnpaid(ctx, sess, unpaid, channelID); err != nil {
		return nil, fmt.Errorf("notify: %w", err)
	}
	log.Printf("session: reminder sent for %s (%d unpaid)", id, len(unpaid))
	return unpaid, nil
}

type ReminderInput struct {
	Enabled         bool
	IntervalMinutes int
	ChannelID       string
}

// ConfigureReminder enables or disables periodic unpaid reminders.
func (s *Service) ConfigureReminder(ctx context.Context, actor domain.Identity, id string, in ReminderInput) (*domain.ReminderSchedule, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if err := requireCreator(actor, sess); err != nil {
		return nil, err
	}
	if in.IntervalMinutes < 0 {
		return nil, fmt.Errorf("%w: intervalMinutes must not be negative", domain.ErrValidation)
	}
	interval := in.IntervalMinutes
	if interval == 0 {
		interval = DefaultReminderMinutes
	}

	r := domain.ReminderSchedule{
		SessionID:       id,
		Enabled:         in.Enabled,
		IntervalMinutes: interval,
		ChannelID:       in.ChannelID,
	}
	if in.Enabled {
		next := s.now().Add(time.Duration(interval) * time.Minute)
		r.NextDueAt = &next
	}
	if err := s.store.UpsertReminder(ctx, r); err != nil {
		return nil, fmt.Errorf("save reminder: %w", err)
	}
	return &r, nil
}
