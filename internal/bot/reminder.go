package bot

import (
	"context"
	"log"
	"time"

	"github.com/susu3304/smashmate/internal/db"
	"github.com/susu3304/smashmate/internal/domain"
	"github.com/susu3304/smashmate/internal/fare"
	"github.com/susu3304/smashmate/internal/session"
)

const sendFailureBackoff = 2 * time.Minute

type reminderStore interface {
	DueReminders(ctx context.Context, now time.Time) ([]db.ReminderDue, error)
	MarkReminderSent(ctx context.Context, sessionID string, sentAt, nextDue time.Time) error
	DelayReminder(ctx context.Context, sessionID string, nextDue time.Time) error
}

type unpaidLookup interface {
	UnpaidBySessionID(ctx context.Context, id string) (*domain.Session, []fare.Allocation, error)
}

// ReminderWorker periodically posts unpaid reminders for sessions whose
// schedule is due.
type ReminderWorker struct {
	store    reminderStore
	sessions unpaidLookup
	notifier session.Notifier
	stopChan chan struct{}
	done     chan struct{}
	interval time.Duration
	now      func() time.Time
}

func NewReminderWorker(store reminderStore, sessions unpaidLookup, notifier session.Notifier) *ReminderWorker {
	return &ReminderWorker{
		store:    store,
		sessions: sessions,
		notifier: notifier,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
		interval: time.Minute,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (w *ReminderWorker) Start() {
	if w == nil {
		return
	}
	go w.loop()
}

// Stop waits for an in-progress tick to finish.
func (w *ReminderWorker) Stop() {
	if w == nil {
		return
	}
	close(w.stopChan)
	<-w.done
}

func (w *ReminderWorker) loop() {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-w.stopChan:
			return
		}
	}
}

func (w *ReminderWorker) tick(ctx context.Context) {
	now := w.now()
	targets, err := w.store.DueReminders(ctx, now)
	if err != nil {
		log.Printf("reminder: failed to load due reminders: %v", err)
		return
	}

	for _, t := range targets {
		interval := time.Duration(t.IntervalMinutes) * time.Minute
		s, unpaid, err := w.sessions.UnpaidBySessionID(ctx, t.SessionID)
		if err != nil {
			log.Printf("reminder: failed to load session %s: %v", t.SessionID, err)
			continue
		}
		if len(unpaid) == 0 {
			// Only excluded participants are unpaid; check again next interval.
			if err := w.store.DelayReminder(ctx, t.SessionID, now.Add(interval)); err != nil {
				log.Printf("reminder: failed to delay reminder for session %s: %v", t.SessionID, err)
			}
			continue
		}

		if err := w.notifier.NotifyUnpaid(ctx, s, unpaid, t.ChannelID); err != nil {
			log.Printf("reminder: failed to send reminder for session %s: %v", t.SessionID, err)
			backoff := sendFailureBackoff
			if interval > 0 && backoff > interval {
				backoff = interval
			}
			if derr := w.store.DelayReminder(ctx, t.SessionID, now.Add(backoff)); derr != nil {
				log.Printf("reminder: failed to delay reminder for session %s: %v", t.SessionID, derr)
			}
			continue
		}
		if err := w.store.MarkReminderSent(ctx, t.SessionID, now, now.Add(interval)); err != nil {
			log.Printf("reminder: failed to mark reminder sent for session %s: %v", t.SessionID, err)
		}
	}
}
