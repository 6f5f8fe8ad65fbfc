package payments

import (
	"context"
	"fmt"
	"time"

	"club-pos/internal/models"
)

// ReminderWorker periodically sweeps overdue balances and queues one
// reminder per balance per day.
type ReminderWorker struct {
	Service  *PaymentService
	Interval time.Duration

	// lastSent tracks when each payment was last reminded. The worker
	// runs on a single goroutine, so no locking is needed.
	lastSent map[string]time.Time
}

func NewReminderWorker(service *PaymentService, interval time.Duration) *ReminderWorker {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &ReminderWorker{
		Service:  service,
		Interval: interval,
		lastSent: make(map[string]time.Time),
	}
}

// Run blocks until ctx is cancelled.
func (w *ReminderWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			w.sweep(now)
		}
	}
}

func (w *ReminderWorker) sweep(now time.Time) {
	overdue, err := w.Service.Overdue(now)
	if err != nil {
		fmt.Printf("Reminder sweep failed: %v\n", err)
		return
	}

	for _, p := range overdue {
		if p.PhoneNumber == "" {
			continue
		}
		if last, ok := w.lastSent[p.ID]; ok && now.Sub(last) < 24*time.Hour {
			continue
		}
		if err := w.Service.SendReminder(p.ID); err != nil {
			fmt.Printf("Failed to queue reminder for payment %s: %v\n", p.ID, err)
			continue
		}
		w.lastSent[p.ID] = now
	}

	// Drop entries for balances that have been settled
	alive := make(map[string]bool, len(overdue))
	for _, p := range overdue {
		alive[p.ID] = true
	}
	for id := range w.lastSent {
		if !alive[id] {
			delete(w.lastSent, id)
		}
	}
}

// NotifyHandler is the reminder-topic consumer callback: it hands the
// reminder text to the SMS sender. Wired to the logger-backed sender by
// default; a real SMS provider slots in behind the same function shape.
func NotifyHandler(send func(phone, message string)) func(models.ReminderEvent) {
	return func(event models.ReminderEvent) {
		send(event.PhoneNumber, event.Message)
	}
}
