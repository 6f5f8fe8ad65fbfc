package session

import (
	"context"
	"time"
)

// CheckpointWorker periodically snapshots every active session's bill
// into the store so a crash can only lose one interval of display state.
type CheckpointWorker struct {
	Service  *SessionService
	Interval time.Duration
}

func NewCheckpointWorker(service *SessionService, interval time.Duration) *CheckpointWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &CheckpointWorker{Service: service, Interval: interval}
}

// Run blocks until ctx is cancelled.
func (w *CheckpointWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			_ = w.Service.Checkpoint(now)
		}
	}
}
