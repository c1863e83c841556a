package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultSweepInterval is the default interval between janitor sweeps.
const DefaultSweepInterval = 5 * time.Minute

// Janitor periodically removes expired sessions from a Store.
type Janitor struct {
	store    *Store
	interval time.Duration

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
}

// NewJanitor creates a janitor sweeping at the given interval
// (DefaultSweepInterval when interval <= 0).
func NewJanitor(store *Store, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Janitor{store: store, interval: interval}
}

// Start begins sweeping in a goroutine. Calling Start on a running janitor is
// a no-op.
func (j *Janitor) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return
	}
	j.running = true
	j.stopChan = make(chan struct{})

	go j.run(ctx)

	slog.Info("session janitor started", "interval", j.interval)
}

// Stop halts sweeping.
func (j *Janitor) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		return
	}
	close(j.stopChan)
	j.running = false

	slog.Info("session janitor stopped")
}

func (j *Janitor) run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.stopChan:
			return
		case <-ticker.C:
			if removed := j.store.CleanupExpired(); removed > 0 {
				slog.Info("expired sessions removed", "count", removed)
			}
		}
	}
}
