package hub

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultPollInterval is how often the poller refreshes hardware.
const DefaultPollInterval = 25 * time.Second

// PollStats describes the poller's recent history.
type PollStats struct {
	Polls     uint64    `json:"polls"`
	Failures  uint64    `json:"failures"`
	LastPoll  time.Time `json:"last_poll"`
	LastError string    `json:"last_error,omitempty"`
}

// Poller periodically refreshes the store from hardware and broadcasts
// the result. It never stops on error; only context cancellation ends it.
type Poller struct {
	store    *Store
	bcast    Broadcaster
	interval time.Duration
	logger   Logger

	mu    sync.Mutex
	stats PollStats
}

// Run polls every interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.logger.Info("poller started", "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return nil
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll runs one refresh cycle: Lock, refresh, Unlock, then the snapshot.
// The snapshot is broadcast whether or not the refresh succeeded.
func (p *Poller) Poll(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("poll panicked", "panic", fmt.Sprint(r))
			p.record(fmt.Errorf("panic: %v", r))
		}
	}()

	p.store.Bracket(p.bcast, func(tx *Tx) func() {
		err := tx.Refresh(ctx)
		if err != nil {
			p.logger.Warn("hardware refresh failed, keeping previous values", "error", err)
		}
		p.record(err)

		snap := tx.Snapshot()
		return func() { p.bcast.Broadcast(SnapshotEvent(snap)) }
	})
}

// Stats returns a copy of the poller's counters.
func (p *Poller) Stats() PollStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *Poller) record(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.Polls++
	p.stats.LastPoll = time.Now()
	if err != nil {
		p.stats.Failures++
		p.stats.LastError = err.Error()
	} else {
		p.stats.LastError = ""
	}
}
