package hub

import (
	"context"
	"sync"

	"github.com/nerrad567/iris/internal/rtu"
)

// Store owns the one mutable RTU and the driver used to reach its hardware.
// All access goes through Bracket or Locked.
type Store struct {
	mu     sync.Mutex
	rtu    *rtu.RTU
	driver rtu.Driver
}

// NewStore takes ownership of r.
func NewStore(r *rtu.RTU, drv rtu.Driver) *Store {
	return &Store{rtu: r, driver: drv}
}

// Tx is a handle on the store, valid only inside the callback it was
// passed to.
type Tx struct {
	s *Store
}

// Locked runs fn with the store mutex held.
func (s *Store) Locked(fn func(tx *Tx)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&Tx{s: s})
}

// Bracket runs fn with the store mutex held, broadcasting Lock before and
// Unlock after it. The function fn returns, if non-nil, runs after Unlock
// while the mutex is still held; use it to deliver results.
//
// Unlock is broadcast even if fn panics. The panic then continues.
func (s *Store) Bracket(b Broadcaster, fn func(tx *Tx) func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b.Broadcast(LockEvent())
	unlocked := false
	defer func() {
		if !unlocked {
			b.Broadcast(UnlockEvent())
		}
	}()

	deliver := fn(&Tx{s: s})

	unlocked = true
	b.Broadcast(UnlockEvent())

	if deliver != nil {
		deliver()
	}
}

// Snapshot returns a deep copy of the current RTU.
func (s *Store) Snapshot() *rtu.RTU {
	var snap *rtu.RTU
	s.Locked(func(tx *Tx) { snap = tx.Snapshot() })
	return snap
}

// Snapshot returns a deep copy of the current RTU.
func (tx *Tx) Snapshot() *rtu.RTU { return tx.s.rtu.Clone() }

// Current returns the live RTU. Callers must not retain it past the callback.
func (tx *Tx) Current() *rtu.RTU { return tx.s.rtu }

// Driver returns the hardware driver.
func (tx *Tx) Driver() rtu.Driver { return tx.s.driver }

// Refresh reads every device from hardware. Devices that fail keep their
// previous values.
func (tx *Tx) Refresh(ctx context.Context) error {
	return tx.s.rtu.Update(ctx, tx.s.driver)
}

// Replace swaps in a new RTU.
func (tx *Tx) Replace(r *rtu.RTU) { tx.s.rtu = r }

// Merge overwrites stored devices with the given ones, matched by ID.
func (tx *Tx) Merge(devices []rtu.Device) int { return tx.s.rtu.Merge(devices) }
