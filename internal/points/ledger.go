package points

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Recorder sends point mutations to the backend.
type Recorder interface {
	AddPoint(ctx context.Context, childID int64, userID string) error
	DeletePoint(ctx context.Context, childID int64) error
}

const (
	// MaxPerChild caps how many points one child can receive through the
	// overlay in a single session. A UX throttle, not a server rule.
	MaxPerChild = 4

	// animationWindow is how long the "just added" flag stays set.
	animationWindow = 800 * time.Millisecond
)

// ErrNoSession means a point mutation was attempted without a resolvable
// acting user.
var ErrNoSession = errors.New("no valid session for recording points")

// Ledger tracks the per-child overlay of points added during the current
// session. Counts are optimistic: mutated before the backend confirms and
// rolled back when it refuses. They are a rendering hint on top of the
// authoritative totals, never a replacement for them.
type Ledger struct {
	recorder  Recorder
	onConfirm func()

	mu      sync.Mutex
	counts  map[int64]int
	animate map[int64]bool
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithConfirmHook registers a callback invoked after the backend accepts a
// mutation, so the authoritative listing can be refreshed downstream.
func WithConfirmHook(hook func()) Option {
	return func(l *Ledger) { l.onConfirm = hook }
}

// NewLedger creates an empty overlay ledger recording through the given
// backend recorder.
func NewLedger(recorder Recorder, opts ...Option) *Ledger {
	l := &Ledger{
		recorder: recorder,
		counts:   make(map[int64]int),
		animate:  make(map[int64]bool),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Add optimistically increments a child's overlay count and records the
// point with the backend. At the ceiling the call is a no-op and no request
// is sent. On backend failure the increment is reverted and the error,
// carrying the server message when present, is returned for surfacing.
func (l *Ledger) Add(ctx context.Context, childID int64, userID string) error {
	if userID == "" {
		return ErrNoSession
	}

	// The ceiling check and the increment are one atomic step, so rapid
	// repeated clicks can never push a child past the cap.
	l.mu.Lock()
	if l.counts[childID] >= MaxPerChild {
		l.mu.Unlock()
		return nil
	}
	l.counts[childID]++
	l.animate[childID] = true
	l.mu.Unlock()

	time.AfterFunc(animationWindow, func() {
		l.mu.Lock()
		delete(l.animate, childID)
		l.mu.Unlock()
	})

	if err := l.recorder.AddPoint(ctx, childID, userID); err != nil {
		l.mu.Lock()
		if l.counts[childID] > 0 {
			l.counts[childID]--
		}
		l.mu.Unlock()
		return fmt.Errorf("record point for child %d: %w", childID, err)
	}

	if l.onConfirm != nil {
		l.onConfirm()
	}
	return nil
}

// Remove optimistically decrements a child's overlay count and deletes the
// most recent point with the backend. At zero the call is a no-op and no
// request is sent. On backend failure the count is restored.
func (l *Ledger) Remove(ctx context.Context, childID int64) error {
	l.mu.Lock()
	if l.counts[childID] <= 0 {
		l.mu.Unlock()
		return nil
	}
	l.counts[childID]--
	l.mu.Unlock()

	if err := l.recorder.DeletePoint(ctx, childID); err != nil {
		l.mu.Lock()
		l.counts[childID]++
		l.mu.Unlock()
		return fmt.Errorf("remove point for child %d: %w", childID, err)
	}

	if l.onConfirm != nil {
		l.onConfirm()
	}
	return nil
}

// Seed merges server-known counts into the overlay without overwriting
// entries already touched this session.
func (l *Ledger) Seed(initial map[int64]int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for childID, count := range initial {
		if _, touched := l.counts[childID]; !touched {
			l.counts[childID] = count
		}
	}
}

// Count returns the overlay count for one child.
func (l *Ledger) Count(childID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[childID]
}

// Counts returns a snapshot of all non-zero overlay counts.
func (l *Ledger) Counts() map[int64]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	snapshot := make(map[int64]int, len(l.counts))
	for childID, count := range l.counts {
		if count != 0 {
			snapshot[childID] = count
		}
	}
	return snapshot
}

// Animating reports whether a child's "just added" flag is currently set.
func (l *Ledger) Animating(childID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.animate[childID]
}

// Reset drops the whole overlay. Used when the session ends or the server
// totals are zeroed.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts = make(map[int64]int)
	l.animate = make(map[int64]bool)
}
