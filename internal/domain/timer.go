package domain

import (
	"context"
	"sync"
	"time"
)

// TimerPhase describes where a round timer is in its countdown.
type TimerPhase int

const (
	// TimerRunning means the nominal round duration has not elapsed.
	TimerRunning TimerPhase = iota

	// TimerGrace means the nominal duration elapsed and the grace
	// window is counting down. Submissions are still accepted.
	TimerGrace

	// TimerExpired means both the nominal duration and the grace
	// window have elapsed.
	TimerExpired
)

// TimerSnapshot is the result of one timer poll.
type TimerSnapshot struct {
	// Remaining is the time left in the current phase.
	Remaining time.Duration

	// Phase is the countdown phase the snapshot was taken in.
	Phase TimerPhase
}

// InGrace reports whether the snapshot was taken during the grace
// window, for surfacing an "extra time" indicator to observers.
func (s TimerSnapshot) InGrace() bool { return s.Phase == TimerGrace }

// TimerOption configures a RoundTimer.
type TimerOption func(*RoundTimer)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) TimerOption {
	return func(t *RoundTimer) { t.now = now }
}

// WithExpireFunc sets the terminal expiry callback. It fires exactly
// once, when the grace window reaches zero; the nominal-duration expiry
// by itself never fires it.
func WithExpireFunc(fn func()) TimerOption {
	return func(t *RoundTimer) { t.onExpire = fn }
}

// WithGraceFunc sets a callback fired exactly once when the timer
// crosses from the nominal countdown into the grace window. Callers
// typically log this transition; it is not a terminal signal.
func WithGraceFunc(fn func()) TimerOption {
	return func(t *RoundTimer) { t.onGrace = fn }
}

// RoundTimer computes the remaining time for a round, including the
// grace window after the nominal deadline and pause/resume semantics.
// It is poll-driven: each Tick recomputes from the wall clock, and the
// expiry callback is edge-triggered rather than a flag callers must
// watch. The timer never ends the round itself; finalization is a
// separate admin action.
type RoundTimer struct {
	mu sync.Mutex

	start    time.Time
	duration time.Duration
	grace    time.Duration

	now      func() time.Time
	onExpire func()
	onGrace  func()

	paused      bool
	pausedAt    time.Time
	pausedTotal time.Duration

	graceEntered bool
	expired      bool
}

// NewRoundTimer creates a timer for a round that started at start, with
// the given nominal duration and grace window.
func NewRoundTimer(start time.Time, duration, grace time.Duration, opts ...TimerOption) *RoundTimer {
	t := &RoundTimer{
		start:    start,
		duration: duration,
		grace:    grace,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// elapsed returns time counted against the round, excluding any time
// spent paused. Callers must hold the mutex.
func (t *RoundTimer) elapsed() time.Duration {
	ref := t.now()
	if t.paused {
		ref = t.pausedAt
	}
	return ref.Sub(t.start) - t.pausedTotal
}

// Tick recomputes the countdown and fires any edge-triggered callbacks
// whose thresholds were crossed since the last poll.
func (t *RoundTimer) Tick() TimerSnapshot {
	t.mu.Lock()

	elapsed := t.elapsed()
	snap := TimerSnapshot{}

	switch {
	case elapsed < t.duration:
		snap.Phase = TimerRunning
		snap.Remaining = t.duration - elapsed

	case elapsed < t.duration+t.grace:
		snap.Phase = TimerGrace
		snap.Remaining = t.duration + t.grace - elapsed
		t.markGraceLocked()

	default:
		snap.Phase = TimerExpired
		snap.Remaining = 0
		t.markGraceLocked()
		if !t.expired {
			t.expired = true
			fn := t.onExpire
			t.mu.Unlock()
			if fn != nil {
				fn()
			}
			return snap
		}
	}

	t.mu.Unlock()
	return snap
}

func (t *RoundTimer) markGraceLocked() {
	if t.graceEntered {
		return
	}
	t.graceEntered = true
	if t.onGrace != nil {
		// Deliberately invoked under the lock; grace callbacks are
		// expected to be cheap (a log line).
		t.onGrace()
	}
}

// Pause freezes the countdown. Time spent paused is excluded from the
// round's elapsed time, so resuming continues from the frozen value.
// Pausing an expired timer has no effect.
func (t *RoundTimer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.paused || t.expired {
		return
	}
	t.paused = true
	t.pausedAt = t.now()
}

// Resume restarts a paused countdown from its frozen value.
func (t *RoundTimer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.paused {
		return
	}
	t.pausedTotal += t.now().Sub(t.pausedAt)
	t.paused = false
}

// Paused reports whether the countdown is currently frozen.
func (t *RoundTimer) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

// Run polls the timer at the given interval until it expires or the
// context is canceled. It is a convenience for callers that want the
// expiry callback driven for them.
func (t *RoundTimer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if snap := t.Tick(); snap.Phase == TimerExpired {
				return
			}
		}
	}
}
