package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock is a manually advanced clock for timer tests.
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) now() time.Time { return c.current }

func (c *fakeClock) advance(d time.Duration) { c.current = c.current.Add(d) }

func newTestTimer(duration, grace time.Duration, opts ...TimerOption) (*RoundTimer, *fakeClock) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{current: start}
	opts = append([]TimerOption{WithClock(clock.now)}, opts...)
	return NewRoundTimer(start, duration, grace, opts...), clock
}

func TestRoundTimerPhases(t *testing.T) {
	timer, clock := newTestTimer(5*time.Minute, 2*time.Minute)

	snap := timer.Tick()
	assert.Equal(t, TimerRunning, snap.Phase)
	assert.Equal(t, 5*time.Minute, snap.Remaining)
	assert.False(t, snap.InGrace())

	clock.advance(3 * time.Minute)
	snap = timer.Tick()
	assert.Equal(t, TimerRunning, snap.Phase)
	assert.Equal(t, 2*time.Minute, snap.Remaining)

	// One millisecond past the nominal deadline lands in grace with
	// just under the full grace window left.
	clock.advance(2*time.Minute + time.Millisecond)
	snap = timer.Tick()
	assert.Equal(t, TimerGrace, snap.Phase)
	assert.Equal(t, 2*time.Minute-time.Millisecond, snap.Remaining)
	assert.True(t, snap.InGrace())

	clock.advance(2 * time.Minute)
	snap = timer.Tick()
	assert.Equal(t, TimerExpired, snap.Phase)
	assert.Equal(t, time.Duration(0), snap.Remaining)
}

func TestRoundTimerExpireFiresOnce(t *testing.T) {
	var fired int
	timer, clock := newTestTimer(5*time.Minute, 2*time.Minute,
		WithExpireFunc(func() { fired++ }))

	// Nominal expiry alone never fires the terminal callback.
	clock.advance(5*time.Minute + time.Second)
	timer.Tick()
	assert.Equal(t, 0, fired)

	clock.advance(2 * time.Minute)
	timer.Tick()
	assert.Equal(t, 1, fired)

	// Further polls stay expired without re-firing.
	clock.advance(time.Hour)
	snap := timer.Tick()
	assert.Equal(t, TimerExpired, snap.Phase)
	assert.Equal(t, 1, fired)
}

func TestRoundTimerGraceFiresOnce(t *testing.T) {
	var graced int
	timer, clock := newTestTimer(5*time.Minute, 2*time.Minute,
		WithGraceFunc(func() { graced++ }))

	clock.advance(5*time.Minute + time.Second)
	timer.Tick()
	timer.Tick()
	assert.Equal(t, 1, graced)

	// Skipping straight past the grace window still records the grace
	// transition exactly once.
	var lateGraced int
	lateTimer, lateClock := newTestTimer(5*time.Minute, 2*time.Minute,
		WithGraceFunc(func() { lateGraced++ }))
	lateClock.advance(10 * time.Minute)
	lateTimer.Tick()
	lateTimer.Tick()
	assert.Equal(t, 1, lateGraced)
}

func TestRoundTimerPauseExcludesFrozenTime(t *testing.T) {
	timer, clock := newTestTimer(5*time.Minute, 2*time.Minute)

	clock.advance(2 * time.Minute)
	timer.Pause()
	assert.True(t, timer.Paused())

	// Time passing while paused does not count against the round.
	clock.advance(30 * time.Minute)
	snap := timer.Tick()
	assert.Equal(t, TimerRunning, snap.Phase)
	assert.Equal(t, 3*time.Minute, snap.Remaining)

	timer.Resume()
	assert.False(t, timer.Paused())

	clock.advance(time.Minute)
	snap = timer.Tick()
	assert.Equal(t, 2*time.Minute, snap.Remaining)
}

func TestRoundTimerPauseAfterExpiryIgnored(t *testing.T) {
	timer, clock := newTestTimer(time.Minute, time.Minute)

	clock.advance(3 * time.Minute)
	assert.Equal(t, TimerExpired, timer.Tick().Phase)

	timer.Pause()
	assert.False(t, timer.Paused())
}

func TestRoundTimerZeroGrace(t *testing.T) {
	var fired int
	timer, clock := newTestTimer(time.Minute, 0,
		WithExpireFunc(func() { fired++ }))

	clock.advance(time.Minute)
	snap := timer.Tick()
	assert.Equal(t, TimerExpired, snap.Phase)
	assert.Equal(t, 1, fired)
}
