package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerMiddleware(t *testing.T) {
	outage := NewProviderError("openai", ErrorTypeServerError, 502, "bad gateway", nil)
	badKey := NewProviderError("openai", ErrorTypeAuthentication, 401, "invalid key", nil)
	ctx := context.Background()

	newBreaker := func(core CoreLLM, maxFailures int) (*circuitLLM, *time.Time) {
		cb, ok := CircuitBreakerMiddleware(maxFailures, time.Minute)(core).(*circuitLLM)
		require.True(t, ok)
		at := time.Now()
		cb.now = func() time.Time { return at }
		return cb, &at
	}

	t.Run("opens after consecutive outages", func(t *testing.T) {
		core := &fakeCore{model: "m", errs: []error{outage, outage, outage}}
		cb, _ := newBreaker(core, 2)

		_, _, _, err := cb.DoRequest(ctx, "p", nil)
		assert.ErrorIs(t, err, outage)
		_, _, _, err = cb.DoRequest(ctx, "p", nil)
		assert.ErrorIs(t, err, outage)

		// Open now: the third request never reaches the provider.
		_, _, _, err = cb.DoRequest(ctx, "p", nil)
		assert.ErrorIs(t, err, ErrCircuitOpen)
		assert.Equal(t, 2, core.calls)
	})

	t.Run("cooldown trial closes on success", func(t *testing.T) {
		core := &fakeCore{model: "m", errs: []error{outage, nil, nil}}
		cb, at := newBreaker(core, 1)

		_, _, _, err := cb.DoRequest(ctx, "p", nil)
		assert.ErrorIs(t, err, outage)
		_, _, _, err = cb.DoRequest(ctx, "p", nil)
		assert.ErrorIs(t, err, ErrCircuitOpen)

		*at = at.Add(2 * time.Minute)
		resp, _, _, err := cb.DoRequest(ctx, "p", nil)
		require.NoError(t, err)
		assert.Equal(t, "ok", resp)

		// Closed again: requests flow normally.
		_, _, _, err = cb.DoRequest(ctx, "p", nil)
		require.NoError(t, err)
		assert.Equal(t, 3, core.calls)
	})

	t.Run("failed trial reopens", func(t *testing.T) {
		core := &fakeCore{model: "m", errs: []error{outage, outage, outage}}
		cb, at := newBreaker(core, 1)

		_, _, _, err := cb.DoRequest(ctx, "p", nil)
		assert.ErrorIs(t, err, outage)

		*at = at.Add(2 * time.Minute)
		_, _, _, err = cb.DoRequest(ctx, "p", nil)
		assert.ErrorIs(t, err, outage)

		// A single trial failure re-opens immediately.
		_, _, _, err = cb.DoRequest(ctx, "p", nil)
		assert.ErrorIs(t, err, ErrCircuitOpen)
		assert.Equal(t, 2, core.calls)
	})

	t.Run("client errors do not trip the breaker", func(t *testing.T) {
		core := &fakeCore{model: "m", errs: []error{badKey, badKey, badKey}}
		cb, _ := newBreaker(core, 1)

		for i := 0; i < 3; i++ {
			_, _, _, err := cb.DoRequest(ctx, "p", nil)
			assert.ErrorIs(t, err, badKey)
		}
		assert.Equal(t, 3, core.calls)
	})
}
