package llm

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker is rejecting requests.
// The judge panel treats it like any other provider failure and
// substitutes fallback feedback, so an outage degrades a round to
// neutral verdicts instead of stalling it on timeouts.
var ErrCircuitOpen = errors.New("llm circuit open")

// circuitLLM fails fast during a provider outage. After maxFailures
// consecutive outage-class errors the breaker opens and rejects
// requests until the cooldown elapses; the first request after the
// cooldown goes through as a trial and either closes the breaker again or
// re-opens it.
type circuitLLM struct {
	next CoreLLM

	maxFailures int
	cooldown    time.Duration
	now         func() time.Time

	mu       sync.Mutex
	failures int
	open     bool
	openedAt time.Time
}

// CircuitBreakerMiddleware creates middleware that opens after
// maxFailures consecutive provider-side failures and stays open for
// the cooldown before probing recovery.
func CircuitBreakerMiddleware(maxFailures int, cooldown time.Duration) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &circuitLLM{
			next:        next,
			maxFailures: maxFailures,
			cooldown:    cooldown,
			now:         time.Now,
		}
	}
}

func (c *circuitLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	if err := c.admit(); err != nil {
		return "", 0, 0, err
	}

	response, tokensIn, tokensOut, err := c.next.DoRequest(ctx, prompt, opts)
	c.observe(err)
	return response, tokensIn, tokensOut, err
}

func (c *circuitLLM) GetModel() string { return c.next.GetModel() }

// admit rejects the request while the breaker is open and the cooldown
// has not elapsed. Once it has, one request is let through as a trial.
func (c *circuitLLM) admit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.open && c.now().Sub(c.openedAt) < c.cooldown {
		return ErrCircuitOpen
	}
	return nil
}

func (c *circuitLLM) observe(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil {
		c.failures = 0
		c.open = false
		return
	}

	// Client-side mistakes such as a bad key or a malformed request
	// say nothing about provider health and must not trip the breaker.
	if !isRetryable(err) {
		return
	}

	c.failures++
	if c.open || c.failures >= c.maxFailures {
		c.open = true
		c.openedAt = c.now()
	}
}
