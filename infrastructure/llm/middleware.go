package llm

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"github.com/verdictlab/crisisquiz/internal/ports"
)

// retryLLM retries failed requests with exponential backoff and jitter.
type retryLLM struct {
	next       CoreLLM
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// RetryMiddleware creates middleware that retries transient failures
// with exponential backoff. Non-retryable provider errors fail
// immediately.
func RetryMiddleware(maxRetries int, baseDelay, maxDelay time.Duration) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &retryLLM{
			next:       next,
			maxRetries: maxRetries,
			baseDelay:  baseDelay,
			maxDelay:   maxDelay,
		}
	}
}

func (r *retryLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		response, tokensIn, tokensOut, err := r.next.DoRequest(ctx, prompt, opts)
		if err == nil {
			return response, tokensIn, tokensOut, nil
		}
		lastErr = err

		if ctx.Err() != nil || !isRetryable(err) || attempt == r.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return "", 0, 0, ctx.Err()
		case <-time.After(r.backoff(attempt)):
		}
	}

	return "", 0, 0, fmt.Errorf("request failed after %d attempts: %w", r.maxRetries+1, lastErr)
}

func (r *retryLLM) backoff(attempt int) time.Duration {
	if attempt > 30 {
		attempt = 30
	}
	delay := time.Duration(float64(r.baseDelay) * float64(uint(1)<<uint(attempt)))

	// Jitter of ±25% keeps concurrent retries from synchronizing.
	jitter := time.Duration(rand.Float64() * float64(delay) * 0.5)
	delay = delay + jitter - delay/4

	if delay > r.maxDelay {
		delay = r.maxDelay
	}
	return delay
}

func (r *retryLLM) GetModel() string { return r.next.GetModel() }

// isRetryable inspects the provider error taxonomy; unclassified
// errors are treated as retryable to cover plain transport failures.
func isRetryable(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.IsRetryable()
	}
	return true
}

// timeoutLLM enforces a per-request deadline.
type timeoutLLM struct {
	next    CoreLLM
	timeout time.Duration
}

// TimeoutMiddleware creates middleware that bounds each request with a
// deadline so a hung provider call cannot stall a judge evaluation.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &timeoutLLM{next: next, timeout: timeout}
	}
}

func (t *timeoutLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.DoRequest(ctx, prompt, opts)
}

func (t *timeoutLLM) GetModel() string { return t.next.GetModel() }

// rateLimitedLLM paces requests with a token bucket.
type rateLimitedLLM struct {
	next    CoreLLM
	limiter *rate.Limiter
}

// RateLimitMiddleware creates middleware that enforces a sustained
// request rate with a burst allowance, keeping the panel inside
// provider rate limits.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(limit, burst)
	return func(next CoreLLM) CoreLLM {
		return &rateLimitedLLM{next: next, limiter: limiter}
	}
}

func (r *rateLimitedLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", 0, 0, fmt.Errorf("rate limit: %w", err)
	}
	return r.next.DoRequest(ctx, prompt, opts)
}

func (r *rateLimitedLLM) GetModel() string { return r.next.GetModel() }

// metricsLLM records request latency, counts, and token usage.
type metricsLLM struct {
	next      CoreLLM
	collector ports.MetricsCollector
}

// MetricsMiddleware creates middleware that reports request metrics to
// the given collector.
func MetricsMiddleware(collector ports.MetricsCollector) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &metricsLLM{next: next, collector: collector}
	}
}

func (m *metricsLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	start := time.Now()
	response, tokensIn, tokensOut, err := m.next.DoRequest(ctx, prompt, opts)

	labels := map[string]string{
		"model":  m.next.GetModel(),
		"status": "success",
	}
	if err != nil {
		labels["status"] = "error"
		if ctx.Err() == context.DeadlineExceeded {
			labels["status"] = "timeout"
		}
	}

	if m.collector != nil {
		m.collector.RecordHistogram("llm_request_duration_seconds", time.Since(start).Seconds(), labels)
		m.collector.RecordCounter("llm_requests_total", 1, labels)
		if err == nil {
			m.collector.RecordCounter("llm_tokens_in_total", float64(tokensIn), labels)
			m.collector.RecordCounter("llm_tokens_out_total", float64(tokensOut), labels)
		}
	}

	return response, tokensIn, tokensOut, err
}

func (m *metricsLLM) GetModel() string { return m.next.GetModel() }
