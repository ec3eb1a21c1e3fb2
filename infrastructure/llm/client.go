// Package llm provides a unified client for the remote evaluation
// service behind the judge panel. It abstracts multiple LLM providers
// (OpenAI, Anthropic, Google) behind a common interface and layers
// cross-cutting concerns such as retries, timeouts, rate limiting, and
// metrics through a middleware chain.
//
// Basic usage:
//
//	client, err := llm.NewClient("openai", llm.ClientConfig{
//	    APIKey: os.Getenv("LLM_API_KEY"),
//	    Model:  "gpt-4o-mini",
//	})
//	response, err := client.Complete(ctx, prompt, nil)
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/verdictlab/crisisquiz/internal/ports"
)

// CoreLLM is the minimal surface a provider must implement. The
// middleware chain wraps any conforming implementation.
type CoreLLM interface {
	// DoRequest sends a prompt and returns the response text plus
	// input/output token counts.
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (response string, tokensIn, tokensOut int, err error)

	// GetModel returns the configured model name.
	GetModel() string
}

// Middleware wraps a CoreLLM to add cross-cutting behavior. Middleware
// composes; the first entry in a chain is the outermost wrapper.
type Middleware func(CoreLLM) CoreLLM

// ClientConfig holds the settings for building a client.
type ClientConfig struct {
	// APIKey authenticates requests to the provider.
	APIKey string

	// Model selects the provider model. Empty uses the provider default.
	Model string

	// BaseURL overrides the provider's default endpoint when set.
	BaseURL string

	// Timeout bounds individual requests at the transport level. Zero
	// means no transport timeout; use TimeoutMiddleware for a
	// per-request deadline instead.
	Timeout time.Duration

	// Middleware is applied in order, first entry outermost.
	Middleware []Middleware
}

// Client implements ports.LLMClient by delegating to a middleware-
// wrapped provider.
type Client struct {
	core      CoreLLM
	estimator *TokenCounter
}

var _ ports.LLMClient = (*Client)(nil)

// ProviderFactory builds a CoreLLM from configuration.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory registers a provider under a name. Providers
// in this package register themselves in init.
func RegisterProviderFactory(name string, factory ProviderFactory) {
	providerFactories[name] = factory
}

// Providers returns the names of all registered providers.
func Providers() []string {
	names := make([]string, 0, len(providerFactories))
	for name := range providerFactories {
		names = append(names, name)
	}
	return names
}

// NewClient builds a client for the named provider, assembling the
// middleware chain and validating configuration.
func NewClient(provider string, config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	factory, ok := providerFactories[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", provider)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("creating %s provider: %w", provider, err)
	}

	// Apply middleware in reverse so the first configured entry wraps
	// the others.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	return &Client{core: core, estimator: NewTokenCounter()}, nil
}

// Complete sends a prompt and returns the response text.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	response, _, _, err := c.core.DoRequest(ctx, prompt, options)
	return response, err
}

// CompleteWithUsage sends a prompt and also returns the input and
// output token counts for usage tracking.
func (c *Client) CompleteWithUsage(ctx context.Context, prompt string, options map[string]any) (string, int, int, error) {
	return c.core.DoRequest(ctx, prompt, options)
}

// EstimateTokens returns an approximate token count for text.
func (c *Client) EstimateTokens(text string) (int, error) {
	return c.estimator.EstimateTokens(text), nil
}

// GetModel returns the underlying provider's model name.
func (c *Client) GetModel() string { return c.core.GetModel() }

// TokenCounter estimates token counts when a provider response does
// not include exact usage numbers.
type TokenCounter struct {
	// CharactersPerToken is the assumed average; 4 is a reasonable
	// approximation for English text.
	CharactersPerToken float64
}

// NewTokenCounter returns a TokenCounter with the default ratio.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{CharactersPerToken: 4.0}
}

// EstimateTokens approximates the token count of text.
func (tc *TokenCounter) EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return int(float64(len(text)) / tc.CharactersPerToken)
}

// GetTokenCount prefers the provider-reported count, falling back to
// estimation when the report is missing or zero.
func (tc *TokenCounter) GetTokenCount(actual int, text string) int {
	if actual > 0 {
		return actual
	}
	return tc.EstimateTokens(text)
}
