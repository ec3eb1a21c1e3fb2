// Package testutils provides shared test doubles for the game engine,
// most importantly a scriptable LLM client for exercising the judge
// panel without network access.
package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/verdictlab/crisisquiz/internal/ports"
)

// MockLLMClient implements ports.LLMClient with scripted responses.
// Calls consume the script in order; when the script runs out, the
// default response repeats. Configure per-call errors to exercise judge
// fallback paths.
type MockLLMClient struct {
	mu sync.Mutex

	model    string
	script   []ScriptedCall
	next     int
	fallback string

	// Calls records every prompt and option map received, in order.
	Calls []RecordedCall
}

// ScriptedCall is one pre-programmed completion outcome.
type ScriptedCall struct {
	// Response is returned when Err is nil.
	Response string

	// Err fails the call instead of returning a response.
	Err error
}

// RecordedCall captures the arguments of one Complete invocation.
type RecordedCall struct {
	Prompt  string
	Options map[string]any
}

// NewMockLLMClient creates a mock that answers every call with a valid
// mid-range judge verdict until scripted otherwise.
func NewMockLLMClient(model string) *MockLLMClient {
	return &MockLLMClient{
		model:    model,
		fallback: `{"score": 7.0, "feedback": "A solid proposal with a clear question and sensible variable choices.", "suggestedVariables": []}`,
	}
}

var _ ports.LLMClient = (*MockLLMClient)(nil)

// Enqueue appends outcomes to the script, consumed first-in first-out.
func (m *MockLLMClient) Enqueue(calls ...ScriptedCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, calls...)
}

// SetDefault replaces the response used once the script is exhausted.
func (m *MockLLMClient) SetDefault(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = response
}

// Complete implements ports.LLMClient.
func (m *MockLLMClient) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, RecordedCall{Prompt: prompt, Options: options})

	if m.next < len(m.script) {
		call := m.script[m.next]
		m.next++
		if call.Err != nil {
			return "", fmt.Errorf("mock llm: %w", call.Err)
		}
		return call.Response, nil
	}
	return m.fallback, nil
}

// EstimateTokens implements ports.LLMClient with a flat 4 chars/token
// heuristic.
func (m *MockLLMClient) EstimateTokens(text string) (int, error) {
	return len(text)/4 + 1, nil
}

// GetModel implements ports.LLMClient.
func (m *MockLLMClient) GetModel() string { return m.model }

// CallCount returns how many completions were requested.
func (m *MockLLMClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
