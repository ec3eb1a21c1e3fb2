// Package ports defines the interfaces through which the game engine
// talks to its external collaborators: the LLM evaluation service, the
// push-notifying game document store, and metrics collection.
package ports

import (
	"context"
	"time"

	"github.com/verdictlab/crisisquiz/internal/domain"
)

// LLMClient defines the interface for the remote evaluation service a
// judge's prompt is sent to. Implementations handle provider-specific
// authentication, request formatting, and response parsing.
type LLMClient interface {
	// Complete sends a prompt and returns the generated text. The
	// options map carries provider-tunable settings; common keys are
	// "temperature" (float64), "max_tokens" (int), "system" (string),
	// and "model" (string).
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// EstimateTokens returns an approximate token count for text, for
	// cost estimation and rate limiting.
	EstimateTokens(text string) (int, error)

	// GetModel returns the model identifier in use, for logging.
	GetModel() string
}

// ProgressFunc receives one notification per judge, in panel order,
// immediately before that judge's evaluation starts. index is the
// judge's zero-based position in the roster.
type ProgressFunc func(index int, judge domain.Judge)

// Evaluator runs a full judge panel against a proposal and returns one
// feedback entry per judge, in roster order. Implementations isolate
// judge failures behind fallback verdicts; the error covers only
// problems with the request itself.
type Evaluator interface {
	Evaluate(
		ctx context.Context,
		scenario domain.Scenario,
		proposal string,
		selectedVariables []string,
		progress ProgressFunc,
	) ([]domain.JudgeFeedback, error)

	// Judges returns the ordered roster, for weight alignment during
	// score aggregation.
	Judges() []domain.Judge
}

// GameStore is the document store collaborator. One document per game,
// keyed by game code, with targeted field-path updates and a change
// subscription that pushes the full document after every mutation.
//
// The store guarantees last-write-wins per field path; there is no
// cross-path transaction. Concurrent submissions by different players
// touch distinct paths and do not conflict.
type GameStore interface {
	// CreateGame writes a brand-new game document. It fails with
	// domain.ErrGameExists if the code is already taken.
	CreateGame(ctx context.Context, game *domain.Game) error

	// GetGame reads the whole document for a code. It fails with
	// domain.ErrGameNotFound for unknown codes.
	GetGame(ctx context.Context, code string) (*domain.Game, error)

	// UpdateGame applies targeted field updates addressed by dot paths
	// into the document's nested maps, e.g.
	// "rounds.2.submissions.<playerID>" or "players.<id>.totalScore".
	// All paths in one call are applied together before watchers are
	// notified.
	UpdateGame(ctx context.Context, code string, updates map[string]any) error

	// Watch subscribes to document changes for a code. Each mutation
	// pushes a fresh snapshot of the full game. The returned cancel
	// function releases the subscription; the channel is closed when
	// the subscription ends.
	Watch(ctx context.Context, code string) (<-chan *domain.Game, func(), error)
}

// MetricsCollector defines the interface for operational metrics.
// The Prometheus implementation lives in infrastructure/metrics.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
