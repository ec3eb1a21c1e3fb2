package panel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/verdictlab/crisisquiz/internal/domain"
	"github.com/verdictlab/crisisquiz/internal/ports"
)

const (
	// DefaultTemperature keeps judge verdicts varied but grounded.
	DefaultTemperature = 0.6

	// DefaultMaxTokens bounds a single verdict. Feedback is 2-4
	// sentences plus a short variable list; 500 tokens is ample.
	DefaultMaxTokens = 500

	// fallbackScore is the neutral score recorded when a judge fails.
	fallbackScore = 5.0

	// fallbackFeedbackText stands in for a verdict the panel could not
	// obtain. Players see it verbatim.
	fallbackFeedbackText = "The evaluation could not be completed due to a technical issue. A neutral score has been assigned."
)

// ProgressFunc aliases the port's progress callback type.
type ProgressFunc = ports.ProgressFunc

// Config holds the evaluation parameters shared by every judge call.
type Config struct {
	// Judges is the ordered roster. Order is load-bearing: it fixes both
	// evaluation sequence and the positional weight alignment used by
	// score aggregation.
	Judges []domain.Judge

	// PromptOverrides replaces the built-in evaluation prompt for
	// specific judges. Keys must match roster judge ids.
	PromptOverrides map[domain.JudgeID]string

	// Temperature for judge completions. Zero means DefaultTemperature.
	Temperature float64

	// MaxTokens per verdict. Zero means DefaultMaxTokens.
	MaxTokens int
}

// Option configures optional panel collaborators.
type Option func(*Panel)

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Panel) { p.logger = logger }
}

// WithMetrics sets the metrics collector. Defaults to no metrics.
func WithMetrics(collector ports.MetricsCollector) Option {
	return func(p *Panel) { p.metrics = collector }
}

// Panel evaluates proposals by running every judge in the roster
// sequentially. Judge failures are isolated: a failed judge yields a
// neutral fallback verdict and never blocks the remaining judges.
type Panel struct {
	client    ports.LLMClient
	judges    []domain.Judge
	templates map[domain.JudgeID]*template.Template
	cfg       Config
	logger    *slog.Logger
	metrics   ports.MetricsCollector
	tracer    trace.Tracer
}

var _ ports.Evaluator = (*Panel)(nil)

// New builds a Panel over the given LLM client. The roster is validated
// and every judge's prompt template is resolved up front; a judge
// without a template is a configuration error.
func New(client ports.LLMClient, cfg Config, opts ...Option) (*Panel, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: nil LLM client", domain.ErrInvalidInput)
	}
	if err := domain.ValidateRoster(cfg.Judges); err != nil {
		return nil, err
	}

	templates, err := resolveTemplates(cfg.Judges, cfg.PromptOverrides)
	if err != nil {
		return nil, err
	}

	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	p := &Panel{
		client:    client,
		judges:    cfg.Judges,
		templates: templates,
		cfg:       cfg,
		logger:    slog.Default(),
		tracer:    otel.Tracer("crisisquiz/panel"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Judges returns the ordered roster the panel evaluates with.
func (p *Panel) Judges() []domain.Judge {
	out := make([]domain.Judge, len(p.judges))
	copy(out, p.judges)
	return out
}

// Evaluate runs every judge against the proposal, in roster order,
// and returns one JudgeFeedback per judge in the same order. progress
// may be nil. The returned slice always has len(p.judges) entries;
// judges that fail contribute a fallback verdict instead of an error.
func (p *Panel) Evaluate(
	ctx context.Context,
	scenario domain.Scenario,
	proposal string,
	selectedVariables []string,
	progress ProgressFunc,
) ([]domain.JudgeFeedback, error) {
	if strings.TrimSpace(proposal) == "" {
		return nil, fmt.Errorf("%w: empty proposal", domain.ErrInvalidInput)
	}

	ctx, span := p.tracer.Start(ctx, "panel.evaluate",
		trace.WithAttributes(
			attribute.Int("scenario.id", scenario.ID),
			attribute.Int("panel.judges", len(p.judges)),
		))
	defer span.End()

	data := promptData{
		Scenario:  scenario,
		Proposal:  proposal,
		Variables: formatVariables(selectedVariables),
		Ideal:     scenario.Ideal,
	}

	feedback := make([]domain.JudgeFeedback, 0, len(p.judges))
	for i, judge := range p.judges {
		if progress != nil {
			progress(i, judge)
		}

		verdict, err := p.evaluateJudge(ctx, judge, data)
		if err != nil {
			p.logger.Warn("judge evaluation failed, using fallback verdict",
				"judge", judge.ID,
				"scenario", scenario.ID,
				"error", err)
			p.recordJudgeResult(judge, "fallback")
			feedback = append(feedback, fallbackFeedback(judge))
			continue
		}

		p.recordJudgeResult(judge, "ok")
		feedback = append(feedback, verdict)
	}
	return feedback, nil
}

// evaluateJudge runs a single judge: render the prompt, call the model,
// parse the strict-JSON verdict.
func (p *Panel) evaluateJudge(ctx context.Context, judge domain.Judge, data promptData) (domain.JudgeFeedback, error) {
	ctx, span := p.tracer.Start(ctx, "panel.judge",
		trace.WithAttributes(
			attribute.String("judge.id", string(judge.ID)),
			attribute.Float64("judge.weight", judge.Weight),
		))
	defer span.End()

	var prompt strings.Builder
	if err := p.templates[judge.ID].Execute(&prompt, data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.JudgeFeedback{}, fmt.Errorf("rendering prompt for judge %q: %w", judge.ID, err)
	}

	start := time.Now()
	raw, err := p.client.Complete(ctx, prompt.String(), map[string]any{
		"system":        buildSystemPrompt(judge),
		"temperature":   p.cfg.Temperature,
		"max_tokens":    p.cfg.MaxTokens,
		"json_response": true,
	})
	if p.metrics != nil {
		p.metrics.RecordLatency("judge_evaluation", time.Since(start),
			map[string]string{"judge": string(judge.ID)})
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.JudgeFeedback{}, fmt.Errorf("judge %q completion: %w", judge.ID, err)
	}

	resp, err := parseJudgeResponse(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.JudgeFeedback{}, fmt.Errorf("judge %q: %w", judge.ID, err)
	}

	span.SetAttributes(attribute.Float64("judge.score", resp.Score))
	return domain.JudgeFeedback{
		Judge:              judge.Name,
		Glyph:              judge.Glyph,
		Score:              resp.Score,
		Feedback:           resp.Feedback,
		SuggestedVariables: resp.SuggestedVariables,
	}, nil
}

func (p *Panel) recordJudgeResult(judge domain.Judge, status string) {
	if p.metrics == nil {
		return
	}
	p.metrics.RecordCounter("judge_evaluations_total", 1,
		map[string]string{"judge": string(judge.ID), "status": status})
}

// fallbackFeedback is the neutral verdict recorded when a judge fails.
func fallbackFeedback(judge domain.Judge) domain.JudgeFeedback {
	return domain.JudgeFeedback{
		Judge:              judge.Name,
		Glyph:              judge.Glyph,
		Score:              fallbackScore,
		Feedback:           fallbackFeedbackText,
		SuggestedVariables: []string{},
	}
}
