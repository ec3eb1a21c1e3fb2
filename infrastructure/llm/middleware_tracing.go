package llm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracedLLM wraps requests in OpenTelemetry spans.
type tracedLLM struct {
	next   CoreLLM
	tracer trace.Tracer
}

// TracingMiddleware creates middleware that records each request as a
// span under the given tracer name, with model, prompt length, and
// token usage attributes.
func TracingMiddleware(tracerName string) Middleware {
	tracer := otel.Tracer(tracerName)
	return func(next CoreLLM) CoreLLM {
		return &tracedLLM{next: next, tracer: tracer}
	}
}

func (t *tracedLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	ctx, span := t.tracer.Start(ctx, "llm.request", trace.WithAttributes(
		attribute.String("llm.model", t.next.GetModel()),
		attribute.Int("llm.prompt.length", len(prompt)),
	))
	defer span.End()

	response, tokensIn, tokensOut, err := t.next.DoRequest(ctx, prompt, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return response, tokensIn, tokensOut, err
	}

	span.SetAttributes(
		attribute.Int("llm.tokens.input", tokensIn),
		attribute.Int("llm.tokens.output", tokensOut),
	)
	return response, tokensIn, tokensOut, nil
}

func (t *tracedLLM) GetModel() string { return t.next.GetModel() }
