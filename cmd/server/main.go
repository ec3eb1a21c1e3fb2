// Command server runs the quiz game API: game lifecycle endpoints, the
// judge panel evaluation pipeline, and the SSE change feed.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/verdictlab/crisisquiz/infrastructure/llm"
	"github.com/verdictlab/crisisquiz/infrastructure/metrics"
	"github.com/verdictlab/crisisquiz/infrastructure/panel"
	"github.com/verdictlab/crisisquiz/infrastructure/store"
	"github.com/verdictlab/crisisquiz/internal/config"
	"github.com/verdictlab/crisisquiz/internal/game"
	"github.com/verdictlab/crisisquiz/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	collector := metrics.NewPrometheusMetrics()

	// --- LLM client ---
	client, err := llm.NewClient(cfg.LLMProvider, llm.ClientConfig{
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
		Middleware: []llm.Middleware{
			llm.CircuitBreakerMiddleware(5, 30*time.Second),
			llm.RetryMiddleware(cfg.LLMMaxRetries, 500*time.Millisecond, 10*time.Second),
			llm.RateLimitMiddleware(rate.Limit(cfg.LLMRateLimit), 1),
			llm.TimeoutMiddleware(cfg.LLMTimeout),
			llm.MetricsMiddleware(collector),
			llm.TracingMiddleware("crisisquiz/llm"),
		},
	})
	if err != nil {
		return fmt.Errorf("building llm client: %w", err)
	}
	logger.Info("llm client ready", "provider", cfg.LLMProvider, "model", client.GetModel())

	// --- Judge panel ---
	judges, err := config.LoadJudges(cfg.PanelPath)
	if err != nil {
		return fmt.Errorf("loading judge panel: %w", err)
	}
	evaluator, err := panel.New(client, panel.Config{Judges: judges},
		panel.WithLogger(logger),
		panel.WithMetrics(collector),
	)
	if err != nil {
		return fmt.Errorf("building judge panel: %w", err)
	}
	logger.Info("judge panel ready", "judges", len(judges))

	// --- Game engine ---
	svc, err := game.NewService(store.NewMemoryStore(), evaluator,
		game.Config{
			TotalRounds:   cfg.TotalRounds,
			RoundDuration: cfg.RoundDuration,
			GracePeriod:   cfg.GracePeriod,
		},
		game.WithLogger(logger),
		game.WithMetrics(collector),
	)
	if err != nil {
		return fmt.Errorf("building game engine: %w", err)
	}
	defer svc.Close()

	// --- HTTP server ---
	srv := server.New(cfg.HTTPAddr, logger, svc)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
