package game

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdictlab/crisisquiz/infrastructure/store"
	"github.com/verdictlab/crisisquiz/internal/domain"
	"github.com/verdictlab/crisisquiz/internal/ports"
)

// stubEvaluator scores proposals from a fixed table, bypassing the LLM
// panel entirely. Every judge returns the proposal's score, so with
// weights summing to 1.0 the weighted composite equals the raw score.
type stubEvaluator struct {
	judges []domain.Judge
	scores map[string]float64
}

func newStubEvaluator() *stubEvaluator {
	return &stubEvaluator{
		judges: []domain.Judge{
			{ID: domain.JudgeMethodologist, Name: "The Methodologist", Weight: 0.20},
			{ID: domain.JudgeAnalyst, Name: "The Analyst", Weight: 0.35},
			{ID: domain.JudgeInnovator, Name: "The Innovator", Weight: 0.25},
			{ID: domain.JudgeStoryteller, Name: "The Storyteller", Weight: 0.20},
		},
		scores: make(map[string]float64),
	}
}

func (s *stubEvaluator) Evaluate(
	_ context.Context,
	_ domain.Scenario,
	proposal string,
	_ []string,
	progress ports.ProgressFunc,
) ([]domain.JudgeFeedback, error) {
	score, ok := s.scores[proposal]
	if !ok {
		score = 7.0
	}
	feedback := make([]domain.JudgeFeedback, len(s.judges))
	for i, judge := range s.judges {
		if progress != nil {
			progress(i, judge)
		}
		feedback[i] = domain.JudgeFeedback{
			Judge:    judge.Name,
			Score:    score,
			Feedback: "stub verdict",
		}
	}
	return feedback, nil
}

func (s *stubEvaluator) Judges() []domain.Judge { return s.judges }

// lockedClock is a manually advanced clock safe for the timer
// goroutines the service spawns.
type lockedClock struct {
	mu      sync.Mutex
	current time.Time
}

func (c *lockedClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *lockedClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

func newTestService(t *testing.T, cfg Config) (*Service, *stubEvaluator, *lockedClock) {
	t.Helper()
	eval := newStubEvaluator()
	clock := &lockedClock{current: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	svc, err := NewService(store.NewMemoryStore(), eval, cfg,
		WithRand(rand.New(rand.NewSource(1))),
		WithClock(clock.now),
	)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc, eval, clock
}

func TestCreateGame(t *testing.T) {
	svc, _, _ := newTestService(t, Config{TotalRounds: 3})
	ctx := context.Background()

	g, err := svc.CreateGame(ctx, "admin-1", "Ada")
	require.NoError(t, err)

	assert.True(t, domain.ValidGameCode(g.Code))
	assert.Equal(t, domain.StateWaiting, g.State)
	assert.Equal(t, 0, g.CurrentRound)
	assert.Equal(t, 3, g.TotalRounds)
	require.Len(t, g.Rounds, 3)
	for n := 1; n <= 3; n++ {
		assert.Equal(t, n, g.Rounds[n].RoundNumber)
		assert.Equal(t, ScenarioForRound(n).ID, g.Rounds[n].ScenarioID)
		assert.False(t, g.Rounds[n].IsActive)
	}

	admin := g.Players["admin-1"]
	assert.True(t, admin.IsAdmin)
	assert.True(t, admin.IsActive)
	assert.Equal(t, "Ada", admin.Name)

	t.Run("blank admin rejected", func(t *testing.T) {
		_, err := svc.CreateGame(ctx, "", "Ada")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestJoinGame(t *testing.T) {
	svc, _, _ := newTestService(t, Config{TotalRounds: 2})
	ctx := context.Background()

	g, err := svc.CreateGame(ctx, "admin-1", "Ada")
	require.NoError(t, err)
	code := g.Code

	g, err = svc.JoinGame(ctx, code, "p2", "Grace")
	require.NoError(t, err)
	require.Contains(t, g.Players, "p2")
	assert.False(t, g.Players["p2"].IsAdmin)
	assert.True(t, g.Players["p2"].IsActive)

	t.Run("rejoin is idempotent", func(t *testing.T) {
		again, err := svc.JoinGame(ctx, code, "p2", "Grace")
		require.NoError(t, err)
		assert.Len(t, again.Players, 2)
	})

	t.Run("unknown game", func(t *testing.T) {
		_, err := svc.JoinGame(ctx, "ZZZZ99", "p3", "Edsger")
		assert.ErrorIs(t, err, domain.ErrGameNotFound)
	})

	t.Run("join after start rejected", func(t *testing.T) {
		_, err := svc.StartRound(ctx, code, "admin-1", 1)
		require.NoError(t, err)

		_, err = svc.JoinGame(ctx, code, "late", "Latecomer")
		assert.ErrorIs(t, err, domain.ErrGameAlreadyStarted)
	})
}

func TestStartRound(t *testing.T) {
	svc, _, _ := newTestService(t, Config{TotalRounds: 2})
	ctx := context.Background()

	g, err := svc.CreateGame(ctx, "admin-1", "Ada")
	require.NoError(t, err)
	code := g.Code
	_, err = svc.JoinGame(ctx, code, "p2", "Grace")
	require.NoError(t, err)

	t.Run("non-admin rejected", func(t *testing.T) {
		_, err := svc.StartRound(ctx, code, "p2", 1)
		assert.ErrorIs(t, err, domain.ErrNotAdmin)
	})

	t.Run("unknown actor rejected", func(t *testing.T) {
		_, err := svc.StartRound(ctx, code, "ghost", 1)
		assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
	})

	t.Run("unknown round rejected", func(t *testing.T) {
		_, err := svc.StartRound(ctx, code, "admin-1", 9)
		assert.ErrorIs(t, err, domain.ErrRoundNotFound)
	})

	g, err = svc.StartRound(ctx, code, "admin-1", 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StateActive, g.State)
	assert.Equal(t, 1, g.CurrentRound)
	assert.True(t, g.Rounds[1].IsActive)
	require.NotNil(t, g.Rounds[1].StartTime)

	snap, armed := svc.TimerSnapshot(code)
	require.True(t, armed)
	assert.Equal(t, domain.TimerRunning, snap.Phase)

	t.Run("starting during an active round rejected", func(t *testing.T) {
		_, err := svc.StartRound(ctx, code, "admin-1", 2)
		assert.ErrorIs(t, err, domain.ErrRoundNotActive)
	})
}

func TestSubmitAndProcessRound(t *testing.T) {
	svc, eval, clock := newTestService(t, Config{TotalRounds: 2})
	ctx := context.Background()

	g, err := svc.CreateGame(ctx, "admin-1", "Ada")
	require.NoError(t, err)
	code := g.Code
	_, err = svc.JoinGame(ctx, code, "p2", "Grace")
	require.NoError(t, err)
	_, err = svc.JoinGame(ctx, code, "p3", "Edsger")
	require.NoError(t, err)

	eval.scores["admin proposal"] = 9.0
	eval.scores["grace proposal"] = 6.5

	t.Run("submit before start rejected", func(t *testing.T) {
		_, err := svc.SubmitProposal(ctx, code, "admin-1", "admin proposal", nil, nil)
		assert.ErrorIs(t, err, domain.ErrRoundNotActive)
	})

	_, err = svc.StartRound(ctx, code, "admin-1", 1)
	require.NoError(t, err)

	sub, err := svc.SubmitProposal(ctx, code, "admin-1", "admin proposal", []string{"trust_gov"}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 9.0, sub.WeightedScore, 1e-9)
	assert.InDelta(t, 9.0, sub.TotalScore, 1e-9)
	require.Len(t, sub.Feedback, 4)
	assert.Equal(t, clock.now(), sub.Timestamp)

	clock.advance(10 * time.Second)
	_, err = svc.SubmitProposal(ctx, code, "p2", "grace proposal", nil, nil)
	require.NoError(t, err)

	t.Run("unknown player rejected", func(t *testing.T) {
		_, err := svc.SubmitProposal(ctx, code, "ghost", "x", nil, nil)
		assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
	})

	g, err = svc.GetGame(ctx, code)
	require.NoError(t, err)
	assert.False(t, g.AllSubmitted(1), "p3 has not submitted")

	g, err = svc.ProcessRound(ctx, code, "admin-1", 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StateResults, g.State)
	assert.False(t, g.Rounds[1].IsActive)
	require.NotNil(t, g.Rounds[1].EndTime)

	results := g.Rounds[1].Results
	require.Len(t, results, 3)

	assert.Equal(t, 1, results["admin-1"].Rank)
	assert.InDelta(t, 9.0, results["admin-1"].WeightedScore, 1e-9)
	assert.Equal(t, 2, results["p2"].Rank)

	// The non-submitter gets the synthesized floor result.
	assert.Equal(t, 3, results["p3"].Rank)
	assert.True(t, results["p3"].DidNotSubmit)
	assert.InDelta(t, domain.PenaltyScore, results["p3"].WeightedScore, 1e-9)

	// Standings update with the round.
	assert.InDelta(t, 9.0, g.Players["admin-1"].TotalScore, 1e-9)
	assert.InDelta(t, 9.0, g.Players["admin-1"].AverageScore, 1e-9)
	assert.Equal(t, 1, g.Players["admin-1"].CompletedRounds)
	assert.InDelta(t, 1.0, g.Players["p3"].TotalScore, 1e-9)

	t.Run("second processing rejected", func(t *testing.T) {
		_, err := svc.ProcessRound(ctx, code, "admin-1", 1)
		assert.ErrorIs(t, err, domain.ErrRoundProcessed)
	})

	t.Run("submit after processing rejected", func(t *testing.T) {
		_, err := svc.SubmitProposal(ctx, code, "p3", "too late", nil, nil)
		assert.ErrorIs(t, err, domain.ErrRoundNotActive)
	})

	t.Run("leaderboard sorted by rank", func(t *testing.T) {
		entries, err := svc.Leaderboard(ctx, code, 1)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "admin-1", entries[0].PlayerID)
		assert.Equal(t, "p2", entries[1].PlayerID)
		assert.Equal(t, "p3", entries[2].PlayerID)
	})
}

func TestCumulativeAverageIsExactQuotient(t *testing.T) {
	svc, eval, _ := newTestService(t, Config{TotalRounds: 2})
	ctx := context.Background()

	g, err := svc.CreateGame(ctx, "admin-1", "Ada")
	require.NoError(t, err)
	code := g.Code

	// Scores chosen so the running average carries two decimals. The
	// standings must show the exact quotient, not a re-rounded one.
	eval.scores["first entry"] = 8.1
	eval.scores["second entry"] = 6.0

	_, err = svc.StartRound(ctx, code, "admin-1", 1)
	require.NoError(t, err)
	_, err = svc.SubmitProposal(ctx, code, "admin-1", "first entry", nil, nil)
	require.NoError(t, err)
	_, err = svc.ProcessRound(ctx, code, "admin-1", 1)
	require.NoError(t, err)

	_, err = svc.AdvanceToNextRound(ctx, code, "admin-1")
	require.NoError(t, err)
	_, err = svc.SubmitProposal(ctx, code, "admin-1", "second entry", nil, nil)
	require.NoError(t, err)

	g, err = svc.ProcessRound(ctx, code, "admin-1", 2)
	require.NoError(t, err)

	player := g.Players["admin-1"]
	assert.InDelta(t, 14.1, player.TotalScore, 1e-9)
	assert.InDelta(t, 7.05, player.AverageScore, 1e-9)
	assert.InDelta(t, player.TotalScore/2, player.AverageScore, 1e-12)
	assert.Equal(t, 2, player.CompletedRounds)
}

func TestProcessRoundTieBreaks(t *testing.T) {
	svc, eval, clock := newTestService(t, Config{TotalRounds: 1})
	ctx := context.Background()

	g, err := svc.CreateGame(ctx, "admin-1", "Ada")
	require.NoError(t, err)
	code := g.Code
	_, err = svc.JoinGame(ctx, code, "p2", "Grace")
	require.NoError(t, err)
	_, err = svc.JoinGame(ctx, code, "p3", "Edsger")
	require.NoError(t, err)

	// p2 scores exactly the penalty value; a real submission at the
	// floor still outranks a no-show. The admin and p2 tie on score,
	// broken by submission time.
	eval.scores["early floor"] = 1.0
	eval.scores["late floor"] = 1.0

	_, err = svc.StartRound(ctx, code, "admin-1", 1)
	require.NoError(t, err)

	_, err = svc.SubmitProposal(ctx, code, "admin-1", "early floor", nil, nil)
	require.NoError(t, err)
	clock.advance(30 * time.Second)
	_, err = svc.SubmitProposal(ctx, code, "p2", "late floor", nil, nil)
	require.NoError(t, err)

	g, err = svc.ProcessRound(ctx, code, "admin-1", 1)
	require.NoError(t, err)

	results := g.Rounds[1].Results
	assert.Equal(t, 1, results["admin-1"].Rank, "earlier submission wins the tie")
	assert.Equal(t, 2, results["p2"].Rank)
	assert.Equal(t, 3, results["p3"].Rank, "no-show loses every tie")
	assert.True(t, results["p3"].DidNotSubmit)
}

func TestAdvanceToNextRound(t *testing.T) {
	svc, _, _ := newTestService(t, Config{TotalRounds: 2})
	ctx := context.Background()

	g, err := svc.CreateGame(ctx, "admin-1", "Ada")
	require.NoError(t, err)
	code := g.Code

	t.Run("advance outside results rejected", func(t *testing.T) {
		_, err := svc.AdvanceToNextRound(ctx, code, "admin-1")
		assert.ErrorIs(t, err, domain.ErrRoundNotActive)
	})

	_, err = svc.StartRound(ctx, code, "admin-1", 1)
	require.NoError(t, err)
	_, err = svc.SubmitProposal(ctx, code, "admin-1", "round one entry", nil, nil)
	require.NoError(t, err)
	_, err = svc.ProcessRound(ctx, code, "admin-1", 1)
	require.NoError(t, err)

	// Advancing with rounds remaining starts the next one immediately.
	g, err = svc.AdvanceToNextRound(ctx, code, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateActive, g.State)
	assert.Equal(t, 2, g.CurrentRound)
	assert.True(t, g.Rounds[2].IsActive)

	_, err = svc.SubmitProposal(ctx, code, "admin-1", "round two entry", nil, nil)
	require.NoError(t, err)
	_, err = svc.ProcessRound(ctx, code, "admin-1", 2)
	require.NoError(t, err)

	// Advancing past the last round completes the game.
	g, err = svc.AdvanceToNextRound(ctx, code, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateCompleted, g.State)

	t.Run("rounds after completion rejected", func(t *testing.T) {
		_, err := svc.StartRound(ctx, code, "admin-1", 1)
		assert.ErrorIs(t, err, domain.ErrGameCompleted)
	})
}

func TestFinishGame(t *testing.T) {
	svc, _, _ := newTestService(t, Config{TotalRounds: 5})
	ctx := context.Background()

	g, err := svc.CreateGame(ctx, "admin-1", "Ada")
	require.NoError(t, err)
	code := g.Code
	_, err = svc.JoinGame(ctx, code, "p2", "Grace")
	require.NoError(t, err)

	t.Run("non-admin rejected", func(t *testing.T) {
		_, err := svc.FinishGame(ctx, code, "p2")
		assert.ErrorIs(t, err, domain.ErrNotAdmin)
	})

	g, err = svc.FinishGame(ctx, code, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateCompleted, g.State)

	// Finishing twice is a no-op.
	_, err = svc.FinishGame(ctx, code, "admin-1")
	assert.NoError(t, err)
}

func TestDeactivatePlayer(t *testing.T) {
	svc, _, _ := newTestService(t, Config{TotalRounds: 1})
	ctx := context.Background()

	g, err := svc.CreateGame(ctx, "admin-1", "Ada")
	require.NoError(t, err)
	code := g.Code
	_, err = svc.JoinGame(ctx, code, "p2", "Grace")
	require.NoError(t, err)
	_, err = svc.JoinGame(ctx, code, "p3", "Edsger")
	require.NoError(t, err)

	t.Run("admin cannot be removed", func(t *testing.T) {
		err := svc.DeactivatePlayer(ctx, code, "admin-1", "admin-1")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("non-admin cannot remove others", func(t *testing.T) {
		err := svc.DeactivatePlayer(ctx, code, "p2", "p3")
		assert.ErrorIs(t, err, domain.ErrNotAdmin)
	})

	t.Run("players may remove themselves", func(t *testing.T) {
		require.NoError(t, svc.DeactivatePlayer(ctx, code, "p3", "p3"))
	})

	require.NoError(t, svc.DeactivatePlayer(ctx, code, "admin-1", "p2"))

	// Deactivated players are excluded from round results entirely.
	_, err = svc.StartRound(ctx, code, "admin-1", 1)
	require.NoError(t, err)
	_, err = svc.SubmitProposal(ctx, code, "admin-1", "solo entry", nil, nil)
	require.NoError(t, err)

	g, err = svc.ProcessRound(ctx, code, "admin-1", 1)
	require.NoError(t, err)
	require.Len(t, g.Rounds[1].Results, 1)
	assert.Contains(t, g.Rounds[1].Results, "admin-1")

	t.Run("inactive player cannot submit", func(t *testing.T) {
		_, err := svc.SubmitProposal(ctx, code, "p2", "ghost entry", nil, nil)
		assert.ErrorIs(t, err, domain.ErrPlayerInactive)
	})
}

func TestTimerExpiryFinalizesRound(t *testing.T) {
	// Real clock, tiny durations: the poll loop has to observe expiry
	// and finalize without any admin action.
	eval := newStubEvaluator()
	svc, err := NewService(store.NewMemoryStore(), eval,
		Config{TotalRounds: 1, RoundDuration: 50 * time.Millisecond, GracePeriod: 20 * time.Millisecond},
		WithRand(rand.New(rand.NewSource(1))),
	)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	ctx := context.Background()

	g, err := svc.CreateGame(ctx, "admin-1", "Ada")
	require.NoError(t, err)
	code := g.Code

	_, err = svc.StartRound(ctx, code, "admin-1", 1)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		g, err := svc.GetGame(ctx, code)
		if err != nil {
			return false
		}
		return g.State == domain.StateResults && g.Rounds[1].Results != nil
	}, 5*time.Second, 50*time.Millisecond, "expired round should finalize itself")

	g, err = svc.GetGame(ctx, code)
	require.NoError(t, err)
	assert.True(t, g.Rounds[1].Results["admin-1"].DidNotSubmit)
}
