// Package game implements the multiplayer game engine: lobby
// management, the round state machine, submission evaluation through
// the judge panel, and round finalization into ranked results.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/verdictlab/crisisquiz/internal/domain"
	"github.com/verdictlab/crisisquiz/internal/ports"
)

const (
	// DefaultTotalRounds matches the pre-allocated round slots of a new
	// game.
	DefaultTotalRounds = 8

	// DefaultRoundDuration is the nominal per-round countdown.
	DefaultRoundDuration = 5 * time.Minute

	// DefaultGracePeriod extends the countdown past the nominal
	// deadline. Submissions arriving in the grace window still count.
	DefaultGracePeriod = 2 * time.Minute

	// defaultTimerPoll is how often round timers re-check the clock.
	defaultTimerPoll = 1 * time.Second

	// maxCodeAttempts bounds retries on game-code collisions.
	maxCodeAttempts = 5

	// MaxProposalLength bounds free-text proposals before they reach
	// the judge panel.
	MaxProposalLength = 4000
)

// Config carries the tunable parameters of the game engine.
type Config struct {
	TotalRounds   int
	RoundDuration time.Duration
	GracePeriod   time.Duration
}

// withDefaults fills zero fields with the package defaults.
func (c Config) withDefaults() Config {
	if c.TotalRounds == 0 {
		c.TotalRounds = DefaultTotalRounds
	}
	if c.RoundDuration == 0 {
		c.RoundDuration = DefaultRoundDuration
	}
	if c.GracePeriod == 0 {
		c.GracePeriod = DefaultGracePeriod
	}
	return c
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics collector. Defaults to no metrics.
func WithMetrics(collector ports.MetricsCollector) Option {
	return func(s *Service) { s.metrics = collector }
}

// WithRand sets the random source for game-code generation, for
// deterministic tests.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// activeTimer pairs a running round timer with the cancel that stops
// its polling goroutine.
type activeTimer struct {
	timer  *domain.RoundTimer
	cancel context.CancelFunc
}

// Service is the game engine. All state lives in the store; the service
// holds only the in-flight round timers.
type Service struct {
	store     ports.GameStore
	evaluator ports.Evaluator
	cfg       Config

	logger  *slog.Logger
	metrics ports.MetricsCollector
	now     func() time.Time

	// rng is guarded separately; rand.Rand is not safe for concurrent
	// use.
	rngMu sync.Mutex
	rng   *rand.Rand

	timerMu sync.Mutex
	timers  map[string]*activeTimer
}

// NewService wires the game engine over its store and evaluator ports.
func NewService(store ports.GameStore, evaluator ports.Evaluator, cfg Config, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil game store", domain.ErrInvalidInput)
	}
	if evaluator == nil {
		return nil, fmt.Errorf("%w: nil evaluator", domain.ErrInvalidInput)
	}

	s := &Service{
		store:     store,
		evaluator: evaluator,
		cfg:       cfg.withDefaults(),
		logger:    slog.Default(),
		now:       time.Now,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		timers:    make(map[string]*activeTimer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close stops all in-flight round timers. Games themselves are
// untouched; a restarted engine picks them up from the store.
func (s *Service) Close() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	for code, at := range s.timers {
		at.cancel()
		delete(s.timers, code)
	}
}

// CreateGame creates a new game in the lobby state with the creator as
// its admin. Code collisions are retried with fresh codes.
func (s *Service) CreateGame(ctx context.Context, adminID, adminName string) (*domain.Game, error) {
	if strings.TrimSpace(adminID) == "" || strings.TrimSpace(adminName) == "" {
		return nil, fmt.Errorf("%w: admin id and name are required", domain.ErrInvalidInput)
	}

	now := s.now()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := s.newCode()

		rounds := make(map[int]domain.GameRound, s.cfg.TotalRounds)
		for n := 1; n <= s.cfg.TotalRounds; n++ {
			rounds[n] = domain.GameRound{
				RoundNumber: n,
				ScenarioID:  ScenarioForRound(n).ID,
				Submissions: make(map[string]domain.Submission),
			}
		}

		game := &domain.Game{
			Code:         code,
			CreatedAt:    now,
			UpdatedAt:    now,
			CurrentRound: 0,
			TotalRounds:  s.cfg.TotalRounds,
			State:        domain.StateWaiting,
			Players: map[string]domain.Player{
				adminID: {
					ID:       adminID,
					Name:     adminName,
					IsAdmin:  true,
					IsActive: true,
					JoinedAt: now,
				},
			},
			Rounds: rounds,
		}

		err := s.store.CreateGame(ctx, game)
		if errors.Is(err, domain.ErrGameExists) {
			continue
		}
		if err != nil {
			return nil, domain.NewGameError(code, "create", err)
		}

		s.logger.Info("game created", "game", code, "admin", adminID)
		s.countOp("create_game", "ok")
		return game, nil
	}
	return nil, fmt.Errorf("generating game code: %w", domain.ErrGameExists)
}

// JoinGame adds a player to a game still in the lobby. Joining is
// idempotent for a player id already in the game; joins after the first
// round starts are categorically rejected.
func (s *Service) JoinGame(ctx context.Context, code, playerID, name string) (*domain.Game, error) {
	if strings.TrimSpace(playerID) == "" || strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: player id and name are required", domain.ErrInvalidInput)
	}

	game, err := s.store.GetGame(ctx, code)
	if err != nil {
		return nil, err
	}
	if _, ok := game.Players[playerID]; ok {
		return game, nil
	}
	if game.State != domain.StateWaiting {
		return nil, domain.NewGameError(code, "join", domain.ErrGameAlreadyStarted)
	}

	now := s.now()
	player := domain.Player{
		ID:       playerID,
		Name:     name,
		IsActive: true,
		JoinedAt: now,
	}
	updates := map[string]any{
		"players." + playerID: player,
		"updatedAt":           now,
	}
	if err := s.store.UpdateGame(ctx, code, updates); err != nil {
		return nil, domain.NewGameError(code, "join", err)
	}

	s.logger.Info("player joined", "game", code, "player", playerID)
	s.countOp("join_game", "ok")
	return s.store.GetGame(ctx, code)
}

// GetGame returns the current game document.
func (s *Service) GetGame(ctx context.Context, code string) (*domain.Game, error) {
	return s.store.GetGame(ctx, code)
}

// Watch subscribes to game document changes. See ports.GameStore.
func (s *Service) Watch(ctx context.Context, code string) (<-chan *domain.Game, func(), error) {
	return s.store.Watch(ctx, code)
}

// StartRound activates a round. Admin only. The round countdown starts
// immediately; when it fully expires, including the grace window, the
// engine finalizes the round on its own.
func (s *Service) StartRound(ctx context.Context, code, actorID string, roundNumber int) (*domain.Game, error) {
	game, err := s.store.GetGame(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(game, actorID); err != nil {
		return nil, domain.NewGameError(code, "start_round", err)
	}
	return s.startRound(ctx, game, roundNumber)
}

// startRound is the admin-check-free core shared with AdvanceToNextRound.
func (s *Service) startRound(ctx context.Context, game *domain.Game, roundNumber int) (*domain.Game, error) {
	code := game.Code
	if game.State == domain.StateCompleted {
		return nil, domain.NewGameError(code, "start_round", domain.ErrGameCompleted)
	}
	if game.State == domain.StateActive {
		return nil, domain.NewGameError(code, "start_round",
			fmt.Errorf("%w: round %d is in flight", domain.ErrRoundNotActive, game.CurrentRound))
	}

	round, ok := game.Rounds[roundNumber]
	if !ok {
		return nil, domain.NewGameError(code, "start_round", domain.ErrRoundNotFound)
	}
	if round.Results != nil {
		return nil, domain.NewGameError(code, "start_round", domain.ErrRoundProcessed)
	}

	now := s.now()
	updates := map[string]any{
		"currentRound": roundNumber,
		"state":        domain.StateActive,
		fmt.Sprintf("rounds.%d.isActive", roundNumber):  true,
		fmt.Sprintf("rounds.%d.startTime", roundNumber): now,
		"updatedAt": now,
	}
	if err := s.store.UpdateGame(ctx, code, updates); err != nil {
		return nil, domain.NewGameError(code, "start_round", err)
	}

	s.startTimer(code, roundNumber, now)
	s.logger.Info("round started", "game", code, "round", roundNumber)
	s.countOp("start_round", "ok")
	return s.store.GetGame(ctx, code)
}

// startTimer arms the countdown for a round and replaces any previous
// timer for the game.
func (s *Service) startTimer(code string, roundNumber int, start time.Time) {
	timer := domain.NewRoundTimer(start, s.cfg.RoundDuration, s.cfg.GracePeriod,
		domain.WithClock(s.now),
		domain.WithGraceFunc(func() {
			s.logger.Info("round entered grace window",
				"game", code, "round", roundNumber, "grace", s.cfg.GracePeriod)
		}),
		domain.WithExpireFunc(func() {
			s.logger.Info("round timer expired, finalizing",
				"game", code, "round", roundNumber)
			// Detached from any request; expiry-driven finalization
			// outlives the request that started the round.
			if _, err := s.finalizeRound(context.Background(), code, roundNumber); err != nil {
				if !errors.Is(err, domain.ErrRoundProcessed) && !errors.Is(err, domain.ErrRoundNotActive) {
					s.logger.Error("expiry finalization failed",
						"game", code, "round", roundNumber, "error", err)
				}
			}
		}),
	)

	tctx, cancel := context.WithCancel(context.Background())

	s.timerMu.Lock()
	if prev, ok := s.timers[code]; ok {
		prev.cancel()
	}
	s.timers[code] = &activeTimer{timer: timer, cancel: cancel}
	s.timerMu.Unlock()

	go timer.Run(tctx, defaultTimerPoll)
}

// stopTimer tears down the game's countdown, if any.
func (s *Service) stopTimer(code string) {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if at, ok := s.timers[code]; ok {
		at.cancel()
		delete(s.timers, code)
	}
}

// TimerSnapshot reports the countdown state for a game's current round.
// The boolean is false when no timer is armed.
func (s *Service) TimerSnapshot(code string) (domain.TimerSnapshot, bool) {
	s.timerMu.Lock()
	at, ok := s.timers[code]
	s.timerMu.Unlock()
	if !ok {
		return domain.TimerSnapshot{}, false
	}
	return at.timer.Tick(), true
}

// PauseRound freezes the current round's countdown. Admin only.
func (s *Service) PauseRound(ctx context.Context, code, actorID string) error {
	game, err := s.store.GetGame(ctx, code)
	if err != nil {
		return err
	}
	if err := requireAdmin(game, actorID); err != nil {
		return domain.NewGameError(code, "pause_round", err)
	}

	s.timerMu.Lock()
	at, ok := s.timers[code]
	s.timerMu.Unlock()
	if !ok {
		return domain.NewGameError(code, "pause_round", domain.ErrRoundNotActive)
	}
	at.timer.Pause()
	s.logger.Info("round paused", "game", code, "round", game.CurrentRound)
	return nil
}

// ResumeRound restarts a paused countdown. Admin only.
func (s *Service) ResumeRound(ctx context.Context, code, actorID string) error {
	game, err := s.store.GetGame(ctx, code)
	if err != nil {
		return err
	}
	if err := requireAdmin(game, actorID); err != nil {
		return domain.NewGameError(code, "resume_round", err)
	}

	s.timerMu.Lock()
	at, ok := s.timers[code]
	s.timerMu.Unlock()
	if !ok {
		return domain.NewGameError(code, "resume_round", domain.ErrRoundNotActive)
	}
	at.timer.Resume()
	s.logger.Info("round resumed", "game", code, "round", game.CurrentRound)
	return nil
}

// SubmitProposal records a player's entry for the current round after
// running it through the judge panel. Submissions are accepted while
// the round is active, including the grace window, and carry a
// server-assigned timestamp. progress may be nil.
func (s *Service) SubmitProposal(
	ctx context.Context,
	code, playerID, proposal string,
	selectedVariables []string,
	progress ports.ProgressFunc,
) (*domain.Submission, error) {
	proposal = strings.TrimSpace(proposal)
	if proposal == "" {
		return nil, fmt.Errorf("%w: empty proposal", domain.ErrInvalidInput)
	}
	if len(proposal) > MaxProposalLength {
		return nil, fmt.Errorf("%w: proposal exceeds %d characters",
			domain.ErrInvalidInput, MaxProposalLength)
	}

	game, err := s.store.GetGame(ctx, code)
	if err != nil {
		return nil, err
	}
	player, ok := game.Players[playerID]
	if !ok {
		return nil, domain.NewGameError(code, "submit", domain.ErrPlayerNotFound)
	}
	if !player.IsActive {
		return nil, domain.NewGameError(code, "submit", domain.ErrPlayerInactive)
	}
	if game.State != domain.StateActive {
		return nil, domain.NewGameError(code, "submit", domain.ErrRoundNotActive)
	}

	roundNumber := game.CurrentRound
	round, ok := game.Rounds[roundNumber]
	if !ok || !round.IsActive {
		return nil, domain.NewGameError(code, "submit", domain.ErrRoundNotActive)
	}
	if snap, armed := s.TimerSnapshot(code); armed && snap.Phase == domain.TimerExpired {
		return nil, domain.NewGameError(code, "submit", domain.ErrRoundNotActive)
	}

	scenario, ok := ScenarioByID(round.ScenarioID)
	if !ok {
		scenario = ScenarioForRound(roundNumber)
	}

	start := time.Now()
	feedback, err := s.evaluator.Evaluate(ctx, scenario, proposal, selectedVariables, progress)
	if err != nil {
		s.countOp("submit", "evaluation_error")
		return nil, domain.NewGameError(code, "submit", err)
	}
	total, weighted, err := domain.AggregateScores(feedback, s.evaluator.Judges())
	if err != nil {
		return nil, domain.NewGameError(code, "submit", err)
	}
	if s.metrics != nil {
		s.metrics.RecordLatency("submission_evaluation", time.Since(start), nil)
	}

	sub := domain.Submission{
		Proposal:          proposal,
		SelectedVariables: selectedVariables,
		Timestamp:         s.now(),
		Feedback:          feedback,
		TotalScore:        total,
		WeightedScore:     weighted,
	}
	updates := map[string]any{
		fmt.Sprintf("rounds.%d.submissions.%s", roundNumber, playerID): sub,
		"updatedAt": s.now(),
	}
	if err := s.store.UpdateGame(ctx, code, updates); err != nil {
		return nil, domain.NewGameError(code, "submit", err)
	}

	s.logger.Info("submission recorded",
		"game", code, "round", roundNumber, "player", playerID,
		"total", total, "weighted", weighted)
	s.countOp("submit", "ok")
	return &sub, nil
}

// ProcessRound finalizes a round into ranked results. Admin only; the
// timer-driven path bypasses the role check through finalizeRound.
func (s *Service) ProcessRound(ctx context.Context, code, actorID string, roundNumber int) (*domain.Game, error) {
	game, err := s.store.GetGame(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(game, actorID); err != nil {
		return nil, domain.NewGameError(code, "process_round", err)
	}
	if !game.AllSubmitted(roundNumber) {
		s.logger.Info("processing round before all submissions are in",
			"game", code, "round", roundNumber)
	}
	return s.finalizeRound(ctx, code, roundNumber)
}

// rankedEntry is the sortable intermediate used during finalization.
type rankedEntry struct {
	playerID  string
	result    domain.RoundResult
	timestamp time.Time
}

// finalizeRound computes results and standings for a round and moves
// the game to the results state. A round that is no longer active
// cannot be finalized again, which makes finalization exactly-once even
// when the admin and the timer race.
func (s *Service) finalizeRound(ctx context.Context, code string, roundNumber int) (*domain.Game, error) {
	game, err := s.store.GetGame(ctx, code)
	if err != nil {
		return nil, err
	}
	round, ok := game.Rounds[roundNumber]
	if !ok {
		return nil, domain.NewGameError(code, "process_round", domain.ErrRoundNotFound)
	}
	if !round.IsActive {
		if round.Results != nil {
			return nil, domain.NewGameError(code, "process_round", domain.ErrRoundProcessed)
		}
		return nil, domain.NewGameError(code, "process_round", domain.ErrRoundNotActive)
	}

	entries := make([]rankedEntry, 0, len(game.Players))
	for _, player := range game.ActivePlayers() {
		sub, submitted := round.Submissions[player.ID]
		if submitted {
			entries = append(entries, rankedEntry{
				playerID: player.ID,
				result: domain.RoundResult{
					TotalScore:    sub.TotalScore,
					WeightedScore: sub.WeightedScore,
				},
				timestamp: sub.Timestamp,
			})
			continue
		}
		entries = append(entries, rankedEntry{
			playerID: player.ID,
			result: domain.RoundResult{
				TotalScore:    domain.PenaltyScore,
				WeightedScore: domain.PenaltyScore,
				DidNotSubmit:  true,
			},
		})
	}

	// Rank by weighted score descending. On ties, real submissions
	// outrank no-shows, then earlier submissions, then player id.
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.result.WeightedScore != b.result.WeightedScore {
			return a.result.WeightedScore > b.result.WeightedScore
		}
		if a.result.DidNotSubmit != b.result.DidNotSubmit {
			return !a.result.DidNotSubmit
		}
		if !a.timestamp.Equal(b.timestamp) {
			return a.timestamp.Before(b.timestamp)
		}
		return a.playerID < b.playerID
	})

	now := s.now()
	results := make(map[string]domain.RoundResult, len(entries))
	updates := map[string]any{
		fmt.Sprintf("rounds.%d.results", roundNumber):  results,
		fmt.Sprintf("rounds.%d.isActive", roundNumber): false,
		fmt.Sprintf("rounds.%d.endTime", roundNumber):  now,
		"state":     domain.StateResults,
		"updatedAt": now,
	}
	for i, entry := range entries {
		entry.result.Rank = i + 1
		results[entry.playerID] = entry.result

		player := game.Players[entry.playerID]
		newTotal := domain.RoundScore(player.TotalScore + entry.result.WeightedScore)
		updates["players."+entry.playerID+".totalScore"] = newTotal
		// The average is the exact quotient of the running total over the
		// round number, never re-rounded.
		updates["players."+entry.playerID+".averageScore"] = newTotal / float64(roundNumber)
		updates["players."+entry.playerID+".completedRounds"] = roundNumber
	}

	if err := s.store.UpdateGame(ctx, code, updates); err != nil {
		return nil, domain.NewGameError(code, "process_round", err)
	}
	s.stopTimer(code)

	s.logger.Info("round processed",
		"game", code, "round", roundNumber, "players", len(entries))
	s.countOp("process_round", "ok")
	return s.store.GetGame(ctx, code)
}

// AdvanceToNextRound moves a game out of the results state: the next
// round starts immediately, or the game completes when none remain.
// Admin only.
func (s *Service) AdvanceToNextRound(ctx context.Context, code, actorID string) (*domain.Game, error) {
	game, err := s.store.GetGame(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(game, actorID); err != nil {
		return nil, domain.NewGameError(code, "advance_round", err)
	}
	if game.State != domain.StateResults {
		return nil, domain.NewGameError(code, "advance_round",
			fmt.Errorf("%w: game is %s, not results", domain.ErrRoundNotActive, game.State))
	}

	next := game.CurrentRound + 1
	if next > game.TotalRounds {
		updates := map[string]any{
			"state":     domain.StateCompleted,
			"updatedAt": s.now(),
		}
		if err := s.store.UpdateGame(ctx, code, updates); err != nil {
			return nil, domain.NewGameError(code, "advance_round", err)
		}
		s.logger.Info("game completed", "game", code, "rounds", game.TotalRounds)
		s.countOp("advance_round", "completed")
		return s.store.GetGame(ctx, code)
	}
	return s.startRound(ctx, game, next)
}

// FinishGame ends a game immediately regardless of rounds remaining.
// Admin only.
func (s *Service) FinishGame(ctx context.Context, code, actorID string) (*domain.Game, error) {
	game, err := s.store.GetGame(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(game, actorID); err != nil {
		return nil, domain.NewGameError(code, "finish", err)
	}
	if game.State == domain.StateCompleted {
		return game, nil
	}

	updates := map[string]any{
		"state":     domain.StateCompleted,
		"updatedAt": s.now(),
	}
	if err := s.store.UpdateGame(ctx, code, updates); err != nil {
		return nil, domain.NewGameError(code, "finish", err)
	}
	s.stopTimer(code)

	s.logger.Info("game force-finished", "game", code, "admin", actorID)
	s.countOp("finish_game", "ok")
	return s.store.GetGame(ctx, code)
}

// DeactivatePlayer soft-removes a player: history is kept, but the
// player is excluded from future round results. Admins may remove
// anyone but themselves; players may remove themselves.
func (s *Service) DeactivatePlayer(ctx context.Context, code, actorID, playerID string) error {
	game, err := s.store.GetGame(ctx, code)
	if err != nil {
		return err
	}
	target, ok := game.Players[playerID]
	if !ok {
		return domain.NewGameError(code, "deactivate", domain.ErrPlayerNotFound)
	}
	if target.IsAdmin {
		return domain.NewGameError(code, "deactivate",
			fmt.Errorf("%w: the admin cannot be removed", domain.ErrInvalidInput))
	}
	if actorID != playerID {
		if err := requireAdmin(game, actorID); err != nil {
			return domain.NewGameError(code, "deactivate", err)
		}
	}

	updates := map[string]any{
		"players." + playerID + ".isActive": false,
		"updatedAt":                         s.now(),
	}
	if err := s.store.UpdateGame(ctx, code, updates); err != nil {
		return domain.NewGameError(code, "deactivate", err)
	}

	s.logger.Info("player deactivated", "game", code, "player", playerID, "actor", actorID)
	return nil
}

// Leaderboard returns the ranked standings for a finalized round.
func (s *Service) Leaderboard(ctx context.Context, code string, roundNumber int) ([]domain.LeaderboardEntry, error) {
	game, err := s.store.GetGame(ctx, code)
	if err != nil {
		return nil, err
	}
	if _, ok := game.Rounds[roundNumber]; !ok {
		return nil, domain.NewGameError(code, "leaderboard", domain.ErrRoundNotFound)
	}
	entries := game.Leaderboard(roundNumber)
	if entries == nil {
		return nil, domain.NewGameError(code, "leaderboard", domain.ErrRoundNotActive)
	}
	return entries, nil
}

// newCode draws a fresh game code from the service's random source.
func (s *Service) newCode() string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return domain.NewGameCode(s.rng)
}

func (s *Service) countOp(operation, status string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordCounter("game_operations_total", 1,
		map[string]string{"operation": operation, "status": status})
}

// requireAdmin verifies the acting player holds the admin role.
func requireAdmin(game *domain.Game, actorID string) error {
	actor, ok := game.Players[actorID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	if !actor.IsAdmin {
		return domain.ErrNotAdmin
	}
	return nil
}
