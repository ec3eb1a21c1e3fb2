// Package store provides the in-memory implementation of the GameStore
// port: one document per game keyed by code, targeted field-path
// updates, and a change feed that pushes full snapshots to watchers.
package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/verdictlab/crisisquiz/internal/domain"
	"github.com/verdictlab/crisisquiz/internal/ports"
)

// watchBuffer bounds each watcher channel. Slow watchers miss
// intermediate snapshots rather than blocking mutations.
const watchBuffer = 16

// MemoryStore keeps game documents in process memory. All reads return
// deep copies so callers can never mutate stored state directly; all
// writes go through UpdateGame's field paths.
type MemoryStore struct {
	mu    sync.RWMutex
	games map[string]*domain.Game
	subs  map[string]map[chan *domain.Game]struct{}
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games: make(map[string]*domain.Game),
		subs:  make(map[string]map[chan *domain.Game]struct{}),
	}
}

var _ ports.GameStore = (*MemoryStore)(nil)

// CreateGame writes a brand-new game document.
func (s *MemoryStore) CreateGame(ctx context.Context, game *domain.Game) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[game.Code]; ok {
		return fmt.Errorf("creating game %s: %w", game.Code, domain.ErrGameExists)
	}
	s.games[game.Code] = copyGame(game)
	return nil
}

// GetGame returns a deep copy of the document for code.
func (s *MemoryStore) GetGame(ctx context.Context, code string) (*domain.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	game, ok := s.games[code]
	if !ok {
		return nil, fmt.Errorf("reading game %s: %w", code, domain.ErrGameNotFound)
	}
	return copyGame(game), nil
}

// UpdateGame applies all field paths in updates to the document as one
// unit, then notifies watchers with a single fresh snapshot. Paths
// address nested maps with dots, e.g. "rounds.2.submissions.<playerID>"
// or "players.<id>.totalScore". An unknown path or a value of the wrong
// type fails the whole call with no paths applied.
func (s *MemoryStore) UpdateGame(ctx context.Context, code string, updates map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	game, ok := s.games[code]
	if !ok {
		return fmt.Errorf("updating game %s: %w", code, domain.ErrGameNotFound)
	}

	// Apply against a copy so a bad path cannot leave the stored
	// document half-updated.
	next := copyGame(game)
	for path, value := range updates {
		if err := applyUpdate(next, path, value); err != nil {
			return fmt.Errorf("updating game %s: %w", code, err)
		}
	}
	s.games[code] = next

	snapshot := copyGame(next)
	for ch := range s.subs[code] {
		select {
		case ch <- snapshot:
		default:
			// Drop if watcher is slow.
		}
	}
	return nil
}

// Watch subscribes to document changes for code. The current document
// is delivered immediately, then a fresh snapshot after every mutation.
// The returned cancel function releases the subscription and closes the
// channel; cancelling the context does the same.
func (s *MemoryStore) Watch(ctx context.Context, code string) (<-chan *domain.Game, func(), error) {
	s.mu.Lock()
	game, ok := s.games[code]
	if !ok {
		s.mu.Unlock()
		return nil, nil, fmt.Errorf("watching game %s: %w", code, domain.ErrGameNotFound)
	}

	ch := make(chan *domain.Game, watchBuffer)
	ch <- copyGame(game)
	if s.subs[code] == nil {
		s.subs[code] = make(map[chan *domain.Game]struct{})
	}
	s.subs[code][ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs[code], ch)
			if len(s.subs[code]) == 0 {
				delete(s.subs, code)
			}
			s.mu.Unlock()
			close(ch)
		})
	}

	stop := context.AfterFunc(ctx, cancel)
	return ch, func() { stop(); cancel() }, nil
}

// applyUpdate writes one field-path value into the document. The path
// grammar covers exactly the fields the game engine mutates.
func applyUpdate(game *domain.Game, path string, value any) error {
	parts := strings.Split(path, ".")
	switch parts[0] {
	case "state":
		return setField(path, value, func(v domain.GameState) { game.State = v })
	case "currentRound":
		return setField(path, value, func(v int) { game.CurrentRound = v })
	case "updatedAt":
		return setField(path, value, func(v time.Time) { game.UpdatedAt = v })
	case "players":
		return applyPlayerUpdate(game, parts, value)
	case "rounds":
		return applyRoundUpdate(game, parts, value)
	default:
		return fmt.Errorf("unknown field path %q", path)
	}
}

func applyPlayerUpdate(game *domain.Game, parts []string, value any) error {
	path := strings.Join(parts, ".")
	if len(parts) < 2 {
		return fmt.Errorf("incomplete field path %q", path)
	}
	playerID := parts[1]

	// Whole-player write inserts; field writes require presence.
	if len(parts) == 2 {
		return setField(path, value, func(v domain.Player) { game.Players[playerID] = v })
	}

	player, ok := game.Players[playerID]
	if !ok {
		return fmt.Errorf("field path %q: %w", path, domain.ErrPlayerNotFound)
	}
	var err error
	switch parts[2] {
	case "totalScore":
		err = setField(path, value, func(v float64) { player.TotalScore = v })
	case "averageScore":
		err = setField(path, value, func(v float64) { player.AverageScore = v })
	case "completedRounds":
		err = setField(path, value, func(v int) { player.CompletedRounds = v })
	case "isActive":
		err = setField(path, value, func(v bool) { player.IsActive = v })
	default:
		return fmt.Errorf("unknown field path %q", path)
	}
	if err != nil {
		return err
	}
	game.Players[playerID] = player
	return nil
}

func applyRoundUpdate(game *domain.Game, parts []string, value any) error {
	path := strings.Join(parts, ".")
	if len(parts) < 3 {
		return fmt.Errorf("incomplete field path %q", path)
	}
	roundNumber, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("field path %q: bad round number: %w", path, err)
	}
	round, ok := game.Rounds[roundNumber]
	if !ok {
		return fmt.Errorf("field path %q: %w", path, domain.ErrRoundNotFound)
	}

	switch parts[2] {
	case "isActive":
		err = setField(path, value, func(v bool) { round.IsActive = v })
	case "startTime":
		err = setField(path, value, func(v time.Time) { round.StartTime = &v })
	case "endTime":
		err = setField(path, value, func(v time.Time) { round.EndTime = &v })
	case "results":
		err = setField(path, value, func(v map[string]domain.RoundResult) {
			round.Results = copyResults(v)
		})
	case "submissions":
		if len(parts) < 4 {
			return fmt.Errorf("incomplete field path %q", path)
		}
		err = applySubmissionUpdate(&round, parts, value)
	default:
		return fmt.Errorf("unknown field path %q", path)
	}
	if err != nil {
		return err
	}
	game.Rounds[roundNumber] = round
	return nil
}

func applySubmissionUpdate(round *domain.GameRound, parts []string, value any) error {
	path := strings.Join(parts, ".")
	playerID := parts[3]

	if len(parts) == 4 {
		return setField(path, value, func(v domain.Submission) {
			round.Submissions[playerID] = copySubmission(v)
		})
	}

	sub, ok := round.Submissions[playerID]
	if !ok {
		return fmt.Errorf("field path %q: no submission for player", path)
	}
	var err error
	switch parts[4] {
	case "feedback":
		err = setField(path, value, func(v []domain.JudgeFeedback) {
			sub.Feedback = copyFeedback(v)
		})
	case "totalScore":
		err = setField(path, value, func(v float64) { sub.TotalScore = v })
	case "weightedScore":
		err = setField(path, value, func(v float64) { sub.WeightedScore = v })
	default:
		return fmt.Errorf("unknown field path %q", path)
	}
	if err != nil {
		return err
	}
	round.Submissions[playerID] = sub
	return nil
}

// setField asserts value to T and hands it to assign.
func setField[T any](path string, value any, assign func(T)) error {
	v, ok := value.(T)
	if !ok {
		return fmt.Errorf("field path %q: unexpected value type %T", path, value)
	}
	assign(v)
	return nil
}

// copyGame deep-copies a game document, including all nested maps and
// slices, so snapshots are fully isolated from stored state.
func copyGame(g *domain.Game) *domain.Game {
	out := *g
	out.Players = make(map[string]domain.Player, len(g.Players))
	for id, p := range g.Players {
		out.Players[id] = p
	}
	out.Rounds = make(map[int]domain.GameRound, len(g.Rounds))
	for n, r := range g.Rounds {
		out.Rounds[n] = copyRound(r)
	}
	return &out
}

func copyRound(r domain.GameRound) domain.GameRound {
	out := r
	if r.StartTime != nil {
		t := *r.StartTime
		out.StartTime = &t
	}
	if r.EndTime != nil {
		t := *r.EndTime
		out.EndTime = &t
	}
	out.Submissions = make(map[string]domain.Submission, len(r.Submissions))
	for id, sub := range r.Submissions {
		out.Submissions[id] = copySubmission(sub)
	}
	out.Results = copyResults(r.Results)
	return out
}

func copySubmission(s domain.Submission) domain.Submission {
	out := s
	out.SelectedVariables = append([]string(nil), s.SelectedVariables...)
	out.Feedback = copyFeedback(s.Feedback)
	return out
}

func copyFeedback(fb []domain.JudgeFeedback) []domain.JudgeFeedback {
	if fb == nil {
		return nil
	}
	out := make([]domain.JudgeFeedback, len(fb))
	for i, f := range fb {
		out[i] = f
		out[i].SuggestedVariables = append([]string(nil), f.SuggestedVariables...)
	}
	return out
}

func copyResults(res map[string]domain.RoundResult) map[string]domain.RoundResult {
	if res == nil {
		return nil
	}
	out := make(map[string]domain.RoundResult, len(res))
	for id, r := range res {
		out[id] = r
	}
	return out
}
