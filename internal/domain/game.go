// Package domain contains pure, dependency-free domain models and logic
// for the quiz game engine: games, rounds, submissions, judges, and the
// scoring math that turns panel feedback into standings.
package domain

import (
	"sort"
	"time"
)

// GameState represents the lifecycle phase of a multiplayer game.
type GameState string

// Game lifecycle states. A game moves waiting → active → results and
// from results either back to active (next round) or to completed.
const (
	StateWaiting   GameState = "waiting"
	StateActive    GameState = "active"
	StateResults   GameState = "results"
	StateCompleted GameState = "completed"
)

// Player holds a participant's identity and cumulative standing within
// a single game. Score fields are mutated only when a round is finalized.
type Player struct {
	// ID is the stable identity supplied by the session collaborator.
	ID string `json:"id"`

	// Name is the display name chosen at join time.
	Name string `json:"name"`

	// IsAdmin marks the game creator, who drives round transitions.
	IsAdmin bool `json:"isAdmin"`

	// IsActive is cleared by soft removal; inactive players keep their
	// history but are excluded from new round results.
	IsActive bool `json:"isActive"`

	// JoinedAt records when the player entered the lobby.
	JoinedAt time.Time `json:"joinedAt"`

	// TotalScore is the running sum of per-round weighted scores.
	TotalScore float64 `json:"totalScore"`

	// AverageScore is TotalScore divided by the last finalized round
	// number. The divisor is the round index, not a per-player counter,
	// so a player who joins late inherits the same denominator as
	// everyone else.
	AverageScore float64 `json:"averageScore"`

	// CompletedRounds is the number of the last round finalized for
	// this player.
	CompletedRounds int `json:"completedRounds"`
}

// Submission is a player's one-shot entry for a round. Once written it
// is never edited; the evaluation fields are filled before the write.
type Submission struct {
	// Proposal is the free-text analytical proposal.
	Proposal string `json:"proposal"`

	// SelectedVariables lists the reference-variable codes the player
	// cited. May be empty.
	SelectedVariables []string `json:"selectedVariables"`

	// Timestamp is assigned by the engine when the submission is
	// recorded, not by the client.
	Timestamp time.Time `json:"timestamp"`

	// Feedback holds one entry per panel judge, in panel order.
	Feedback []JudgeFeedback `json:"feedback,omitempty"`

	// TotalScore is the arithmetic mean of judge scores, one decimal.
	TotalScore float64 `json:"totalScore"`

	// WeightedScore is the weight-adjusted composite, one decimal.
	WeightedScore float64 `json:"weightedScore"`
}

// RoundResult is a player's finalized outcome for one round.
type RoundResult struct {
	TotalScore    float64 `json:"totalScore"`
	WeightedScore float64 `json:"weightedScore"`
	Rank          int     `json:"rank"`
	DidNotSubmit  bool    `json:"didNotSubmit,omitempty"`
}

// GameRound tracks one round of play: which scenario it maps to, the
// submissions keyed by player id, and, after finalization, the results.
type GameRound struct {
	RoundNumber int                    `json:"roundNumber"`
	ScenarioID  int                    `json:"scenarioId"`
	StartTime   *time.Time             `json:"startTime,omitempty"`
	EndTime     *time.Time             `json:"endTime,omitempty"`
	IsActive    bool                   `json:"isActive"`
	Submissions map[string]Submission  `json:"submissions"`
	Results     map[string]RoundResult `json:"results,omitempty"`
}

// Game is the aggregate root and unit of persistence. It is keyed by a
// short human-typeable code and mutated only through the state-machine
// operations in the game service.
type Game struct {
	Code         string            `json:"gameCode"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	CurrentRound int               `json:"currentRound"`
	TotalRounds  int               `json:"totalRounds"`
	State        GameState         `json:"state"`
	Players      map[string]Player `json:"players"`
	Rounds       map[int]GameRound `json:"rounds"`
}

// LeaderboardEntry is a display row projected from a finalized round.
type LeaderboardEntry struct {
	PlayerID     string  `json:"playerId"`
	PlayerName   string  `json:"playerName"`
	RoundScore   float64 `json:"roundScore"`
	TotalScore   float64 `json:"totalScore"`
	AverageScore float64 `json:"averageScore"`
	Rank         int     `json:"rank"`
	DidNotSubmit bool    `json:"didNotSubmit,omitempty"`
}

// ActivePlayers returns the players still participating, in no
// particular order.
func (g *Game) ActivePlayers() []Player {
	players := make([]Player, 0, len(g.Players))
	for _, p := range g.Players {
		if p.IsActive {
			players = append(players, p)
		}
	}
	return players
}

// AllSubmitted reports whether every active player has a submission
// recorded for the given round. Admins use it to gate early processing.
func (g *Game) AllSubmitted(roundNumber int) bool {
	round, ok := g.Rounds[roundNumber]
	if !ok {
		return false
	}
	for _, p := range g.Players {
		if !p.IsActive {
			continue
		}
		if _, submitted := round.Submissions[p.ID]; !submitted {
			return false
		}
	}
	return true
}

// Leaderboard projects a finalized round's results into display rows
// sorted by rank ascending. It returns nil if the round has no results
// yet. Pure read-side; no mutation.
func (g *Game) Leaderboard(roundNumber int) []LeaderboardEntry {
	round, ok := g.Rounds[roundNumber]
	if !ok || round.Results == nil {
		return nil
	}

	entries := make([]LeaderboardEntry, 0, len(round.Results))
	for playerID, result := range round.Results {
		player := g.Players[playerID]
		entries = append(entries, LeaderboardEntry{
			PlayerID:     playerID,
			PlayerName:   player.Name,
			RoundScore:   result.WeightedScore,
			TotalScore:   player.TotalScore,
			AverageScore: player.AverageScore,
			Rank:         result.Rank,
			DidNotSubmit: result.DidNotSubmit,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Rank < entries[j].Rank })
	return entries
}
