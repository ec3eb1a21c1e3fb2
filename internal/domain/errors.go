package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for game-state operations. Callers distinguish
// not-found from permission and validation failures so they can render
// different guidance.
var (
	// ErrGameNotFound indicates an unknown game code.
	ErrGameNotFound = errors.New("game not found")

	// ErrGameExists indicates a game code collision on creation.
	ErrGameExists = errors.New("game already exists")

	// ErrGameAlreadyStarted indicates a join attempt after the lobby
	// closed. Late joins are categorically rejected.
	ErrGameAlreadyStarted = errors.New("game already started")

	// ErrGameCompleted indicates an operation against a finished game.
	ErrGameCompleted = errors.New("game already completed")

	// ErrNotAdmin indicates the acting player lacks the admin role.
	ErrNotAdmin = errors.New("player is not the game admin")

	// ErrPlayerNotFound indicates an unknown player id for the game.
	ErrPlayerNotFound = errors.New("player not in game")

	// ErrPlayerInactive indicates the player was soft-removed.
	ErrPlayerInactive = errors.New("player is inactive")

	// ErrRoundNotFound indicates a round number outside 1..totalRounds.
	ErrRoundNotFound = errors.New("round not found")

	// ErrRoundNotActive indicates a submission or processing attempt
	// against a round that is not currently running.
	ErrRoundNotActive = errors.New("round is not active")

	// ErrRoundProcessed indicates a second processRound call for a
	// round that already has results.
	ErrRoundProcessed = errors.New("round already processed")

	// ErrAlreadySubmitted indicates a resubmission attempt; players are
	// locked out after their first submission.
	ErrAlreadySubmitted = errors.New("player already submitted this round")

	// ErrNoFeedback indicates aggregation was requested with no judge
	// results. The aggregation contract requires at least one.
	ErrNoFeedback = errors.New("no judge feedback to aggregate")

	// ErrInvalidPanel indicates a judge roster that violates the
	// panel configuration invariants.
	ErrInvalidPanel = errors.New("invalid judge panel")

	// ErrInvalidInput indicates a request rejected by validation before
	// any I/O was attempted.
	ErrInvalidInput = errors.New("invalid input")
)

// GameError wraps a failure with the game code and operation for
// logging and error inspection.
type GameError struct {
	// Code is the game code the operation targeted.
	Code string

	// Op is the state-machine operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *GameError) Error() string {
	return fmt.Sprintf("game %s: %s: %v", e.Code, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *GameError) Unwrap() error { return e.Err }

// NewGameError creates a GameError with the given details.
func NewGameError(code, op string, err error) *GameError {
	return &GameError{Code: code, Op: op, Err: err}
}
