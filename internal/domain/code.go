package domain

import (
	"math/rand"
	"strings"
)

// GameCodeLength is the number of characters in a game code.
const GameCodeLength = 6

// gameCodeAlphabet excludes I, O, 0 and 1 so codes read unambiguously
// when shared verbally or written on a board.
const gameCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewGameCode returns a fixed-length code drawn from the restricted
// alphabet. It is a pure function of the supplied random source; the
// caller owns seeding and any uniqueness check against existing games.
func NewGameCode(rng *rand.Rand) string {
	code := make([]byte, GameCodeLength)
	for i := range code {
		code[i] = gameCodeAlphabet[rng.Intn(len(gameCodeAlphabet))]
	}
	return string(code)
}

// ValidGameCode reports whether s has the right length and draws only
// from the code alphabet. Used to reject malformed codes before any
// store lookup.
func ValidGameCode(s string) bool {
	if len(s) != GameCodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(gameCodeAlphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}
