package domain

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewGameCode(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code := NewGameCode(rng)
		assert.Len(t, code, GameCodeLength)
		assert.True(t, ValidGameCode(code), "generated code %q must validate", code)

		// The alphabet drops the characters players confuse when codes
		// are shared out loud.
		assert.NotContains(t, code, "I")
		assert.NotContains(t, code, "O")
		assert.NotContains(t, code, "0")
		assert.NotContains(t, code, "1")

		seen[code] = true
	}
	assert.Greater(t, len(seen), 190, "codes should rarely collide")
}

func TestNewGameCodeDeterministic(t *testing.T) {
	a := NewGameCode(rand.New(rand.NewSource(42)))
	b := NewGameCode(rand.New(rand.NewSource(42)))
	assert.Equal(t, a, b)
}

func TestValidGameCode(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{name: "valid", code: "ABC234", want: true},
		{name: "too short", code: "ABC23", want: false},
		{name: "too long", code: "ABC2345", want: false},
		{name: "empty", code: "", want: false},
		{name: "lowercase rejected", code: "abc234", want: false},
		{name: "ambiguous letter I", code: "ABCI23", want: false},
		{name: "ambiguous digit 0", code: "ABC203", want: false},
		{name: "whitespace", code: "ABC 23", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidGameCode(tt.code))
		})
	}

	t.Run("full alphabet accepted", func(t *testing.T) {
		for i := 0; i+GameCodeLength <= len(gameCodeAlphabet); i += GameCodeLength {
			code := gameCodeAlphabet[i : i+GameCodeLength]
			assert.True(t, ValidGameCode(code), "alphabet slice %q", code)
		}
	})

	t.Run("every excluded character rejected", func(t *testing.T) {
		for _, c := range "IO01" {
			code := "AB" + string(c) + "234"
			assert.False(t, ValidGameCode(code), "code %q", code)
		}
		assert.False(t, strings.ContainsAny(gameCodeAlphabet, "IO01"))
	})
}
