package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGame() *Game {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &Game{
		Code:         "ABC234",
		CreatedAt:    now,
		UpdatedAt:    now,
		CurrentRound: 1,
		TotalRounds:  8,
		State:        StateActive,
		Players: map[string]Player{
			"p1": {ID: "p1", Name: "Ada", IsAdmin: true, IsActive: true},
			"p2": {ID: "p2", Name: "Grace", IsActive: true},
			"p3": {ID: "p3", Name: "Edsger", IsActive: false},
		},
		Rounds: map[int]GameRound{
			1: {
				RoundNumber: 1,
				ScenarioID:  1,
				IsActive:    true,
				Submissions: map[string]Submission{},
			},
		},
	}
}

func TestActivePlayers(t *testing.T) {
	g := testGame()

	players := g.ActivePlayers()
	require.Len(t, players, 2)
	for _, p := range players {
		assert.True(t, p.IsActive)
		assert.NotEqual(t, "p3", p.ID)
	}
}

func TestAllSubmitted(t *testing.T) {
	g := testGame()
	assert.False(t, g.AllSubmitted(1), "no submissions yet")

	round := g.Rounds[1]
	round.Submissions["p1"] = Submission{Proposal: "first"}
	g.Rounds[1] = round
	assert.False(t, g.AllSubmitted(1), "one active player is still missing")

	round.Submissions["p2"] = Submission{Proposal: "second"}
	g.Rounds[1] = round
	assert.True(t, g.AllSubmitted(1), "inactive players do not count")

	assert.False(t, g.AllSubmitted(99), "unknown round")
}

func TestLeaderboard(t *testing.T) {
	g := testGame()

	t.Run("nil before results", func(t *testing.T) {
		assert.Nil(t, g.Leaderboard(1))
		assert.Nil(t, g.Leaderboard(99))
	})

	round := g.Rounds[1]
	round.Results = map[string]RoundResult{
		"p2": {TotalScore: 8.0, WeightedScore: 8.2, Rank: 1},
		"p1": {TotalScore: 1.0, WeightedScore: 1.0, Rank: 2, DidNotSubmit: true},
	}
	g.Rounds[1] = round
	g.Players["p2"] = Player{ID: "p2", Name: "Grace", IsActive: true, TotalScore: 8.2, AverageScore: 8.2}

	entries := g.Leaderboard(1)
	require.Len(t, entries, 2)

	assert.Equal(t, "p2", entries[0].PlayerID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.InDelta(t, 8.2, entries[0].RoundScore, 1e-9)
	assert.InDelta(t, 8.2, entries[0].TotalScore, 1e-9)
	assert.False(t, entries[0].DidNotSubmit)

	assert.Equal(t, "p1", entries[1].PlayerID)
	assert.Equal(t, 2, entries[1].Rank)
	assert.True(t, entries[1].DidNotSubmit)
}
