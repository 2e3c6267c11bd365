package main

import (
	"strings"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thirteen/internal/domain"
)

func TestDealTableIsDeterministic(t *testing.T) {
	players := []string{"Ann", "Bo", "Cy", "Di"}
	a, err := dealTable(42, players)
	require.NoError(t, err)
	b, err := dealTable(42, players)
	require.NoError(t, err)

	for i := range a.Players {
		assert.Equal(t, a.Players[i].Hand, b.Players[i].Hand)
		assert.Len(t, a.Players[i].Hand, domain.HandSize)
	}
	assert.Equal(t, a.TurnIndex, b.TurnIndex)

	threeSpades := domain.Card{Rank: domain.RankThree, Suit: domain.SuitSpades}
	assert.True(t, domain.HasCard(a.Players[a.TurnIndex].Hand, threeSpades))
}

func TestDealTableRejectsBadPlayers(t *testing.T) {
	_, err := dealTable(1, []string{"Ann", "Bo"})
	assert.ErrorIs(t, err, errPlayerCount)

	_, err = dealTable(1, []string{"Ann", "Bo", "Ann", "Di"})
	assert.ErrorIs(t, err, domain.ErrNameTaken)

	_, err = dealTable(1, []string{"Ann", " ", "Cy", "Di"})
	assert.Error(t, err)
}

func TestRenderDealMarksLeader(t *testing.T) {
	pterm.DisableStyling()
	t.Cleanup(pterm.EnableStyling)

	lobby, err := dealTable(7, []string{"Ann", "Bo", "Cy", "Di"})
	require.NoError(t, err)

	out := renderDeal(lobby)
	for _, name := range []string{"Ann", "Bo", "Cy", "Di"} {
		assert.Contains(t, out, name)
	}
	assert.Equal(t, 1, strings.Count(out, "(leads)"))
	assert.Contains(t, out, lobby.Players[lobby.TurnIndex].Name+" (leads)")
	assert.Contains(t, out, "3♠")
}
