package game

import (
	"testing"

	"github.com/lox/cfrsolver/cards"
	"github.com/stretchr/testify/require"
)

func mustCard(t *testing.T, tok string) cards.Card {
	t.Helper()
	c, err := cards.ParseCard(tok)
	require.NoError(t, err)
	return c
}

func tinyRiverConfig(t *testing.T) RiverConfig {
	t.Helper()
	board := cards.NewHand(
		mustCard(t, "Ks"), mustCard(t, "Th"), mustCard(t, "7s"),
		mustCard(t, "4d"), mustCard(t, "2s"),
	)
	hand := func(tok string) RangeHand {
		c1, c2, err := cards.ParseHoleCards(tok)
		require.NoError(t, err)
		return RangeHand{C1: c1, C2: c2, Weight: 1}
	}
	return RiverConfig{
		Board:        board,
		Pot:          100,
		Stacks:       [2]int{900, 900},
		BetSizes:     []float64{0.5, 1.0},
		IncludeAllIn: true,
		MaxRaises:    2,
		Ranges: [2][]RangeHand{
			{hand("AhAd"), hand("9h9d")},
			{hand("KhKd"), hand("3h3d")},
		},
	}
}

func TestRiverLegalActionsAtRootOffersCheckAndBets(t *testing.T) {
	r := NewRiver(tinyRiverConfig(t))
	actions := r.LegalActions(nil)

	var hasCheck, hasBet bool
	for _, a := range actions {
		switch a.Label {
		case 'c':
			hasCheck = true
		case 'b':
			hasBet = true
		}
	}
	require.True(t, hasCheck)
	require.True(t, hasBet)
}

func TestRiverFacingBetOffersCallFoldRaise(t *testing.T) {
	r := NewRiver(tinyRiverConfig(t))
	bet := Action{Label: 'b', Amount: 50}
	actions := r.LegalActions([]Action{bet})

	var hasCall, hasFold bool
	for _, a := range actions {
		switch a.Label {
		case 'c':
			hasCall = true
		case 'f':
			hasFold = true
		}
	}
	require.True(t, hasCall)
	require.True(t, hasFold)
}

func TestRiverCheckCheckIsTerminal(t *testing.T) {
	r := NewRiver(tinyRiverConfig(t))
	history := []Action{{Label: 'c'}, {Label: 'c'}}
	require.True(t, r.IsTerminal(history))
}

func TestRiverBetFoldAwardsPotToBettor(t *testing.T) {
	r := NewRiver(tinyRiverConfig(t))
	history := []Action{{Label: 'b', Amount: 50}, {Label: 'f'}}
	require.True(t, r.IsTerminal(history))
	require.Equal(t, 0, r.FoldWinner(history))

	contrib := r.Contributions(history)
	total := r.TotalPot(history)
	// The bettor wins the base pot; the folder contributed nothing.
	require.Equal(t, 100, total-contrib[0])
}

func TestRiverMaxRaisesCapsReRaising(t *testing.T) {
	r := NewRiver(tinyRiverConfig(t))
	history := []Action{{Label: 'b', Amount: 50}, {Label: 'r', Amount: 150}}
	for i := 0; i < 2; i++ {
		actions := r.LegalActions(history)
		var raise Action
		found := false
		for _, a := range actions {
			if a.Label == 'r' {
				raise = a
				found = true
				break
			}
		}
		if !found {
			break
		}
		history = append(history, raise)
	}
	actions := r.LegalActions(history)
	for _, a := range actions {
		require.NotEqual(t, byte('r'), a.Label, "raises should be capped by MaxRaises")
	}
}

func TestRiverBetSizingExceedingStackIsClampedNotDropped(t *testing.T) {
	cfg := tinyRiverConfig(t)
	cfg.IncludeAllIn = false
	cfg.Stacks = [2]int{60, 60}
	cfg.BetSizes = []float64{2.0} // pot-sized*2 on a pot of 100 is way over the 60 stack
	r := NewRiver(cfg)

	actions := r.LegalActions(nil)
	var bet Action
	found := false
	for _, a := range actions {
		if a.Label == 'b' {
			bet = a
			found = true
			break
		}
	}
	require.True(t, found, "an over-stack bet sizing should still offer a stack-capped bet, not drop it")
	require.Equal(t, cfg.Stacks[0], bet.Amount, "the offered bet should be clamped to the remaining stack")
}

func TestRiverDealtStateInfoSetKeyIncludesHeroHandAndHistory(t *testing.T) {
	r := NewRiver(tinyRiverConfig(t))
	s := r.DealtState(mustCard(t, "Ah"), mustCard(t, "Ad"), mustCard(t, "Kh"), mustCard(t, "Kd"))
	key := s.InfoSetKey(0)
	require.Contains(t, key, "Ah")
	require.Contains(t, key, "Ad")
}
