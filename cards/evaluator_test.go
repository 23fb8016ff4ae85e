package cards

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustHole(t *testing.T, tok string) (Card, Card) {
	t.Helper()
	c1, c2, err := ParseHoleCards(tok)
	require.NoError(t, err)
	return c1, c2
}

func TestEvaluateSevenCategories(t *testing.T) {
	board := func(tok string) []Card {
		cs := make([]Card, 0, len(tok)/2)
		for i := 0; i < len(tok); i += 2 {
			c, err := ParseCard(tok[i : i+2])
			require.NoError(t, err)
			cs = append(cs, c)
		}
		return cs
	}

	cases := []struct {
		name     string
		hole     string
		board    string
		category Strength
	}{
		{"straight flush", "AhKh", "QhJhTh9h2c", StraightFlush},
		{"quads", "AhAs", "AdAc2h3h4s", Quads},
		{"full house", "AhAs", "AdKhKs2h3s", FullHouse},
		{"flush", "2h9h", "QhJh7h3s4d", Flush},
		{"straight", "9c8d", "7h6s5c2d3d", Straight},
		{"trips", "AhAs", "AdKhQs2c3d", Trips},
		{"two pair", "AhKh", "AsKs2c3d4h", TwoPair},
		{"pair", "AhKh", "AsQsJc3d4h", Pair},
		{"high card", "2h7s", "9cJdKhAc4d", HighCard},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHand(append(board(tc.hole), board(tc.board)...)...)
			got := EvaluateSeven(h)
			require.Equal(t, tc.category, got.Category(), "category for %s", tc.name)
		})
	}
}

func TestEvaluateSevenWheel(t *testing.T) {
	cs := []string{"Ah", "2s", "3d", "4c", "5h", "9s", "Kd"}
	hand := make([]Card, 0, 7)
	for _, s := range cs {
		c, err := ParseCard(s)
		require.NoError(t, err)
		hand = append(hand, c)
	}
	h := NewHand(hand...)
	got := EvaluateSeven(h)
	require.Equal(t, Straight, got.Category())
	require.Equal(t, Strength(3), (got&0x0FF00000)>>24)
}

func TestEvaluateSevenTiesCompareEqual(t *testing.T) {
	a := NewHand(func() []Card {
		c1, c2 := mustHole(t, "AhKh")
		cs := []Card{c1, c2}
		for _, s := range []string{"2c", "3c", "4c", "9s", "Td"} {
			c, err := ParseCard(s)
			require.NoError(t, err)
			cs = append(cs, c)
		}
		return cs
	}()...)
	b := NewHand(func() []Card {
		c1, c2 := mustHole(t, "AsKs")
		cs := []Card{c1, c2}
		for _, s := range []string{"2c", "3c", "4c", "9s", "Td"} {
			c, err := ParseCard(s)
			require.NoError(t, err)
			cs = append(cs, c)
		}
		return cs
	}()...)

	require.Equal(t, EvaluateSeven(a), EvaluateSeven(b))
}

func TestParseHoleCardsRejectsDuplicate(t *testing.T) {
	_, _, err := ParseHoleCards("AhAh")
	require.Error(t, err)
}

func TestEvaluateSevenPanicsOnTooFewCards(t *testing.T) {
	h := NewHand(func() []Card {
		c1, c2 := mustHole(t, "AhKh")
		return []Card{c1, c2}
	}()...)
	require.Panics(t, func() { EvaluateSeven(h) })
}
