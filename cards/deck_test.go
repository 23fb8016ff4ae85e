package cards

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDeckContainsAllCardsExactlyOnce(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(1)))
	require.Equal(t, 52, d.Remaining())

	seen := make(map[Card]bool, 52)
	dealt := d.Deal(52)
	require.Len(t, dealt, 52)
	for _, c := range dealt {
		require.False(t, seen[c], "card %s dealt twice", c)
		seen[c] = true
	}
	require.Equal(t, 0, d.Remaining())
}

func TestDeckDealReturnsNilWhenInsufficientCardsRemain(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(2)))
	require.NotNil(t, d.Deal(50))
	require.Nil(t, d.Deal(5))
}

func TestDeckShuffleResetsCursor(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(3)))
	d.Deal(10)
	require.Equal(t, 42, d.Remaining())

	d.Shuffle()
	require.Equal(t, 52, d.Remaining())
}
