package cards

import "math/bits"

// Hand is a bitboard over the 52 cards, one bit per card index.
type Hand uint64

// NewHand builds a Hand bitboard from individual cards.
func NewHand(cs ...Card) Hand {
	var h Hand
	for _, c := range cs {
		h = h.Add(c)
	}
	return h
}

// Add returns a new Hand with c set.
func (h Hand) Add(c Card) Hand {
	return h | (1 << uint(c))
}

// Contains reports whether c is present in h.
func (h Hand) Contains(c Card) bool {
	return h&(1<<uint(c)) != 0
}

// Overlaps reports whether h and o share any card.
func (h Hand) Overlaps(o Hand) bool {
	return h&o != 0
}

// CountCards returns the number of cards set in h.
func (h Hand) CountCards() int {
	return bits.OnesCount64(uint64(h))
}

// Cards returns the cards in h in ascending order.
func (h Hand) Cards() []Card {
	out := make([]Card, 0, h.CountCards())
	remaining := uint64(h)
	for remaining != 0 {
		idx := bits.TrailingZeros64(remaining)
		out = append(out, Card(idx))
		remaining &= remaining - 1
	}
	return out
}

func (h Hand) String() string {
	s := ""
	for i, c := range h.Cards() {
		if i > 0 {
			s += " "
		}
		s += c.String()
	}
	return s
}
