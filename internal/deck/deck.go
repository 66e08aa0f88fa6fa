package deck

import (
	"math/rand/v2"
)

// Deck is an ordered pile of cards owned by a single table. Cards are drawn
// from the end, so the deck acts as a stack.
type Deck struct {
	cards []Card
}

// New creates a standard 52-card deck shuffled with a single Fisher-Yates
// pass using the provided RNG.
func New(rng *rand.Rand) *Deck {
	d := &Deck{cards: make([]Card, 0, 52)}
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Ace; rank <= King; rank++ {
			d.cards = append(d.cards, NewCard(rank, suit))
		}
	}
	d.shuffle(rng)
	return d
}

// NewStacked creates an unshuffled deck from the given cards, drawn in
// reverse order (the last card listed is drawn first). Used by tests to rig
// deals.
func NewStacked(cards ...Card) *Deck {
	d := &Deck{cards: make([]Card, len(cards))}
	copy(d.cards, cards)
	return d
}

func (d *Deck) shuffle(rng *rand.Rand) {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Draw removes and returns the top card. Drawing from an empty deck is a
// logic error: 52 cards always suffice for a realistic table, so underflow
// means the round accounting is broken.
func (d *Deck) Draw() Card {
	if len(d.cards) == 0 {
		panic("deck underflow: drew more than 52 cards in one round")
	}
	card := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return card
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards)
}
