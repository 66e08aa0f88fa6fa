package game

import "github.com/lox/blackjackroom/internal/deck"

// TablePlayer is one joined participant's round-scoped state. Hands, stakes
// and standing run in parallel: stakes[i] is the escrowed amount riding on
// hands[i], standing[i] marks hands that are done acting (stood, busted or
// doubled). currentHand only moves forward within a round.
type TablePlayer struct {
	Identity string
	Name     string
	Bet      int // original bet; the increment used by double and split

	hands       []deck.Hand
	stakes      []int
	standing    []bool
	currentHand int
}

func newTablePlayer(identity, name string, bet int) *TablePlayer {
	return &TablePlayer{
		Identity: identity,
		Name:     name,
		Bet:      bet,
		hands:    []deck.Hand{{}},
		stakes:   []int{bet},
		standing: []bool{false},
	}
}

// Hands returns the player's hands in order.
func (p *TablePlayer) Hands() []deck.Hand {
	return p.hands
}

// CurrentHand returns the index of the hand awaiting action.
func (p *TablePlayer) CurrentHand() int {
	return p.currentHand
}

// Stake returns the escrowed amount riding on hand i.
func (p *TablePlayer) Stake(i int) int {
	return p.stakes[i]
}

// TotalStaked returns the sum escrowed across all of the player's hands.
func (p *TablePlayer) TotalStaked() int {
	total := 0
	for _, s := range p.stakes {
		total += s
	}
	return total
}

// skipStanding advances the hand cursor past finished hands and reports
// whether an actionable hand remains.
func (p *TablePlayer) skipStanding() bool {
	for p.currentHand < len(p.hands) && p.standing[p.currentHand] {
		p.currentHand++
	}
	return p.currentHand < len(p.hands)
}

// splitCurrent splits the two cards of the current hand into two adjacent
// single-card hands, each carrying one fresh bet-sized stake. Only the two
// hands created here are open for action; previously finished sibling hands
// stay standing.
func (p *TablePlayer) splitCurrent() {
	i := p.currentHand
	first, second := p.hands[i][0], p.hands[i][1]

	p.hands[i] = deck.Hand{first}
	p.hands = append(p.hands[:i+1], append([]deck.Hand{{second}}, p.hands[i+1:]...)...)
	p.stakes = append(p.stakes[:i+1], append([]int{p.Bet}, p.stakes[i+1:]...)...)
	p.standing = append(p.standing[:i+1], append([]bool{false}, p.standing[i+1:]...)...)
	p.standing[i] = false
}
