package game

import (
	"github.com/lox/blackjackroom/internal/bank"
	"github.com/lox/blackjackroom/internal/deck"
)

// Outcome classifies a settled hand.
type Outcome int

const (
	OutcomeBust Outcome = iota
	OutcomeBlackjack
	OutcomeWin
	OutcomePush
	OutcomeLose
)

// String returns the string representation of an outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeBust:
		return "bust"
	case OutcomeBlackjack:
		return "blackjack"
	case OutcomeWin:
		return "win"
	case OutcomePush:
		return "push"
	case OutcomeLose:
		return "lose"
	default:
		return "unknown"
	}
}

// SettleHand compares one player hand against the dealer total and returns
// the outcome and payout. The stake is already escrowed, so a payout of
// 2*stake is an even-money win, stake alone is a push, and zero forfeits.
// A natural pays 3:2 on the stake unless the dealer also holds 21.
func SettleHand(hand deck.Hand, stake, dealerTotal int) (Outcome, int) {
	total := hand.Total()
	switch {
	case total > 21:
		return OutcomeBust, 0
	case hand.IsBlackjack() && dealerTotal != 21:
		return OutcomeBlackjack, stake * 5 / 2
	case dealerTotal > 21 || total > dealerTotal:
		return OutcomeWin, stake * 2
	case total == dealerTotal:
		return OutcomePush, stake
	default:
		return OutcomeLose, 0
	}
}

// settle pays every hand independently against the dealer total, publishes
// per-hand results and the end-of-round balance summary, and marks the table
// settled. Runs exactly once.
func (t *Table) settle() {
	dealerTotal := t.dealer.Total()

	for _, p := range t.players {
		for i, hand := range p.hands {
			outcome, payout := SettleHand(hand, p.stakes[i], dealerTotal)
			if payout > 0 {
				if _, err := t.ledger.Credit(p.Identity, payout); err != nil {
					t.logger.Error("payout failed", "identity", p.Identity, "amount", payout, "error", err)
				}
			}
			t.logger.Info("hand settled",
				"name", p.Name, "hand", i, "outcome", outcome,
				"total", hand.Total(), "dealer", dealerTotal,
				"stake", p.stakes[i], "payout", payout)
			t.bus.Publish(HandResultEvent{
				Identity:    p.Identity,
				Name:        p.Name,
				HandIndex:   i,
				Outcome:     outcome,
				Total:       hand.Total(),
				DealerTotal: dealerTotal,
				Stake:       p.stakes[i],
				Payout:      payout,
				timestamp:   t.clock.Now(),
			})
		}
	}

	balances := make([]bank.Balance, 0, len(t.players))
	for _, p := range t.players {
		balances = append(balances, bank.Balance{
			Identity: p.Identity,
			Amount:   t.ledger.Balance(p.Identity),
		})
	}
	t.bus.Publish(RoundEndedEvent{
		DealerTotal: dealerTotal,
		Balances:    balances,
		timestamp:   t.clock.Now(),
	})

	t.state = StateSettled
}
