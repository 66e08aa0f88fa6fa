package game

// Action is one of the closed set of moves a player can make on a hand.
type Action int

const (
	ActionHit Action = iota
	ActionStand
	ActionDouble
	ActionSplit
)

// String returns the string representation of an action
func (a Action) String() string {
	switch a {
	case ActionHit:
		return "hit"
	case ActionStand:
		return "stand"
	case ActionDouble:
		return "double"
	case ActionSplit:
		return "split"
	default:
		return "unknown"
	}
}

// act applies a player action to the current hand. Out-of-turn and illegal
// actions are rejected without mutating anything. Actions that finish the
// last actionable hand roll straight into the dealer turn and settlement.
func (t *Table) act(identity string, action Action) error {
	if t.state != StatePlayerTurns {
		return ErrNoActiveLobby
	}
	cur := t.players[t.turn]
	if cur.Identity != identity {
		return ErrOutOfTurn
	}
	if !cur.skipStanding() {
		// Cursor player has nothing left; the prompt machinery should have
		// moved on already, so treat this as acting out of turn.
		return ErrOutOfTurn
	}

	switch action {
	case ActionHit:
		t.hit(cur)
	case ActionStand:
		t.stand(cur)
	case ActionDouble:
		return t.double(cur)
	case ActionSplit:
		return t.split(cur)
	default:
		return ErrIllegalAction
	}
	return nil
}

func (t *Table) hit(p *TablePlayer) {
	i := p.currentHand
	card := t.deck.Draw()
	p.hands[i] = append(p.hands[i], card)
	total := p.hands[i].Total()
	busted := total > 21

	t.logger.Debug("hit", "name", p.Name, "hand", i, "card", card, "total", total)
	t.bus.Publish(PlayerActionEvent{
		Identity:  p.Identity,
		Name:      p.Name,
		HandIndex: i,
		Action:    ActionHit,
		Card:      &card,
		Hand:      p.hands[i],
		Total:     total,
		Stake:     p.stakes[i],
		Busted:    busted,
		timestamp: t.clock.Now(),
	})

	if busted {
		p.standing[i] = true
		t.advance(p)
	}
	t.promptNext()
}

func (t *Table) stand(p *TablePlayer) {
	i := p.currentHand
	p.standing[i] = true

	t.bus.Publish(PlayerActionEvent{
		Identity:  p.Identity,
		Name:      p.Name,
		HandIndex: i,
		Action:    ActionStand,
		Hand:      p.hands[i],
		Total:     p.hands[i].Total(),
		Stake:     p.stakes[i],
		timestamp: t.clock.Now(),
	})

	t.advance(p)
	t.promptNext()
}

// double escrows a second bet-sized increment onto the current hand, draws
// exactly one card and forces the hand to stand whatever the total.
func (t *Table) double(p *TablePlayer) error {
	i := p.currentHand
	if len(p.hands[i]) != 2 {
		return ErrIllegalAction
	}
	if _, err := t.ledger.Debit(p.Identity, p.Bet); err != nil {
		return err
	}
	p.stakes[i] += p.Bet

	card := t.deck.Draw()
	p.hands[i] = append(p.hands[i], card)
	total := p.hands[i].Total()
	busted := total > 21

	t.logger.Debug("double", "name", p.Name, "hand", i, "card", card, "total", total, "stake", p.stakes[i])
	t.bus.Publish(PlayerActionEvent{
		Identity:  p.Identity,
		Name:      p.Name,
		HandIndex: i,
		Action:    ActionDouble,
		Card:      &card,
		Hand:      p.hands[i],
		Total:     total,
		Stake:     p.stakes[i],
		Busted:    busted,
		timestamp: t.clock.Now(),
	})

	p.standing[i] = true
	t.advance(p)
	t.promptNext()
	return nil
}

// split turns a two-card pair into two adjacent hands, escrows one more
// bet-sized stake for the new hand, and deals one card to each half. The
// player keeps acting on the first half.
func (t *Table) split(p *TablePlayer) error {
	i := p.currentHand
	hand := p.hands[i]
	if len(hand) != 2 {
		return ErrIllegalAction
	}
	if hand[0].Value() != hand[1].Value() {
		return ErrIllegalAction
	}
	if _, err := t.ledger.Debit(p.Identity, p.Bet); err != nil {
		return err
	}

	p.splitCurrent()

	t.bus.Publish(PlayerActionEvent{
		Identity:  p.Identity,
		Name:      p.Name,
		HandIndex: i,
		Action:    ActionSplit,
		Hand:      p.hands[i],
		Total:     p.hands[i].Total(),
		Stake:     p.stakes[i],
		timestamp: t.clock.Now(),
	})

	for _, idx := range []int{i, i + 1} {
		t.pace(t.rules.DealDelay)
		card := t.deck.Draw()
		p.hands[idx] = append(p.hands[idx], card)
		t.bus.Publish(CardDealtEvent{
			Identity:  p.Identity,
			Name:      p.Name,
			HandIndex: idx,
			Pass:      DealSplit,
			Card:      card,
			Hand:      p.hands[idx],
			Total:     p.hands[idx].Total(),
			timestamp: t.clock.Now(),
		})
	}

	t.promptNext()
	return nil
}

// advance moves the player's hand cursor past finished hands and, when the
// player is done, passes the table cursor to the next seat.
func (t *Table) advance(p *TablePlayer) {
	if !p.skipStanding() {
		t.turn = (t.turn + 1) % len(t.players)
	}
}
