package game

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjackroom/internal/bank"
	"github.com/lox/blackjackroom/internal/deck"
)

// State represents the lifecycle stage of a table
type State int

const (
	StateLobby State = iota
	StateDealing
	StatePlayerTurns
	StateDealerTurn
	StateSettled
	StateClosedEmpty
	StateForceClosed
)

// String returns the string representation of a table state
func (s State) String() string {
	switch s {
	case StateLobby:
		return "lobby"
	case StateDealing:
		return "dealing"
	case StatePlayerTurns:
		return "player-turns"
	case StateDealerTurn:
		return "dealer-turn"
	case StateSettled:
		return "settled"
	case StateClosedEmpty:
		return "closed-empty"
	case StateForceClosed:
		return "force-closed"
	default:
		return "unknown"
	}
}

// Rules holds the tunable table parameters. Pacing delays of zero are
// skipped entirely, which is how tests run without a ticking clock.
type Rules struct {
	LobbyWait       time.Duration
	DealDelay       time.Duration
	DealerDrawDelay time.Duration
	DealerStandsOn  int
}

// DefaultRules returns the table parameters of the original room: a 15
// second lobby, 200ms between dealt cards, 600ms between dealer draws, and
// a dealer that stands on any 17.
func DefaultRules() Rules {
	return Rules{
		LobbyWait:       15 * time.Second,
		DealDelay:       200 * time.Millisecond,
		DealerDrawDelay: 600 * time.Millisecond,
		DealerStandsOn:  17,
	}
}

// Table is one active round from lobby to settlement. It is single-use: once
// settled or closed it is discarded and a fresh table must be opened. All
// methods assume the caller (the Manager) serializes access.
type Table struct {
	rules  Rules
	ledger *bank.Ledger
	bus    EventBus
	clock  quartz.Clock
	logger *log.Logger

	deck    *deck.Deck
	players []*TablePlayer
	dealer  deck.Hand
	state   State
	turn    int // index into players of who acts next
}

func newTable(rules Rules, ledger *bank.Ledger, bus EventBus, clock quartz.Clock, logger *log.Logger, d *deck.Deck) *Table {
	return &Table{
		rules:  rules,
		ledger: ledger,
		bus:    bus,
		clock:  clock,
		logger: logger.WithPrefix("table"),
		deck:   d,
		state:  StateLobby,
	}
}

// State returns the table's lifecycle stage.
func (t *Table) State() State {
	return t.state
}

// Players returns the joined players in join order.
func (t *Table) Players() []*TablePlayer {
	return t.players
}

// Dealer returns the dealer's hand.
func (t *Table) Dealer() deck.Hand {
	return t.dealer
}

func (t *Table) findPlayer(identity string) *TablePlayer {
	for _, p := range t.players {
		if p.Identity == identity {
			return p
		}
	}
	return nil
}

// join escrows the bet and seats the player. Rejections leave the ledger and
// the table untouched.
func (t *Table) join(identity, name string, bet int) error {
	if t.state != StateLobby {
		return ErrNoActiveLobby
	}
	if bet <= 0 {
		return ErrInvalidBet
	}
	if t.findPlayer(identity) != nil {
		return ErrAlreadySeated
	}

	balance, err := t.ledger.Debit(identity, bet)
	if err != nil {
		return err
	}

	t.players = append(t.players, newTablePlayer(identity, name, bet))
	t.logger.Info("player joined", "identity", identity, "name", name, "bet", bet, "balance", balance)
	t.bus.Publish(PlayerJoinedEvent{
		Identity:  identity,
		Name:      name,
		Bet:       bet,
		Balance:   balance,
		timestamp: t.clock.Now(),
	})
	return nil
}

// startRound closes the lobby and deals: one card to every player in join
// order, then a second pass, then two cards to the dealer. Mirrors physical
// dealing order so the first-card/second-card commentary stays truthful.
func (t *Table) startRound() {
	t.state = StateDealing
	t.bus.Publish(RoundStartedEvent{Players: len(t.players), timestamp: t.clock.Now()})

	passes := []DealPass{DealFirst, DealSecond}
	for _, pass := range passes {
		for _, p := range t.players {
			t.pace(t.rules.DealDelay)
			card := t.deck.Draw()
			p.hands[0] = append(p.hands[0], card)
			t.bus.Publish(CardDealtEvent{
				Identity:  p.Identity,
				Name:      p.Name,
				HandIndex: 0,
				Pass:      pass,
				Card:      card,
				Hand:      p.hands[0],
				Total:     p.hands[0].Total(),
				timestamp: t.clock.Now(),
			})
		}
	}

	t.dealer = deck.Hand{t.deck.Draw(), t.deck.Draw()}
	t.pace(t.rules.DealDelay)
	t.bus.Publish(DealerUpcardEvent{Upcard: t.dealer[0], timestamp: t.clock.Now()})

	t.state = StatePlayerTurns
	t.turn = 0
	t.promptNext()
}

// promptNext finds the next actionable hand and announces the turn. It skips
// hands already standing and players with nothing left to play, advancing
// the player cursor circularly; a full circuit with no actionable hand hands
// control to the dealer.
func (t *Table) promptNext() {
	for searched := 0; searched < len(t.players); searched++ {
		cur := t.players[t.turn]
		if !cur.skipStanding() {
			t.turn = (t.turn + 1) % len(t.players)
			continue
		}

		hand := cur.hands[cur.currentHand]
		t.bus.Publish(TurnPromptEvent{
			Identity:  cur.Identity,
			Name:      cur.Name,
			HandIndex: cur.currentHand,
			Hand:      hand,
			Total:     hand.Total(),
			Actions:   t.legalActions(cur),
			timestamp: t.clock.Now(),
		})
		return
	}
	t.dealerTurn()
}

// legalActions lists what the player may do with their current hand. Hit and
// stand are always available; double and split additionally need a two-card
// hand and enough balance for another bet-sized escrow.
func (t *Table) legalActions(p *TablePlayer) []Action {
	actions := []Action{ActionHit, ActionStand}
	hand := p.hands[p.currentHand]
	if len(hand) != 2 {
		return actions
	}
	affordable := t.ledger.Balance(p.Identity) >= p.Bet
	if affordable {
		actions = append(actions, ActionDouble)
		if hand[0].Value() == hand[1].Value() {
			actions = append(actions, ActionSplit)
		}
	}
	return actions
}

// dealerTurn reveals the hole card and draws until the stand threshold, one
// observable step per card, then settles the round.
func (t *Table) dealerTurn() {
	t.state = StateDealerTurn
	t.bus.Publish(DealerRevealEvent{
		Hand:      t.dealer,
		Total:     t.dealer.Total(),
		timestamp: t.clock.Now(),
	})

	for t.dealer.Total() < t.rules.DealerStandsOn {
		t.pace(t.rules.DealerDrawDelay)
		card := t.deck.Draw()
		t.dealer = append(t.dealer, card)
		t.bus.Publish(DealerDrawEvent{
			Card:      card,
			Hand:      t.dealer,
			Total:     t.dealer.Total(),
			timestamp: t.clock.Now(),
		})
	}

	t.pace(t.rules.DealDelay)
	t.settle()
}

// HandView is the read-only answer to a hand query.
type HandView struct {
	HandIndex int
	Hand      deck.Hand
	Total     int
	Stake     int
}

// handView returns the querying player's current hand. Permitted regardless
// of turn.
func (t *Table) handView(identity string) (HandView, error) {
	p := t.findPlayer(identity)
	if p == nil {
		return HandView{}, ErrNoActiveLobby
	}
	i := p.currentHand
	if i >= len(p.hands) {
		i = len(p.hands) - 1
	}
	return HandView{
		HandIndex: i,
		Hand:      p.hands[i],
		Total:     p.hands[i].Total(),
		Stake:     p.stakes[i],
	}, nil
}

// refundAll returns every escrowed stake to its owner. Used by force-close
// so an aborted round reconciles in the ledger.
func (t *Table) refundAll() {
	for _, p := range t.players {
		staked := p.TotalStaked()
		if staked == 0 {
			continue
		}
		if _, err := t.ledger.Credit(p.Identity, staked); err != nil {
			t.logger.Error("refund failed", "identity", p.Identity, "amount", staked, "error", err)
		}
	}
}

// pace sleeps for the configured delay between observable steps. A zero or
// negative delay is skipped so tests never touch the clock.
func (t *Table) pace(d time.Duration) {
	if d <= 0 {
		return
	}
	timer := t.clock.NewTimer(d)
	<-timer.C
}

// PlayerSummary is one row of the admin state dump.
type PlayerSummary struct {
	Identity string
	Name     string
	Bet      int
	Staked   int
	Hands    int
}

// Summary describes the table for the admin state query.
type Summary struct {
	State     string
	LobbyOpen bool
	Players   []PlayerSummary
}

func (t *Table) summary() Summary {
	s := Summary{
		State:     t.state.String(),
		LobbyOpen: t.state == StateLobby,
		Players:   make([]PlayerSummary, 0, len(t.players)),
	}
	for _, p := range t.players {
		s.Players = append(s.Players, PlayerSummary{
			Identity: p.Identity,
			Name:     p.Name,
			Bet:      p.Bet,
			Staked:   p.TotalStaked(),
			Hands:    len(p.hands),
		})
	}
	return s
}

func (t *Table) String() string {
	return fmt.Sprintf("table state=%s players=%d", t.state, len(t.players))
}
