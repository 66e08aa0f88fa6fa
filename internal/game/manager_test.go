package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjackroom/internal/bank"
	"github.com/lox/blackjackroom/internal/deck"
)

// eventRecorder captures every published event for inspection.
type eventRecorder struct {
	mu     sync.Mutex
	events []GameEvent
}

func (r *eventRecorder) OnEvent(event GameEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) ofType(et EventType) []GameEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []GameEvent
	for _, e := range r.events {
		if e.EventType() == et {
			out = append(out, e)
		}
	}
	return out
}

func (r *eventRecorder) last(et EventType) (GameEvent, bool) {
	matches := r.ofType(et)
	if len(matches) == 0 {
		return nil, false
	}
	return matches[len(matches)-1], true
}

// stack builds a rigged deck from draw order: the first card listed is the
// first card drawn.
func stack(cards ...deck.Card) func() *deck.Deck {
	reversed := make([]deck.Card, len(cards))
	for i, c := range cards {
		reversed[len(cards)-1-i] = c
	}
	return func() *deck.Deck { return deck.NewStacked(reversed...) }
}

func testRules() Rules {
	return Rules{
		LobbyWait:      15 * time.Second,
		DealerStandsOn: 17,
	}
}

func newTestManager(t *testing.T, opts ...ManagerOption) (*Manager, *bank.Ledger, *eventRecorder, *quartz.Mock) {
	t.Helper()
	mockClock := quartz.NewMock(t)
	ledger := bank.NewLedger(500)
	bus := NewEventBus()
	recorder := &eventRecorder{}
	bus.Subscribe(recorder)

	opts = append([]ManagerOption{
		WithClock(mockClock),
		WithRules(testRules()),
	}, opts...)
	return NewManager(ledger, bus, opts...), ledger, recorder, mockClock
}

func expireLobby(t *testing.T, mockClock *quartz.Mock) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mockClock.Advance(15 * time.Second).MustWait(ctx)
}

func TestOpenRejectsSecondTable(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	require.NoError(t, m.Open("alice", "Alice"))
	assert.ErrorIs(t, m.Open("bob", "Bob"), ErrTableOpen)
}

func TestJoinValidation(t *testing.T) {
	t.Run("no table open", func(t *testing.T) {
		m, _, _, _ := newTestManager(t)
		assert.ErrorIs(t, m.Join("alice", "Alice", 50), ErrNoActiveLobby)
	})

	t.Run("non-positive bet", func(t *testing.T) {
		m, ledger, _, _ := newTestManager(t)
		require.NoError(t, m.Open("alice", "Alice"))
		assert.ErrorIs(t, m.Join("alice", "Alice", 0), ErrInvalidBet)
		assert.ErrorIs(t, m.Join("alice", "Alice", -10), ErrInvalidBet)
		assert.Equal(t, 500, ledger.Balance("alice"))
	})

	t.Run("duplicate seat", func(t *testing.T) {
		m, ledger, _, _ := newTestManager(t)
		require.NoError(t, m.Open("alice", "Alice"))
		require.NoError(t, m.Join("alice", "Alice", 50))
		assert.ErrorIs(t, m.Join("alice", "Alice", 50), ErrAlreadySeated)
		assert.Equal(t, 450, ledger.Balance("alice"))
	})

	t.Run("bet beyond balance", func(t *testing.T) {
		m, ledger, _, _ := newTestManager(t)
		require.NoError(t, m.Open("alice", "Alice"))
		assert.ErrorIs(t, m.Join("alice", "Alice", 501), bank.ErrInsufficientFunds)
		assert.Equal(t, 500, ledger.Balance("alice"))
	})
}

func TestJoinEscrowsBetImmediately(t *testing.T) {
	m, ledger, recorder, _ := newTestManager(t)

	require.NoError(t, m.Open("alice", "Alice"))
	require.NoError(t, m.Join("alice", "Alice", 100))

	assert.Equal(t, 400, ledger.Balance("alice"))

	joined, ok := recorder.last(EventTypePlayerJoined)
	require.True(t, ok)
	assert.Equal(t, 400, joined.(PlayerJoinedEvent).Balance)
}

func TestEmptyLobbyClosesAndFreesSlot(t *testing.T) {
	m, _, recorder, mockClock := newTestManager(t)

	require.NoError(t, m.Open("alice", "Alice"))
	expireLobby(t, mockClock)

	closed, ok := recorder.last(EventTypeTableClosed)
	require.True(t, ok)
	assert.Equal(t, CloseEmpty, closed.(TableClosedEvent).Reason)

	require.NoError(t, m.Open("bob", "Bob"))
}

func TestJoinAfterLobbyExpiresIsRejected(t *testing.T) {
	m, _, _, mockClock := newTestManager(t,
		WithDeckFactory(stack(
			card(deck.Ten, deck.Spades), card(deck.Nine, deck.Spades), // alice 19
			card(deck.Ten, deck.Hearts), card(deck.Nine, deck.Hearts), // dealer 19
		)))

	require.NoError(t, m.Open("alice", "Alice"))
	require.NoError(t, m.Join("alice", "Alice", 50))
	expireLobby(t, mockClock)

	assert.ErrorIs(t, m.Join("bob", "Bob", 50), ErrNoActiveLobby)
}

func TestRoundWithBlackjackAndBust(t *testing.T) {
	m, ledger, recorder, mockClock := newTestManager(t,
		WithDeckFactory(stack(
			card(deck.Ace, deck.Spades),   // alice first card
			card(deck.Nine, deck.Clubs),   // bob first card
			card(deck.King, deck.Hearts),  // alice second: natural
			card(deck.Five, deck.Diamonds), // bob second: 14
			card(deck.Ten, deck.Diamonds), // dealer upcard
			card(deck.Eight, deck.Clubs),  // dealer hole: 18, stands
			card(deck.King, deck.Spades),  // bob's hit: 24, bust
		)))

	require.NoError(t, m.Open("alice", "Alice"))
	require.NoError(t, m.Join("alice", "Alice", 100))
	require.NoError(t, m.Join("bob", "Bob", 50))
	expireLobby(t, mockClock)

	// Dealing order: one card per player in join order, then the second pass.
	dealt := recorder.ofType(EventTypeCardDealt)
	require.Len(t, dealt, 4)
	assert.Equal(t, "alice", dealt[0].(CardDealtEvent).Identity)
	assert.Equal(t, DealFirst, dealt[0].(CardDealtEvent).Pass)
	assert.Equal(t, "bob", dealt[1].(CardDealtEvent).Identity)
	assert.Equal(t, "alice", dealt[2].(CardDealtEvent).Identity)
	assert.Equal(t, DealSecond, dealt[2].(CardDealtEvent).Pass)
	assert.Equal(t, 21, dealt[2].(CardDealtEvent).Total)

	upcard, ok := recorder.last(EventTypeDealerUpcard)
	require.True(t, ok)
	assert.Equal(t, card(deck.Ten, deck.Diamonds), upcard.(DealerUpcardEvent).Upcard)

	prompt, ok := recorder.last(EventTypeTurnPrompt)
	require.True(t, ok)
	assert.Equal(t, "alice", prompt.(TurnPromptEvent).Identity)

	require.NoError(t, m.Act("alice", ActionStand))

	prompt, ok = recorder.last(EventTypeTurnPrompt)
	require.True(t, ok)
	assert.Equal(t, "bob", prompt.(TurnPromptEvent).Identity)

	// Bob busts, which rolls straight into the dealer turn and settlement.
	require.NoError(t, m.Act("bob", ActionHit))

	reveal, ok := recorder.last(EventTypeDealerReveal)
	require.True(t, ok)
	assert.Equal(t, 18, reveal.(DealerRevealEvent).Total)
	assert.Empty(t, recorder.ofType(EventTypeDealerDraw))

	results := recorder.ofType(EventTypeHandResult)
	require.Len(t, results, 2)

	alice := results[0].(HandResultEvent)
	assert.Equal(t, OutcomeBlackjack, alice.Outcome)
	assert.Equal(t, 250, alice.Payout)

	bob := results[1].(HandResultEvent)
	assert.Equal(t, OutcomeBust, bob.Outcome)
	assert.Equal(t, 0, bob.Payout)

	assert.Equal(t, 650, ledger.Balance("alice"))
	assert.Equal(t, 450, ledger.Balance("bob"))

	closed, ok := recorder.last(EventTypeTableClosed)
	require.True(t, ok)
	assert.Equal(t, CloseSettled, closed.(TableClosedEvent).Reason)

	// Slot is free again.
	require.NoError(t, m.Open("alice", "Alice"))
}

func TestSplitThenDoubleBothHands(t *testing.T) {
	m, ledger, recorder, mockClock := newTestManager(t,
		WithDeckFactory(stack(
			card(deck.Eight, deck.Spades),  // carol first card
			card(deck.Eight, deck.Hearts),  // carol second: a pair
			card(deck.Ten, deck.Clubs),     // dealer upcard
			card(deck.Seven, deck.Diamonds), // dealer hole: 17, stands
			card(deck.Three, deck.Diamonds), // completes split hand one: 11
			card(deck.Two, deck.Clubs),     // completes split hand two: 10
			card(deck.Ten, deck.Hearts),    // double on hand one: 21
			card(deck.Nine, deck.Spades),   // double on hand two: 19
		)))

	require.NoError(t, m.Open("carol", "Carol"))
	require.NoError(t, m.Join("carol", "Carol", 50))
	expireLobby(t, mockClock)

	prompt, ok := recorder.last(EventTypeTurnPrompt)
	require.True(t, ok)
	assert.Contains(t, prompt.(TurnPromptEvent).Actions, ActionSplit)
	assert.Contains(t, prompt.(TurnPromptEvent).Actions, ActionDouble)

	require.NoError(t, m.Act("carol", ActionSplit))
	assert.Equal(t, 400, ledger.Balance("carol"))

	// One card lands on each half of the split.
	splitDeals := recorder.ofType(EventTypeCardDealt)[2:]
	require.Len(t, splitDeals, 2)
	assert.Equal(t, DealSplit, splitDeals[0].(CardDealtEvent).Pass)
	assert.Equal(t, 0, splitDeals[0].(CardDealtEvent).HandIndex)
	assert.Equal(t, 11, splitDeals[0].(CardDealtEvent).Total)
	assert.Equal(t, 1, splitDeals[1].(CardDealtEvent).HandIndex)
	assert.Equal(t, 10, splitDeals[1].(CardDealtEvent).Total)

	prompt, ok = recorder.last(EventTypeTurnPrompt)
	require.True(t, ok)
	assert.Equal(t, 0, prompt.(TurnPromptEvent).HandIndex)

	require.NoError(t, m.Act("carol", ActionDouble))
	assert.Equal(t, 350, ledger.Balance("carol"))

	prompt, ok = recorder.last(EventTypeTurnPrompt)
	require.True(t, ok)
	assert.Equal(t, 1, prompt.(TurnPromptEvent).HandIndex)

	require.NoError(t, m.Act("carol", ActionDouble))

	// Both doubled hands beat the dealer 17; each stake of 100 pays 200.
	results := recorder.ofType(EventTypeHandResult)
	require.Len(t, results, 2)
	for i, want := range []int{21, 19} {
		result := results[i].(HandResultEvent)
		assert.Equal(t, OutcomeWin, result.Outcome)
		assert.Equal(t, want, result.Total)
		assert.Equal(t, 100, result.Stake)
		assert.Equal(t, 200, result.Payout)
	}

	assert.Equal(t, 700, ledger.Balance("carol"))
}

func TestDealerDrawsBelowSeventeen(t *testing.T) {
	m, ledger, recorder, mockClock := newTestManager(t,
		WithDeckFactory(stack(
			card(deck.Ten, deck.Spades), card(deck.Nine, deck.Spades), // dave 19
			card(deck.Ten, deck.Hearts), card(deck.Six, deck.Clubs), // dealer 16
			card(deck.Two, deck.Diamonds), // dealer draw: 18, stands
		)))

	require.NoError(t, m.Open("dave", "Dave"))
	require.NoError(t, m.Join("dave", "Dave", 50))
	expireLobby(t, mockClock)

	require.NoError(t, m.Act("dave", ActionStand))

	draws := recorder.ofType(EventTypeDealerDraw)
	require.Len(t, draws, 1)
	assert.Equal(t, 18, draws[0].(DealerDrawEvent).Total)

	result, ok := recorder.last(EventTypeHandResult)
	require.True(t, ok)
	assert.Equal(t, OutcomeWin, result.(HandResultEvent).Outcome)
	assert.Equal(t, 550, ledger.Balance("dave"))
}

func TestActingOutOfTurnRejected(t *testing.T) {
	m, _, _, mockClock := newTestManager(t,
		WithDeckFactory(stack(
			card(deck.Five, deck.Spades), card(deck.Seven, deck.Spades), // first pass
			card(deck.Six, deck.Spades), card(deck.Eight, deck.Spades), // second pass
			card(deck.Ten, deck.Spades), card(deck.Nine, deck.Spades), // dealer 19
		)))

	require.NoError(t, m.Open("alice", "Alice"))
	require.NoError(t, m.Join("alice", "Alice", 50))
	require.NoError(t, m.Join("bob", "Bob", 50))
	expireLobby(t, mockClock)

	assert.ErrorIs(t, m.Act("bob", ActionStand), ErrOutOfTurn)
	assert.ErrorIs(t, m.Act("nobody", ActionHit), ErrOutOfTurn)

	// The hand query works for anyone regardless of turn.
	view, err := m.HandQuery("bob")
	require.NoError(t, err)
	assert.Equal(t, 15, view.Total)
	assert.Equal(t, 50, view.Stake)

	require.NoError(t, m.Act("alice", ActionStand))
	require.NoError(t, m.Act("bob", ActionStand))
}

func TestIllegalActionsRejected(t *testing.T) {
	m, _, _, mockClock := newTestManager(t,
		WithDeckFactory(stack(
			card(deck.Two, deck.Spades), card(deck.Three, deck.Spades), // erin 5
			card(deck.Ten, deck.Diamonds), card(deck.Ten, deck.Clubs), // dealer 20
			card(deck.Four, deck.Spades), // erin's hit: 9
		)))

	require.NoError(t, m.Open("erin", "Erin"))
	require.NoError(t, m.Join("erin", "Erin", 50))
	expireLobby(t, mockClock)

	// Not a pair, so no split.
	assert.ErrorIs(t, m.Act("erin", ActionSplit), ErrIllegalAction)

	require.NoError(t, m.Act("erin", ActionHit))

	// Double and split only apply to a two-card hand.
	assert.ErrorIs(t, m.Act("erin", ActionDouble), ErrIllegalAction)
	assert.ErrorIs(t, m.Act("erin", ActionSplit), ErrIllegalAction)

	require.NoError(t, m.Act("erin", ActionStand))
}

func TestDoubleNeedsFunds(t *testing.T) {
	m, ledger, _, mockClock := newTestManager(t,
		WithDeckFactory(stack(
			card(deck.Five, deck.Spades), card(deck.Six, deck.Spades), // frank 11
			card(deck.Ten, deck.Spades), card(deck.Nine, deck.Spades), // dealer 19
		)))

	require.NoError(t, m.Open("frank", "Frank"))
	require.NoError(t, m.Join("frank", "Frank", 300))
	expireLobby(t, mockClock)

	// 200 left, another 300 is out of reach.
	assert.ErrorIs(t, m.Act("frank", ActionDouble), bank.ErrInsufficientFunds)
	assert.Equal(t, 200, ledger.Balance("frank"))

	require.NoError(t, m.Act("frank", ActionStand))
}

func TestForceCloseRefunds(t *testing.T) {
	t.Run("during the lobby", func(t *testing.T) {
		m, ledger, recorder, _ := newTestManager(t)

		require.NoError(t, m.Open("frank", "Frank"))
		require.NoError(t, m.Join("frank", "Frank", 120))
		require.Equal(t, 380, ledger.Balance("frank"))

		require.NoError(t, m.ForceClose())
		assert.Equal(t, 500, ledger.Balance("frank"))

		closed, ok := recorder.last(EventTypeTableClosed)
		require.True(t, ok)
		assert.Equal(t, CloseForced, closed.(TableClosedEvent).Reason)

		require.NoError(t, m.Open("frank", "Frank"))
	})

	t.Run("mid-round with split stakes", func(t *testing.T) {
		m, ledger, _, mockClock := newTestManager(t,
			WithDeckFactory(stack(
				card(deck.Eight, deck.Spades), card(deck.Eight, deck.Hearts),
				card(deck.Ten, deck.Spades), card(deck.Seven, deck.Spades),
				card(deck.Two, deck.Spades), card(deck.Three, deck.Spades),
			)))

		require.NoError(t, m.Open("grace", "Grace"))
		require.NoError(t, m.Join("grace", "Grace", 50))
		expireLobby(t, mockClock)

		require.NoError(t, m.Act("grace", ActionSplit))
		require.Equal(t, 400, ledger.Balance("grace"))

		// Both escrowed stakes come back.
		require.NoError(t, m.ForceClose())
		assert.Equal(t, 500, ledger.Balance("grace"))
	})

	t.Run("no table", func(t *testing.T) {
		m, _, _, _ := newTestManager(t)
		assert.ErrorIs(t, m.ForceClose(), ErrNoActiveLobby)
	})
}

func TestForceCloseStopsLobbyTimer(t *testing.T) {
	m, _, recorder, mockClock := newTestManager(t)

	require.NoError(t, m.Open("alice", "Alice"))
	require.NoError(t, m.ForceClose())
	require.NoError(t, m.Open("bob", "Bob"))
	require.NoError(t, m.Join("bob", "Bob", 50))

	// Advancing past the first table's deadline must not touch the second.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mockClock.Advance(10 * time.Second).MustWait(ctx)

	summary, ok := m.AdminState()
	require.True(t, ok)
	assert.True(t, summary.LobbyOpen)
	assert.Len(t, recorder.ofType(EventTypeRoundStarted), 0)
}

func TestAdminState(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	_, ok := m.AdminState()
	assert.False(t, ok)

	require.NoError(t, m.Open("alice", "Alice"))
	require.NoError(t, m.Join("alice", "Alice", 75))

	summary, ok := m.AdminState()
	require.True(t, ok)
	assert.Equal(t, "lobby", summary.State)
	assert.True(t, summary.LobbyOpen)
	require.Len(t, summary.Players, 1)
	assert.Equal(t, PlayerSummary{
		Identity: "alice",
		Name:     "Alice",
		Bet:      75,
		Staked:   75,
		Hands:    1,
	}, summary.Players[0])
}

func TestSinglePlayerStandsAndLoses(t *testing.T) {
	m, ledger, recorder, mockClock := newTestManager(t,
		WithDeckFactory(stack(
			card(deck.Ten, deck.Spades), card(deck.Eight, deck.Spades), // pat 18
			card(deck.Ten, deck.Hearts), card(deck.Six, deck.Hearts), // dealer 16
			card(deck.Three, deck.Clubs), // dealer draw: 19
		)))

	require.NoError(t, m.Open("pat", "Pat"))
	require.NoError(t, m.Join("pat", "Pat", 50))
	require.Equal(t, 450, ledger.Balance("pat"))
	expireLobby(t, mockClock)

	require.NoError(t, m.Act("pat", ActionStand))

	result, ok := recorder.last(EventTypeHandResult)
	require.True(t, ok)
	event := result.(HandResultEvent)
	assert.Equal(t, OutcomeLose, event.Outcome)
	assert.Equal(t, 18, event.Total)
	assert.Equal(t, 19, event.DealerTotal)
	assert.Equal(t, 0, event.Payout)

	// No payout, so the escrowed bet stays gone.
	assert.Equal(t, 450, ledger.Balance("pat"))
}

func TestSplitSevensAgainstDealerBust(t *testing.T) {
	m, ledger, recorder, mockClock := newTestManager(t,
		WithDeckFactory(stack(
			card(deck.Seven, deck.Spades), card(deck.Ten, deck.Clubs), // first pass
			card(deck.Seven, deck.Hearts), card(deck.Nine, deck.Clubs), // second: alice 7s, bob 19
			card(deck.Six, deck.Diamonds), card(deck.Ten, deck.Diamonds), // dealer 16
			card(deck.Four, deck.Spades),  // completes split hand one: 11
			card(deck.Three, deck.Hearts), // completes split hand two: 10
			card(deck.Ten, deck.Spades),   // dealer draw: 26, bust
		)))

	require.NoError(t, m.Open("alice", "Alice"))
	require.NoError(t, m.Join("alice", "Alice", 100))
	require.NoError(t, m.Join("bob", "Bob", 200))
	require.Equal(t, 400, ledger.Balance("alice"))
	require.Equal(t, 300, ledger.Balance("bob"))
	expireLobby(t, mockClock)

	require.NoError(t, m.Act("alice", ActionSplit))
	require.Equal(t, 300, ledger.Balance("alice"))

	require.NoError(t, m.Act("alice", ActionStand))
	require.NoError(t, m.Act("alice", ActionStand))
	require.NoError(t, m.Act("bob", ActionStand))

	// Dealer draws once and busts; every standing hand wins even money.
	results := recorder.ofType(EventTypeHandResult)
	require.Len(t, results, 3)
	for _, r := range results {
		event := r.(HandResultEvent)
		assert.Equal(t, OutcomeWin, event.Outcome)
		assert.Equal(t, 26, event.DealerTotal)
		assert.Equal(t, event.Stake*2, event.Payout)
	}

	// Alice: 500 - 100 - 100 + 200 + 200; Bob: 500 - 200 + 400.
	assert.Equal(t, 700, ledger.Balance("alice"))
	assert.Equal(t, 700, ledger.Balance("bob"))
}

func TestRoundEndedCarriesBalances(t *testing.T) {
	m, _, recorder, mockClock := newTestManager(t,
		WithDeckFactory(stack(
			card(deck.Ten, deck.Spades), card(deck.Ten, deck.Hearts), // hank 20
			card(deck.Ten, deck.Clubs), card(deck.Ten, deck.Diamonds), // dealer 20
		)))

	require.NoError(t, m.Open("hank", "Hank"))
	require.NoError(t, m.Join("hank", "Hank", 50))
	expireLobby(t, mockClock)

	require.NoError(t, m.Act("hank", ActionStand))

	ended, ok := recorder.last(EventTypeRoundEnded)
	require.True(t, ok)
	event := ended.(RoundEndedEvent)
	assert.Equal(t, 20, event.DealerTotal)
	require.Len(t, event.Balances, 1)

	// A push hands the stake back.
	assert.Equal(t, bank.Balance{Identity: "hank", Amount: 500}, event.Balances[0])
}
