// Package game implements the core blackjack round logic.
//
// The main type is Manager, which owns the single process-wide table slot
// and serializes every transition: opening a lobby, seating players, applying
// actions, the lobby timer expiring, and administrative force-close.
//
// # Basic Usage
//
// Create a manager and run a round:
//
//	ledger := bank.NewLedger(500)
//	bus := game.NewEventBus()
//	m := game.NewManager(ledger, bus)
//	m.Open("alice", "Alice")
//	m.Join("alice", "Alice", 50)
//	// ... lobby timer fires, dealing happens, turn prompts are published
//	m.Act("alice", game.ActionStand)
//
// Everything observable happens through the event bus: subscribers receive
// typed events for dealing, turn prompts, dealer play and settlement, in the
// order they occurred.
//
// # Deterministic Testing
//
// Tests inject a mock clock and a rigged deck:
//
//	m := game.NewManager(ledger, bus,
//	    game.WithClock(quartz.NewMock(t)),
//	    game.WithDeckFactory(func() *deck.Deck {
//	        return deck.NewStacked(cards...)
//	    }))
//
// Pacing delays of zero are skipped entirely, so a test only advances the
// clock to fire the lobby timer.
//
// # Architecture
//
// Manager delegates to specialized components:
//   - Table: one round's state machine from lobby to settlement
//   - TablePlayer: per-player hands, stakes and the hand cursor
//   - SettleHand: the pure payout function
//   - deck.Deck: provides shuffled cards with optional RNG injection
//
// Tables are single-use: a settled or closed table is discarded and a fresh
// one must be opened, which keeps every round independent.
package game
