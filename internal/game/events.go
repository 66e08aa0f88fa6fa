package game

import (
	"time"

	"github.com/lox/blackjackroom/internal/bank"
	"github.com/lox/blackjackroom/internal/deck"
)

// EventType represents a game event type with type safety
type EventType string

// EventType constants for game domain events
const (
	EventTypeTableOpened  EventType = "table_opened"
	EventTypePlayerJoined EventType = "player_joined"
	EventTypeRoundStarted EventType = "round_started"
	EventTypeCardDealt    EventType = "card_dealt"
	EventTypeDealerUpcard EventType = "dealer_upcard"
	EventTypeTurnPrompt   EventType = "turn_prompt"
	EventTypePlayerAction EventType = "player_action"
	EventTypeDealerReveal EventType = "dealer_reveal"
	EventTypeDealerDraw   EventType = "dealer_draw"
	EventTypeHandResult   EventType = "hand_result"
	EventTypeRoundEnded   EventType = "round_ended"
	EventTypeTableClosed  EventType = "table_closed"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// DealPass distinguishes the observable dealing steps.
type DealPass string

const (
	DealFirst  DealPass = "first"  // opening pass, one card per player
	DealSecond DealPass = "second" // second pass
	DealSplit  DealPass = "split"  // the card completing each split hand
)

// CloseReason explains why a table was discarded.
type CloseReason string

const (
	CloseEmpty   CloseReason = "empty"   // lobby expired with nobody seated
	CloseSettled CloseReason = "settled" // round played to completion
	CloseForced  CloseReason = "forced"  // administrative force-close
)

// GameEvent represents any event that occurs during a blackjack round
type GameEvent interface {
	EventType() EventType
	Timestamp() time.Time
}

// TableOpenedEvent is published when a lobby opens.
type TableOpenedEvent struct {
	Opener    string
	LobbyWait time.Duration
	timestamp time.Time
}

func (e TableOpenedEvent) EventType() EventType { return EventTypeTableOpened }
func (e TableOpenedEvent) Timestamp() time.Time { return e.timestamp }

// PlayerJoinedEvent is published when a bet is escrowed and a seat taken.
type PlayerJoinedEvent struct {
	Identity  string
	Name      string
	Bet       int
	Balance   int // balance after escrow
	timestamp time.Time
}

func (e PlayerJoinedEvent) EventType() EventType { return EventTypePlayerJoined }
func (e PlayerJoinedEvent) Timestamp() time.Time { return e.timestamp }

// RoundStartedEvent is published when the lobby closes and dealing begins.
type RoundStartedEvent struct {
	Players   int
	timestamp time.Time
}

func (e RoundStartedEvent) EventType() EventType { return EventTypeRoundStarted }
func (e RoundStartedEvent) Timestamp() time.Time { return e.timestamp }

// CardDealtEvent is published for every card that lands in a player hand.
type CardDealtEvent struct {
	Identity  string
	Name      string
	HandIndex int
	Pass      DealPass
	Card      deck.Card
	Hand      deck.Hand
	Total     int
	timestamp time.Time
}

func (e CardDealtEvent) EventType() EventType { return EventTypeCardDealt }
func (e CardDealtEvent) Timestamp() time.Time { return e.timestamp }

// DealerUpcardEvent is published after the dealer receives their two cards;
// only the upcard is visible until the reveal.
type DealerUpcardEvent struct {
	Upcard    deck.Card
	timestamp time.Time
}

func (e DealerUpcardEvent) EventType() EventType { return EventTypeDealerUpcard }
func (e DealerUpcardEvent) Timestamp() time.Time { return e.timestamp }

// TurnPromptEvent names the hand that may act and its legal actions.
type TurnPromptEvent struct {
	Identity  string
	Name      string
	HandIndex int
	Hand      deck.Hand
	Total     int
	Actions   []Action
	timestamp time.Time
}

func (e TurnPromptEvent) EventType() EventType { return EventTypeTurnPrompt }
func (e TurnPromptEvent) Timestamp() time.Time { return e.timestamp }

// PlayerActionEvent is published when an action resolves against a hand.
type PlayerActionEvent struct {
	Identity  string
	Name      string
	HandIndex int
	Action    Action
	Card      *deck.Card // card drawn by hit/double, nil for stand/split
	Hand      deck.Hand
	Total     int
	Stake     int // escrowed stake for the hand after the action
	Busted    bool
	timestamp time.Time
}

func (e PlayerActionEvent) EventType() EventType { return EventTypePlayerAction }
func (e PlayerActionEvent) Timestamp() time.Time { return e.timestamp }

// DealerRevealEvent is published when the hole card is turned over.
type DealerRevealEvent struct {
	Hand      deck.Hand
	Total     int
	timestamp time.Time
}

func (e DealerRevealEvent) EventType() EventType { return EventTypeDealerReveal }
func (e DealerRevealEvent) Timestamp() time.Time { return e.timestamp }

// DealerDrawEvent is published for each card the dealer draws below 17.
type DealerDrawEvent struct {
	Card      deck.Card
	Hand      deck.Hand
	Total     int
	timestamp time.Time
}

func (e DealerDrawEvent) EventType() EventType { return EventTypeDealerDraw }
func (e DealerDrawEvent) Timestamp() time.Time { return e.timestamp }

// HandResultEvent is published per hand during settlement.
type HandResultEvent struct {
	Identity    string
	Name        string
	HandIndex   int
	Outcome     Outcome
	Total       int
	DealerTotal int
	Stake       int
	Payout      int
	timestamp   time.Time
}

func (e HandResultEvent) EventType() EventType { return EventTypeHandResult }
func (e HandResultEvent) Timestamp() time.Time { return e.timestamp }

// RoundEndedEvent carries the post-settlement balances of every participant.
type RoundEndedEvent struct {
	DealerTotal int
	Balances    []bank.Balance
	timestamp   time.Time
}

func (e RoundEndedEvent) EventType() EventType { return EventTypeRoundEnded }
func (e RoundEndedEvent) Timestamp() time.Time { return e.timestamp }

// TableClosedEvent is published when the table slot is vacated.
type TableClosedEvent struct {
	Reason    CloseReason
	timestamp time.Time
}

func (e TableClosedEvent) EventType() EventType { return EventTypeTableClosed }
func (e TableClosedEvent) Timestamp() time.Time { return e.timestamp }

// EventSubscriber can subscribe to game events
type EventSubscriber interface {
	OnEvent(event GameEvent)
}

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Unsubscribe(subscriber EventSubscriber)
	Publish(event GameEvent)
}

// SimpleEventBus is a basic in-memory event bus implementation
type SimpleEventBus struct {
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus
func NewEventBus() EventBus {
	return &SimpleEventBus{
		subscribers: make([]EventSubscriber, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber from receiving events
func (bus *SimpleEventBus) Unsubscribe(subscriber EventSubscriber) {
	for i, sub := range bus.subscribers {
		if sub == subscriber {
			bus.subscribers = append(bus.subscribers[:i], bus.subscribers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribers
func (bus *SimpleEventBus) Publish(event GameEvent) {
	for _, subscriber := range bus.subscribers {
		subscriber.OnEvent(event)
	}
}
