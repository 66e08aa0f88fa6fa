package server

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjackroom/internal/deck"
	"github.com/lox/blackjackroom/internal/game"
)

// EventBroadcaster subscribes to the game event bus and fans every event out
// to all connected clients as game_event messages.
type EventBroadcaster struct {
	server *Server
	logger *log.Logger
}

// NewEventBroadcaster creates a broadcaster bound to the server.
func NewEventBroadcaster(server *Server, logger *log.Logger) *EventBroadcaster {
	return &EventBroadcaster{
		server: server,
		logger: logger.WithPrefix("events"),
	}
}

// OnEvent implements the game.EventSubscriber interface
func (b *EventBroadcaster) OnEvent(event game.GameEvent) {
	msg, err := NewMessage(MessageTypeGameEvent, eventData(event))
	if err != nil {
		b.logger.Error("failed to encode game event", "type", event.EventType(), "error", err)
		return
	}
	b.server.Broadcast(msg)
}

// eventData flattens a game event into the broadcast payload.
func eventData(event game.GameEvent) GameEventData {
	data := GameEventData{Event: event.EventType().String()}

	switch e := event.(type) {
	case game.TableOpenedEvent:
		data.Opener = e.Opener
		data.LobbyWaitMs = int(e.LobbyWait / time.Millisecond)

	case game.PlayerJoinedEvent:
		data.Identity = e.Identity
		data.Name = e.Name
		data.Bet = e.Bet
		data.Balance = e.Balance

	case game.RoundStartedEvent:
		data.Players = e.Players

	case game.CardDealtEvent:
		data.Identity = e.Identity
		data.Name = e.Name
		data.HandIndex = intPtr(e.HandIndex)
		data.Pass = string(e.Pass)
		data.Card = e.Card.String()
		data.Hand = handStrings(e.Hand)
		data.Total = e.Total

	case game.DealerUpcardEvent:
		data.Card = e.Upcard.String()

	case game.TurnPromptEvent:
		data.Identity = e.Identity
		data.Name = e.Name
		data.HandIndex = intPtr(e.HandIndex)
		data.Hand = handStrings(e.Hand)
		data.Total = e.Total
		data.Actions = actionStrings(e.Actions)

	case game.PlayerActionEvent:
		data.Identity = e.Identity
		data.Name = e.Name
		data.HandIndex = intPtr(e.HandIndex)
		data.Action = e.Action.String()
		if e.Card != nil {
			data.Card = e.Card.String()
		}
		data.Hand = handStrings(e.Hand)
		data.Total = e.Total
		data.Stake = e.Stake
		data.Busted = e.Busted

	case game.DealerRevealEvent:
		data.Hand = handStrings(e.Hand)
		data.Total = e.Total

	case game.DealerDrawEvent:
		data.Card = e.Card.String()
		data.Hand = handStrings(e.Hand)
		data.Total = e.Total

	case game.HandResultEvent:
		data.Identity = e.Identity
		data.Name = e.Name
		data.HandIndex = intPtr(e.HandIndex)
		data.Outcome = e.Outcome.String()
		data.Total = e.Total
		data.DealerTotal = e.DealerTotal
		data.Stake = e.Stake
		data.Payout = e.Payout

	case game.RoundEndedEvent:
		data.DealerTotal = e.DealerTotal
		balances := make([]BalanceData, 0, len(e.Balances))
		for _, bal := range e.Balances {
			balances = append(balances, BalanceData{Identity: bal.Identity, Balance: bal.Amount})
		}
		data.Balances = balances

	case game.TableClosedEvent:
		data.Reason = string(e.Reason)
	}

	return data
}

func intPtr(i int) *int {
	return &i
}

func handStrings(h deck.Hand) []string {
	out := make([]string, len(h))
	for i, c := range h {
		out[i] = c.String()
	}
	return out
}

func actionStrings(actions []game.Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.String()
	}
	return out
}
