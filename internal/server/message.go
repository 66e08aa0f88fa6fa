package server

import (
	"encoding/json"
	"time"
)

// MessageType identifies a wire message.
type MessageType string

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Client → Server message types
const (
	MessageTypeHello      MessageType = "hello"
	MessageTypeOpenTable  MessageType = "open_table"
	MessageTypeJoinTable  MessageType = "join_table"
	MessageTypeAction     MessageType = "action"
	MessageTypeHandQuery  MessageType = "hand"
	MessageTypeBalance    MessageType = "balance"
	MessageTypeTransfer   MessageType = "transfer"
	MessageTypeForceClose MessageType = "force_close"
	MessageTypeState      MessageType = "state"
)

// Server → Client message types
const (
	MessageTypeWelcome        MessageType = "welcome"
	MessageTypeError          MessageType = "error"
	MessageTypeBalanceResult  MessageType = "balance_result"
	MessageTypeTransferResult MessageType = "transfer_result"
	MessageTypeHandResult     MessageType = "hand_info"
	MessageTypeStateResult    MessageType = "state_result"
	MessageTypeGameEvent      MessageType = "game_event"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server payloads

// HelloData identifies the connection. Identity is the stable key balances
// hang off; Name is the display name used in announcements. AdminToken
// unlocks the admin requests when it matches the configured secret.
type HelloData struct {
	Identity   string `json:"identity"`
	Name       string `json:"name"`
	AdminToken string `json:"adminToken,omitempty"`
}

// JoinTableData carries the bet as text; the server parses and rejects
// non-numeric or non-positive amounts.
type JoinTableData struct {
	Bet string `json:"bet"`
}

// ActionData names one of hit/stand/double/split.
type ActionData struct {
	Action string `json:"action"`
}

// TransferData moves chips between identities, independent of table state.
type TransferData struct {
	To     string `json:"to"`
	Amount int    `json:"amount"`
}

// Server → Client payloads

// WelcomeData acknowledges a hello. Fresh is true the first time an identity
// is seen, when the starting balance is minted.
type WelcomeData struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
	Balance  int    `json:"balance"`
	Fresh    bool   `json:"fresh"`
	Admin    bool   `json:"admin"`
}

// ErrorData carries a rejection code and a human-readable message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BalanceData answers a balance query.
type BalanceData struct {
	Identity string `json:"identity"`
	Balance  int    `json:"balance"`
}

// TransferResultData reports both post-transfer balances to the sender.
type TransferResultData struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Amount      int    `json:"amount"`
	FromBalance int    `json:"fromBalance"`
}

// HandInfoData answers a read-only hand query.
type HandInfoData struct {
	HandIndex int      `json:"handIndex"`
	Cards     []string `json:"cards"`
	Total     int      `json:"total"`
	Stake     int      `json:"stake"`
}

// StatePlayer is one row of the admin state dump.
type StatePlayer struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
	Bet      int    `json:"bet"`
	Staked   int    `json:"staked"`
	Hands    int    `json:"hands"`
}

// StateData is the admin state dump.
type StateData struct {
	Active    bool          `json:"active"`
	State     string        `json:"state,omitempty"`
	LobbyOpen bool          `json:"lobbyOpen,omitempty"`
	Players   []StatePlayer `json:"players,omitempty"`
}

// GameEventData wraps a game event for broadcast. Payload fields are the
// contract external consumers rely on; rendering is up to the client.
type GameEventData struct {
	Event       string        `json:"event"`
	Identity    string        `json:"identity,omitempty"`
	Name        string        `json:"name,omitempty"`
	HandIndex   *int          `json:"handIndex,omitempty"`
	Pass        string        `json:"pass,omitempty"`
	Action      string        `json:"action,omitempty"`
	Card        string        `json:"card,omitempty"`
	Hand        []string      `json:"hand,omitempty"`
	Total       int           `json:"total,omitempty"`
	DealerTotal int           `json:"dealerTotal,omitempty"`
	Stake       int           `json:"stake,omitempty"`
	Payout      int           `json:"payout,omitempty"`
	Outcome     string        `json:"outcome,omitempty"`
	Busted      bool          `json:"busted,omitempty"`
	Actions     []string      `json:"actions,omitempty"`
	Bet         int           `json:"bet,omitempty"`
	Balance     int           `json:"balance,omitempty"`
	Balances    []BalanceData `json:"balances,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	Opener      string        `json:"opener,omitempty"`
	LobbyWaitMs int           `json:"lobbyWaitMs,omitempty"`
	Players     int           `json:"players,omitempty"`
}
