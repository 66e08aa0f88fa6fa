package main

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// serverMessage mirrors the wire envelope loosely; payloads are decoded by
// the view layer per message type.
type serverMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type clientMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// roomClient is a thin websocket wrapper: it sends typed requests and hands
// every server message to onMessage.
type roomClient struct {
	url       string
	identity  string
	name      string
	admin     string
	logger    *log.Logger
	conn      *websocket.Conn
	writeMu   sync.Mutex
	onMessage func(serverMessage)
}

func newRoomClient(url, identity, name, admin string, logger *log.Logger) *roomClient {
	return &roomClient{
		url:      url,
		identity: identity,
		name:     name,
		admin:    admin,
		logger:   logger.WithPrefix("client"),
	}
}

func (c *roomClient) connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	c.conn = conn

	return c.send("hello", map[string]string{
		"identity":   c.identity,
		"name":       c.name,
		"adminToken": c.admin,
	})
}

func (c *roomClient) close() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

func (c *roomClient) readLoop() {
	for {
		var msg serverMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			c.logger.Debug("read loop ended", "error", err)
			if c.onMessage != nil {
				c.onMessage(serverMessage{Type: "disconnected"})
			}
			return
		}
		c.logger.Debug("received", "type", msg.Type)
		if c.onMessage != nil {
			c.onMessage(msg)
		}
	}
}

func (c *roomClient) send(msgType string, data interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(clientMessage{Type: msgType, Data: data})
}

func (c *roomClient) openTable() error {
	return c.send("open_table", nil)
}

func (c *roomClient) joinTable(bet string) error {
	return c.send("join_table", map[string]string{"bet": bet})
}

func (c *roomClient) action(name string) error {
	return c.send("action", map[string]string{"action": name})
}

func (c *roomClient) queryHand() error {
	return c.send("hand", nil)
}

func (c *roomClient) queryBalance() error {
	return c.send("balance", nil)
}

func (c *roomClient) transfer(to string, amount int) error {
	return c.send("transfer", map[string]interface{}{"to": to, "amount": amount})
}

func (c *roomClient) forceClose() error {
	return c.send("force_close", nil)
}

func (c *roomClient) queryState() error {
	return c.send("state", nil)
}
