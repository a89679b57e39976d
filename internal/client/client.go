// internal/client/client.go

// Package client speaks the lobby protocol over WebSocket. It backs the
// lobbyctl CLI and the transport tests.
package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// LobbyState is the lobby summary carried by lobby-update.
type LobbyState struct {
	Code        string   `json:"code"`
	Host        string   `json:"host"`
	Players     []string `json:"players"`
	PlayerCount int      `json:"playerCount"`
}

// Message is any server frame. Fields a given type does not use stay zero.
type Message struct {
	Type     string          `json:"type"`
	Code     string          `json:"code,omitempty"`
	PlayerID string          `json:"playerId,omitempty"`
	HostID   string          `json:"hostId,omitempty"`
	Message  string          `json:"message,omitempty"`
	Reason   string          `json:"reason,omitempty"`
	Lobby    *LobbyState     `json:"lobby,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

type request struct {
	Type     string      `json:"type"`
	PlayerID string      `json:"playerId,omitempty"`
	Code     string      `json:"code,omitempty"`
	Data     interface{} `json:"data,omitempty"`
}

// Client is one WebSocket session with the relay.
type Client struct {
	conn *websocket.Conn
}

// Dial connects to a relay endpoint such as ws://localhost:8080/ws.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	return &Client{conn: conn}, nil
}

// Create asks for a new lobby. An empty playerID lets the server mint one.
func (c *Client) Create(ctx context.Context, playerID string) error {
	return c.send(ctx, request{Type: "create-lobby", PlayerID: playerID})
}

// Join asks to join the lobby with the given code.
func (c *Client) Join(ctx context.Context, code, playerID string) error {
	return c.send(ctx, request{Type: "join-lobby", Code: code, PlayerID: playerID})
}

// Send relays data to everyone in the lobby.
func (c *Client) Send(ctx context.Context, code string, data interface{}) error {
	return c.send(ctx, request{Type: "lobby-message", Code: code, Data: data})
}

// Leave removes this client's identity from the lobby.
func (c *Client) Leave(ctx context.Context, code string) error {
	return c.send(ctx, request{Type: "leave-lobby", Code: code})
}

// SendRaw writes a frame verbatim.
func (c *Client) SendRaw(ctx context.Context, frame []byte) error {
	return c.conn.Write(ctx, websocket.MessageText, frame)
}

// Next blocks for the next server frame.
func (c *Client) Next(ctx context.Context) (Message, error) {
	var msg Message
	if err := wsjson.Read(ctx, c.conn, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Await reads frames until one of the given type arrives, discarding the rest.
func (c *Client) Await(ctx context.Context, typ string) (Message, error) {
	for {
		msg, err := c.Next(ctx)
		if err != nil {
			return Message{}, err
		}
		if msg.Type == typ {
			return msg, nil
		}
	}
}

// Close ends the session with a normal closure.
func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}

func (c *Client) send(ctx context.Context, req request) error {
	if err := wsjson.Write(ctx, c.conn, req); err != nil {
		return fmt.Errorf("failed to send %s: %w", req.Type, err)
	}
	return nil
}
