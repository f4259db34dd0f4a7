package push

import (
	"context"

	"github.com/danielpatrickdp/limbic-engine/internal/state"
	"github.com/gorilla/websocket"
)

// #region message

// Message is one JSON frame on the push channel. Incoming frames carry
// either a full-state replacement or a partial delta; outbound frames carry
// locally-originated interactions the backend may echo back. Token is the
// client-assigned idempotency token used to suppress echo double-apply.
type Message struct {
	Type  string             `json:"type"`
	State *state.LimbicState `json:"state,omitempty"`
	Delta *state.Partial     `json:"delta,omitempty"`
	Kind  string             `json:"kind,omitempty"`
	Token string             `json:"token,omitempty"`
}

const (
	TypeStateReplace = "state_replace"
	TypeStateDelta   = "state_delta"
	TypeInteraction  = "interaction"
)

// #endregion message

// #region conn

// Conn is one established push-channel connection. The concrete transport is
// injected so the state machine, queue, and dedup logic are testable without
// a network.
type Conn interface {
	ReadMessage() (Message, error)
	WriteMessage(msg Message) error
	Close() error
}

// Dialer establishes a Conn to the given URL.
type Dialer func(ctx context.Context, url string) (Conn, error)

// #endregion conn

// #region websocket

type wsConn struct {
	ws *websocket.Conn
}

func (c *wsConn) ReadMessage() (Message, error) {
	var m Message
	err := c.ws.ReadJSON(&m)
	return m, err
}

func (c *wsConn) WriteMessage(msg Message) error {
	return c.ws.WriteJSON(msg)
}

func (c *wsConn) Close() error {
	return c.ws.Close()
}

// DialWebSocket is the production Dialer, backed by gorilla/websocket.
func DialWebSocket(ctx context.Context, url string) (Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{ws: ws}, nil
}

// #endregion websocket
