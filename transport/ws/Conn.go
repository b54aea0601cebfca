// Package ws carries transport Channels over websockets. Workers dial
// the controller, naming their identity in a handshake header, and the
// controller accepts each identity at most once.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grandpahao/oh-my-q-learning/transport"
)

// IdentityHeader is the handshake header carrying a worker's identity
const IdentityHeader = "X-Agent-Identity"

const (
	readLimit    = 8 << 20
	writeTimeout = 10 * time.Second
)

// Conn is a transport.Channel over a websocket connection. Messages
// are sent as binary websocket messages.
type Conn struct {
	conn     *websocket.Conn
	identity string
	once     sync.Once
}

func newConn(conn *websocket.Conn, identity string) *Conn {
	conn.SetReadLimit(readLimit)
	return &Conn{conn: conn, identity: identity}
}

// Dial connects to the controller at url as identity
func Dial(ctx context.Context, url, identity string) (*Conn, error) {
	if identity == "" {
		return nil, fmt.Errorf("dial: empty identity")
	}

	header := http.Header{}
	header.Set(IdentityHeader, identity)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial: %v refused with status %v: %w",
				identity, resp.Status, err)
		}
		return nil, fmt.Errorf("dial: %w", err)
	}
	return newConn(conn, identity), nil
}

// Identity returns the identity of the worker at either end of the
// connection
func (c *Conn) Identity() string {
	return c.identity
}

// Send sends a single message
func (c *Conn) Send(msg []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
		if errors.Is(err, websocket.ErrCloseSent) {
			return fmt.Errorf("send: %w", transport.ErrClosed)
		}
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

// Recv blocks until a message arrives. A connection closed by the peer
// reports transport.ErrClosed.
func (c *Conn) Recv() ([]byte, error) {
	for {
		kind, msg, err := c.conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return nil, fmt.Errorf("recv: %w: %v", transport.ErrClosed,
					closeErr)
			}
			return nil, fmt.Errorf("recv: %w", err)
		}

		if kind == websocket.BinaryMessage {
			return msg, nil
		}
	}
}

// Close closes the connection, telling the peer first
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = c.conn.Close()
	})
	return err
}

// ClosePolicyViolation closes the connection, telling the peer that it
// broke the protocol
func (c *Conn) ClosePolicyViolation(reason string) error {
	var err error
	c.once.Do(func() {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation,
				reason),
			time.Now().Add(time.Second))
		err = c.conn.Close()
	})
	return err
}
