package wsrpc

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// Conn is a message-oriented duplex connection.
type Conn interface {
	WriteMessage(data []byte) error
	Close() error
}

// Dialer opens a connection to url, delivering inbound frames to onMessage
// and the eventual closure to onClose. Both callbacks run on the
// connection's single read goroutine.
type Dialer func(ctx context.Context, url string, onMessage func([]byte), onClose func(error)) (Conn, error)

// Dial is the websocket Dialer used outside of tests.
func Dial(ctx context.Context, url string, onMessage func([]byte), onClose func(error)) (Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}

	c := &wsConn{ws: ws}
	go c.readLoop(onMessage, onClose)
	return c, nil
}

type wsConn struct {
	ws *websocket.Conn

	writeMu sync.Mutex

	mu     sync.Mutex
	closed bool
}

func (c *wsConn) WriteMessage(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.ws.Close()
}

func (c *wsConn) readLoop(onMessage func([]byte), onClose func(error)) {
	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			c.mu.Lock()
			deliberate := c.closed
			c.closed = true
			c.mu.Unlock()

			if onClose != nil {
				if deliberate {
					onClose(nil)
				} else {
					onClose(err)
				}
			}
			return
		}
		onMessage(msg)
	}
}
