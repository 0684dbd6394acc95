package feed

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// Conn is an established push connection.
type Conn interface {
	// ReadMessage blocks until the next message arrives.
	ReadMessage() ([]byte, error)
	// Close may be called concurrently with ReadMessage to unblock it.
	Close() error
}

// Dialer opens push connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebsocketDialer dials the feed over WebSocket.
type WebsocketDialer struct {
	Dialer *websocket.Dialer
	Header http.Header
}

func NewWebsocketDialer() *WebsocketDialer {
	return &WebsocketDialer{Dialer: websocket.DefaultDialer}
}

func (d *WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dl := d.Dialer
	if dl == nil {
		dl = websocket.DefaultDialer
	}
	c, resp, err := dl.DialContext(ctx, url, d.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("handshake status %d: %w", resp.StatusCode, err)
		}
		return nil, err
	}
	return &wsConn{c: c}, nil
}

type wsConn struct{ c *websocket.Conn }

func (w *wsConn) ReadMessage() ([]byte, error) {
	_, p, err := w.c.ReadMessage()
	return p, err
}

func (w *wsConn) Close() error { return w.c.Close() }
