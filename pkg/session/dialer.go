package session

import (
	"context"

	"github.com/gorilla/websocket"
)

// WebsocketDialer dials the real session stream endpoint.
type WebsocketDialer struct {
	dialer *websocket.Dialer
}

func NewWebsocketDialer() *WebsocketDialer {
	return &WebsocketDialer{dialer: websocket.DefaultDialer}
}

func (d *WebsocketDialer) Dial(ctx context.Context, url string, token string) (Conn, error) {
	if token != "" {
		url += "?token=" + token
	}
	c, _, err := d.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &websocketConn{conn: c}, nil
}

type websocketConn struct {
	conn *websocket.Conn
}

func (c *websocketConn) WriteJSON(v interface{}) error {
	return c.conn.WriteJSON(v)
}

func (c *websocketConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		if ce, ok := err.(*websocket.CloseError); ok {
			return nil, &CloseError{Code: ce.Code, Text: ce.Text}
		}
		return nil, err
	}
	return data, nil
}

func (c *websocketConn) Close() error {
	return c.conn.Close()
}
