package session

import (
	"context"
	"fmt"
)

// Conn is the minimal streaming connection the controller drives. The
// production implementation wraps a websocket; tests inject a scripted fake.
type Conn interface {
	// WriteJSON sends one outbound command.
	WriteJSON(v interface{}) error
	// ReadMessage blocks until the next inbound message or connection end.
	ReadMessage() ([]byte, error)
	Close() error
}

// Dialer opens a Conn for a session stream URL.
type Dialer interface {
	Dial(ctx context.Context, url string, token string) (Conn, error)
}

// CloseError reports an abnormal connection close with its close code.
// Implementations of Conn must return it from ReadMessage so the controller
// can distinguish an authentication rejection from generic transport loss.
type CloseError struct {
	Code int
	Text string
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("connection closed (%d): %s", e.Code, e.Text)
}
