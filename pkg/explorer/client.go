package explorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mesh-explorer-be/pkg/protocol"
)

// Client talks to the exploration REST endpoints. Lookup endpoints encode
// absence in status codes: a missing segmentation or transcript is a normal
// state of a young session, not an error.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Token returns the bearer token the client authenticates with.
func (c *Client) Token() string {
	return c.token
}

// WebsocketURL derives the pipeline stream address for a session from the
// REST base URL.
func (c *Client) WebsocketURL(sessionID string) string {
	ws := strings.Replace(c.baseURL, "http", "ws", 1)
	return ws + "/api/pipeline/v1/ws/" + sessionID
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type accountData struct {
	UserId string `json:"user_id"`
	Secret string `json:"secret"`
	Token  string `json:"token"`
}

// CreateAccount mints an anonymous account and rebinds the client to its
// token. The returned secret allows re-login later.
func (c *Client) CreateAccount(ctx context.Context) (userId, secret string, err error) {
	var data accountData
	if err := c.do(ctx, http.MethodPost, "/api/auth/v1/account", nil, &data); err != nil {
		return "", "", err
	}
	c.token = data.Token
	return data.UserId, data.Secret, nil
}

// Session is one listed exploration session.
type Session struct {
	Id          string     `json:"id"`
	Name        string     `json:"name"`
	CreatedAt   time.Time  `json:"created_at"`
	SegmentedAt *time.Time `json:"segmented_at"`
}

// CreateSession uploads a mesh and returns the new session id.
func (c *Client) CreateSession(ctx context.Context, name string, mesh *protocol.SurfaceMesh) (string, error) {
	body := map[string]interface{}{
		"name": name,
		"mesh": mesh,
	}
	var data Session
	if err := c.do(ctx, http.MethodPost, "/api/session/v1", body, &data); err != nil {
		return "", err
	}
	return data.Id, nil
}

// ListSessions returns the caller's sessions, newest first.
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var data []Session
	if err := c.do(ctx, http.MethodGet, "/api/session/v1", nil, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// FetchMesh returns the session's geometry. Failure here is terminal for
// the view; there is nothing to render without it.
func (c *Client) FetchMesh(ctx context.Context, sessionID string) (*protocol.SurfaceMesh, error) {
	var mesh protocol.SurfaceMesh
	if err := c.do(ctx, http.MethodGet, "/api/session/v1/"+sessionID+"/mesh", nil, &mesh); err != nil {
		return nil, err
	}
	return &mesh, nil
}

// FetchSegments returns the stored segmentation, or (nil, nil) when the
// session has not been segmented yet.
func (c *Client) FetchSegments(ctx context.Context, sessionID string) (*protocol.SegmentResult, error) {
	var result protocol.SegmentResult
	err := c.do(ctx, http.MethodGet, "/api/session/v1/"+sessionID+"/segments", nil, &result)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchTranscript returns the chat transcript; an empty transcript is a
// valid state, not an error.
func (c *Client) FetchTranscript(ctx context.Context, sessionID string) ([]protocol.ChatMessage, error) {
	var messages []protocol.ChatMessage
	err := c.do(ctx, http.MethodGet, "/api/session/v1/"+sessionID+"/transcript", nil, &messages)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Code, e.Message)
}

func isNotFound(err error) bool {
	se, ok := err.(*StatusError)
	return ok && se.Code == http.StatusNotFound
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env envelope
		message := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &env) == nil && env.Message != "" {
			message = env.Message
		}
		return &StatusError{Code: resp.StatusCode, Message: message}
	}

	if out == nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	return json.Unmarshal(env.Data, out)
}
