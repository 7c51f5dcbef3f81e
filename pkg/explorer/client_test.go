package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mesh-explorer-be/pkg/protocol"
)

func respond(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"message": message,
		"data":    data,
	})
}

func TestCreateAccountRebindsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/v1/account", r.URL.Path)
		respond(w, http.StatusCreated, "account created", map[string]string{
			"user_id": "u-1",
			"secret":  "s3cret",
			"token":   "jwt-token",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	userId, secret, err := client.CreateAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u-1", userId)
	assert.Equal(t, "s3cret", secret)
	assert.Equal(t, "jwt-token", client.Token())
}

func TestRequestsCarryBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer my-token", r.Header.Get("Authorization"))
		respond(w, http.StatusOK, "ok", []Session{})
	}))
	defer server.Close()

	client := NewClient(server.URL, "my-token")
	_, err := client.ListSessions(context.Background())
	require.NoError(t, err)
}

func TestFetchSegmentsNotFoundMeansNotSegmented(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusNotFound, "segmentation not found", nil)
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	result, err := client.FetchSegments(context.Background(), "abc")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestFetchTranscriptNotFoundMeansEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusNotFound, "transcript not found", nil)
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	messages, err := client.FetchTranscript(context.Background(), "abc")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestFetchMeshErrorIsSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusNotFound, "session not found", nil)
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	_, err := client.FetchMesh(context.Background(), "abc")
	require.Error(t, err)

	se, ok := err.(*StatusError)
	require.True(t, ok, "expected a StatusError, got %T", err)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, "session not found", se.Message)
}

func TestCreateSessionUploadsMesh(t *testing.T) {
	mesh := &protocol.SurfaceMesh{
		Vertices: [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Faces:    [][3]int32{{0, 1, 2}},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name string                `json:"name"`
			Mesh *protocol.SurfaceMesh `json:"mesh"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "pipe run", body.Name)
		require.NotNil(t, body.Mesh)
		assert.Len(t, body.Mesh.Vertices, 3)
		respond(w, http.StatusCreated, "session created", map[string]string{"id": "sess-1"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	id, err := client.CreateSession(context.Background(), "pipe run", mesh)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", id)
}

func TestWebsocketURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"http://localhost:3000", "ws://localhost:3000/api/pipeline/v1/ws/abc"},
		{"https://mesh.example.com/", "wss://mesh.example.com/api/pipeline/v1/ws/abc"},
	}
	for _, tc := range cases {
		client := NewClient(tc.base, "")
		assert.Equal(t, tc.want, client.WebsocketURL("abc"))
	}
}

func TestStatusErrorFallsBackToRawBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream unavailable")
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	_, err := client.ListSessions(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "upstream unavailable"))
}
