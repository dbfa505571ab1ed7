package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hubServer(t *testing.T, hub *AssistantHub) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.ServeWS(w, r, 7); err != nil {
			t.Logf("upgrade: %v", err)
		}
	}))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialHub(t *testing.T, url string, header http.Header) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// readUntil returns the first frame whose type is not "typing".
func readUntil(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Type != "typing" {
			return f
		}
	}
}

func TestAssistantHub_ChatOverSocket(t *testing.T) {
	srv, calls := chatServer(t, func(w http.ResponseWriter, req ChatCompletionRequest, _ int32) {
		last := req.Messages[len(req.Messages)-1]
		reply(w, "echo: "+last.Content)
	})
	hub := NewAssistantHub(assistantFor(srv), nil)
	conn := dialHub(t, hubServer(t, hub), nil)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "chat",
		"data": map[string]any{"message": "are my eyes tired?"},
	}))
	f := readUntil(t, conn)
	require.Equal(t, "reply", f.Type)
	var out ChatReply
	require.NoError(t, json.Unmarshal(f.Data, &out))
	assert.Equal(t, "echo: are my eyes tired?", out.Reply)
	assert.EqualValues(t, 1, *calls)
	assert.Equal(t, 1, hub.Count())

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	assert.Equal(t, "pong", readUntil(t, conn).Type)
}

func TestAssistantHub_RejectsBadFrames(t *testing.T) {
	hub := NewAssistantHub(NewAssistantService(nil, false, fastResilience()), nil)
	conn := dialHub(t, hubServer(t, hub), nil)

	tests := []struct {
		name  string
		frame string
	}{
		{"not json", "hello"},
		{"unknown type", `{"type":"dance"}`},
		{"empty message", `{"type":"chat","data":{"message":""}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.frame)))
			assert.Equal(t, "error", readUntil(t, conn).Type)
		})
	}
}

func TestAssistantHub_DisabledAssistantAnswersError(t *testing.T) {
	hub := NewAssistantHub(NewAssistantService(nil, false, fastResilience()), nil)
	conn := dialHub(t, hubServer(t, hub), nil)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "chat", "data": map[string]any{"message": "hi"}}))
	f := readUntil(t, conn)
	require.Equal(t, "error", f.Type)
	assert.Contains(t, string(f.Data), "unavailable")
}

func TestAssistantHub_ChecksOrigin(t *testing.T) {
	hub := NewAssistantHub(NewAssistantService(nil, false, fastResilience()), []string{"http://localhost:3000"})
	url := hubServer(t, hub)

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	dialHub(t, url, http.Header{"Origin": {"http://localhost:3000"}})
}

func TestAssistantHub_CloseDropsConnections(t *testing.T) {
	hub := NewAssistantHub(NewAssistantService(nil, false, fastResilience()), nil)
	conn := dialHub(t, hubServer(t, hub), nil)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	hub.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, time.Second, 10*time.Millisecond)
}
