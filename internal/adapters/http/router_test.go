package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okaneo/peal/internal/app"
	"github.com/okaneo/peal/internal/config"
)

func newTestServer(t *testing.T) (*httptest.Server, *app.Orchestrator) {
	t.Helper()
	cfg := &config.Config{
		Mode:           "release",
		StaticPath:     t.TempDir(),
		Secret:         "test-secret",
		ReadLimit:      32768,
		SendBuffer:     32,
		PingPeriod:     54 * time.Second,
		InitiateLimit:  10,
		InitiateWindow: time.Minute,
	}
	orch := app.NewOrchestrator()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := httptest.NewServer(SetupRouter(ctx, cfg, orch))
	t.Cleanup(srv.Close)
	return srv, orch
}

func dialSignal(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/signal"
	ws, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func sendFrame(t *testing.T, ws *websocket.Conn, frame string) {
	t.Helper()
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func readNotice(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSignal_FullCallExchange(t *testing.T) {
	srv, orch := newTestServer(t)

	alice := dialSignal(t, srv)
	sendFrame(t, alice, `{"event":"register","userId":"alice"}`)

	n := readNotice(t, alice)
	assert.Equal(t, "users-online", n["event"])
	assert.Equal(t, []any{"alice"}, n["users"])

	bob := dialSignal(t, srv)
	sendFrame(t, bob, `{"event":"register","userId":"bob"}`)

	n = readNotice(t, bob)
	assert.Equal(t, "users-online", n["event"])
	assert.Equal(t, []any{"alice", "bob"}, n["users"])

	n = readNotice(t, alice)
	assert.Equal(t, []any{"alice", "bob"}, n["users"])

	sendFrame(t, alice, `{"event":"call:initiate","from":"alice","to":"bob","callId":"c1","type":"video"}`)

	n = readNotice(t, bob)
	assert.Equal(t, "call:incoming", n["event"])
	assert.Equal(t, "alice", n["from"])
	assert.Equal(t, "c1", n["callId"])
	assert.Equal(t, "video", n["type"])

	sendFrame(t, bob, `{"event":"call:answer","callId":"c1","answer":{"type":"answer","sdp":"v=0"}}`)

	n = readNotice(t, alice)
	assert.Equal(t, "call:answered", n["event"])
	assert.Equal(t, "c1", n["callId"])
	assert.Equal(t, map[string]any{"type": "answer", "sdp": "v=0"}, n["answer"])

	sendFrame(t, alice, `{"event":"call:offer","callId":"c1","to":"bob","offer":{"type":"offer","sdp":"v=0"}}`)
	n = readNotice(t, bob)
	assert.Equal(t, "call:offer", n["event"])

	sendFrame(t, bob, `{"event":"call:ice-candidate","callId":"c1","to":"alice","candidate":{"candidate":"candidate:0"}}`)
	n = readNotice(t, alice)
	assert.Equal(t, "call:ice-candidate", n["event"])

	sendFrame(t, bob, `{"event":"call:end","callId":"c1","to":"alice"}`)
	n = readNotice(t, alice)
	assert.Equal(t, "call:ended", n["event"])
	assert.Equal(t, "c1", n["callId"])

	_, ok := orch.Calls.Get("c1")
	assert.False(t, ok, "ended session must leave the table")
}

func TestSignal_DisconnectBroadcastsRosterAndEndsCalls(t *testing.T) {
	srv, _ := newTestServer(t)

	alice := dialSignal(t, srv)
	sendFrame(t, alice, `{"event":"register","userId":"alice"}`)
	readNotice(t, alice)

	bob := dialSignal(t, srv)
	sendFrame(t, bob, `{"event":"register","userId":"bob"}`)
	readNotice(t, bob)
	readNotice(t, alice)

	sendFrame(t, bob, `{"event":"call:initiate","from":"bob","to":"alice","callId":"c9","type":"audio"}`)
	n := readNotice(t, alice)
	require.Equal(t, "call:incoming", n["event"])

	// bob's transport drops abruptly
	require.NoError(t, bob.Close())

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		n = readNotice(t, alice)
		got[n["event"].(string)] = true
		if n["event"] == "users-online" {
			assert.Equal(t, []any{"alice"}, n["users"])
		}
		if n["event"] == "call:ended" {
			assert.Equal(t, "c9", n["callId"])
		}
	}
	assert.True(t, got["call:ended"], "alice must learn the ringing call died")
	assert.True(t, got["users-online"], "alice must get the shrunken roster")
}

func TestSignal_MalformedFramesAreIgnored(t *testing.T) {
	srv, _ := newTestServer(t)

	alice := dialSignal(t, srv)
	sendFrame(t, alice, `this is not json`)
	sendFrame(t, alice, `{"event":"call:mute","callId":"c1"}`)
	sendFrame(t, alice, `{"event":"register","userId":"alice"}`)

	// the connection survived the garbage and registration went through
	n := readNotice(t, alice)
	assert.Equal(t, "users-online", n["event"])
	assert.Equal(t, []any{"alice"}, n["users"])
}
