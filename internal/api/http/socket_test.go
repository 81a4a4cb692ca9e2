package http

import (
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/campusmatch/internal/relay"
)

func startListener(t *testing.T, s *testServer) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = s.app.Listener(ln) }()
	t.Cleanup(func() { _ = s.app.ShutdownWithTimeout(time.Second) })
	return ln.Addr().String()
}

func dial(t *testing.T, addr, token string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws/chat?token="+token, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func sendFrame(t *testing.T, conn *websocket.Conn, recipient, payload string) {
	t.Helper()
	frame, err := json.Marshal(relay.InboundFrame{Type: relay.FrameMessage, Recipient: recipient, Payload: payload})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

func waitConnected(t *testing.T, s *testServer, userID string, want bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		_, ok := s.relay.Registry().Lookup(userID)
		return ok == want
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSocketRelayDeliversThenDrops(t *testing.T) {
	s := newTestServer(t)
	addr := startListener(t, s)

	sender := dial(t, addr, s.token(t, "u1"))
	recipient := dial(t, addr, s.token(t, "u2"))
	waitConnected(t, s, "u1", true)
	waitConnected(t, s, "u2", true)

	sendFrame(t, sender, "u2", "hi")

	got := readFrame(t, recipient)
	assert.Equal(t, "message", got["type"])
	assert.Equal(t, "u1", got["from"])
	assert.Equal(t, "hi", got["payload"])
	assert.NotEmpty(t, got["id"])

	ack := readFrame(t, sender)
	assert.Equal(t, "delivery", ack["type"])
	assert.Equal(t, "delivered", ack["status"])
	assert.Equal(t, got["id"], ack["id"])

	require.NoError(t, recipient.Close())
	waitConnected(t, s, "u2", false)

	sendFrame(t, sender, "u2", "still there?")
	ack = readFrame(t, sender)
	assert.Equal(t, "delivery", ack["type"])
	assert.Equal(t, "dropped", ack["status"])

	assert.Equal(t, 2, s.store.messageCount())
	assert.Equal(t, int64(1), s.metrics.Snapshot().Deliveries["dropped"])
}

func TestSocketRejectsUnmatchedRecipient(t *testing.T) {
	s := newTestServer(t)
	addr := startListener(t, s)

	sender := dial(t, addr, s.token(t, "u1"))
	sendFrame(t, sender, "u3", "hello")

	frame := readFrame(t, sender)
	assert.Equal(t, "error", frame["type"])
	assert.Equal(t, "FORBIDDEN", frame["code"])

	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte("{not json")))
	frame = readFrame(t, sender)
	assert.Equal(t, "VALIDATION_FAILED", frame["code"])
}

func TestSocketLastConnectWins(t *testing.T) {
	s := newTestServer(t)
	addr := startListener(t, s)

	first := dial(t, addr, s.token(t, "u2"))
	waitConnected(t, s, "u2", true)
	second := dial(t, addr, s.token(t, "u2"))

	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := first.ReadMessage()
	assert.Error(t, err)

	sender := dial(t, addr, s.token(t, "u1"))
	waitConnected(t, s, "u1", true)
	sendFrame(t, sender, "u2", "to the new socket")

	got := readFrame(t, second)
	assert.Equal(t, "to the new socket", got["payload"])
}

func TestSocketUpgradeRejectedWithoutToken(t *testing.T) {
	s := newTestServer(t)
	addr := startListener(t, s)

	_, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws/chat", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSocketAdmissionMatchesHTTPGate(t *testing.T) {
	s := newTestServer(t)
	addr := startListener(t, s)

	tests := []struct {
		name    string
		query   string
		headers http.Header
		status  int
	}{
		{"pending bearer", "?token=" + s.token(t, "pending"), nil, http.StatusForbidden},
		{"suspended bearer", "?token=" + s.token(t, "suspended"), nil, http.StatusForbidden},
		{"suspended header pair", "", http.Header{"X-User-Id": {"suspended"}, "X-User-Email": {"suspended@campus.edu"}}, http.StatusForbidden},
		{"header pair", "", http.Header{"X-User-Id": {"u3"}, "X-User-Email": {"u3@campus.edu"}}, http.StatusSwitchingProtocols},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws/chat"+tt.query, tt.headers)
			require.NotNil(t, resp)
			if resp.Body != nil {
				defer resp.Body.Close()
			}
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.status == http.StatusSwitchingProtocols {
				require.NoError(t, err)
				_ = conn.Close()
				return
			}
			assert.ErrorIs(t, err, websocket.ErrBadHandshake)
		})
	}
}

func TestLogoutClosesLiveSocket(t *testing.T) {
	s := newTestServer(t)
	addr := startListener(t, s)

	token := s.token(t, "u1")
	conn := dial(t, addr, token)
	waitConnected(t, s, "u1", true)

	resp, _ := s.do(t, http.MethodPost, "/auth/logout", nil, bearer(token))
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	waitConnected(t, s, "u1", false)
}
