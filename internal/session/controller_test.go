package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mfuentes/plaza/internal/domain"
	"github.com/mfuentes/plaza/internal/gateway"
	"github.com/mfuentes/plaza/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// scriptedServer plays the gateway's part: it checks the handshake credential,
// replays scripted frames and records everything the client sends.
type scriptedServer struct {
	t     *testing.T
	token string
	send  [][]byte

	mu       sync.Mutex
	received []gateway.Envelope
}

func (s *scriptedServer) handler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	auth := r.Header.Get("Authorization")
	if auth != "Bearer "+s.token {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, gateway.CloseReasonAuth))
		return
	}

	for _, frame := range s.send {
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env gateway.Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			continue
		}
		s.mu.Lock()
		s.received = append(s.received, env)
		s.mu.Unlock()
	}
}

func (s *scriptedServer) events() []gateway.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]gateway.Envelope, len(s.received))
	copy(out, s.received)
	return out
}

func encodeFrame(t *testing.T, event string, data any) []byte {
	t.Helper()
	payload, err := gateway.Encode(event, data)
	require.NoError(t, err)
	return payload
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func TestController_RequiresStoredCredential(t *testing.T) {
	creds := session.NewMemoryCredentialStore("")
	c := session.NewController("ws://127.0.0.1:1/unused", creds)

	err := c.Connect(context.Background())
	assert.ErrorIs(t, err, session.ErrUnauthenticated)
}

func TestController_DiscardsCredentialOnAuthRejection(t *testing.T) {
	srv := &scriptedServer{t: t, token: "good-token"}
	ts := httptest.NewServer(http.HandlerFunc(srv.handler))
	defer ts.Close()

	creds := session.NewMemoryCredentialStore("stale-token")
	c := session.NewController(wsURL(ts), creds)
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	var sawAuthError bool
	for ev := range c.Events() {
		if ev.Kind == session.KindAuthError {
			sawAuthError = true
		}
	}
	assert.True(t, sawAuthError)
	assert.ErrorIs(t, c.Err(), session.ErrReauthenticationRequired)

	// The stale credential is gone; the next connect fails fast.
	_, ok := creds.Token()
	assert.False(t, ok)
	assert.ErrorIs(t, c.Connect(context.Background()), session.ErrUnauthenticated)
}

func TestController_AccumulatesHistoryThenLiveMessages(t *testing.T) {
	history := []domain.ChatMessage{
		{ID: "message:1", Text: "first", AuthorName: "maria"},
		{ID: "message:2", Text: "second", AuthorName: "jorge"},
	}
	live := domain.ChatMessage{ID: "message:3", Text: "third", AuthorName: "maria"}

	srv := &scriptedServer{
		t:     t,
		token: "good-token",
		send: [][]byte{
			encodeFrame(t, gateway.EventMessageHistory, history),
			encodeFrame(t, gateway.EventChatMessage, live),
		},
	}
	ts := httptest.NewServer(http.HandlerFunc(srv.handler))
	defer ts.Close()

	creds := session.NewMemoryCredentialStore("good-token")
	c := session.NewController(wsURL(ts), creds)
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	var kinds []session.EventKind
	for ev := range c.Events() {
		kinds = append(kinds, ev.Kind)
		if len(kinds) == 2 {
			break
		}
	}
	assert.Equal(t, []session.EventKind{session.KindHistory, session.KindMessage}, kinds)

	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Text)
	assert.Equal(t, "second", msgs[1].Text)
	assert.Equal(t, "third", msgs[2].Text)
}

func TestController_SendEmitsMessageAndStopTyping(t *testing.T) {
	srv := &scriptedServer{t: t, token: "good-token"}
	ts := httptest.NewServer(http.HandlerFunc(srv.handler))
	defer ts.Close()

	creds := session.NewMemoryCredentialStore("good-token")
	c := session.NewController(wsURL(ts), creds)
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	c.InputChanged("hol")
	require.NoError(t, c.Send("hola"))

	require.Eventually(t, func() bool {
		return len(srv.events()) >= 3
	}, 2*time.Second, 10*time.Millisecond)

	events := srv.events()
	assert.Equal(t, gateway.EventTyping, events[0].Event)
	assert.Equal(t, gateway.EventChatMessage, events[1].Event)
	assert.Equal(t, gateway.EventStopTyping, events[2].Event)

	var payload gateway.SendMessagePayload
	require.NoError(t, json.Unmarshal(events[1].Data, &payload))
	assert.Equal(t, "hola", payload.Text)
}

func TestController_TypingStopsAfterIdle(t *testing.T) {
	srv := &scriptedServer{t: t, token: "good-token"}
	ts := httptest.NewServer(http.HandlerFunc(srv.handler))
	defer ts.Close()

	creds := session.NewMemoryCredentialStore("good-token")
	c := session.NewController(wsURL(ts), creds, session.WithTypingIdle(50*time.Millisecond))
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	c.InputChanged("h")

	require.Eventually(t, func() bool {
		events := srv.events()
		return len(events) == 2 &&
			events[0].Event == gateway.EventTyping &&
			events[1].Event == gateway.EventStopTyping
	}, 2*time.Second, 10*time.Millisecond)
}

func TestController_SendWithoutConnectFails(t *testing.T) {
	creds := session.NewMemoryCredentialStore("token")
	c := session.NewController("ws://127.0.0.1:1/unused", creds)

	assert.ErrorIs(t, c.Send("hola"), session.ErrNotConnected)
}
