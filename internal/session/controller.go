package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mfuentes/plaza/internal/domain"
	"github.com/mfuentes/plaza/internal/gateway"
)

// Session-level terminal conditions.
var (
	// ErrUnauthenticated means no stored credential exists; the controller
	// never opened a channel.
	ErrUnauthenticated = errors.New("no stored credential")

	// ErrReauthenticationRequired means the gateway rejected the stored
	// credential during the handshake. The credential has been discarded.
	ErrReauthenticationRequired = errors.New("credential rejected, re-authentication required")

	// ErrNotConnected means an operation needs an open channel.
	ErrNotConnected = errors.New("session is not connected")
)

// CredentialStore holds the opaque bearer credential between sessions.
type CredentialStore interface {
	Token() (string, bool)
	Clear()
}

// MemoryCredentialStore is the simplest CredentialStore, useful for tests and
// embedded clients.
type MemoryCredentialStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryCredentialStore creates a store pre-loaded with token, which may
// be empty.
func NewMemoryCredentialStore(token string) *MemoryCredentialStore {
	return &MemoryCredentialStore{token: token}
}

// Set stores a new credential.
func (s *MemoryCredentialStore) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Token implements CredentialStore.
func (s *MemoryCredentialStore) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

// Clear implements CredentialStore.
func (s *MemoryCredentialStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}

// EventKind classifies events surfaced to the controller's caller.
type EventKind string

const (
	KindHistory      EventKind = "history"
	KindMessage      EventKind = "message"
	KindConnected    EventKind = "connected"
	KindDisconnected EventKind = "disconnected"
	KindTyping       EventKind = "typing"
	KindStopTyping   EventKind = "stop_typing"
	KindError        EventKind = "error"
	KindAuthError    EventKind = "auth_error"
)

// Event is one decoded gateway event, surfaced in arrival order.
type Event struct {
	Kind    EventKind
	Message *domain.ChatMessage
	History []domain.ChatMessage
	User    *gateway.UserEventPayload
	Err     string
}

// Controller maintains the client side of the real-time channel: one channel
// per session, credential presented at handshake time, incoming events
// surfaced in arrival order, and local typing-debounce state.
type Controller struct {
	url        string
	creds      CredentialStore
	typingIdle time.Duration
	logger     *slog.Logger

	conn    *websocket.Conn
	writeMu sync.Mutex

	events   chan Event
	debounce *TypingDebouncer

	mu       sync.Mutex
	messages []domain.ChatMessage
	err      error
}

// Option configures a Controller.
type Option func(*Controller)

// WithTypingIdle overrides the typing inactivity window. Mostly for tests.
func WithTypingIdle(d time.Duration) Option {
	return func(c *Controller) {
		c.typingIdle = d
	}
}

// NewController creates a controller for the channel at url (a ws:// or
// wss:// endpoint). No connection is opened until Connect.
func NewController(url string, creds CredentialStore, opts ...Option) *Controller {
	c := &Controller{
		url:        url,
		creds:      creds,
		typingIdle: DefaultTypingIdle,
		logger:     slog.Default().With("service", "session"),
		events:     make(chan Event, 64),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.debounce = NewTypingDebouncer(c.typingIdle, c.emitTyping)
	return c
}

// Connect opens the single channel for this session, presenting the stored
// credential as part of the handshake. With no stored credential it returns
// ErrUnauthenticated without ever dialing.
func (c *Controller) Connect(ctx context.Context) error {
	token, ok := c.creds.Token()
	if !ok {
		return ErrUnauthenticated
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, header)
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}

	c.conn = conn
	go c.readLoop()
	return nil
}

// Events returns the stream of decoded gateway events. The channel is closed
// when the session ends.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Send emits a chat message and immediately resets the typing state machine.
func (c *Controller) Send(text string) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	if err := c.writeEvent(gateway.EventChatMessage, gateway.SendMessagePayload{Text: text}); err != nil {
		return err
	}
	c.debounce.MessageSent()
	return nil
}

// InputChanged feeds a local keystroke into the typing debouncer.
func (c *Controller) InputChanged(text string) {
	if c.conn == nil {
		return
	}
	c.debounce.InputChanged(text)
}

// Messages returns a copy of every message seen this session, history first,
// then live messages, both in arrival order.
func (c *Controller) Messages() []domain.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Err returns the terminal session error, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close shuts the channel down gracefully.
func (c *Controller) Close() error {
	c.debounce.Stop()
	if c.conn == nil {
		return nil
	}
	c.writeMu.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.conn.Close()
}

func (c *Controller) readLoop() {
	defer close(c.events)

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}

		var env gateway.Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			c.logger.Warn("Dropping malformed server event", "error", err)
			continue
		}
		c.handleEvent(env)
	}
}

// handleReadError distinguishes a handshake-level credential rejection from
// an ordinary closure. The gateway signals rejection by closing the freshly
// upgraded socket with the authentication_error reason.
func (c *Controller) handleReadError(err error) {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) && closeErr.Text == gateway.CloseReasonAuth {
		c.creds.Clear()
		c.setErr(ErrReauthenticationRequired)
		c.events <- Event{Kind: KindAuthError, Err: closeErr.Text}
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return
	}
	c.setErr(err)
}

func (c *Controller) handleEvent(env gateway.Envelope) {
	switch env.Event {
	case gateway.EventMessageHistory:
		var history []domain.ChatMessage
		if err := json.Unmarshal(env.Data, &history); err != nil {
			c.logger.Warn("Dropping malformed history payload", "error", err)
			return
		}
		c.mu.Lock()
		c.messages = append(c.messages, history...)
		c.mu.Unlock()
		c.events <- Event{Kind: KindHistory, History: history}

	case gateway.EventChatMessage:
		var msg domain.ChatMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			c.logger.Warn("Dropping malformed message payload", "error", err)
			return
		}
		c.mu.Lock()
		c.messages = append(c.messages, msg)
		c.mu.Unlock()
		c.events <- Event{Kind: KindMessage, Message: &msg}

	case gateway.EventUserConnected, gateway.EventUserDisconnected,
		gateway.EventUserTyping, gateway.EventUserStopTyping:
		var user gateway.UserEventPayload
		if err := json.Unmarshal(env.Data, &user); err != nil {
			c.logger.Warn("Dropping malformed user event payload", "error", err)
			return
		}
		c.events <- Event{Kind: kindForUserEvent(env.Event), User: &user}

	case gateway.EventError:
		var errEvent gateway.ErrorPayload
		if err := json.Unmarshal(env.Data, &errEvent); err != nil {
			c.logger.Warn("Dropping malformed error payload", "error", err)
			return
		}
		c.events <- Event{Kind: KindError, Err: errEvent.Message}

	default:
		c.logger.Debug("Ignoring unknown server event", "event", env.Event)
	}
}

func kindForUserEvent(event string) EventKind {
	switch event {
	case gateway.EventUserConnected:
		return KindConnected
	case gateway.EventUserDisconnected:
		return KindDisconnected
	case gateway.EventUserTyping:
		return KindTyping
	default:
		return KindStopTyping
	}
}

func (c *Controller) emitTyping(started bool) {
	event := gateway.EventStopTyping
	if started {
		event = gateway.EventTyping
	}
	if err := c.writeEvent(event, nil); err != nil {
		c.logger.Warn("Failed to send typing event", "event", event, "error", err)
	}
}

func (c *Controller) writeEvent(event string, data any) error {
	payload, err := gateway.Encode(event, data)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *Controller) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = err
	}
}
