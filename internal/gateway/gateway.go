package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/mfuentes/plaza/internal/domain"
	"github.com/mfuentes/plaza/internal/pubsub"
	"github.com/samber/lo"
)

// DefaultHistoryLimit caps the replay sent to a newly admitted connection.
const DefaultHistoryLimit = 50

// Gateway admits, authenticates and manages real-time connections. It is an
// in-flight router: the only message content it holds is what sits in
// per-connection outbound buffers, everything durable lives in the store.
type Gateway struct {
	verifier     domain.Verifier
	store        domain.MessageStore
	publisher    pubsub.Publisher
	registry     *Registry
	historyLimit int
	logger       *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHistoryLimit overrides the number of messages replayed on admission.
func WithHistoryLimit(n int) Option {
	return func(g *Gateway) {
		g.historyLimit = n
	}
}

// New creates a Gateway routing events between the registry, the message
// store and the pub/sub bus.
func New(verifier domain.Verifier, store domain.MessageStore, publisher pubsub.Publisher, registry *Registry, opts ...Option) *Gateway {
	g := &Gateway{
		verifier:     verifier,
		store:        store,
		publisher:    publisher,
		registry:     registry,
		historyLimit: DefaultHistoryLimit,
		logger:       slog.Default().With("service", "gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Registry exposes the connection registry, useful for admission checks in
// handlers and tests.
func (g *Gateway) Registry() *Registry {
	return g.registry
}

// Handler returns the echo handler that upgrades and serves one real-time
// connection for its whole lifetime.
func (g *Gateway) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		ws, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			InsecureSkipVerify: true, // In production, check origin.
		})
		if err != nil {
			g.logger.Error("Failed to upgrade connection to WebSocket", "error", err)
			return err
		}

		g.serve(c.Request(), ws)
		return nil
	}
}

// serve runs the admission state machine and then the event loop. It returns
// only when the connection is Closed.
func (g *Gateway) serve(r *http.Request, ws *websocket.Conn) {
	conn := newConnection(uuid.NewString(), ws)

	// Pre-admission hook: the credential is part of the handshake, never an
	// event. No event handler runs before verification succeeds.
	if err := conn.transition(StatePending, StateAuthenticating); err != nil {
		g.logger.Error("Connection state error", "connID", conn.ID, "error", err)
		ws.Close(websocket.StatusInternalError, "internal error")
		return
	}

	identity, err := g.verifier.Verify(r.Context(), bearerToken(r))
	if err != nil {
		g.logger.Info("Connection rejected", "connID", conn.ID, "error", err)
		conn.close()
		ws.Close(websocket.StatusPolicyViolation, CloseReasonAuth)
		return
	}

	if err := conn.admit(identity); err != nil {
		g.logger.Error("Connection state error", "connID", conn.ID, "error", err)
		ws.Close(websocket.StatusInternalError, "internal error")
		return
	}

	g.registry.Add(conn)
	go conn.writePump()

	g.logger.Info("User connected", "connID", conn.ID, "userID", identity.ID, "username", identity.Username)

	// Notify everyone else, then replay history to the newcomer. The two may
	// race; the history snapshot itself is always chronologically sorted.
	g.publishUserEvent(TopicUserConnected, conn)
	g.replayHistory(r.Context(), conn)

	g.readLoop(r.Context(), conn)
	g.disconnect(conn)
}

// readLoop dispatches incoming events until the connection drops. Events for
// one connection are handled serially; different connections interleave.
func (g *Gateway) readLoop(ctx context.Context, conn *Connection) {
	for {
		_, payload, err := conn.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				g.logger.Info("WebSocket closed normally by client", "connID", conn.ID, "userID", conn.Identity.ID)
			} else if err != io.EOF && ctx.Err() == nil {
				g.logger.Error("WebSocket read error", "connID", conn.ID, "userID", conn.Identity.ID, "error", err)
			}
			return
		}
		g.dispatch(ctx, conn, payload)
	}
}

// dispatch routes one client event. Malformed payloads are dropped; they must
// never take the gateway down.
func (g *Gateway) dispatch(ctx context.Context, conn *Connection, payload []byte) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		g.logger.Warn("Dropping malformed event payload", "connID", conn.ID, "error", err)
		return
	}

	switch env.Event {
	case EventChatMessage:
		var body SendMessagePayload
		if err := json.Unmarshal(env.Data, &body); err != nil {
			g.logger.Warn("Dropping malformed chat_message payload", "connID", conn.ID, "error", err)
			return
		}
		g.handleChatMessage(ctx, conn, body.Text)

	case EventTyping:
		g.publishUserEvent(TopicTypingStarted, conn)

	case EventStopTyping:
		g.publishUserEvent(TopicTypingStopped, conn)

	default:
		g.logger.Debug("Ignoring unknown event", "connID", conn.ID, "event", env.Event)
	}
}

// handleChatMessage validates, persists and then publishes one chat message.
// Broadcast never precedes successful persistence.
func (g *Gateway) handleChatMessage(ctx context.Context, conn *Connection, text string) {
	trimmed, err := domain.ValidateMessageText(text)
	if err != nil {
		g.logger.Debug("Rejecting invalid chat message", "connID", conn.ID, "userID", conn.Identity.ID, "error", err)
		g.sendError(conn, "Invalid message text")
		return
	}

	// Identity always comes from the connection binding, never the client.
	msg := domain.ChatMessage{
		Text:       trimmed,
		AuthorID:   conn.Identity.ID,
		AuthorName: conn.Identity.Username,
	}

	persisted, err := g.store.Append(ctx, msg)
	if err != nil {
		g.logger.Error("Failed to persist chat message", "connID", conn.ID, "userID", conn.Identity.ID, "error", err)
		g.sendError(conn, "Failed to send message")
		return
	}

	payload, err := json.Marshal(persisted)
	if err != nil {
		g.logger.Error("Failed to marshal persisted message", "connID", conn.ID, "error", err)
		g.sendError(conn, "Failed to send message")
		return
	}

	// Everyone gets the persisted message, sender included.
	if err := g.publisher.Publish(ctx, pubsub.Message{
		Topic:   TopicMessageCreated,
		UserID:  conn.Identity.ID,
		Payload: payload,
	}); err != nil {
		g.logger.Error("Failed to publish chat message", "connID", conn.ID, "error", err)
	}
}

// replayHistory sends the most recent messages, oldest first, exclusively to
// the newly admitted connection as a single message_history event.
func (g *Gateway) replayHistory(ctx context.Context, conn *Connection) {
	recent, err := g.store.Recent(ctx, g.historyLimit)
	if err != nil {
		g.logger.Error("Failed to load message history", "connID", conn.ID, "error", err)
		return
	}

	history := lo.Reverse(recent)
	payload, err := Encode(EventMessageHistory, history)
	if err != nil {
		g.logger.Error("Failed to encode message history", "connID", conn.ID, "error", err)
		return
	}
	g.registry.Send(conn.ID, payload)
}

// disconnect finishes a connection's lifecycle: Closed state, registry
// removal and a user_disconnected notification to everyone remaining.
func (g *Gateway) disconnect(conn *Connection) {
	conn.close()
	if !g.registry.Remove(conn.ID) {
		// Already evicted (slow client); the notification was still owed.
		g.logger.Debug("Connection already removed", "connID", conn.ID)
	}
	g.logger.Info("User disconnected", "connID", conn.ID, "userID", conn.Identity.ID, "username", conn.Identity.Username)
	g.publishUserEvent(TopicUserDisconnected, conn)
	conn.conn.Close(websocket.StatusNormalClosure, "disconnected")
}

// publishUserEvent emits a lifecycle or typing notification for a connection.
// The originating connection is excluded from the resulting broadcast.
func (g *Gateway) publishUserEvent(topic string, conn *Connection) {
	payload, err := json.Marshal(userEvent(conn.Identity))
	if err != nil {
		g.logger.Error("Failed to marshal user event", "topic", topic, "connID", conn.ID, "error", err)
		return
	}
	if err := g.publisher.Publish(context.Background(), pubsub.Message{
		Topic:   topic,
		UserID:  conn.Identity.ID,
		Payload: payload,
		Metadata: map[string]string{
			MetaExcludeConn: conn.ID,
			MetaConnID:      conn.ID,
		},
	}); err != nil {
		g.logger.Error("Failed to publish user event", "topic", topic, "connID", conn.ID, "error", err)
	}
}

// sendError delivers an error event to a single connection.
func (g *Gateway) sendError(conn *Connection, message string) {
	payload, err := Encode(EventError, ErrorPayload{Message: message})
	if err != nil {
		g.logger.Error("Failed to encode error event", "connID", conn.ID, "error", err)
		return
	}
	g.registry.Send(conn.ID, payload)
}

// bearerToken extracts the handshake credential: the Authorization header
// when present, else a token query parameter for browser WebSocket clients
// that cannot set headers.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get(echo.HeaderAuthorization); h != "" {
		if strings.HasPrefix(h, "Bearer ") {
			return strings.TrimPrefix(h, "Bearer ")
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
