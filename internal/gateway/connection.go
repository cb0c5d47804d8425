package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/mfuentes/plaza/internal/domain"
)

// State models the admission lifecycle of a single connection. Transitions are
// strictly forward: Pending -> Authenticating -> Admitted -> Closed, with
// Closed reachable from any earlier state.
type State int32

const (
	StatePending State = iota
	StateAuthenticating
	StateAdmitted
	StateClosed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAuthenticating:
		return "authenticating"
	case StateAdmitted:
		return "admitted"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Outbound buffer per connection. A connection that falls this far behind
	// a broadcast stream is evicted rather than allowed to stall everyone.
	sendBufferSize = 256
)

// Connection is one admitted real-time session. It is owned exclusively by
// the gateway for its lifetime and carries the identity bound at admission;
// nothing about it survives a disconnect.
type Connection struct {
	ID          string
	Identity    domain.Identity
	ConnectedAt time.Time

	conn *websocket.Conn
	send chan []byte

	mu    sync.Mutex
	state State
}

func newConnection(id string, ws *websocket.Conn) *Connection {
	return &Connection{
		ID:    id,
		conn:  ws,
		send:  make(chan []byte, sendBufferSize),
		state: StatePending,
	}
}

// transition advances the connection state machine, rejecting any move that
// is not a legal forward step.
func (c *Connection) transition(from, to State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != from {
		return fmt.Errorf("illegal transition %s -> %s (current state %s)", from, to, c.state)
	}
	if to < c.state {
		return fmt.Errorf("illegal backwards transition %s -> %s", c.state, to)
	}
	c.state = to
	return nil
}

// close moves the connection to Closed from whatever state it is in.
// It is safe to call more than once.
func (c *Connection) close() {
	c.mu.Lock()
	c.state = StateClosed
	c.mu.Unlock()
}

// State returns the connection's current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// admit binds the verified identity and moves the connection to Admitted.
func (c *Connection) admit(id domain.Identity) error {
	if err := c.transition(StateAuthenticating, StateAdmitted); err != nil {
		return err
	}
	c.mu.Lock()
	c.Identity = id
	c.ConnectedAt = time.Now().UTC()
	c.mu.Unlock()
	return nil
}

// enqueue places a payload on the connection's outbound buffer. It reports
// false when the buffer is full, which the caller treats as a dead client.
func (c *Connection) enqueue(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// writePump pumps messages from the send channel to the WebSocket connection.
// It exits when the registry closes the channel or a write fails.
func (c *Connection) writePump() {
	defer c.conn.Close(websocket.StatusNormalClosure, "server-side cleanup")

	for {
		payload, ok := <-c.send
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		err := c.conn.Write(ctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			slog.Error("WebSocket write error", "connID", c.ID, "userID", c.Identity.ID, "error", err)
			return
		}
	}
}
