package presence

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mfuentes/plaza/internal/gateway"
	"github.com/mfuentes/plaza/internal/pubsub"
)

// entry is the per-connection state the tracker keeps while a connection is
// admitted. Nothing here is persisted; a restart starts from empty.
type entry struct {
	UserID      string
	Username    string
	ConnectedAt time.Time
}

// Tracker is the in-memory presence and typing state for the chat. It feeds
// off the gateway's bus topics, so it observes exactly the lifecycle the
// broadcaster fans out to clients.
type Tracker struct {
	mu     sync.RWMutex
	conns  map[string]entry    // connection id -> entry
	typing map[string]struct{} // user ids currently flagged as typing
	logger *slog.Logger
}

// Snapshot is the externally visible presence state.
type Snapshot struct {
	Online []string `json:"online"`
	Typing []string `json:"typing"`
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		conns:  make(map[string]entry),
		typing: make(map[string]struct{}),
		logger: slog.Default().With("service", "presence"),
	}
}

// Start subscribes the tracker to the gateway lifecycle and typing topics.
func (t *Tracker) Start(ctx context.Context, sub pubsub.Subscriber) error {
	subs := map[string]pubsub.Handler{
		gateway.TopicUserConnected:    t.handleConnected,
		gateway.TopicUserDisconnected: t.handleDisconnected,
		gateway.TopicTypingStarted:    t.handleTyping(true),
		gateway.TopicTypingStopped:    t.handleTyping(false),
	}
	for topic, handler := range subs {
		if err := sub.Subscribe(ctx, topic, handler); err != nil {
			return err
		}
	}
	t.logger.Info("Presence tracker subscriptions active")
	return nil
}

func (t *Tracker) handleConnected(ctx context.Context, msg pubsub.Message) error {
	var event gateway.UserEventPayload
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		t.logger.Error("Failed to unmarshal connect event", "error", err)
		return err
	}

	connID := msg.Metadata[gateway.MetaConnID]
	if connID == "" {
		// Without a connection id there is nothing to key the entry on.
		t.logger.Warn("Connect event without connection id", "userID", event.UserID)
		return nil
	}

	t.mu.Lock()
	t.conns[connID] = entry{
		UserID:      event.UserID,
		Username:    event.Username,
		ConnectedAt: time.Now().UTC(),
	}
	total := len(t.conns)
	t.mu.Unlock()

	t.logger.Info("User came online", "userID", event.UserID, "username", event.Username, "total_connections", total)
	return nil
}

func (t *Tracker) handleDisconnected(ctx context.Context, msg pubsub.Message) error {
	var event gateway.UserEventPayload
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		t.logger.Error("Failed to unmarshal disconnect event", "error", err)
		return err
	}

	connID := msg.Metadata[gateway.MetaConnID]

	t.mu.Lock()
	delete(t.conns, connID)
	// Typing state dies with the user's last connection.
	if !t.onlineLocked(event.UserID) {
		delete(t.typing, event.UserID)
	}
	t.mu.Unlock()

	t.logger.Info("User went offline", "userID", event.UserID, "username", event.Username)
	return nil
}

func (t *Tracker) handleTyping(started bool) pubsub.Handler {
	return func(ctx context.Context, msg pubsub.Message) error {
		var event gateway.UserEventPayload
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			t.logger.Error("Failed to unmarshal typing event", "error", err)
			return err
		}

		t.mu.Lock()
		if started {
			t.typing[event.UserID] = struct{}{}
		} else {
			delete(t.typing, event.UserID)
		}
		t.mu.Unlock()
		return nil
	}
}

// Online returns the sorted ids of users with at least one admitted
// connection.
func (t *Tracker) Online() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	seen := make(map[string]struct{}, len(t.conns))
	for _, e := range t.conns {
		seen[e.UserID] = struct{}{}
	}
	return sortedKeys(seen)
}

// Typing returns the sorted ids of users currently flagged as typing.
func (t *Tracker) Typing() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return sortedKeys(t.typing)
}

// IsOnline reports whether the user has at least one admitted connection.
func (t *Tracker) IsOnline(userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.onlineLocked(userID)
}

// Snapshot returns the current presence state in one consistent read.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	seen := make(map[string]struct{}, len(t.conns))
	for _, e := range t.conns {
		seen[e.UserID] = struct{}{}
	}
	return Snapshot{
		Online: sortedKeys(seen),
		Typing: sortedKeys(t.typing),
	}
}

func (t *Tracker) onlineLocked(userID string) bool {
	for _, e := range t.conns {
		if e.UserID == userID {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
