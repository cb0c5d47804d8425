package presence_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mfuentes/plaza/internal/gateway"
	"github.com/mfuentes/plaza/internal/presence"
	"github.com/mfuentes/plaza/internal/pubsub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publishUserEvent(t *testing.T, bus *pubsub.WatermillBridge, topic, connID, userID, username string) {
	t.Helper()
	payload, err := json.Marshal(gateway.UserEventPayload{UserID: userID, Username: username})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), pubsub.Message{
		Topic:   topic,
		UserID:  userID,
		Payload: payload,
		Metadata: map[string]string{
			gateway.MetaConnID: connID,
		},
	}))
}

func setupTracker(t *testing.T) (*presence.Tracker, *pubsub.WatermillBridge) {
	t.Helper()
	bus := pubsub.NewWatermillBridge()
	tracker := presence.NewTracker()

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, tracker.Start(ctx, bus))
	t.Cleanup(func() {
		cancel()
		bus.Close()
	})
	return tracker, bus
}

func TestTracker_OnlineFollowsConnectionLifecycle(t *testing.T) {
	tracker, bus := setupTracker(t)

	publishUserEvent(t, bus, gateway.TopicUserConnected, "c1", "user:1", "maria")
	publishUserEvent(t, bus, gateway.TopicUserConnected, "c2", "user:2", "jorge")

	assert.Eventually(t, func() bool {
		return len(tracker.Online()) == 2
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"user:1", "user:2"}, tracker.Online())
	assert.True(t, tracker.IsOnline("user:1"))

	publishUserEvent(t, bus, gateway.TopicUserDisconnected, "c1", "user:1", "maria")

	assert.Eventually(t, func() bool {
		return !tracker.IsOnline("user:1")
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"user:2"}, tracker.Online())
}

func TestTracker_MultipleConnectionsPerUser(t *testing.T) {
	tracker, bus := setupTracker(t)

	// Same user from two tabs.
	publishUserEvent(t, bus, gateway.TopicUserConnected, "c1", "user:1", "maria")
	publishUserEvent(t, bus, gateway.TopicUserConnected, "c2", "user:1", "maria")

	assert.Eventually(t, func() bool {
		return tracker.IsOnline("user:1")
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"user:1"}, tracker.Online())

	// Dropping one tab keeps the user online.
	publishUserEvent(t, bus, gateway.TopicUserDisconnected, "c1", "user:1", "maria")
	time.Sleep(50 * time.Millisecond)
	assert.True(t, tracker.IsOnline("user:1"))

	// Dropping the last one takes them offline.
	publishUserEvent(t, bus, gateway.TopicUserDisconnected, "c2", "user:1", "maria")
	assert.Eventually(t, func() bool {
		return !tracker.IsOnline("user:1")
	}, time.Second, 10*time.Millisecond)
}

func TestTracker_TypingState(t *testing.T) {
	tracker, bus := setupTracker(t)

	publishUserEvent(t, bus, gateway.TopicUserConnected, "c1", "user:1", "maria")
	publishUserEvent(t, bus, gateway.TopicTypingStarted, "c1", "user:1", "maria")

	assert.Eventually(t, func() bool {
		return len(tracker.Typing()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"user:1"}, tracker.Typing())

	publishUserEvent(t, bus, gateway.TopicTypingStopped, "c1", "user:1", "maria")
	assert.Eventually(t, func() bool {
		return len(tracker.Typing()) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestTracker_TypingClearedOnLastDisconnect(t *testing.T) {
	tracker, bus := setupTracker(t)

	publishUserEvent(t, bus, gateway.TopicUserConnected, "c1", "user:1", "maria")
	publishUserEvent(t, bus, gateway.TopicTypingStarted, "c1", "user:1", "maria")

	assert.Eventually(t, func() bool {
		return len(tracker.Typing()) == 1
	}, time.Second, 10*time.Millisecond)

	// The user drops without ever sending stop_typing.
	publishUserEvent(t, bus, gateway.TopicUserDisconnected, "c1", "user:1", "maria")

	assert.Eventually(t, func() bool {
		return len(tracker.Typing()) == 0
	}, time.Second, 10*time.Millisecond)

	snapshot := tracker.Snapshot()
	assert.Empty(t, snapshot.Online)
	assert.Empty(t, snapshot.Typing)
}
