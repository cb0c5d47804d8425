package gateway

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mfuentes/plaza/internal/pubsub"
)

// Broadcaster is the bus-side half of the gateway: it subscribes to the chat
// topics and fans each event out through the connection registry. Keeping
// fan-out behind the bus means anything in the process can emit a chat event
// without holding a reference to live connections.
type Broadcaster struct {
	subscriber pubsub.Subscriber
	registry   *Registry
	logger     *slog.Logger
}

// NewBroadcaster creates a Broadcaster for the given registry.
func NewBroadcaster(sub pubsub.Subscriber, registry *Registry) *Broadcaster {
	return &Broadcaster{
		subscriber: sub,
		registry:   registry,
		logger:     slog.Default().With("service", "broadcaster"),
	}
}

// Start subscribes to all chat topics. Subscriptions live until ctx is
// canceled.
func (b *Broadcaster) Start(ctx context.Context) error {
	routes := map[string]string{
		TopicMessageCreated:   EventChatMessage,
		TopicUserConnected:    EventUserConnected,
		TopicUserDisconnected: EventUserDisconnected,
		TopicTypingStarted:    EventUserTyping,
		TopicTypingStopped:    EventUserStopTyping,
	}

	for topic, event := range routes {
		if err := b.subscriber.Subscribe(ctx, topic, b.forward(event)); err != nil {
			return err
		}
	}

	b.logger.Info("Broadcaster subscriptions active")
	return nil
}

// forward wraps a bus payload in the wire envelope for the given event and
// broadcasts it, honoring the exclude metadata set by the originator.
func (b *Broadcaster) forward(event string) pubsub.Handler {
	return func(ctx context.Context, msg pubsub.Message) error {
		payload, err := json.Marshal(Envelope{Event: event, Data: json.RawMessage(msg.Payload)})
		if err != nil {
			return err
		}

		if exclude := msg.Metadata[MetaExcludeConn]; exclude != "" {
			b.registry.Broadcast(payload, exclude)
		} else {
			b.registry.Broadcast(payload)
		}
		return nil
	}
}
