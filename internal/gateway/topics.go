package gateway

// Bus topics the gateway publishes to. The broadcaster subscribes to these and
// fans the events out through the connection registry, keeping persistence and
// delivery decoupled the same way the HTTP layer is decoupled from storage.
const (
	TopicMessageCreated   = "chat.message.created"
	TopicUserConnected    = "chat.user.connected"
	TopicUserDisconnected = "chat.user.disconnected"
	TopicTypingStarted    = "chat.typing.started"
	TopicTypingStopped    = "chat.typing.stopped"
)

// Metadata keys attached to bus messages.
const (
	// MetaExcludeConn names a connection id that must not receive the
	// resulting broadcast (the originator of typing/lifecycle events).
	MetaExcludeConn = "exclude_conn"

	// MetaConnID carries the originating connection id for presence tracking.
	MetaConnID = "conn_id"
)
