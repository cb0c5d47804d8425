package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/mfuentes/plaza/internal/domain"
)

// Event names exchanged over the channel. Client-to-gateway events use the
// short names; gateway-to-client notifications are prefixed with user_.
const (
	// client -> gateway
	EventChatMessage = "chat_message"
	EventTyping      = "typing"
	EventStopTyping  = "stop_typing"

	// gateway -> client
	EventMessageHistory   = "message_history"
	EventUserConnected    = "user_connected"
	EventUserDisconnected = "user_disconnected"
	EventUserTyping       = "user_typing"
	EventUserStopTyping   = "user_stop_typing"
	EventError            = "error"
)

// CloseReasonAuth is the close reason sent when a handshake fails
// authentication. The connection never reaches Admitted.
const CloseReasonAuth = "authentication_error"

// Envelope is the wire format for every event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SendMessagePayload is the client payload for chat_message. Any identity
// fields a client attaches are ignored; the gateway fills them from the
// connection's verified identity.
type SendMessagePayload struct {
	Text string `json:"text"`
}

// UserEventPayload accompanies user_connected, user_disconnected, user_typing
// and user_stop_typing.
type UserEventPayload struct {
	Username string `json:"username"`
	UserID   string `json:"userId"`
}

// ErrorPayload accompanies error events sent to a single connection.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Encode marshals an event into its envelope wire form.
func Encode(event string, data any) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", event, err)
		}
		raw = b
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// userEvent builds the payload broadcast for a connection lifecycle or typing
// notification.
func userEvent(id domain.Identity) UserEventPayload {
	return UserEventPayload{Username: id.Username, UserID: id.ID}
}
