// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType represents different real-time event types
type EventType string

const (
	// Connection events
	EventTypePing         EventType = "ping"
	EventTypePong         EventType = "pong"
	EventTypeConnected    EventType = "connected"
	EventTypeDisconnected EventType = "disconnected"
	EventTypeError        EventType = "error"

	// Promotion events (server -> client)
	EventTypePromotionCreated       EventType = "promotion:created"
	EventTypePromotionUpdated       EventType = "promotion:updated"
	EventTypePromotionStatusChanged EventType = "promotion:status_changed"
	EventTypePromotionDeleted       EventType = "promotion:deleted"

	// Promotion requests (client -> server)
	EventTypePromotionStats EventType = "promotion:stats"

	// Subscription events
	EventTypeSubscribe   EventType = "subscribe"
	EventTypeUnsubscribe EventType = "unsubscribe"
)

// WSMessage is the universal message format
type WSMessage struct {
	Type      EventType      `json:"type"`
	Data      any            `json:"data,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	ID        string         `json:"id,omitempty"`
}

// Subscription channels that clients can subscribe to
type ChannelType string

const (
	ChannelPromotions ChannelType = "promotions"
	ChannelSystem     ChannelType = "system"
)

// SubscribeRequest sent by client to subscribe to specific channels
type SubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

// UnsubscribeRequest sent by client to unsubscribe from channels
type UnsubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

// ErrorData for error events
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func NewMessage(eventType EventType, data any) *WSMessage {
	return &WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
		ID:        ulid.Make().String(),
	}
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
