// internal/websocket/handler.go
package websocket

import (
	"context"

	wstypes "tiffin-promotions/internal/domain/websocket"
)

// MessageHandler answers client requests for one area of the dashboard.
type MessageHandler interface {
	HandleMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) error
	SupportedEvents() []wstypes.EventType
}

// HandlerRegistry maps event types to handlers. It is populated before the hub
// starts and read-only afterwards.
type HandlerRegistry struct {
	handlers map[wstypes.EventType]MessageHandler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[wstypes.EventType]MessageHandler),
	}
}

func (r *HandlerRegistry) Register(handler MessageHandler) {
	for _, eventType := range handler.SupportedEvents() {
		r.handlers[eventType] = handler
	}
}

func (r *HandlerRegistry) GetHandler(eventType wstypes.EventType) (MessageHandler, bool) {
	handler, exists := r.handlers[eventType]
	return handler, exists
}
