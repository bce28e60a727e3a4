// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"

	"tiffin-promotions/internal/domain/promotion"
	wstypes "tiffin-promotions/internal/domain/websocket"

	"go.uber.org/zap"
)

type Hub struct {
	// Registered clients by token subject
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	done       chan struct{}

	handlerRegistry *HandlerRegistry
	logger          *zap.Logger
}

type BroadcastMessage struct {
	// Subjects limits delivery; nil means every client.
	Subjects []string
	Channel  wstypes.ChannelType
	Message  *wstypes.WSMessage
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:         make(map[string]map[*Client]bool),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		broadcast:       make(chan *BroadcastMessage, 256),
		done:            make(chan struct{}),
		handlerRegistry: NewHandlerRegistry(),
		logger:          logger,
	}
}

// RegisterHandler registers a message handler
func (h *Hub) RegisterHandler(handler MessageHandler) {
	h.handlerRegistry.Register(handler)
}

// HandleClientMessage dispatches msg to a registered handler. It reports false
// when no handler claims the event type.
func (h *Hub) HandleClientMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) (bool, error) {
	handler, exists := h.handlerRegistry.GetHandler(msg.Type)
	if !exists {
		return false, nil
	}
	return true, handler.HandleMessage(ctx, client, msg)
}

// Register hands a new client to the run loop.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister removes a client; it is a no-op once the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	subject := client.Subject()
	if h.clients[subject] == nil {
		h.clients[subject] = make(map[*Client]bool)
	}
	h.clients[subject][client] = true
	total := h.totalClients()
	h.mu.Unlock()

	h.logger.Info("websocket client connected",
		zap.String("subject", subject),
		zap.Int("total", total),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]any{
		"subject":  subject,
		"roles":    client.auth.Roles,
		"channels": []wstypes.ChannelType{wstypes.ChannelPromotions},
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subject := client.Subject()
	clients, ok := h.clients[subject]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}

	delete(clients, client)
	client.Close()
	if len(clients) == 0 {
		delete(h.clients, subject)
	}

	h.logger.Info("websocket client disconnected",
		zap.String("subject", subject),
		zap.Int("total", h.totalClients()),
	)
}

func (h *Hub) BroadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	deliver := func(clients map[*Client]bool) {
		for client := range clients {
			if client.IsSubscribed(msg.Channel) {
				client.SendMessage(msg.Message)
			}
		}
	}

	if msg.Subjects == nil {
		for _, clients := range h.clients {
			deliver(clients)
		}
		return
	}
	for _, subject := range msg.Subjects {
		deliver(h.clients[subject])
	}
}

// NotifyPromotionChange fans a promotion change out to every dashboard on the
// promotions channel. Events are dropped, not queued, when the hub is saturated.
func (h *Hub) NotifyPromotionChange(event promotion.ChangeEvent) {
	msg := wstypes.NewMessage(eventTypeFor(event.Kind), event)
	select {
	case h.broadcast <- &BroadcastMessage{Channel: wstypes.ChannelPromotions, Message: msg}:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping event",
			zap.String("kind", string(event.Kind)),
			zap.String("promotion_id", event.PromotionID),
		)
	}
}

func (h *Hub) ConnectedClients(subject string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[subject])
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for subject, clients := range h.clients {
		for client := range clients {
			client.SendMessage(wstypes.NewMessage(wstypes.EventTypeDisconnected, map[string]any{
				"reason": "server shutting down",
			}))
			client.Close()
		}
		delete(h.clients, subject)
	}
}

func eventTypeFor(kind promotion.ChangeKind) wstypes.EventType {
	switch kind {
	case promotion.ChangeCreated:
		return wstypes.EventTypePromotionCreated
	case promotion.ChangeStatusChanged:
		return wstypes.EventTypePromotionStatusChanged
	case promotion.ChangeDeleted:
		return wstypes.EventTypePromotionDeleted
	default:
		return wstypes.EventTypePromotionUpdated
	}
}
