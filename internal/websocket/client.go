// internal/websocket/client.go
package websocket

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	wstypes "tiffin-promotions/internal/domain/websocket"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// ClientAuth is the identity established by the HTTP auth middleware before the
// connection was upgraded.
type ClientAuth struct {
	Subject     string
	TokenID     string
	Email       string
	Roles       []string
	Permissions []string
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	auth ClientAuth

	subscriptions map[wstypes.ChannelType]bool
	subMutex      sync.RWMutex

	// guards send against use after close
	mu     sync.Mutex
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewClient creates a client subscribed to the promotions channel.
func NewClient(hub *Hub, conn *websocket.Conn, auth ClientAuth) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan []byte, sendBuffer),
		auth:          auth,
		subscriptions: map[wstypes.ChannelType]bool{wstypes.ChannelPromotions: true},
		ctx:           ctx,
		cancel:        cancel,
	}
}

func (c *Client) Subject() string {
	return c.auth.Subject
}

func (c *Client) HasRole(role string) bool {
	return slices.Contains(c.auth.Roles, role)
}

// Subscribe adds channel; the system channel is reserved for admins.
func (c *Client) Subscribe(channel wstypes.ChannelType) bool {
	switch channel {
	case wstypes.ChannelPromotions:
	case wstypes.ChannelSystem:
		if !c.HasRole("admin") && !c.HasRole("super_admin") {
			return false
		}
	default:
		return false
	}

	c.subMutex.Lock()
	defer c.subMutex.Unlock()
	c.subscriptions[channel] = true
	return true
}

func (c *Client) Unsubscribe(channel wstypes.ChannelType) {
	c.subMutex.Lock()
	defer c.subMutex.Unlock()
	delete(c.subscriptions, channel)
}

func (c *Client) IsSubscribed(channel wstypes.ChannelType) bool {
	c.subMutex.RLock()
	defer c.subMutex.RUnlock()
	return c.subscriptions[channel]
}

// ReadPump handles incoming messages from client
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read error", zap.String("subject", c.auth.Subject), zap.Error(err))
			}
			return
		}
		if c.ctx.Err() != nil {
			return
		}

		c.handleMessage(message)
	}
}

// WritePump handles outgoing messages to client
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	msg, err := wstypes.ParseMessage(data)
	if err != nil {
		c.SendError("invalid_message", "Failed to parse message", err.Error())
		return
	}

	handled, err := c.hub.HandleClientMessage(c.ctx, c, msg)
	if err != nil {
		c.SendError("handler_error", "Failed to process message", err.Error())
		return
	}
	if handled {
		return
	}

	switch msg.Type {
	case wstypes.EventTypePing:
		c.SendMessage(wstypes.NewMessage(wstypes.EventTypePong, nil))

	case wstypes.EventTypeSubscribe:
		var req wstypes.SubscribeRequest
		if err := decodeData(msg.Data, &req); err != nil {
			c.SendError("invalid_subscribe", "Invalid subscribe request", err.Error())
			return
		}
		granted := make([]wstypes.ChannelType, 0, len(req.Channels))
		for _, channel := range req.Channels {
			if c.Subscribe(channel) {
				granted = append(granted, channel)
			}
		}
		c.SendMessage(wstypes.NewMessage(wstypes.EventTypeSubscribe, map[string]any{
			"channels": granted,
			"status":   "subscribed",
		}))

	case wstypes.EventTypeUnsubscribe:
		var req wstypes.UnsubscribeRequest
		if err := decodeData(msg.Data, &req); err != nil {
			c.SendError("invalid_unsubscribe", "Invalid unsubscribe request", err.Error())
			return
		}
		for _, channel := range req.Channels {
			c.Unsubscribe(channel)
		}
		c.SendMessage(wstypes.NewMessage(wstypes.EventTypeUnsubscribe, map[string]any{
			"channels": req.Channels,
			"status":   "unsubscribed",
		}))

	default:
		c.SendError("unknown_event", "Unsupported message type", string(msg.Type))
	}
}

// SendMessage queues msg for the write pump. A client whose buffer is full is
// closed rather than allowed to stall broadcasts.
func (c *Client) SendMessage(msg *wstypes.WSMessage) {
	data, err := msg.ToJSON()
	if err != nil {
		c.hub.logger.Error("failed to marshal websocket message", zap.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		c.hub.logger.Warn("websocket client too slow, closing", zap.String("subject", c.auth.Subject))
		c.closeLocked()
	}
}

// SendError sends an error message to the client
func (c *Client) SendError(code, message, details string) {
	c.SendMessage(wstypes.NewMessage(wstypes.EventTypeError, wstypes.ErrorData{
		Code:    code,
		Message: message,
		Details: details,
	}))
}

// Close stops the client. It is safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	close(c.send)
}

// decodeData converts a generic message payload into target.
func decodeData(data any, target any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}
