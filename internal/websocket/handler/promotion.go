// internal/websocket/handler/promotion.go
package handler

import (
	"context"
	"fmt"

	"tiffin-promotions/internal/domain/promotion"
	wstypes "tiffin-promotions/internal/domain/websocket"
	ws "tiffin-promotions/internal/websocket"
)

type StatsProvider interface {
	GetPromotionStats(ctx context.Context) (*promotion.Stats, error)
}

// PromotionHandler answers promotion:stats so a dashboard can refresh its summary
// tiles after reconnecting without a REST round trip.
type PromotionHandler struct {
	stats StatsProvider
}

func NewPromotionHandler(stats StatsProvider) *PromotionHandler {
	return &PromotionHandler{stats: stats}
}

func (h *PromotionHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{wstypes.EventTypePromotionStats}
}

func (h *PromotionHandler) HandleMessage(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	switch msg.Type {
	case wstypes.EventTypePromotionStats:
		stats, err := h.stats.GetPromotionStats(ctx)
		if err != nil {
			return fmt.Errorf("failed to load promotion stats: %w", err)
		}
		reply := wstypes.NewMessage(wstypes.EventTypePromotionStats, stats)
		reply.Metadata = map[string]any{"request_id": msg.ID}
		client.SendMessage(reply)
		return nil
	default:
		return fmt.Errorf("unsupported event: %s", msg.Type)
	}
}
