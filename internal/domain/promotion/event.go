package promotion

import "time"

// ChangeKind names what happened to a promotion.
type ChangeKind string

const (
	ChangeCreated       ChangeKind = "promotion:created"
	ChangeUpdated       ChangeKind = "promotion:updated"
	ChangeStatusChanged ChangeKind = "promotion:status_changed"
	ChangeDeleted       ChangeKind = "promotion:deleted"
)

// ChangeEvent is pushed to open dashboards after a successful write.
// Promotion is nil for deletions.
type ChangeEvent struct {
	Kind        ChangeKind `json:"kind"`
	PromotionID string     `json:"promotion_id"`
	Promotion   *Promotion `json:"promotion,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

// ChangeNotifier receives change events. Implementations must not block.
type ChangeNotifier interface {
	NotifyPromotionChange(event ChangeEvent)
}
