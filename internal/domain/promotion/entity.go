// internal/domain/promotion/entity.go
package promotion

import "time"

type Category string

const (
	CategoryFreeItem   Category = "free_item"
	CategoryPercentOff Category = "percent_off"
	CategoryAmountOff  Category = "amount_off"
	CategoryReferral   Category = "referral"
)

type FreeItemSubType string

const (
	FreeItemDrink FreeItemSubType = "drink"
	FreeItemSnack FreeItemSubType = "snack"
	FreeItemSweet FreeItemSubType = "sweet"
)

type RewardType string

const (
	RewardPercentOff RewardType = "percent_off"
	RewardAmountOff  RewardType = "amount_off"
	RewardFreeItem   RewardType = "free_item"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusPaused    Status = "paused"
)

var (
	Categories       = []Category{CategoryFreeItem, CategoryPercentOff, CategoryAmountOff, CategoryReferral}
	FreeItemSubTypes = []FreeItemSubType{FreeItemDrink, FreeItemSnack, FreeItemSweet}
	Statuses         = []Status{StatusDraft, StatusScheduled, StatusActive, StatusExpired, StatusPaused}
)

func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

func (s FreeItemSubType) Valid() bool {
	for _, v := range FreeItemSubTypes {
		if v == s {
			return true
		}
	}
	return false
}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// ReferralConfig is the payload of a referral promotion.
type ReferralConfig struct {
	RewardType      RewardType      `json:"reward_type" validate:"required,oneof=percent_off amount_off free_item"`
	RewardValue     *int            `json:"reward_value,omitempty"`
	FreeItemSubType FreeItemSubType `json:"free_item_sub_type,omitempty" validate:"omitempty,oneof=drink snack sweet"`
	MaxPerReferrer  *int            `json:"max_per_referrer,omitempty" validate:"omitempty,min=1"`
	AutoApprove     *bool           `json:"auto_approve,omitempty"`
}

type Promotion struct {
	ID          string   `json:"id"`
	Name        string   `json:"name" validate:"required,max=100"`
	Code        string   `json:"code,omitempty" validate:"max=20"`
	Description string   `json:"description,omitempty" validate:"max=500"`
	Category    Category `json:"category" validate:"required,oneof=free_item percent_off amount_off referral"`

	// Category payloads; exactly one is set, matching Category.
	FreeItemSubType FreeItemSubType `json:"free_item_sub_type,omitempty" validate:"omitempty,oneof=drink snack sweet"`
	PercentOff      *int            `json:"percent_off,omitempty"`
	AmountOffCents  *int            `json:"amount_off_cents,omitempty"`
	Referral        *ReferralConfig `json:"referral,omitempty"`

	// Window
	StartAt *time.Time `json:"start_at,omitempty"`
	EndAt   *time.Time `json:"end_at,omitempty"`

	// Caps are recorded but redemptions are not counted here.
	MaxRedemptions *int `json:"max_redemptions,omitempty" validate:"omitempty,min=1"`
	PerUserLimit   *int `json:"per_user_limit,omitempty" validate:"omitempty,min=1"`

	Status Status `json:"status" validate:"required,oneof=draft scheduled active expired paused"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy so callers never share pointers with a store.
func (p *Promotion) Clone() *Promotion {
	if p == nil {
		return nil
	}
	c := *p
	c.PercentOff = cloneInt(p.PercentOff)
	c.AmountOffCents = cloneInt(p.AmountOffCents)
	c.MaxRedemptions = cloneInt(p.MaxRedemptions)
	c.PerUserLimit = cloneInt(p.PerUserLimit)
	c.StartAt = cloneTime(p.StartAt)
	c.EndAt = cloneTime(p.EndAt)
	c.Referral = cloneReferral(p.Referral)
	return &c
}

// WithEffectiveStatus returns a copy whose Status is the resolved status at now.
func (p *Promotion) WithEffectiveStatus(now time.Time) *Promotion {
	c := p.Clone()
	c.Status = ResolveStatus(p.Status, p.StartAt, p.EndAt, now)
	return c
}

type Stats struct {
	Total      int64              `json:"total"`
	ByStatus   map[Status]int64   `json:"by_status"`
	ByCategory map[Category]int64 `json:"by_category"`
}

func cloneReferral(r *ReferralConfig) *ReferralConfig {
	if r == nil {
		return nil
	}
	c := *r
	c.RewardValue = cloneInt(r.RewardValue)
	c.MaxPerReferrer = cloneInt(r.MaxPerReferrer)
	if r.AutoApprove != nil {
		v := *r.AutoApprove
		c.AutoApprove = &v
	}
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
