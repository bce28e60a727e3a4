// internal/domain/promotion/dto.go
package promotion

import (
	"strings"
	"time"
)

type CreatePromotionRequest struct {
	Name        string   `json:"name"`
	Code        string   `json:"code"`
	Description string   `json:"description"`
	Category    Category `json:"category"`

	// Category payload
	FreeItemSubType FreeItemSubType `json:"free_item_sub_type"`
	PercentOff      *int            `json:"percent_off"`
	AmountOffCents  *int            `json:"amount_off_cents"`
	Referral        *ReferralConfig `json:"referral"`

	// Window
	StartAt *time.Time `json:"start_at"`
	EndAt   *time.Time `json:"end_at"`

	// Caps
	MaxRedemptions *int `json:"max_redemptions"`
	PerUserLimit   *int `json:"per_user_limit"`

	// Defaults to draft.
	Status Status `json:"status"`
}

// Fields that UpdatePromotionRequest.ClearFields may null out.
const (
	FieldCode           = "code"
	FieldDescription    = "description"
	FieldStartAt        = "start_at"
	FieldEndAt          = "end_at"
	FieldMaxRedemptions = "max_redemptions"
	FieldPerUserLimit   = "per_user_limit"
)

// UpdatePromotionRequest is a partial update: nil fields keep their current value.
// The id is never taken from the body.
type UpdatePromotionRequest struct {
	Name        *string   `json:"name"`
	Code        *string   `json:"code"`
	Description *string   `json:"description"`
	Category    *Category `json:"category"`

	// Category payload
	FreeItemSubType *FreeItemSubType `json:"free_item_sub_type"`
	PercentOff      *int             `json:"percent_off"`
	AmountOffCents  *int             `json:"amount_off_cents"`
	Referral        *ReferralConfig  `json:"referral"`

	// Window
	StartAt *time.Time `json:"start_at"`
	EndAt   *time.Time `json:"end_at"`

	// Caps
	MaxRedemptions *int `json:"max_redemptions"`
	PerUserLimit   *int `json:"per_user_limit"`

	Status *Status `json:"status"`

	ClearFields []string `json:"clear_fields"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status"`
}

// ToPromotion builds an unsaved promotion from the request with text fields trimmed.
func (r *CreatePromotionRequest) ToPromotion() *Promotion {
	p := &Promotion{
		Name:            strings.TrimSpace(r.Name),
		Code:            strings.TrimSpace(r.Code),
		Description:     strings.TrimSpace(r.Description),
		Category:        r.Category,
		FreeItemSubType: r.FreeItemSubType,
		PercentOff:      cloneInt(r.PercentOff),
		AmountOffCents:  cloneInt(r.AmountOffCents),
		StartAt:         cloneTime(r.StartAt),
		EndAt:           cloneTime(r.EndAt),
		MaxRedemptions:  cloneInt(r.MaxRedemptions),
		PerUserLimit:    cloneInt(r.PerUserLimit),
		Referral:        cloneReferral(r.Referral),
		Status:          r.Status,
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	return p
}

// ApplyTo shallow-merges the request onto p. Switching category drops the payload
// of the previous category before the new payload is applied.
func (r *UpdatePromotionRequest) ApplyTo(p *Promotion) error {
	for _, f := range r.ClearFields {
		switch f {
		case FieldCode:
			p.Code = ""
		case FieldDescription:
			p.Description = ""
		case FieldStartAt:
			p.StartAt = nil
		case FieldEndAt:
			p.EndAt = nil
		case FieldMaxRedemptions:
			p.MaxRedemptions = nil
		case FieldPerUserLimit:
			p.PerUserLimit = nil
		default:
			return NewValidationError("clear_fields", "clearable", "field "+f+" cannot be cleared")
		}
	}

	if r.Name != nil {
		p.Name = strings.TrimSpace(*r.Name)
	}
	if r.Code != nil {
		p.Code = strings.TrimSpace(*r.Code)
	}
	if r.Description != nil {
		p.Description = strings.TrimSpace(*r.Description)
	}
	if r.Category != nil && *r.Category != p.Category {
		p.Category = *r.Category
		p.FreeItemSubType = ""
		p.PercentOff = nil
		p.AmountOffCents = nil
		p.Referral = nil
	}
	if r.FreeItemSubType != nil {
		p.FreeItemSubType = *r.FreeItemSubType
	}
	if r.PercentOff != nil {
		p.PercentOff = cloneInt(r.PercentOff)
	}
	if r.AmountOffCents != nil {
		p.AmountOffCents = cloneInt(r.AmountOffCents)
	}
	if r.Referral != nil {
		p.Referral = cloneReferral(r.Referral)
	}
	if r.StartAt != nil {
		p.StartAt = cloneTime(r.StartAt)
	}
	if r.EndAt != nil {
		p.EndAt = cloneTime(r.EndAt)
	}
	if r.MaxRedemptions != nil {
		p.MaxRedemptions = cloneInt(r.MaxRedemptions)
	}
	if r.PerUserLimit != nil {
		p.PerUserLimit = cloneInt(r.PerUserLimit)
	}
	if r.Status != nil {
		p.Status = *r.Status
	}
	return nil
}

// DateRange bounds are inclusive; a nil bound is open.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

type SearchQuery struct {
	Search           string
	Statuses         []Status
	Categories       []Category
	FreeItemSubTypes []FreeItemSubType
	DateRange        *DateRange
	Sort             string
	Page             int
	PageSize         int
}

// PageEnvelope is the paginated search response.
type PageEnvelope struct {
	Items      []*Promotion `json:"items"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
}
