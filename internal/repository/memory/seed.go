package memory

import (
	"time"

	"tiffin-promotions/internal/domain/promotion"
)

// DefaultSeed returns the example promotions loaded at startup when seeding is
// enabled. Windows are relative to now so the set always covers every status.
func DefaultSeed(now time.Time, ids promotion.IDGenerator) []*promotion.Promotion {
	now = now.UTC()
	day := 24 * time.Hour

	at := func(d time.Duration) *time.Time {
		t := now.Add(d)
		return &t
	}
	intp := func(v int) *int { return &v }
	boolp := func(v bool) *bool { return &v }

	seed := []*promotion.Promotion{
		{
			Name:            "Free masala chai with lunch",
			Code:            "CHAI4U",
			Description:     "A free drink with every lunch tiffin this month.",
			Category:        promotion.CategoryFreeItem,
			FreeItemSubType: promotion.FreeItemDrink,
			StartAt:         at(-7 * day),
			EndAt:           at(21 * day),
			PerUserLimit:    intp(1),
			Status:          promotion.StatusActive,
		},
		{
			Name:           "Festive 20% off",
			Code:           "FEST20",
			Description:    "Twenty percent off weekly plans during the festival week.",
			Category:       promotion.CategoryPercentOff,
			PercentOff:     intp(20),
			StartAt:        at(10 * day),
			EndAt:          at(17 * day),
			MaxRedemptions: intp(500),
			Status:         promotion.StatusScheduled,
		},
		{
			Name:           "Flat 50 off first order",
			Code:           "WELCOME50",
			Description:    "Flat discount for a customer's first subscription order.",
			Category:       promotion.CategoryAmountOff,
			AmountOffCents: intp(5000),
			PerUserLimit:   intp(1),
			Status:         promotion.StatusActive,
		},
		{
			Name:            "Monsoon sweet treat",
			Code:            "RAINYDAY",
			Description:     "Complimentary sweet with dinner during the monsoon.",
			Category:        promotion.CategoryFreeItem,
			FreeItemSubType: promotion.FreeItemSweet,
			StartAt:         at(-60 * day),
			EndAt:           at(-30 * day),
			Status:          promotion.StatusActive,
		},
		{
			Name:        "Refer a friend",
			Code:        "REFER10",
			Description: "Both friends get ten percent off their next week.",
			Category:    promotion.CategoryReferral,
			Referral: &promotion.ReferralConfig{
				RewardType:     promotion.RewardPercentOff,
				RewardValue:    intp(10),
				MaxPerReferrer: intp(5),
				AutoApprove:    boolp(true),
			},
			Status: promotion.StatusActive,
		},
		{
			Name:            "Evening snack box",
			Code:            "SNACKBOX",
			Description:     "Free samosa with evening deliveries.",
			Category:        promotion.CategoryFreeItem,
			FreeItemSubType: promotion.FreeItemSnack,
			StartAt:         at(-3 * day),
			EndAt:           at(30 * day),
			Status:          promotion.StatusPaused,
		},
		{
			Name:       "Weekend combo (draft)",
			Category:   promotion.CategoryPercentOff,
			PercentOff: intp(15),
			Status:     promotion.StatusDraft,
		},
	}

	for i, p := range seed {
		p.ID = ids.NewID()
		// Keep created_at distinct and ordered so sorting by it is meaningful.
		p.CreatedAt = now.Add(time.Duration(i-len(seed)) * time.Hour)
		p.UpdatedAt = p.CreatedAt
		p.Status = promotion.ResolveStatus(p.Status, p.StartAt, p.EndAt, now)
	}
	return seed
}
