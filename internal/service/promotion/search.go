// internal/service/promotion/search.go
package promotion

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"tiffin-promotions/internal/domain/promotion"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type comparator func(a, b *promotion.Promotion) int

var sortComparators = map[string]comparator{
	"id":                 func(a, b *promotion.Promotion) int { return strings.Compare(a.ID, b.ID) },
	"name":               func(a, b *promotion.Promotion) int { return strings.Compare(a.Name, b.Name) },
	"code":               func(a, b *promotion.Promotion) int { return compareOptionalString(a.Code, b.Code) },
	"description":        func(a, b *promotion.Promotion) int { return compareOptionalString(a.Description, b.Description) },
	"category":           func(a, b *promotion.Promotion) int { return strings.Compare(string(a.Category), string(b.Category)) },
	"free_item_sub_type": func(a, b *promotion.Promotion) int { return compareOptionalString(string(a.FreeItemSubType), string(b.FreeItemSubType)) },
	"status":             func(a, b *promotion.Promotion) int { return strings.Compare(string(a.Status), string(b.Status)) },
	"percent_off":        func(a, b *promotion.Promotion) int { return compareIntPtr(a.PercentOff, b.PercentOff) },
	"amount_off_cents":   func(a, b *promotion.Promotion) int { return compareIntPtr(a.AmountOffCents, b.AmountOffCents) },
	"max_redemptions":    func(a, b *promotion.Promotion) int { return compareIntPtr(a.MaxRedemptions, b.MaxRedemptions) },
	"per_user_limit":     func(a, b *promotion.Promotion) int { return compareIntPtr(a.PerUserLimit, b.PerUserLimit) },
	"start_at":           func(a, b *promotion.Promotion) int { return compareTimePtr(a.StartAt, b.StartAt) },
	"end_at":             func(a, b *promotion.Promotion) int { return compareTimePtr(a.EndAt, b.EndAt) },
	"created_at":         func(a, b *promotion.Promotion) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updated_at":         func(a, b *promotion.Promotion) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

// camelCase names the dashboard sends
var sortAliases = map[string]string{
	"freeItemSubType": "free_item_sub_type",
	"percentOff":      "percent_off",
	"amountOffCents":  "amount_off_cents",
	"maxRedemptions":  "max_redemptions",
	"perUserLimit":    "per_user_limit",
	"startAt":         "start_at",
	"endAt":           "end_at",
	"createdAt":       "created_at",
	"updatedAt":       "updated_at",
}

// NormalizeQuery clamps pagination and rejects unknown enum values, sort fields
// and inverted date ranges.
func NormalizeQuery(q promotion.SearchQuery) (promotion.SearchQuery, error) {
	q.Search = strings.TrimSpace(q.Search)

	if q.Page < 1 {
		q.Page = 1
	}
	switch {
	case q.PageSize <= 0:
		q.PageSize = DefaultPageSize
	case q.PageSize > MaxPageSize:
		q.PageSize = MaxPageSize
	}

	for _, s := range q.Statuses {
		if !s.Valid() {
			return q, promotion.NewValidationError("status", "oneof", "unknown status "+string(s))
		}
	}
	for _, c := range q.Categories {
		if !c.Valid() {
			return q, promotion.NewValidationError("category", "oneof", "unknown category "+string(c))
		}
	}
	for _, st := range q.FreeItemSubTypes {
		if !st.Valid() {
			return q, promotion.NewValidationError("free_item_sub_type", "oneof", "unknown free item sub type "+string(st))
		}
	}

	if q.DateRange != nil {
		r := q.DateRange
		if r.Start == nil && r.End == nil {
			q.DateRange = nil
		} else if r.Start != nil && r.End != nil && r.Start.After(*r.End) {
			return q, promotion.NewValidationError("date_range", "ordered", "start date must not be after end date")
		}
	}

	if q.Sort != "" {
		field, desc := parseSort(q.Sort)
		if _, ok := sortComparators[field]; !ok {
			return q, promotion.NewValidationError("sort", "sortable", "cannot sort by "+strings.TrimPrefix(q.Sort, "-"))
		}
		q.Sort = field
		if desc {
			q.Sort = "-" + field
		}
	}

	return q, nil
}

// Search answers a composite query over items as of now. Filters run in a fixed
// order (text, effective status, category, sub type, date range), all AND-combined;
// values inside one filter are OR-combined. The matches are then stably sorted
// and paginated. items is not modified.
func Search(items []*promotion.Promotion, q promotion.SearchQuery, now time.Time) (*promotion.PageEnvelope, error) {
	q, err := NormalizeQuery(q)
	if err != nil {
		return nil, err
	}

	matched := make([]*promotion.Promotion, 0, len(items))
	for _, p := range items {
		if !matchesSearch(p, q.Search) {
			continue
		}
		resolved := p.WithEffectiveStatus(now)
		if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, resolved.Status) {
			continue
		}
		if len(q.Categories) > 0 && !slices.Contains(q.Categories, resolved.Category) {
			continue
		}
		if len(q.FreeItemSubTypes) > 0 && !slices.Contains(q.FreeItemSubTypes, resolved.FreeItemSubType) {
			continue
		}
		if q.DateRange != nil && !overlaps(resolved, q.DateRange) {
			continue
		}
		matched = append(matched, resolved)
	}

	if q.Sort != "" {
		field, desc := parseSort(q.Sort)
		less := sortComparators[field]
		if desc {
			slices.SortStableFunc(matched, func(a, b *promotion.Promotion) int { return less(b, a) })
		} else {
			slices.SortStableFunc(matched, less)
		}
	}

	return paginate(matched, q.Page, q.PageSize), nil
}

func matchesSearch(p *promotion.Promotion, term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Code), term) ||
		strings.Contains(strings.ToLower(p.Description), term)
}

// overlaps treats a missing bound on either side as unbounded, so a promotion
// without a window always passes.
func overlaps(p *promotion.Promotion, r *promotion.DateRange) bool {
	if p.StartAt != nil && r.End != nil && p.StartAt.After(*r.End) {
		return false
	}
	if p.EndAt != nil && r.Start != nil && p.EndAt.Before(*r.Start) {
		return false
	}
	return true
}

func paginate(matched []*promotion.Promotion, page, pageSize int) *promotion.PageEnvelope {
	total := len(matched)
	env := &promotion.PageEnvelope{
		Items:      []*promotion.Promotion{},
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}

	// Compare pages before multiplying so a huge page number cannot overflow.
	if page > env.TotalPages {
		return env
	}
	start := (page - 1) * pageSize
	end := min(start+pageSize, total)
	env.Items = matched[start:end]
	return env
}

func parseSort(raw string) (field string, desc bool) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "-") {
		desc = true
		raw = raw[1:]
	}
	if alias, ok := sortAliases[raw]; ok {
		raw = alias
	}
	return raw, desc
}

// Empty strings count as absent and sort first.
func compareOptionalString(a, b string) int {
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	case b == "":
		return 1
	}
	return strings.Compare(a, b)
}

func compareIntPtr(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return cmp.Compare(*a, *b)
}

func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}
