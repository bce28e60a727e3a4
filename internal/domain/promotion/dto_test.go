package promotion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPromotionTrimsAndDefaultsToDraft(t *testing.T) {
	req := &CreatePromotionRequest{
		Name:        "  Festive  ",
		Code:        " FEST ",
		Description: "\tdesc\n",
		Category:    CategoryPercentOff,
		PercentOff:  intp(20),
	}

	p := req.ToPromotion()
	assert.Equal(t, "Festive", p.Name)
	assert.Equal(t, "FEST", p.Code)
	assert.Equal(t, "desc", p.Description)
	assert.Equal(t, StatusDraft, p.Status)

	*req.PercentOff = 50
	assert.Equal(t, 20, *p.PercentOff)
}

func TestApplyToMergesOnlyProvidedFields(t *testing.T) {
	p := validPercentOff()
	p.Code = "KEEP"
	name := " Renamed "

	require.NoError(t, (&UpdatePromotionRequest{Name: &name}).ApplyTo(p))
	assert.Equal(t, "Renamed", p.Name)
	assert.Equal(t, "KEEP", p.Code)
	assert.Equal(t, 10, *p.PercentOff)
}

func TestApplyToCategorySwitchDropsOldPayload(t *testing.T) {
	p := validPercentOff()
	cat := CategoryFreeItem
	sub := FreeItemSnack

	require.NoError(t, (&UpdatePromotionRequest{Category: &cat, FreeItemSubType: &sub}).ApplyTo(p))
	assert.Equal(t, CategoryFreeItem, p.Category)
	assert.Nil(t, p.PercentOff)
	assert.Equal(t, FreeItemSnack, p.FreeItemSubType)
	assert.NoError(t, Validate(p))
}

func TestApplyToSameCategoryKeepsPayload(t *testing.T) {
	p := validPercentOff()
	cat := CategoryPercentOff

	require.NoError(t, (&UpdatePromotionRequest{Category: &cat}).ApplyTo(p))
	assert.Equal(t, 10, *p.PercentOff)
}

func TestApplyToClearFields(t *testing.T) {
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	p := validPercentOff()
	p.Code = "CODE"
	p.StartAt = &start
	p.MaxRedemptions = intp(5)

	req := &UpdatePromotionRequest{ClearFields: []string{FieldCode, FieldStartAt, FieldMaxRedemptions}}
	require.NoError(t, req.ApplyTo(p))
	assert.Empty(t, p.Code)
	assert.Nil(t, p.StartAt)
	assert.Nil(t, p.MaxRedemptions)
}

func TestApplyToRejectsUnknownClearField(t *testing.T) {
	p := validPercentOff()

	err := (&UpdatePromotionRequest{ClearFields: []string{"name"}}).ApplyTo(p)
	requireViolation(t, err, "clear_fields", "clearable")
}
