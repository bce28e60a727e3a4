package promotion

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	xerrors "tiffin-promotions/internal/pkg/errors"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldViolation names the field and the rule it broke.
type FieldViolation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError is returned when a promotion fails one or more rules.
type ValidationError struct {
	Violations []FieldViolation `json:"violations"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return xerrors.ErrInvalidInput
}

func (e *ValidationError) add(field, rule, message string) {
	e.Violations = append(e.Violations, FieldViolation{Field: field, Rule: rule, Message: message})
}

// HasField reports whether any violation concerns field.
func (e *ValidationError) HasField(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

// NewValidationError builds a single-violation error, used by callers that check
// inputs outside the entity (query parameters, status updates).
func NewValidationError(field, rule, message string) *ValidationError {
	e := &ValidationError{}
	e.add(field, rule, message)
	return e
}

// Validate checks field constraints and the category/payload pairing. It never
// modifies p.
func Validate(p *Promotion) error {
	verr := &ValidationError{}

	if err := validate.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate promotion: %w", err)
		}
		for _, fe := range fieldErrs {
			verr.add(fieldPath(fe), fe.Tag(), tagMessage(fe))
		}
	}

	validatePayload(p, verr)

	if p.StartAt != nil && p.EndAt != nil && !p.StartAt.Before(*p.EndAt) {
		verr.add("start_at", "before_end_at", "start_at must be before end_at")
	}

	if len(verr.Violations) > 0 {
		return verr
	}
	return nil
}

func validatePayload(p *Promotion, verr *ValidationError) {
	switch p.Category {
	case CategoryFreeItem:
		if p.FreeItemSubType == "" {
			verr.add("free_item_sub_type", "required_for_category", "free_item_sub_type is required for free_item promotions")
		}
	case CategoryPercentOff:
		if p.PercentOff == nil {
			verr.add("percent_off", "required_for_category", "percent_off is required for percent_off promotions")
		} else if *p.PercentOff < 1 || *p.PercentOff > 100 {
			verr.add("percent_off", "range", "percent_off must be between 1 and 100")
		}
	case CategoryAmountOff:
		if p.AmountOffCents == nil {
			verr.add("amount_off_cents", "required_for_category", "amount_off_cents is required for amount_off promotions")
		} else if *p.AmountOffCents <= 0 {
			verr.add("amount_off_cents", "gt", "amount_off_cents must be greater than 0")
		}
	case CategoryReferral:
		if p.Referral == nil {
			verr.add("referral", "required_for_category", "referral is required for referral promotions")
		} else {
			validateReferral(p.Referral, verr)
		}
	default:
		// Unknown categories are already reported by the struct tags.
		return
	}

	if p.Category != CategoryFreeItem && p.FreeItemSubType != "" {
		verr.add("free_item_sub_type", "excluded_for_category", "free_item_sub_type is only allowed for free_item promotions")
	}
	if p.Category != CategoryPercentOff && p.PercentOff != nil {
		verr.add("percent_off", "excluded_for_category", "percent_off is only allowed for percent_off promotions")
	}
	if p.Category != CategoryAmountOff && p.AmountOffCents != nil {
		verr.add("amount_off_cents", "excluded_for_category", "amount_off_cents is only allowed for amount_off promotions")
	}
	if p.Category != CategoryReferral && p.Referral != nil {
		verr.add("referral", "excluded_for_category", "referral is only allowed for referral promotions")
	}
}

func validateReferral(r *ReferralConfig, verr *ValidationError) {
	switch r.RewardType {
	case RewardPercentOff, RewardAmountOff:
		if r.RewardValue == nil {
			verr.add("referral.reward_value", "required_for_reward_type", "reward_value is required for percent_off and amount_off rewards")
		} else if *r.RewardValue <= 0 {
			verr.add("referral.reward_value", "gt", "reward_value must be greater than 0")
		}
	case RewardFreeItem:
		if r.FreeItemSubType == "" {
			verr.add("referral.free_item_sub_type", "required_for_reward_type", "free_item_sub_type is required for free_item rewards")
		}
	}
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	default:
		return fmt.Sprintf("failed %s rule", fe.Tag())
	}
}
