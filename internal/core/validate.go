package core

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxDescriptionLength is the longest accepted description, in characters.
const MaxDescriptionLength = 500

// Violation messages reported by Validate.
const (
	MsgAmountNotPositive = "amount must be a positive number"
	MsgAmountTooLarge    = "amount seems unreasonably large"
	MsgCategoryRequired  = "category is required"
	MsgDescRequired      = "description is required"
	MsgDescTooLong       = "description must be 500 characters or less"
	MsgDateRequired      = "date is required"
	MsgDateInvalid       = "date must be a valid YYYY-MM-DD"
)

// Limits are the product-policy bounds on an expense amount. An amount must
// be strictly greater than Min and at most Max.
type Limits struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// DefaultLimits returns the stock bounds: (0, 10,000,000].
func DefaultLimits() Limits {
	return Limits{
		Min: decimal.Zero,
		Max: decimal.NewFromInt(10_000_000),
	}
}

// ParseLimits builds Limits from decimal strings.
func ParseLimits(min, max string) (Limits, error) {
	lo, err := decimal.NewFromString(strings.TrimSpace(min))
	if err != nil {
		return Limits{}, fmt.Errorf("parse minimum amount %q: %w", min, err)
	}
	hi, err := decimal.NewFromString(strings.TrimSpace(max))
	if err != nil {
		return Limits{}, fmt.Errorf("parse maximum amount %q: %w", max, err)
	}
	if !hi.GreaterThan(lo) {
		return Limits{}, fmt.Errorf("maximum amount %s must be greater than minimum %s", hi, lo)
	}
	return Limits{Min: lo, Max: hi}, nil
}

// Validator checks candidate expenses against field rules.
type Validator struct {
	limits Limits
}

// NewValidator returns a validator enforcing the given amount limits.
func NewValidator(limits Limits) *Validator {
	return &Validator{limits: limits}
}

// Validate evaluates every rule and returns all violations in a stable
// order. An empty result means the input is valid.
func (v *Validator) Validate(in ExpenseInput) []string {
	var errs []string

	amount, err := ParseAmount(in.Amount)
	if err != nil {
		// A non-numeric amount is reported once.
		errs = append(errs, MsgAmountNotPositive)
	} else {
		// An amount too large for int64 minor units is left to the Max rule.
		minor, convErr := decimalToMinor(amount)
		if !amount.GreaterThan(v.limits.Min) || (convErr == nil && minor <= 0) {
			errs = append(errs, MsgAmountNotPositive)
		}
		if amount.GreaterThan(v.limits.Max) {
			errs = append(errs, MsgAmountTooLarge)
		}
	}

	if strings.TrimSpace(in.Category) == "" {
		errs = append(errs, MsgCategoryRequired)
	}
	if strings.TrimSpace(in.Description) == "" {
		errs = append(errs, MsgDescRequired)
	}
	if utf8.RuneCountInString(in.Description) > MaxDescriptionLength {
		errs = append(errs, MsgDescTooLong)
	}

	if in.Date == "" {
		errs = append(errs, MsgDateRequired)
	} else if _, err := ParseDate(in.Date); err != nil {
		errs = append(errs, MsgDateInvalid)
	}

	return errs
}
