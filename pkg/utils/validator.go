package utils

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest amount accepted from callers, in major units
var MaxAmount = decimal.New(1, 12)

// MaxQuantity is the largest line-item quantity accepted from callers
const MaxQuantity = 1_000_000

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// ValidateAmount rejects negative amounts and amounts above MaxAmount
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("amount must not be negative: %s", amount.StringFixed(2))
	}

	if amount.GreaterThan(MaxAmount) {
		return fmt.Errorf("amount exceeds maximum limit: %s", amount.StringFixed(2))
	}

	return nil
}

// ValidateQuantity rejects negative, non-finite and oversized quantities
func ValidateQuantity(quantity float64) error {
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return fmt.Errorf("quantity must be a finite number")
	}
	if quantity < 0 {
		return fmt.Errorf("quantity must not be negative: %v", quantity)
	}
	if quantity > MaxQuantity {
		return fmt.Errorf("quantity exceeds maximum limit: %v", quantity)
	}
	return nil
}

// SanitizeString removes control characters and surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}
