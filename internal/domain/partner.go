package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DiscountRule is a partner's default discount with its plan exclusions.
// Exclusion patterns are matched as case-insensitive substrings of the
// plan name; a match suppresses the discount for that plan entirely.
type DiscountRule struct {
	Percentage decimal.Decimal `json:"percentage"`
	Exclusions []string        `json:"exclude_plans_containing"`
}

// Partner is a commercial counterparty with its commission and discount
// configuration. Codes are alias identifiers (channel manager codes etc.)
// that resolve to the same partner.
type Partner struct {
	Name            string          `json:"name"`
	Codes           []string        `json:"codes"`
	Commission      decimal.Decimal `json:"commission"`
	DefaultDiscount DiscountRule    `json:"default_discount"`
}

// Matches reports whether the identifier is the partner's primary name or
// one of its alias codes. Matching is case-insensitive.
func (p *Partner) Matches(identifier string) bool {
	if strings.EqualFold(p.Name, identifier) {
		return true
	}
	for _, code := range p.Codes {
		if strings.EqualFold(code, identifier) {
			return true
		}
	}
	return false
}
