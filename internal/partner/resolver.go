// Package partner resolves partner identifiers and evaluates the
// discount rules attached to a partner's configuration.
package partner

import (
	"strings"

	"github.com/hotelrm/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

// Resolver looks up partners within one snapshot's configuration.
type Resolver struct {
	partners []*domain.Partner
}

func NewResolver(partners []*domain.Partner) *Resolver {
	return &Resolver{partners: partners}
}

// Resolve finds a partner by primary name or alias code. Primary names
// win over alias codes when both match different partners.
func (r *Resolver) Resolve(identifier string) (*domain.Partner, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, &domain.ValidationError{Field: "partner", Reason: "must not be empty"}
	}

	for _, p := range r.partners {
		if strings.EqualFold(p.Name, identifier) {
			return p, nil
		}
	}
	for _, p := range r.partners {
		if p.Matches(identifier) {
			return p, nil
		}
	}
	return nil, &domain.NotFoundError{Resource: "partner", Key: identifier}
}

// EffectiveDiscount returns the discount percentage the partner grants on
// a plan: zero when the plan name contains any exclusion pattern
// (case-insensitive substring), otherwise the partner's default.
func EffectiveDiscount(p *domain.Partner, planName string) decimal.Decimal {
	lowered := strings.ToLower(planName)
	for _, pattern := range p.DefaultDiscount.Exclusions {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}
		if strings.Contains(lowered, pattern) {
			return decimal.Zero
		}
	}
	return p.DefaultDiscount.Percentage
}

// CompatiblePlans filters a room's plan names down to the ones matching
// any of the partner's alias codes (case-insensitive substring). When no
// plan matches, all plans are returned so the caller still has a usable
// list to pick from.
func CompatiblePlans(p *domain.Partner, planNames []string) []string {
	if len(p.Codes) == 0 {
		return planNames
	}

	matched := make([]string, 0, len(planNames))
	for _, name := range planNames {
		lowered := strings.ToLower(name)
		for _, code := range p.Codes {
			if code == "" {
				continue
			}
			if strings.Contains(lowered, strings.ToLower(code)) {
				matched = append(matched, name)
				break
			}
		}
	}
	if len(matched) == 0 {
		return planNames
	}
	return matched
}
