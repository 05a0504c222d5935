package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Tier resolves a unit name against the medicine's packaging tiers.
// Matching is case-insensitive; unit names in the wild arrive as "BOX",
// "box", and "Box" for the same tier.
func (m *Medicine) Tier(unitName string) (UnitTier, bool) {
	for _, t := range m.Units {
		if strings.EqualFold(t.Name, unitName) {
			return t, true
		}
	}
	return UnitTier{}, false
}

// BaseUnit returns the medicine's first tier. Tier lists are validated at
// registration, so a medicine always has at least one tier.
func (m *Medicine) BaseUnit() UnitTier {
	return m.Units[0]
}

// ToBaseUnits converts qty expressed in unitName to base units.
// The result is exact: qty × ratioToBase with decimal arithmetic.
func ToBaseUnits(m *Medicine, qty decimal.Decimal, unitName string) (decimal.Decimal, error) {
	tier, ok := m.Tier(unitName)
	if !ok {
		return decimal.Zero, E(KindUnknownUnit, "unknown unit %q for medicine %s (%s)", unitName, m.Barcode, m.Name)
	}
	return qty.Mul(tier.RatioToBase), nil
}

// FromBaseUnits converts a base-unit quantity into unitName for display.
// The conversion is lossy when baseQty is not a multiple of the tier ratio
// (7 TAB shown in BOX-of-100 is 0.07); it round-trips exactly otherwise.
func FromBaseUnits(m *Medicine, baseQty decimal.Decimal, unitName string) (decimal.Decimal, error) {
	tier, ok := m.Tier(unitName)
	if !ok {
		return decimal.Zero, E(KindUnknownUnit, "unknown unit %q for medicine %s (%s)", unitName, m.Barcode, m.Name)
	}
	return baseQty.Div(tier.RatioToBase), nil
}

// ValidateTiers checks a tier list at registration time: at least one tier,
// tier 1 ratio exactly 1, ratios strictly increasing, names non-blank and
// unique within the medicine. A declared tier without a positive ratio is
// rejected rather than defaulted.
func ValidateTiers(tiers []UnitTier) error {
	if len(tiers) == 0 {
		return E(KindValidation, "medicine must declare at least one packaging unit")
	}
	if !tiers[0].RatioToBase.Equal(decimal.NewFromInt(1)) {
		return E(KindValidation, "first unit %q must have ratio 1, got %s", tiers[0].Name, tiers[0].RatioToBase)
	}
	seen := make(map[string]bool, len(tiers))
	prev := decimal.Zero
	for i, t := range tiers {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return E(KindValidation, "unit tier %d has a blank name", i+1)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return E(KindValidation, "duplicate unit name %q", t.Name)
		}
		seen[key] = true
		if !t.RatioToBase.IsPositive() {
			return E(KindValidation, "unit %q must have a positive ratio to the base unit", t.Name)
		}
		if t.RatioToBase.LessThanOrEqual(prev) {
			return E(KindValidation, "unit ratios must be strictly increasing: %q has ratio %s after %s",
				t.Name, t.RatioToBase, prev)
		}
		prev = t.RatioToBase
	}
	return nil
}
