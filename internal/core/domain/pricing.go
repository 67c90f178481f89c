package domain

import (
	"strconv"
	"strings"
)

// PriceNotAvailable is shown whenever a per-unit price cannot be
// resolved from the tier list.
const PriceNotAvailable = "N/A"

// A TierPrice is the outcome of resolving a quantity against a tier
// list. ContactOffice is set when no tier matches or the matching
// tier's price is not numeric.
type TierPrice struct {
	Amount        float64
	ContactOffice bool
}

func contactOffice() TierPrice {
	return TierPrice{ContactOffice: true}
}

// Display formats the per-unit price for the storefront.
func (p TierPrice) Display() string {
	if p.ContactOffice {
		return PriceNotAvailable
	}
	return strconv.FormatFloat(p.Amount, 'f', 2, 64)
}

// ResolveTier selects the per-unit price for qty cases following the
// order of the caller-supplied tier list. Quantities outside every
// defined range, unparsable range labels, and non-numeric prices all
// degrade to the contact-office sentinel.
func ResolveTier(tiers []PricingTier, qty int) TierPrice {
	if qty < 1 {
		return contactOffice()
	}

	for _, t := range tiers {
		lo, hi, ok := parseCaseRange(t.CaseRange)
		if !ok || qty < lo || (hi > 0 && qty > hi) {
			continue
		}
		perUnit, err := strconv.ParseFloat(strings.TrimSpace(t.PricePerUnit), 64)
		if err != nil {
			return contactOffice()
		}
		return TierPrice{Amount: perUnit}
	}
	return contactOffice()
}

// BaselineTier resolves the first tier of the list, which catalog
// pages display as the plain per-case price.
func BaselineTier(tiers []PricingTier) TierPrice {
	if len(tiers) == 0 {
		return contactOffice()
	}
	perUnit, err := strconv.ParseFloat(
		strings.TrimSpace(tiers[0].PricePerUnit), 64,
	)
	if err != nil {
		return contactOffice()
	}
	return TierPrice{Amount: perUnit}
}

// parseCaseRange understands the label forms the catalog uses:
// "1 to 5", "6-50" and the open-ended "51+". hi == 0 means unbounded.
func parseCaseRange(label string) (lo, hi int, ok bool) {
	s := strings.ToLower(strings.TrimSpace(label))
	if s == "" {
		return 0, 0, false
	}

	if rest, found := strings.CutSuffix(s, "+"); found {
		lo, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			return 0, 0, false
		}
		return lo, 0, true
	}

	var parts []string
	switch {
	case strings.Contains(s, " to "):
		parts = strings.SplitN(s, " to ", 2)
	case strings.Contains(s, "-"):
		parts = strings.SplitN(s, "-", 2)
	default:
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, false
		}
		return n, n, true
	}

	lo, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	hi, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	if hi < lo {
		return 0, 0, false
	}
	return lo, hi, true
}

// Price resolves the line's effective per-unit price from its cached
// tier list.
func (l CartLine) Price() TierPrice {
	return ResolveTier(l.Pricing, l.Quantity)
}

// Total is the line's extended price: cases times units per case
// times the resolved per-unit price.
func (l CartLine) Total() TierPrice {
	p := l.Price()
	if p.ContactOffice {
		return p
	}
	return TierPrice{Amount: p.Amount * float64(l.Quantity) * float64(l.PcsPerCase)}
}

// Total sums the priced lines of the cart. The second result is false
// when any line resolved to the contact-office sentinel, in which
// case the sum covers only the priced lines.
func (ls CartLines) Total() (float64, bool) {
	var sum float64
	allPriced := true
	for _, l := range ls {
		t := l.Total()
		if t.ContactOffice {
			allPriced = false
			continue
		}
		sum += t.Amount
	}
	return sum, allPriced
}
