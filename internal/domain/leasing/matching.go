package leasing

import (
	"strings"

	"golang.org/x/text/cases"
)

// Rejection names the first filter an inquiry/property pair failed.
// The zero value means the pair qualifies.
type Rejection string

const (
	RejectNone        Rejection = ""
	RejectUnavailable Rejection = "property_unavailable"
	RejectType        Rejection = "listing_type"
	RejectInactive    Rejection = "inquiry_not_active"
	RejectCity        Rejection = "city"
	RejectDistrict    Rejection = "district"
	RejectBudget      Rejection = "budget"
)

// EvaluateMatch runs the filter conjunction for one pair, short-circuiting on the
// first failure. Order: availability, type, inquiry status, city, district, budget.
func EvaluateMatch(inq *Inquiry, p *Property) Rejection {
	switch {
	case !p.IsAvailable():
		return RejectUnavailable
	case inq.Type != p.ListingType:
		return RejectType
	case !inq.IsOpen():
		return RejectInactive
	case !locationMatches(inq.PreferredCity, p.City):
		return RejectCity
	case !locationMatches(inq.PreferredDistrict, p.District):
		return RejectDistrict
	case !budgetMatches(inq, p):
		return RejectBudget
	}
	return RejectNone
}

// Qualifies reports whether p satisfies every requirement of inq
func Qualifies(inq *Inquiry, p *Property) bool {
	return EvaluateMatch(inq, p) == RejectNone
}

// locationMatches treats an absent or blank preference as unconstrained; a set
// preference needs a non-blank property value equal to it ignoring case and
// surrounding whitespace.
func locationMatches(preferred, actual *string) bool {
	want, ok := trimmed(preferred)
	if !ok {
		return true
	}
	have, ok := trimmed(actual)
	if !ok {
		return false
	}
	// a Caser is stateful, so each comparison gets its own
	fold := cases.Fold()
	return fold.String(want) == fold.String(have)
}

func trimmed(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	v := strings.TrimSpace(*s)
	return v, v != ""
}

// budgetMatches checks the property's price for the inquiry type against [min, max].
// Either bound may be absent; a set bound with no property price never matches.
func budgetMatches(inq *Inquiry, p *Property) bool {
	min, max := inq.Budget()
	if min == nil && max == nil {
		return true
	}
	price := p.PriceFor(inq.Type)
	if price == nil {
		return false
	}
	if min != nil && price.LessThan(*min) {
		return false
	}
	if max != nil && price.GreaterThan(*max) {
		return false
	}
	return true
}
