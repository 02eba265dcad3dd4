// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "CN"

// Normalizer canonicalizes phone numbers so that the same subscriber always
// produces the same lookup key regardless of spacing, dashes or country prefix.
type Normalizer struct {
	region      string
	countryCode int
}

// NewNormalizer creates a normalizer for the given ISO region (e.g. "CN").
func NewNormalizer(region string) *Normalizer {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = DefaultRegion
	}
	return &Normalizer{
		region:      region,
		countryCode: phonenumbers.GetCountryCodeForRegion(region),
	}
}

// Normalize returns domestic numbers as their national significant number and
// foreign numbers as E.164. Unparseable input is returned trimmed.
func (n *Normalizer) Normalize(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, n.region)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	if int(number.GetCountryCode()) == n.countryCode {
		return phonenumbers.GetNationalSignificantNumber(number)
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}
