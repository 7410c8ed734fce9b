package vat

import "golang.org/x/text/language"

// Countries is a read-only country code reference set.
type Countries interface {
	Contains(code string) bool
}

// ISOCountries returns the ISO-3166-1 alpha-2 reference set backed by the CLDR
// region data shipped with golang.org/x/text. Only upper-case two letter codes of
// countries and autonomous areas are members; groupings such as EU, private use
// codes and aliases such as UK or EL are not.
func ISOCountries() Countries {
	return isoCountries{}
}

type isoCountries struct{}

func (isoCountries) Contains(code string) bool {
	if !isTwoUpperLetters(code) {
		return false
	}

	region, err := language.ParseRegion(code)
	if err != nil {
		return false
	}

	// ParseRegion canonicalizes deprecated codes, so compare the round trip.
	return region.String() == code && region.IsCountry()
}

// CountrySet is a fixed set of country codes.
type CountrySet map[string]struct{}

// NewCountrySet builds a CountrySet from the given codes.
func NewCountrySet(codes ...string) CountrySet {
	set := make(CountrySet, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}
	return set
}

func (s CountrySet) Contains(code string) bool {
	_, ok := s[code]
	return ok
}

func isTwoUpperLetters(s string) bool {
	if len(s) != 2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}
