package vat

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
)

// DefaultPatterns returns the built-in table of VAT number body patterns keyed by
// country code. Fragments describe the part after the country prefix and are not
// anchored. A fresh map is returned on every call, so callers may modify it freely
// before passing it to NewPatterns.
//
// EL is used for Greece as in VIES; GB, NO and CH are kept for non-EU VAT numbers.
func DefaultPatterns() map[string]string {
	return map[string]string{
		"AT": `U[A-Z\d]{8}`,
		"BE": `(0\d{9}|\d{10})`,
		"BG": `\d{9,10}`,
		"CY": `\d{8}[A-Z]`,
		"CZ": `\d{8,10}`,
		"DE": `\d{9}`,
		"DK": `(\d{2} ?){3}\d{2}`,
		"EE": `\d{9}`,
		"EL": `\d{9}`,
		"ES": `[A-Z]\d{7}[A-Z]|\d{8}[A-Z]|[A-Z]\d{8}`,
		"FI": `\d{8}`,
		"FR": `([A-Z]{2}|\d{2})\d{9}`,
		"GB": `\d{9}|\d{12}|(GD|HA)\d{3}`,
		"HR": `\d{11}`,
		"HU": `\d{8}`,
		"IE": `[A-Z\d]{8}|[A-Z\d]{9}`,
		"IT": `\d{11}`,
		"LT": `(\d{9}|\d{12})`,
		"LU": `\d{8}`,
		"LV": `\d{11}`,
		"MT": `\d{8}`,
		"NL": `\d{9}B\d{2}`,
		"PL": `\d{10}`,
		"PT": `\d{9}`,
		"RO": `\d{2,10}`,
		"SE": `\d{12}`,
		"SI": `\d{8}`,
		"SK": `\d{10}`,
		"NO": `\d{9}(\S+)?`,
		"CH": `(E\d{9}(TVA|MWST|IVA)?|^\d{6})`,
	}
}

// Patterns maps country codes to the expected shape of the VAT number body.
//
// Fragments are stored exactly as registered. The matcher built for a fragment
// anchors it at both ends, so a body only matches when the whole string fits.
//
// Patterns is safe for concurrent Matches, Pattern and CountryCodes calls once
// configuration is finished. SetPattern and Merge must not run concurrently
// with any other method.
type Patterns struct {
	fragments map[string]string
	matchers  map[string]*regexp.Regexp
}

// NewPatterns builds a pattern table from the given country code to fragment
// mapping. It fails with ErrInvalidPattern on the first fragment that does not
// compile. A nil or empty map yields an empty table.
func NewPatterns(patterns map[string]string) (*Patterns, error) {
	p := &Patterns{
		fragments: make(map[string]string, len(patterns)),
		matchers:  make(map[string]*regexp.Regexp, len(patterns)),
	}

	// Sorted iteration keeps the reported error stable across runs.
	for _, code := range slices.Sorted(maps.Keys(patterns)) {
		if err := p.SetPattern(code, patterns[code]); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// MustNewPatterns is like NewPatterns but panics on a malformed fragment.
func MustNewPatterns(patterns map[string]string) *Patterns {
	p, err := NewPatterns(patterns)
	if err != nil {
		panic(err)
	}
	return p
}

// Matches reports whether number matches the pattern registered for countryCode.
// Unknown country codes never match. The comparison is case-sensitive.
func (p *Patterns) Matches(countryCode, number string) bool {
	re, ok := p.matchers[countryCode]
	if !ok {
		return false
	}
	return re.MatchString(number)
}

// SetPattern registers or replaces the pattern for countryCode.
// The fragment must not be anchored; anchoring is applied by the matcher.
// A fragment that does not compile is rejected and the table stays unchanged.
func (p *Patterns) SetPattern(countryCode, pattern string) error {
	if countryCode == "" {
		return ErrEmptyCountryCode
	}

	re, err := compileAnchored(pattern)
	if err != nil {
		return fmt.Errorf("%w for %s: %w", ErrInvalidPattern, countryCode, err)
	}

	p.fragments[countryCode] = pattern
	p.matchers[countryCode] = re
	return nil
}

// Merge applies SetPattern for every entry, stopping at the first failure.
// Entries applied before the failure are kept.
func (p *Patterns) Merge(overrides map[string]string) error {
	for _, code := range slices.Sorted(maps.Keys(overrides)) {
		if err := p.SetPattern(code, overrides[code]); err != nil {
			return err
		}
	}
	return nil
}

// Pattern returns the unanchored fragment registered for countryCode.
func (p *Patterns) Pattern(countryCode string) (string, bool) {
	fragment, ok := p.fragments[countryCode]
	return fragment, ok
}

// CountryCodes returns the configured country codes in ascending order.
func (p *Patterns) CountryCodes() []string {
	return slices.Sorted(maps.Keys(p.fragments))
}

// compileAnchored wraps the fragment in a non-capturing group so that top-level
// alternations are anchored as a whole.
func compileAnchored(fragment string) (*regexp.Regexp, error) {
	return regexp.Compile(`^(?:` + fragment + `)$`)
}
