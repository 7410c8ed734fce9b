// Package vat validates European VAT identification numbers.
//
// Two independent checks are offered:
//
//   - Format – an offline match of the number body against a per-country
//     regular-expression fragment (Patterns).
//   - Existence – a lookup in an external registry such as VIES (Registry).
//
// Validator composes both. ValidateVATNumber always runs the format check first
// and never contacts the registry for a number with an invalid shape.
//
// # Usage
//
//	patterns := vat.MustNewPatterns(vat.DefaultPatterns())
//	if err := patterns.SetPattern("XI", `\d{9}|\d{12}`); err != nil {
//		// malformed fragment
//	}
//
//	v := vat.NewValidator(
//		vat.WithPatterns(patterns),
//		vat.WithRegistry(vies.NewClient(vies.WithTimeout(5*time.Second))),
//	)
//
//	v.ValidateVATNumberFormat("nl123456789b01") // true
//
//	ok, err := v.ValidateVATNumber(ctx, "NL123456789B01")
//	if err != nil {
//		// the registry could not answer; this is not the same as "does not exist"
//	}
//
// # Errors
//
// Malformed input, too short prefixes, empty bodies and unknown countries are
// validation outcomes and produce false. Only the registry path returns errors,
// and those are passed through untouched so callers can inspect them with
// errors.Is and errors.As. Malformed pattern fragments are rejected eagerly by
// NewPatterns and Patterns.SetPattern with ErrInvalidPattern.
//
// # Custom patterns
//
// Pattern fragments are stored unanchored and anchored as a whole when matched.
// Overrides can be kept in YAML and loaded with LoadPatterns or LoadPatternsFile,
// then applied with Patterns.Merge.
package vat
