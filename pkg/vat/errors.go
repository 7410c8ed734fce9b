package vat

import "errors"

var (
	// ErrInvalidPattern is returned when a pattern fragment is not a valid regular expression.
	ErrInvalidPattern = errors.New("invalid vat number pattern")

	// ErrEmptyCountryCode is returned when a pattern is registered without a country code.
	ErrEmptyCountryCode = errors.New("empty country code")
)
