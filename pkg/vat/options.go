package vat

import "log/slog"

// Option configures a Validator.
type Option func(*Validator)

// WithPatterns sets the pattern table. Nil values are ignored and the built-in
// table is used.
func WithPatterns(p *Patterns) Option {
	return func(v *Validator) {
		if p != nil {
			v.patterns = p
		}
	}
}

// WithRegistry sets the registry used for existence checks.
// Nil values are ignored and the default VIES client is used.
func WithRegistry(r Registry) Option {
	return func(v *Validator) {
		if r != nil {
			v.registry = r
		}
	}
}

// WithCountries sets the country code reference set.
func WithCountries(c Countries) Option {
	return func(v *Validator) {
		if c != nil {
			v.countries = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}
