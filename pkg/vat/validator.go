package vat

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/vatkit/pkg/logger"
	"github.com/dmitrymomot/vatkit/pkg/vies"
)

// Registry confirms that a VAT number was actually issued.
// Implementations report service failures as errors, never as false.
type Registry interface {
	CheckVAT(ctx context.Context, countryCode, number string) (bool, error)
}

// RegistryFunc adapts a plain function to the Registry interface.
type RegistryFunc func(ctx context.Context, countryCode, number string) (bool, error)

func (f RegistryFunc) CheckVAT(ctx context.Context, countryCode, number string) (bool, error) {
	return f(ctx, countryCode, number)
}

// Validator checks VAT numbers against the pattern table and, on request, against
// a registry. It keeps no state between calls and is safe for concurrent use as
// long as its pattern table is not modified at the same time.
type Validator struct {
	patterns  *Patterns
	registry  Registry
	countries Countries
	logger    *slog.Logger
}

// NewValidator creates a Validator. Collaborators that are not supplied default to
// the built-in pattern table, the VIES client and the ISO country set.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}

	if v.patterns == nil {
		v.patterns = MustNewPatterns(DefaultPatterns())
	}
	if v.registry == nil {
		v.registry = vies.NewClient()
	}
	if v.countries == nil {
		v.countries = ISOCountries()
	}
	if v.logger == nil {
		v.logger = slog.New(slog.DiscardHandler)
	}

	return v
}

// Patterns returns the pattern table used by the validator.
func (v *Validator) Patterns() *Patterns {
	return v.patterns
}

// ValidateCountryCode reports whether countryCode is an ISO-3166-1 alpha-2 code.
func (v *Validator) ValidateCountryCode(countryCode string) bool {
	return v.countries.Contains(countryCode)
}

// ValidateIPAddress reports whether ipAddress is a public IPv4 or IPv6 address.
func (v *Validator) ValidateIPAddress(ipAddress string) bool {
	return IsPublicIP(ipAddress)
}

// ValidateVATNumberFormat checks the shape of a VAT number without contacting the
// registry. Input is case-insensitive. Malformed input and unknown countries yield
// false rather than an error.
func (v *Validator) ValidateVATNumberFormat(vatNumber string) bool {
	if vatNumber == "" {
		return false
	}

	country, number := split(vatNumber)
	if len(country) != 2 {
		return false
	}
	if number == "" {
		return false
	}

	return v.patterns.Matches(country, number)
}

// ValidateVATNumber checks the format first and only then asks the registry
// whether the number exists. A number with an invalid format is rejected without
// a registry call. Registry errors are returned unchanged.
func (v *Validator) ValidateVATNumber(ctx context.Context, vatNumber string) (bool, error) {
	if !v.ValidateVATNumberFormat(vatNumber) {
		return false, nil
	}
	return v.validateVATNumberExistence(ctx, vatNumber)
}

func (v *Validator) validateVATNumberExistence(ctx context.Context, vatNumber string) (bool, error) {
	country, number := split(vatNumber)

	v.logger.DebugContext(ctx, "checking vat number existence",
		logger.CountryCode(country),
		logger.VATNumber(number),
	)

	exists, err := v.registry.CheckVAT(ctx, country, number)
	if err != nil {
		v.logger.WarnContext(ctx, "vat registry check failed",
			logger.CountryCode(country),
			logger.Error(err),
		)
		return false, err
	}

	return exists, nil
}

// split upper-cases the input and separates the two byte country prefix from the body.
func split(vatNumber string) (country, number string) {
	vatNumber = strings.Map(asciiUpper, vatNumber)
	if len(vatNumber) < 2 {
		return vatNumber, ""
	}
	return vatNumber[:2], vatNumber[2:]
}

// asciiUpper maps a-z to A-Z only, so other scripts never fold into a country code.
func asciiUpper(r rune) rune {
	if 'a' <= r && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}
