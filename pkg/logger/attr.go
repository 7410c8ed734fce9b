package logger

import (
	"log/slog"
	"strings"
	"time"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// CountryCode records a VAT country prefix under the key "country_code".
func CountryCode(code string) slog.Attr {
	return slog.String("country_code", code)
}

// VATNumber records a VAT number body under the key "vat_number" with all but
// the first and last two characters masked. Bodies of four characters or less
// are masked completely.
func VATNumber(number string) slog.Attr {
	return slog.String("vat_number", mask(number))
}

// LookupID records a registry lookup identifier under the key "lookup_id".
func LookupID(id string) slog.Attr {
	return slog.String("lookup_id", id)
}

// Attempt records a 1-based attempt number under the key "attempt".
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

// Duration records d under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// TraceID records a trace identifier under the key "trace_id".
// An empty id yields an empty Attr.
func TraceID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("trace_id", id)
}

func mask(s string) string {
	r := []rune(s)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return string(r[:2]) + strings.Repeat("*", len(r)-4) + string(r[len(r)-2:])
}
