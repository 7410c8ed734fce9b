package vat

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidPatternFile is returned when a pattern override document cannot be decoded.
var ErrInvalidPatternFile = errors.New("invalid pattern file")

// LoadPatterns decodes a YAML mapping of country codes to pattern fragments:
//
//	XI: '\d{9}|\d{12}'
//	EL: '\d{9}'
//
// Country codes are upper-cased; two keys naming the same code are rejected. Fragments are not compiled here; pass the result
// to NewPatterns or Patterns.Merge. An empty document yields an empty map.
func LoadPatterns(r io.Reader) (map[string]string, error) {
	var raw map[string]string
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Join(ErrInvalidPatternFile, err)
	}

	patterns := make(map[string]string, len(raw))
	for code, fragment := range raw {
		code = strings.Map(asciiUpper, strings.TrimSpace(code))
		if code == "" {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPatternFile, ErrEmptyCountryCode)
		}
		if _, dup := patterns[code]; dup {
			return nil, fmt.Errorf("%w: country %s is listed more than once", ErrInvalidPatternFile, code)
		}
		patterns[code] = fragment
	}

	return patterns, nil
}

// LoadPatternsFile reads pattern overrides from a YAML file.
func LoadPatternsFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pattern file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return LoadPatterns(f)
}
