// Package config loads typed configuration structs from environment variables.
//
// Load wraps github.com/caarlos0/env and reads .env files with
// github.com/joho/godotenv before parsing. Values already present in the
// process environment always win over values from files.
//
//	var cfg vies.Config
//	if err := config.Load(&cfg, config.WithEnvFiles(".env", ".env.local")); err != nil {
//		return err
//	}
//
// Every call parses the environment again; there is no package level cache, so
// tests can change variables with t.Setenv between calls.
//
// All parsing failures are joined with ErrParsingConfig and file failures with
// ErrLoadingEnvFile, so callers can tell them apart with errors.Is.
package config
