package vatkit

import (
	"github.com/dmitrymomot/vatkit/pkg/config"
	"github.com/dmitrymomot/vatkit/pkg/httpserver"
	"github.com/dmitrymomot/vatkit/pkg/ratelimiter"
	"github.com/dmitrymomot/vatkit/pkg/redis"
	"github.com/dmitrymomot/vatkit/pkg/vies"
)

// Config is the complete service configuration, read from the environment.
type Config struct {
	Env         string `env:"APP_ENV" envDefault:"development"` // development, staging or production
	ServiceName string `env:"APP_NAME" envDefault:"vatkit"`
	LogLevel    string `env:"LOG_LEVEL"` // overrides the environment default

	// PatternsFile is an optional YAML file with pattern overrides merged over
	// the built-in table.
	PatternsFile string `env:"VAT_PATTERNS_FILE"`
	CacheEnabled bool   `env:"VIES_CACHE_ENABLED" envDefault:"true"`

	VIES      vies.Config
	Redis     redis.Config
	HTTP      httpserver.Config
	RateLimit ratelimiter.Config // per client IP, registry lookups only
}

// LoadConfig reads Config from the environment and .env files.
func LoadConfig(opts ...config.Option) (Config, error) {
	var cfg Config
	if err := config.Load(&cfg, opts...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
