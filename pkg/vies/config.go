package vies

import "time"

const defaultTimeout = 10 * time.Second

// DefaultBaseURL is the public VIES REST endpoint of the European Commission.
const DefaultBaseURL = "https://ec.europa.eu/taxation_customs/vies/rest-api"

// Config holds the VIES client and answer cache settings.
type Config struct {
	BaseURL          string        `env:"VIES_BASE_URL" envDefault:"https://ec.europa.eu/taxation_customs/vies/rest-api"`
	Timeout          time.Duration `env:"VIES_TIMEOUT" envDefault:"10s"`         // per attempt
	MaxRetries       int           `env:"VIES_MAX_RETRIES" envDefault:"2"`       // extra attempts for retryable failures
	UserAgent        string        `env:"VIES_USER_AGENT" envDefault:"vatkit/1.0"`
	BreakerThreshold int           `env:"VIES_BREAKER_THRESHOLD" envDefault:"5"` // 0 disables the breaker
	BreakerCooldown  time.Duration `env:"VIES_BREAKER_COOLDOWN" envDefault:"30s"`

	CacheSize        int           `env:"VIES_CACHE_SIZE" envDefault:"10000"` // in-memory store capacity
	CacheTTL         time.Duration `env:"VIES_CACHE_TTL" envDefault:"24h"`
	NegativeCacheTTL time.Duration `env:"VIES_NEGATIVE_CACHE_TTL" envDefault:"1h"`
}

// LookupBudget is the longest a lookup with all retries can take: every attempt
// at Timeout plus the maximum backoff between attempts.
func (c Config) LookupBudget() time.Duration {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := max(c.MaxRetries, 0)
	return timeout*time.Duration(retries+1) + defaultMaxInterval*time.Duration(retries)
}
