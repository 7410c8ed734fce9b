package vatkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/go-chi/traceid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/vatkit/pkg/httpserver"
	"github.com/dmitrymomot/vatkit/pkg/logger"
	"github.com/dmitrymomot/vatkit/pkg/ratelimiter"
	"github.com/dmitrymomot/vatkit/pkg/redis"
	"github.com/dmitrymomot/vatkit/pkg/vat"
	"github.com/dmitrymomot/vatkit/pkg/vatapi"
	"github.com/dmitrymomot/vatkit/pkg/vies"
)

// App is a fully wired VAT validation service.
type App struct {
	Validator *vat.Validator
	Handler   http.Handler
	Logger    *slog.Logger

	server *httpserver.Server
	redis  *goredis.Client
}

type options struct {
	logger   *slog.Logger
	registry vat.Registry
	gatherer *prometheus.Registry
}

// Option customizes New.
type Option func(*options)

// WithLogger replaces the logger built from Config.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegistry replaces the VIES client as the upstream registry. Caching
// still applies.
func WithRegistry(r vat.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithPrometheusRegistry registers metrics with reg instead of a private registry.
func WithPrometheusRegistry(reg *prometheus.Registry) Option {
	return func(o *options) { o.gatherer = reg }
}

// New wires the service from cfg: logger, pattern table, VIES client with
// metrics, answer cache in Redis or memory, validator and the rate limited
// HTTP API. The returned App must be closed to release the Redis connection.
func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	log := o.logger
	if log == nil {
		log = logger.New(
			logger.WithEnvironment(cfg.Env, cfg.ServiceName),
			logger.WithLevelName(cfg.LogLevel),
			logger.WithContextExtractors(traceIDExtractor),
		)
	}

	patterns, err := loadPatterns(cfg.PatternsFile)
	if err != nil {
		return nil, err
	}

	reg := o.gatherer
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	metrics := vies.NewMetrics(reg)

	upstream := o.registry
	if upstream == nil {
		upstream = vies.NewClientFromConfig(cfg.VIES, vies.WithLogger(log), vies.WithMetrics(metrics))
	}

	app := &App{Logger: log}
	apiOpts := []vatapi.Option{
		vatapi.WithLogger(log),
		vatapi.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	}

	if cfg.RateLimit.Enabled() {
		limiter, err := ratelimiter.New(ratelimiter.NewMemoryStore(), cfg.RateLimit)
		if err != nil {
			return nil, err
		}
		apiOpts = append(apiOpts, vatapi.WithRateLimiter(limiter))
	}

	registry := upstream
	if cfg.CacheEnabled {
		var store vies.Store
		if cfg.Redis.Enabled() {
			client, err := redis.Connect(ctx, cfg.Redis)
			if err != nil {
				return nil, fmt.Errorf("connect redis: %w", err)
			}
			app.redis = client
			store = vies.NewRedisStore(client, cfg.Redis.KeyPrefix)
			apiOpts = append(apiOpts, vatapi.WithHealthCheck("redis", redis.Healthcheck(client, 2*time.Second)))
			log.InfoContext(ctx, "caching registry answers in redis")
		} else {
			store = vies.NewMemoryStore(cfg.VIES.CacheSize)
		}

		registry = vies.NewCachedRegistry(upstream, store,
			vies.WithTTL(cfg.VIES.CacheTTL),
			vies.WithNegativeTTL(cfg.VIES.NegativeCacheTTL),
			vies.WithLookupTimeout(cfg.VIES.LookupBudget()),
			vies.WithCacheMetrics(metrics),
			vies.WithCacheLogger(log),
		)
	}

	app.Validator = vat.NewValidator(
		vat.WithPatterns(patterns),
		vat.WithRegistry(registry),
		vat.WithLogger(log),
	)
	app.Handler = vatapi.New(app.Validator, apiOpts...).Routes()
	app.server = httpserver.New(cfg.HTTP, httpserver.WithLogger(log))

	return app, nil
}

// Run serves the HTTP API until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx, a.Handler)
}

// Addr returns the address the API listens on once Run has started.
func (a *App) Addr() string {
	return a.server.Addr()
}

// Ready is closed once the API listens.
func (a *App) Ready() <-chan struct{} {
	return a.server.Ready()
}

// Close releases external connections.
func (a *App) Close() error {
	if a.redis == nil {
		return nil
	}
	return a.redis.Close()
}

func loadPatterns(path string) (*vat.Patterns, error) {
	patterns := vat.DefaultPatterns()
	if path != "" {
		overrides, err := vat.LoadPatternsFile(path)
		if err != nil {
			return nil, errors.Join(ErrPatterns, err)
		}
		maps.Copy(patterns, overrides)
	}

	table, err := vat.NewPatterns(patterns)
	if err != nil {
		return nil, errors.Join(ErrPatterns, err)
	}
	return table, nil
}

func traceIDExtractor(ctx context.Context) (slog.Attr, bool) {
	id := traceid.FromContext(ctx)
	return logger.TraceID(id), id != ""
}
