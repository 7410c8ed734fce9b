package vies

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/vatkit/pkg/logger"
)

// Registry answers whether a VAT number exists. *Client implements it.
type Registry interface {
	CheckVAT(ctx context.Context, countryCode, number string) (bool, error)
}

// Store persists registry answers.
type Store interface {
	// Get returns the cached answer and whether one was found.
	Get(ctx context.Context, key string) (valid, found bool, err error)
	Set(ctx context.Context, key string, valid bool, ttl time.Duration) error
}

// CachedRegistry wraps a Registry with an answer cache. Positive and negative
// answers are cached with separate TTLs; errors are never cached. Concurrent
// lookups of the same number share one upstream call. The shared call is detached
// from caller cancellation and bounded by the lookup timeout; each caller stops
// waiting when its own context is done.
type CachedRegistry struct {
	next          Registry
	store         Store
	ttl           time.Duration
	negativeTTL   time.Duration
	lookupTimeout time.Duration
	group       singleflight.Group
	metrics     *Metrics
	logger      *slog.Logger
}

// CacheOption configures a CachedRegistry.
type CacheOption func(*CachedRegistry)

// WithTTL sets how long a valid answer is kept.
func WithTTL(d time.Duration) CacheOption {
	return func(r *CachedRegistry) {
		if d > 0 {
			r.ttl = d
		}
	}
}

// WithNegativeTTL sets how long an invalid answer is kept.
func WithNegativeTTL(d time.Duration) CacheOption {
	return func(r *CachedRegistry) {
		if d > 0 {
			r.negativeTTL = d
		}
	}
}

// WithLookupTimeout bounds a shared upstream call.
func WithLookupTimeout(d time.Duration) CacheOption {
	return func(r *CachedRegistry) {
		if d > 0 {
			r.lookupTimeout = d
		}
	}
}

func WithCacheMetrics(m *Metrics) CacheOption {
	return func(r *CachedRegistry) {
		r.metrics = m
	}
}

func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(r *CachedRegistry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewCachedRegistry caches the answers of next in store. Defaults: 24h for valid
// numbers, 1h for invalid ones, 1m for a shared upstream call.
func NewCachedRegistry(next Registry, store Store, opts ...CacheOption) *CachedRegistry {
	r := &CachedRegistry{
		next:          next,
		store:         store,
		ttl:           24 * time.Hour,
		negativeTTL:   time.Hour,
		lookupTimeout: time.Minute,
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *CachedRegistry) CheckVAT(ctx context.Context, countryCode, number string) (bool, error) {
	key := cacheKey(countryCode, number)

	valid, found, err := r.store.Get(ctx, key)
	switch {
	case err != nil:
		r.logger.WarnContext(ctx, "registry cache read failed", logger.CountryCode(countryCode), logger.Error(err))
	case found:
		r.metrics.ObserveCache(true)
		return valid, nil
	}
	r.metrics.ObserveCache(false)

	ch := r.group.DoChan(key, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.lookupTimeout)
		defer cancel()

		valid, err := r.next.CheckVAT(lookupCtx, countryCode, number)
		if err != nil {
			return false, err
		}

		ttl := r.ttl
		if !valid {
			ttl = r.negativeTTL
		}
		if err := r.store.Set(lookupCtx, key, valid, ttl); err != nil {
			r.logger.WarnContext(lookupCtx, "registry cache write failed", logger.CountryCode(countryCode), logger.Error(err))
		}
		return valid, nil
	})

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return false, res.Err
		}
		return res.Val.(bool), nil
	}
}

func cacheKey(countryCode, number string) string {
	return "vat:" + countryCode + ":" + number
}
