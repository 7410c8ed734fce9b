// Package ratelimiter implements a token bucket limiter and an HTTP middleware.
//
// vatkit uses it to cap registry lookups per client IP, which keeps a single
// caller from getting the service IP blocked by VIES:
//
//	limiter, err := ratelimiter.New(ratelimiter.NewMemoryStore(), cfg)
//	if err != nil {
//	    return err
//	}
//	mw := ratelimiter.Middleware(limiter, func(r *http.Request) string {
//	    return clientip.FromContext(r.Context())
//	}, nil, log)
//
// Responses carry X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset headers, plus Retry-After when denied.
package ratelimiter
