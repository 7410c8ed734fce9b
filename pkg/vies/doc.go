// Package vies is a client for the EU VAT Information Exchange System (VIES).
//
// Client calls the VIES REST API, GET {base}/ms/{country}/vat/{number}, and
// reports VIES faults as *Error values that match the package sentinels:
//
//	valid, err := vies.NewClient().CheckVAT(ctx, "NL", "123456789B01")
//	switch {
//	case errors.Is(err, vies.ErrMemberStateUnavailable):
//	    // the national database is down, try again later
//	case err != nil:
//	    // no answer, which is not the same as an invalid number
//	}
//
// Transient faults (MS_UNAVAILABLE, SERVICE_UNAVAILABLE, TIMEOUT, rate limits and
// 5xx responses) are retried with exponential backoff. Each member state has its
// own circuit breaker; while it is open lookups fail with ErrCircuitOpen.
//
// CachedRegistry puts a Store in front of any Registry. MemoryStore keeps
// answers in process, RedisStore shares them through Redis.
package vies
