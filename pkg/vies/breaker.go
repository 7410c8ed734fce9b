package vies

import (
	"sync"
	"time"
)

// BreakerState is the state of a member state circuit breaker.
type BreakerState int

const (
	// BreakerClosed lets lookups through.
	BreakerClosed BreakerState = iota
	// BreakerOpen fails lookups fast until the cooldown passes.
	BreakerOpen
	// BreakerHalfOpen lets a single probe lookup through.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// breaker trips after threshold consecutive failed lookups. After cooldown one
// probe is allowed; its outcome closes or reopens the circuit.
type breaker struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	state    BreakerState
	failures int
	openedAt time.Time
	probing  bool
}

func newBreaker(threshold int, cooldown time.Duration) *breaker {
	return &breaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.state = BreakerHalfOpen
		b.probing = true
		return true
	case BreakerHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return false
	}
}

func (b *breaker) success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = BreakerClosed
	b.failures = 0
	b.probing = false
}

func (b *breaker) failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		b.failures++
		if b.failures >= b.threshold {
			b.state = BreakerOpen
			b.openedAt = b.now()
		}
	case BreakerHalfOpen:
		b.state = BreakerOpen
		b.openedAt = b.now()
		b.probing = false
	}
}

// record feeds a lookup outcome to the breaker. Nil breakers ignore it.
func (b *breaker) record(ok bool) {
	if b == nil {
		return
	}
	if ok {
		b.success()
	} else {
		b.failure()
	}
}

// release frees a probe whose outcome is unknown, e.g. a cancelled lookup.
func (b *breaker) release() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
}

func (b *breaker) current() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen && b.now().Sub(b.openedAt) >= b.cooldown {
		return BreakerHalfOpen
	}
	return b.state
}

// breakers keeps one breaker per member state, so an outage in one country
// does not block lookups for the others.
type breakers struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	byCountry map[string]*breaker
}

// newBreakers returns nil when threshold is not positive; a nil *breakers
// disables circuit breaking.
func newBreakers(threshold int, cooldown time.Duration) *breakers {
	if threshold <= 0 {
		return nil
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &breakers{
		threshold: threshold,
		cooldown:  cooldown,
		byCountry: make(map[string]*breaker),
	}
}

func (bs *breakers) get(country string) *breaker {
	if bs == nil {
		return nil
	}

	bs.mu.Lock()
	defer bs.mu.Unlock()

	b, ok := bs.byCountry[country]
	if !ok {
		b = newBreaker(bs.threshold, bs.cooldown)
		bs.byCountry[country] = b
	}
	return b
}
