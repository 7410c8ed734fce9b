package vies

import (
	"math"
	"math/rand/v2"
	"time"
)

const defaultMaxInterval = 5 * time.Second

// Backoff computes the delay before a retry. Attempt starts at 1 for the first
// retry. Implementations must be safe for concurrent use.
type Backoff interface {
	NextInterval(attempt int) time.Duration
}

// ExponentialBackoff grows the delay geometrically and spreads it with jitter:
// min(InitialInterval * Multiplier^(attempt-1) * (1 ± JitterFactor), MaxInterval).
type ExponentialBackoff struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	JitterFactor    float64
}

func (e ExponentialBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := e.InitialInterval
	if initial == 0 {
		initial = 500 * time.Millisecond
	}
	maxInterval := e.MaxInterval
	if maxInterval == 0 {
		maxInterval = defaultMaxInterval
	}
	multiplier := e.Multiplier
	if multiplier == 0 {
		multiplier = 2
	}

	interval := float64(initial) * math.Pow(multiplier, float64(attempt-1))
	if e.JitterFactor > 0 {
		interval *= 1 + (rand.Float64()*2-1)*e.JitterFactor
	}
	if interval > float64(maxInterval) {
		interval = float64(maxInterval)
	}

	return time.Duration(interval)
}

// ConstantBackoff waits the same duration before every retry.
type ConstantBackoff time.Duration

func (c ConstantBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return time.Duration(c)
}

// DefaultBackoff suits VIES member state outages, which usually clear within seconds.
func DefaultBackoff() Backoff {
	return ExponentialBackoff{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     defaultMaxInterval,
		Multiplier:      2,
		JitterFactor:    0.2,
	}
}
