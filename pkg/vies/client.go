package vies

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/traceid"
	"github.com/go-chi/transport"
	"github.com/google/uuid"

	"github.com/dmitrymomot/vatkit/pkg/logger"
)

// maxBodySize caps how much of a VIES response is read.
const maxBodySize = 64 * 1024

// Result is the answer of a successful VIES lookup.
type Result struct {
	LookupID    string
	CountryCode string
	VATNumber   string
	Valid       bool
	Name        string // empty when the member state does not disclose it
	Address     string
	RequestDate time.Time
}

// Client queries the VIES REST API. It retries transient failures with backoff
// and keeps a circuit breaker per member state. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	maxRetries int
	backoff    Backoff
	breakers   *breakers
	metrics    *Metrics
	logger     *slog.Logger
	userAgent  string
}

// NewClient creates a VIES client with production defaults: the public endpoint,
// a 10s attempt timeout, two retries and a breaker that opens after five failed
// lookups for 30s.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		timeout:    defaultTimeout,
		maxRetries: 2,
		backoff:    DefaultBackoff(),
		breakers:   newBreakers(5, 30*time.Second),
		logger:     slog.New(slog.DiscardHandler),
		userAgent:  "vatkit/1.0",
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Transport: transport.Chain(
				&http.Transport{
					Proxy:               http.ProxyFromEnvironment,
					MaxIdleConns:        100,
					MaxIdleConnsPerHost: 10,
					IdleConnTimeout:     90 * time.Second,
					TLSHandshakeTimeout: 10 * time.Second,
				},
				transport.SetHeader("User-Agent", c.userAgent),
				traceid.Transport,
			),
		}
	}

	return c
}

// NewClientFromConfig creates a client from cfg. Options are applied after the
// configuration and take precedence.
func NewClientFromConfig(cfg Config, opts ...Option) *Client {
	base := []Option{
		WithBaseURL(cfg.BaseURL),
		WithTimeout(cfg.Timeout),
		WithMaxRetries(cfg.MaxRetries),
		WithUserAgent(cfg.UserAgent),
		WithBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown),
	}
	return NewClient(append(base, opts...)...)
}

// CheckVAT reports whether VIES knows number as a valid VAT number of countryCode.
// Any failure to get an answer is returned as an error, never as false.
func (c *Client) CheckVAT(ctx context.Context, countryCode, number string) (bool, error) {
	res, err := c.Lookup(ctx, countryCode, number)
	if err != nil {
		return false, err
	}
	return res.Valid, nil
}

// Lookup asks VIES about a VAT number. countryCode is the VIES member state code
// (EL for Greece) and number is the body without the country prefix.
func (c *Client) Lookup(ctx context.Context, countryCode, number string) (*Result, error) {
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	number = strings.ToUpper(strings.TrimSpace(number))
	if len(countryCode) != 2 || number == "" {
		return nil, newFault("INVALID_INPUT", countryCode, 0, errors.New("country code and number are required"))
	}

	start := time.Now()
	lookupID := uuid.NewString()
	log := c.logger.With(logger.LookupID(lookupID), logger.CountryCode(countryCode))

	b := c.breakers.get(countryCode)
	if b != nil && !b.allow() {
		c.metrics.ObserveLookup(countryCode, outcomeCircuitOpen, start)
		log.WarnContext(ctx, "vies circuit open, lookup rejected")
		return nil, circuitOpenError(countryCode)
	}

	res, err := c.lookupWithRetry(ctx, log, countryCode, number)

	switch {
	case err == nil:
		b.record(true)
		res.LookupID = lookupID
		outcome := outcomeInvalid
		if res.Valid {
			outcome = outcomeValid
		}
		c.metrics.ObserveLookup(countryCode, outcome, start)
		log.DebugContext(ctx, "vies lookup finished",
			logger.VATNumber(number),
			slog.Bool("valid", res.Valid),
			logger.Duration(time.Since(start)),
		)
		return res, nil

	case ctx.Err() != nil:
		b.release()

	case IsRetryable(err):
		b.record(false)

	default:
		// VIES answered, so the member state is reachable.
		b.record(true)
	}

	c.metrics.ObserveLookup(countryCode, outcomeError, start)
	log.WarnContext(ctx, "vies lookup failed",
		logger.VATNumber(number),
		logger.Duration(time.Since(start)),
		logger.Error(err),
	)
	return nil, err
}

func (c *Client) lookupWithRetry(ctx context.Context, log *slog.Logger, countryCode, number string) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.metrics.IncRetry(countryCode)
			log.DebugContext(ctx, "retrying vies lookup", logger.Attempt(attempt), logger.Error(lastErr))

			select {
			case <-ctx.Done():
				return nil, errors.Join(lastErr, ctx.Err())
			case <-time.After(c.backoff.NextInterval(attempt)):
			}
		}

		res, err := c.do(ctx, countryCode, number)
		if err == nil {
			return res, nil
		}
		if !IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

type checkResponse struct {
	IsValid     bool   `json:"isValid"`
	UserError   string `json:"userError"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	RequestDate string `json:"requestDate"`
	VATNumber   string `json:"vatNumber"`

	ActionSucceed *bool `json:"actionSucceed"`
	ErrorWrappers []struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	} `json:"errorWrappers"`
}

// do performs a single request.
func (c *Client) do(ctx context.Context, countryCode, number string) (*Result, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "/ms/" + url.PathEscape(countryCode) + "/vat/" + url.PathEscape(number)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("vies: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return nil, newTimeoutError(countryCode, err)
		}
		return nil, newTransportError(countryCode, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, newTransportError(countryCode, err)
	}

	var payload checkResponse
	decodeErr := json.Unmarshal(body, &payload)

	if decodeErr == nil && len(payload.ErrorWrappers) > 0 {
		w := payload.ErrorWrappers[0]
		var cause error
		if w.Message != "" {
			cause = errors.New(w.Message)
		}
		return nil, newFault(w.Error, countryCode, resp.StatusCode, cause)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newStatusError(countryCode, resp.StatusCode, fmt.Errorf("status %d", resp.StatusCode))
	}
	if decodeErr != nil {
		return nil, newStatusError(countryCode, resp.StatusCode, decodeErr)
	}

	switch payload.UserError {
	case "", "VALID", "INVALID":
	default:
		return nil, newFault(payload.UserError, countryCode, resp.StatusCode, nil)
	}
	// Without a fault code a failed action still carries no usable answer.
	if payload.ActionSucceed != nil && !*payload.ActionSucceed {
		return nil, newFault("ACTION_FAILED", countryCode, resp.StatusCode, errors.New("action did not succeed"))
	}

	res := &Result{
		CountryCode: countryCode,
		VATNumber:   number,
		Valid:       payload.IsValid,
		Name:        disclosed(payload.Name),
		Address:     disclosed(payload.Address),
	}
	if t, err := time.Parse(time.RFC3339Nano, payload.RequestDate); err == nil {
		res.RequestDate = t
	}

	return res, nil
}

// disclosed strips the placeholder VIES uses for data a member state keeps private.
func disclosed(s string) string {
	s = strings.TrimSpace(s)
	if s == "---" {
		return ""
	}
	return s
}

// BreakerState returns the circuit breaker state for a member state.
// It is BreakerClosed when circuit breaking is disabled.
func (c *Client) BreakerState(countryCode string) BreakerState {
	b := c.breakers.get(strings.ToUpper(countryCode))
	if b == nil {
		return BreakerClosed
	}
	return b.current()
}
