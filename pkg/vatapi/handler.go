package vatapi

import (
	"context"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"

	"github.com/dmitrymomot/vatkit/pkg/clientip"
	"github.com/dmitrymomot/vatkit/pkg/logger"
	"github.com/dmitrymomot/vatkit/pkg/ratelimiter"
)

// Validator is the validation surface exposed over HTTP. *vat.Validator implements it.
type Validator interface {
	ValidateCountryCode(countryCode string) bool
	ValidateIPAddress(ipAddress string) bool
	ValidateVATNumberFormat(vatNumber string) bool
	ValidateVATNumber(ctx context.Context, vatNumber string) (bool, error)
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Handler serves the validation API.
type Handler struct {
	validator      Validator
	logger         *slog.Logger
	checks         map[string]HealthCheck
	requestTimeout time.Duration
	metrics        http.Handler
	limiter        *ratelimiter.Limiter
}

// Option configures a Handler.
type Option func(*Handler)

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithHealthCheck adds a named dependency check to GET /health.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(h *Handler) {
		if name != "" && check != nil {
			h.checks[name] = check
		}
	}
}

// WithRequestTimeout bounds every request. Zero disables the limit.
func WithRequestTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.requestTimeout = d
	}
}

// WithMetricsHandler serves h at GET /metrics, typically promhttp.HandlerFor.
func WithMetricsHandler(mh http.Handler) Option {
	return func(h *Handler) {
		h.metrics = mh
	}
}

// WithRateLimiter limits registry lookups per client IP. Format, country and
// IP checks are never limited.
func WithRateLimiter(l *ratelimiter.Limiter) Option {
	return func(h *Handler) {
		h.limiter = l
	}
}

// New creates a Handler. The default request timeout is 30s.
func New(v Validator, opts ...Option) *Handler {
	h := &Handler{
		validator:      v,
		logger:         slog.New(slog.DiscardHandler),
		checks:         make(map[string]HealthCheck),
		requestTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the API routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Get("/countries/{code}", h.HandleCountry)
	r.Get("/ip", h.HandleClientIP)
	r.Get("/ip/{ip}", h.HandleIP)
	r.Get("/vat/{number}/format", h.HandleFormat)
	r.With(h.lookupMiddleware()...).Get("/vat/{number}", h.HandleVAT)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}
}

// Routes returns a router with the API routes and the standard middleware stack.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(traceid.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(clientip.Middleware)
	if h.requestTimeout > 0 {
		r.Use(middleware.Timeout(h.requestTimeout))
	}

	h.Register(r)
	return r
}

func (h *Handler) lookupMiddleware() []func(http.Handler) http.Handler {
	if h.limiter == nil {
		return nil
	}

	clientKey := func(r *http.Request) string {
		if ip := clientip.FromContext(r.Context()); ip != "" {
			return ip
		}
		return clientip.GetIP(r)
	}
	limited := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many registry lookups, slow down")
	})

	return []func(http.Handler) http.Handler{
		ratelimiter.Middleware(h.limiter, clientKey, limited, h.logger),
	}
}

type countryResponse struct {
	CountryCode string `json:"country_code"`
	Valid       bool   `json:"valid"`
}

// HandleCountry handles GET /countries/{code}.
func (h *Handler) HandleCountry(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	writeJSON(w, http.StatusOK, countryResponse{
		CountryCode: code,
		Valid:       h.validator.ValidateCountryCode(code),
	})
}

type ipResponse struct {
	IP     string `json:"ip"`
	Public bool   `json:"public"`
}

// HandleClientIP handles GET /ip and reports the caller's own address.
func (h *Handler) HandleClientIP(w http.ResponseWriter, r *http.Request) {
	ip := clientip.FromContext(r.Context())
	if ip == "" {
		ip = clientip.GetIP(r)
	}
	writeJSON(w, http.StatusOK, ipResponse{IP: ip, Public: h.validator.ValidateIPAddress(ip)})
}

// HandleIP handles GET /ip/{ip}.
func (h *Handler) HandleIP(w http.ResponseWriter, r *http.Request) {
	ip := chi.URLParam(r, "ip")
	writeJSON(w, http.StatusOK, ipResponse{IP: ip, Public: h.validator.ValidateIPAddress(ip)})
}

type vatResponse struct {
	VATNumber string `json:"vat_number"`
	Valid     bool   `json:"valid"`
}

// HandleFormat handles GET /vat/{number}/format. It never contacts the registry.
func (h *Handler) HandleFormat(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	writeJSON(w, http.StatusOK, vatResponse{
		VATNumber: number,
		Valid:     h.validator.ValidateVATNumberFormat(number),
	})
}

// HandleVAT handles GET /vat/{number}: format check, then registry lookup.
func (h *Handler) HandleVAT(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	number := chi.URLParam(r, "number")
	start := time.Now()

	valid, err := h.validator.ValidateVATNumber(ctx, number)
	if err != nil {
		status, code := registryStatus(err)
		h.logger.WarnContext(ctx, "vat number check failed",
			logger.VATNumber(number),
			slog.Int("status", status),
			logger.Duration(time.Since(start)),
			logger.Error(err),
		)
		writeError(w, status, code, "the VAT registry could not answer, try again later")
		return
	}

	h.logger.InfoContext(ctx, "vat number checked",
		logger.VATNumber(number),
		slog.Bool("valid", valid),
		logger.Duration(time.Since(start)),
	)
	writeJSON(w, http.StatusOK, vatResponse{VATNumber: number, Valid: valid})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HandleHealth handles GET /health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	status := http.StatusOK

	for _, name := range slices.Sorted(maps.Keys(h.checks)) {
		if resp.Checks == nil {
			resp.Checks = make(map[string]string, len(h.checks))
		}
		if err := h.checks[name](r.Context()); err != nil {
			h.logger.ErrorContext(r.Context(), "health check failed", slog.String("check", name), logger.Error(err))
			resp.Checks[name] = strings.TrimSpace(err.Error())
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	writeJSON(w, status, resp)
}
