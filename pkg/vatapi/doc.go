// Package vatapi exposes a VAT validator over HTTP with chi.
//
// Routes:
//
//	GET /health                 dependency checks
//	GET /countries/{code}       ISO-3166-1 alpha-2 membership
//	GET /ip                     the caller's IP and whether it is public
//	GET /ip/{ip}                whether an address is public
//	GET /vat/{number}/format    offline format check
//	GET /vat/{number}           format check followed by a registry lookup
//	GET /metrics                Prometheus metrics, when WithMetricsHandler is set
//
// Answers are JSON objects with a "valid" or "public" field. When the registry
// cannot answer, GET /vat/{number} responds 502, 503 or 504 with an error body;
// it never turns a failed lookup into "valid": false.
package vatapi
