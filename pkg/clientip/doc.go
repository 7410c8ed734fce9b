// Package clientip resolves the address of the client behind an HTTP request.
//
// VAT rules for digital services need evidence of the customer's location, and
// the request IP is one such piece of evidence. GetIP looks at common proxy
// headers (CF-Connecting-IP, DO-Connecting-IP, X-Forwarded-For, X-Real-IP) before
// falling back to RemoteAddr, and always returns a canonical address or "".
//
//	r := chi.NewRouter()
//	r.Use(clientip.Middleware)
//	r.Get("/ip", func(w http.ResponseWriter, r *http.Request) {
//		ip := clientip.FromContext(r.Context())
//		public := vat.IsPublicIP(ip)
//		...
//	})
//
// Header values are only trustworthy when a proxy in front of the service
// overwrites them.
package clientip
