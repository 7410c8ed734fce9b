package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// headers are consulted in order before falling back to RemoteAddr.
var headers = [...]string{
	"CF-Connecting-IP", // Cloudflare
	"DO-Connecting-IP", // DigitalOcean App Platform
	"X-Forwarded-For",  // standard proxy chain, client first
	"X-Real-IP",        // nginx
}

// GetIP returns the client's IP address for the request, or an empty string when
// no valid address can be found. Proxy headers are preferred over RemoteAddr;
// for X-Forwarded-For the first valid entry wins.
//
// Headers can be forged by clients that reach the service directly, so use the
// result as evidence only behind a proxy that overwrites them.
func GetIP(r *http.Request) string {
	for _, name := range headers {
		value := r.Header.Get(name)
		if value == "" {
			continue
		}
		for candidate := range strings.SplitSeq(value, ",") {
			if ip := normalize(candidate); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return normalize(r.RemoteAddr)
	}
	return normalize(host)
}

// normalize returns the canonical form of an IP address or "" if s is not one.
// IPv4-mapped IPv6 addresses are reported as IPv4.
func normalize(s string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return addr.Unmap().String()
}
