// internal/requestinfo/middleware.go
//
// HTTP middleware that enriches each request with *RequestInfo.
//
/*
Context
--------
This handler sits high in the chain, right after recovery and before the
access log, so every log line and the board throttle see the same client.
For every request it:

  1. Parses the User-Agent header and Accept-Language list.
  2. Picks the client address (see clientIP).
  3. Performs a GeoLite2 lookup when a database is loaded.
  4. Stores a `*RequestInfo` value in `request.Context` under an
     unexported key.

Client address
--------------
X-Forwarded-For is read right to left.  Hops in private, loopback, or
link-local ranges are our own proxies and are skipped; the first public
address is the client.  When every hop is internal (office LAN, local
dev) the left-most parseable entry wins.  X-Real-IP and RemoteAddr are the
fallbacks, in that order.

Notes
-----
  • A client can prepend fake public hops to X-Forwarded-For, but it cannot
    make our proxy omit the real one it appends, so reading from the right
    keeps the throttle key honest.
  • Oxford commas, two spaces after periods.  No em dash.
*/
package requestinfo

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"
)

// Enrich wraps an http.Handler, attaches *RequestInfo, and forwards.
func Enrich(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		info := &RequestInfo{
			UA:        parseUA(r.UserAgent(), r.Header.Get("Accept-Language")),
			Geo:       lookupGeo(ip),
			URL:       r.URL,
			Timestamp: time.Now().UTC(),
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, info)))
	})
}

// clientIP applies the rules in the file header.
func clientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := parseHops(xff)
		for i := len(hops) - 1; i >= 0; i-- {
			if !internal(hops[i]) {
				return hops[i]
			}
		}
		if len(hops) > 0 {
			return hops[0]
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-Ip"))); ip != nil {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(r.RemoteAddr)
}

// parseHops returns the parseable addresses of an X-Forwarded-For list in
// header order.
func parseHops(xff string) []net.IP {
	var out []net.IP
	for _, part := range strings.Split(xff, ",") {
		if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
			out = append(out, ip)
		}
	}
	return out
}

func internal(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}
