// internal/requestinfo/middleware.go
//
// Page-request enrichment: device, language, and location of the browser.
//
/*
Context
--------
Enrich runs after access logging and before the guard.  For each page
request it parses the User-Agent and Accept-Language headers, resolves the
client address, and looks it up in GeoLite2 when a database is loaded.  The
result is stored on the request context for the profile page ("signed in
from Chrome on macOS") and the debug module.

Assets under /static/ and the /metrics scrape never render a page and are
passed through untouched.

Client address
--------------
X-Forwarded-For and X-Real-IP are honoured only with TrustProxy, which is
the http.trust_proxy setting; otherwise RemoteAddr is used.  Behind a trusted
proxy the left-most public address in X-Forwarded-For wins; private and
loopback hops added by internal load balancers are skipped.
*/
package requestinfo

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultSkip lists path prefixes that bypass enrichment.
var DefaultSkip = []string{"/static/", "/metrics"}

// Options tunes Enrich.
type Options struct {
	TrustProxy bool
	// Skip holds path prefixes served without enrichment.  Nil selects
	// DefaultSkip.
	Skip []string
}

// Enrich returns middleware that attaches *RequestInfo to page requests.
func Enrich(opts Options) func(http.Handler) http.Handler {
	skip := opts.Skip
	if skip == nil {
		skip = DefaultSkip
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipped(r.URL.Path, skip) {
				next.ServeHTTP(w, r)
				return
			}
			ip := clientIP(r, opts.TrustProxy)
			info := &RequestInfo{
				UA:        parseUA(r.UserAgent(), r.Header.Get("Accept-Language")),
				Geo:       lookupGeo(ip),
				URL:       r.URL,
				Timestamp: time.Now().UTC(),
			}

			if ce := zap.L().Check(zap.DebugLevel, "request info"); ce != nil {
				ce.Write(
					zap.Stringer("ip", info.Geo.IP),
					zap.String("country", info.Geo.CountryISO),
					zap.String("browser", info.UA.Browser),
					zap.String("device", info.UA.Device),
					zap.Bool("bot", info.UA.IsBot),
					zap.String("path", r.URL.Path),
				)
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func skipped(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// clientIP resolves the browser's address.  Forwarding headers count only
// when trustProxy is set.
func clientIP(r *http.Request, trustProxy bool) net.IP {
	if trustProxy {
		if ip := forwardedFor(r.Header.Get("X-Forwarded-For")); ip != nil {
			return ip
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-Ip"))); ip != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(r.RemoteAddr)
}

// forwardedFor returns the left-most public address in an X-Forwarded-For
// list, or the left-most address when every hop is private.
func forwardedFor(xff string) net.IP {
	var first net.IP
	for _, part := range strings.Split(xff, ",") {
		ip := net.ParseIP(strings.TrimSpace(part))
		if ip == nil {
			continue
		}
		if first == nil {
			first = ip
		}
		if !ip.IsPrivate() && !ip.IsLoopback() {
			return ip
		}
	}
	return first
}
