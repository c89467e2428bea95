package signal

import (
	"net"
	"net/http"
	"strings"

	"github.com/edgevet/edgevet/pkg/config"
)

// EnrichServerFields fills in the fields the server can supply safely when
// the edge payload omitted them. It never overwrites a client-supplied
// value.
//
// The User-Agent substitution reads the transport caller's own header. When
// the caller is an edge proxy making a fresh server-to-server request, that
// is the proxy's HTTP client UA, not the end user's, and it stands in for a
// deliberately empty payload ua. Proxies that forward the original browser
// headers are unaffected. The browser-integrity checks (length and keyword
// match) still apply to the substituted value.
func EnrichServerFields(r *http.Request, s *RequestSignals, cfg config.Config) string {
	if s.UA == "" {
		s.UA = r.UserAgent()
	}
	if s.Lang == "" {
		// Accept-Language is a weaker signal than the client-side value, but
		// better than nothing for the locale rule.
		if al := r.Header.Get("Accept-Language"); al != "" {
			s.Lang = primaryLanguage(al)
		}
	}
	return clientIPFromRequest(r, cfg.TrustProxy)
}

// primaryLanguage extracts the first tag from an Accept-Language header,
// dropping any quality weight ("en-US,en;q=0.9" -> "en-US").
func primaryLanguage(acceptLanguage string) string {
	first := acceptLanguage
	if i := strings.IndexByte(first, ','); i >= 0 {
		first = first[:i]
	}
	if i := strings.IndexByte(first, ';'); i >= 0 {
		first = first[:i]
	}
	return strings.TrimSpace(first)
}

func clientIPFromRequest(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			if ip := strings.TrimSpace(parts[0]); ip != "" {
				return ip
			}
		}
		if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
			return strings.TrimSpace(xrip)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
