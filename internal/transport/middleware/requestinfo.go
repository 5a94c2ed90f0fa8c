package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/frahmantamala/contacthub/internal"
)

// RequestInfo records the client address and user agent for the audit trail.
// Forwarded headers are only honoured when trustProxy is set.
func RequestInfo(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := internal.RequestInfo{
				IPAddress: ClientIP(r, trustProxy),
				UserAgent: r.UserAgent(),
			}
			next.ServeHTTP(w, r.WithContext(internal.ContextWithRequestInfo(r.Context(), info)))
		})
	}
}

func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
