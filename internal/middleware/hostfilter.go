package middleware

import (
	"net"
	"net/http"
	"strings"
)

// NewHostFilter rejects requests whose Host header is not in the allowlist.
// An empty allowlist allows everything, which is the local-development
// default; deployments set ALLOWED_HOSTS.
func NewHostFilter(allowedHosts []string) func(http.Handler) http.Handler {
	hosts := make(map[string]struct{})
	for _, host := range allowedHosts {
		if trimmed := strings.ToLower(strings.TrimSpace(host)); trimmed != "" {
			hosts[trimmed] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		if len(hosts) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := strings.ToLower(r.Host)
			if h, _, err := net.SplitHostPort(r.Host); err == nil {
				host = strings.ToLower(h)
			}
			if _, ok := hosts[host]; !ok {
				http.Error(w, "host not allowed", http.StatusBadRequest)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
