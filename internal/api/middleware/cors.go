package middleware

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/eihrteam/postserver/pkg/config"
)

// CORSConfig controls Cross-Origin Resource Sharing behaviour.
type CORSConfig struct {
	AllowOrigins []string
	// AllowOriginSuffixes admits an origin whose host equals a suffix or is
	// a subdomain of it, e.g. "example.org" admits https://blog.example.org.
	AllowOriginSuffixes []string
	// FallbackOrigin, when set, is advertised to origins that are not
	// admitted, so browsers reject them while the response stays cacheable.
	FallbackOrigin string
	AllowMethods   []string
	AllowHeaders   []string
	MaxAge         int // seconds
}

// DefaultCORSConfig returns a permissive read-only CORS configuration.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Request-ID", "If-None-Match"},
		MaxAge:       86400,
	}
}

// CORSFromConfig converts the file/env configuration section.
func CORSFromConfig(c config.CORSConfig) CORSConfig {
	cfg := DefaultCORSConfig()
	if len(c.AllowOrigins) > 0 || len(c.AllowOriginSuffixes) > 0 {
		cfg.AllowOrigins = c.AllowOrigins
	}
	cfg.AllowOriginSuffixes = c.AllowOriginSuffixes
	cfg.FallbackOrigin = c.FallbackOrigin
	if len(c.AllowMethods) > 0 {
		cfg.AllowMethods = c.AllowMethods
	}
	if len(c.AllowHeaders) > 0 {
		cfg.AllowHeaders = c.AllowHeaders
	}
	if c.MaxAge > 0 {
		cfg.MaxAge = c.MaxAge
	}
	return cfg
}

// allowed reports whether origin may read responses.
func (cfg CORSConfig) allowed(origin string) bool {
	for _, o := range cfg.AllowOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	if len(cfg.AllowOriginSuffixes) == 0 {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil || u.Hostname() == "" {
		return false
	}
	host := u.Hostname()
	for _, suffix := range cfg.AllowOriginSuffixes {
		suffix = strings.TrimPrefix(strings.TrimSpace(suffix), ".")
		if suffix == "" {
			continue
		}
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}

// CORS returns middleware that sets the appropriate CORS response headers
// and handles preflight OPTIONS requests.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowOrigin := origin
			if !cfg.allowed(origin) {
				if cfg.FallbackOrigin == "" {
					next.ServeHTTP(w, r)
					return
				}
				allowOrigin = cfg.FallbackOrigin
			}

			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			w.Header().Set("Access-Control-Allow-Methods", methods)
			w.Header().Set("Access-Control-Allow-Headers", headers)
			w.Header().Set("Access-Control-Max-Age", maxAge)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
