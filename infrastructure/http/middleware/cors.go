package middleware

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopfox/auth-service/domain/apperror"
	"github.com/shopfox/auth-service/infrastructure/http/response"
)

// CORSConfig configures cross-origin admission. Origins may be exact strings
// or glob patterns where * matches any substring; a bare "*" admits every
// origin and belongs on non-credentialed public APIs only.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

type originMatcher struct {
	allowAll bool
	exact    map[string]struct{}
	patterns []*regexp.Regexp
}

func newOriginMatcher(origins []string) *originMatcher {
	m := &originMatcher{exact: make(map[string]struct{}, len(origins))}
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		switch {
		case origin == "":
		case origin == "*":
			m.allowAll = true
		case strings.Contains(origin, "*"):
			m.patterns = append(m.patterns, globToRegexp(origin))
		default:
			m.exact[origin] = struct{}{}
		}
	}
	return m
}

func (m *originMatcher) matches(origin string) bool {
	if m.allowAll {
		return true
	}
	if _, ok := m.exact[origin]; ok {
		return true
	}
	for _, pattern := range m.patterns {
		if pattern.MatchString(origin) {
			return true
		}
	}
	return false
}

// globToRegexp translates a wildcard pattern into an anchored full-string
// regexp. Everything except * is matched literally; each * matches any
// substring including the empty one.
func globToRegexp(pattern string) *regexp.Regexp {
	segments := strings.Split(pattern, "*")
	quoted := make([]string, len(segments))
	for i, segment := range segments {
		quoted[i] = regexp.QuoteMeta(segment)
	}
	return regexp.MustCompile("^" + strings.Join(quoted, ".*") + "$")
}

// CORSMiddleware admits or rejects cross-origin requests and shapes the
// exposed response headers, independent of authentication. Requests without
// an Origin header (same-origin or non-browser clients) always pass through
// unmodified.
func CORSMiddleware(cfg CORSConfig) func(http.Handler) http.Handler {
	matcher := newOriginMatcher(cfg.AllowedOrigins)
	allowedMethods := strings.Join(cfg.AllowedMethods, ", ")
	allowedHeaders := strings.Join(cfg.AllowedHeaders, ", ")
	exposedHeaders := strings.Join(cfg.ExposedHeaders, ", ")
	maxAge := strconv.Itoa(int(cfg.MaxAge.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			// Always vary on Origin so caches don't mix responses
			w.Header().Add("Vary", "Origin")

			// A preflight is an OPTIONS request announcing the method of the
			// actual request to come.
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if !matcher.matches(origin) {
					// Forbidden, and deliberately without any CORS headers.
					w.WriteHeader(http.StatusForbidden)
					return
				}

				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
				if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
					w.Header().Set("Access-Control-Allow-Headers", requested)
				} else {
					w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
				}
				if cfg.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				w.Header().Set("Access-Control-Max-Age", maxAge)
				if exposedHeaders != "" {
					w.Header().Set("Access-Control-Expose-Headers", exposedHeaders)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !matcher.matches(origin) {
				response.AppError(w, apperror.ErrOriginNotAllowed(origin))
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			if cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			if exposedHeaders != "" {
				w.Header().Set("Access-Control-Expose-Headers", exposedHeaders)
			}
			next.ServeHTTP(w, r)
		})
	}
}
