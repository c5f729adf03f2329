package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Headers the booking API reads besides Authorization.
const (
	IdempotencyKeyHeader = "Idempotency-Key"
	UserIDHeader         = "X-User-Id"
	BusinessIDHeader     = "X-Business-Id"
	RoleHeader           = "X-Role"
)

// CORSPolicy defines the CORS headers to emit for matching origins.
type CORSPolicy struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSMethods covers every verb the booking API routes.
var DefaultCORSMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions}

// DefaultCORSHeaders are the request headers a browser client sends to book:
// the bearer token, the idempotency key and the gateway identity headers.
var DefaultCORSHeaders = []string{"Authorization", "Content-Type", IdempotencyKeyHeader, RequestIDHeader, UserIDHeader, BusinessIDHeader, RoleHeader}

// DefaultCORSExposedHeaders lets scripts read the request id and the
// rate limiter's Retry-After.
var DefaultCORSExposedHeaders = []string{RequestIDHeader, "Retry-After"}

// WithCORS adds basic CORS handling. If AllowedOrigins is empty, it is a no-op.
func WithCORS(cfg CORSPolicy) Middleware {
	if len(cfg.AllowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	allowedOrigins := normalizeList(cfg.AllowedOrigins)
	methods := normalizeList(cfg.AllowedMethods)
	if len(methods) == 0 {
		methods = DefaultCORSMethods
	}
	allowedMethods := strings.Join(methods, ", ")
	reqHeaders := normalizeList(cfg.AllowedHeaders)
	if len(reqHeaders) == 0 {
		reqHeaders = DefaultCORSHeaders
	}
	allowedHeaders := strings.Join(reqHeaders, ", ")
	exposed := normalizeList(cfg.ExposedHeaders)
	if len(exposed) == 0 {
		exposed = DefaultCORSExposedHeaders
	}
	exposedHeaders := strings.Join(exposed, ", ")
	maxAge := int(cfg.MaxAge.Seconds())

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowOrigin, ok := matchOrigin(origin, allowedOrigins, cfg.AllowCredentials)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			headers := w.Header()
			headers.Set("Access-Control-Allow-Origin", allowOrigin)
			if cfg.AllowCredentials {
				headers.Set("Access-Control-Allow-Credentials", "true")
			}
			if allowedMethods != "" {
				headers.Set("Access-Control-Allow-Methods", allowedMethods)
			}
			if allowedHeaders != "" {
				headers.Set("Access-Control-Allow-Headers", allowedHeaders)
			}
			if maxAge > 0 {
				headers.Set("Access-Control-Max-Age", strconv.Itoa(maxAge))
			}
			headers.Add("Vary", "Origin")
			headers.Add("Vary", "Access-Control-Request-Method")
			headers.Add("Vary", "Access-Control-Request-Headers")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			headers.Set("Access-Control-Expose-Headers", exposedHeaders)

			next.ServeHTTP(w, r)
		})
	}
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func matchOrigin(origin string, allowed []string, allowCredentials bool) (string, bool) {
	for _, candidate := range allowed {
		if candidate == "*" {
			if allowCredentials {
				return origin, true
			}
			return "*", true
		}
		if strings.EqualFold(candidate, origin) {
			return origin, true
		}
	}
	return "", false
}
