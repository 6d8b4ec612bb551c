package controller

import (
	"net/http"
	"slices"
	"strings"
)

// CORSOptions lists the browser origins allowed to call the API. An empty
// list, or one containing "*", allows any origin.
type CORSOptions struct {
	AllowedOrigins []string
}

const (
	corsAllowHeaders  = "Authorization, Content-Type, Accept, " + RequestIDHeader + ", traceparent, tracestate"
	corsAllowMethods  = "GET, POST, OPTIONS"
	corsMaxAgeSeconds = "600"
)

func (o CORSOptions) allowAny() bool {
	return len(o.AllowedOrigins) == 0 || slices.Contains(o.AllowedOrigins, "*")
}

func (o CORSOptions) allowed(origin string) bool {
	return slices.ContainsFunc(o.AllowedOrigins, func(s string) bool {
		return strings.EqualFold(s, origin)
	})
}

// WithCORS returns a middleware that sets CORS headers for allowed origins
// and short-circuits OPTIONS preflight requests. Preflights from origins that
// are not allowed get 403 Forbidden.
func WithCORS(opts CORSOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()

			ok := true
			switch {
			case opts.allowAny():
				h.Set("Access-Control-Allow-Origin", "*")
			case origin != "" && opts.allowed(origin):
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			default:
				ok = false
			}
			if ok {
				h.Set("Access-Control-Expose-Headers", RequestIDHeader)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if !ok {
					w.WriteHeader(http.StatusForbidden)

					return
				}
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Max-Age", corsMaxAgeSeconds)
				w.WriteHeader(http.StatusNoContent)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
