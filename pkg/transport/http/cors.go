package http

import (
	"net/http"
	"sort"
	"strings"

	"github.com/rs/cors"
)

// CORSPolicy is the cross-origin policy for one path prefix.
type CORSPolicy struct {
	PathPrefix       string
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int // seconds
}

type corsRoute struct {
	prefix  string
	handler http.Handler
}

// CORS returns middleware that applies the policy with the longest
// matching path prefix, or the default policy when none matches.
// Preflight requests are answered without reaching next.
func CORS(policies []CORSPolicy, def CORSPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		routes := make([]corsRoute, 0, len(policies))
		for _, p := range policies {
			routes = append(routes, corsRoute{prefix: p.PathPrefix, handler: newCORS(p).Handler(next)})
		}
		sort.SliceStable(routes, func(i, j int) bool {
			return len(routes[i].prefix) > len(routes[j].prefix)
		})
		fallback := newCORS(def).Handler(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, rt := range routes {
				if strings.HasPrefix(r.URL.Path, rt.prefix) {
					rt.handler.ServeHTTP(w, r)
					return
				}
			}
			fallback.ServeHTTP(w, r)
		})
	}
}

func newCORS(p CORSPolicy) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   p.AllowedOrigins,
		AllowedMethods:   p.AllowedMethods,
		AllowedHeaders:   p.AllowedHeaders,
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: p.AllowCredentials,
		MaxAge:           p.MaxAge,
	})
}
