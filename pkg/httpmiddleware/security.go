package httpmiddleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/unrolled/secure"
)

// CORSConfig represents CORS configuration options
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	MaxAge         int
}

// DefaultCORSConfig allows read-only access from any origin.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		MaxAge:         300,
	}
}

// CORS middleware configures Cross-Origin Resource Sharing
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: config.AllowedOrigins,
		AllowedMethods: config.AllowedMethods,
		MaxAge:         config.MaxAge,
	})
}

// StatusSecurityOptions are the headers set on status responses.
func StatusSecurityOptions() secure.Options {
	return secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		ReferrerPolicy:     "no-referrer",
	}
}

// Security middleware adds security headers
func Security(opts *secure.Options) func(http.Handler) http.Handler {
	var s *secure.Secure
	if opts == nil {
		s = secure.New(StatusSecurityOptions())
	} else {
		s = secure.New(*opts)
	}
	return s.Handler
}
