package httpmiddleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/lewisedginton/safe_local_human/pkg/logger"
)

// HTTPLogger logs status server requests at debug level.
type HTTPLogger struct {
	logger logger.Logger
}

// NewHTTPLogger creates a new HTTP logger middleware
func NewHTTPLogger(log logger.Logger) *HTTPLogger {
	return &HTTPLogger{logger: log}
}

// Middleware returns the HTTP logging middleware
func (h *HTTPLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(wrapped, r)

		h.logger.Debug("HTTP request served",
			logger.StringField("client_ip", r.RemoteAddr),
			logger.StringField("http_method", r.Method),
			logger.StringField("http_path", r.URL.Path),
			logger.StringField("correlation_id", r.Header.Get(CorrelationHeader)),
			logger.IntField("http_status", wrapped.Status()),
			logger.IntField("response_bytes", wrapped.BytesWritten()),
			logger.DurationField("duration", time.Since(start)),
		)
	})
}
