package httpmiddleware

import (
	"net/http"

	"github.com/google/uuid"
)

// CorrelationHeader carries the per-request id.
const CorrelationHeader = "X-Correlation-ID"

// CorrelationID gives every request a fresh correlation id, ignoring any id the
// client sent, and echoes it on the response.
func CorrelationID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.NewString()
			r.Header.Set(CorrelationHeader, id)
			w.Header().Set(CorrelationHeader, id)
			next.ServeHTTP(w, r)
		})
	}
}
