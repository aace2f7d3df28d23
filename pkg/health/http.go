package health

import (
	"encoding/json"
	"net/http"
)

// Response is the JSON body of the readiness route.
type Response struct {
	Status  string                 `json:"status"`            // "healthy" | "unhealthy"
	Checks  map[string]CheckStatus `json:"checks,omitempty"`  // check name -> status
	Message string                 `json:"message,omitempty"` // optional message
}

// CheckStatus represents the status of an individual check in the HTTP response.
type CheckStatus struct {
	Status  string `json:"status"`            // "ok" | "error"
	Error   string `json:"error,omitempty"`   // error message if status is "error"
	Latency string `json:"latency,omitempty"` // latency in human-readable format
}

// ReadinessHandler returns 200 when every check passes and 503 otherwise.
func (h *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := h.Run(r.Context())

		response := Response{Status: "healthy", Checks: make(map[string]CheckStatus, len(report.Checks))}
		code := http.StatusOK
		if !report.Healthy {
			response.Status = "unhealthy"
			code = http.StatusServiceUnavailable
			if err != nil {
				response.Message = err.Error()
			}
		}
		for _, c := range report.Checks {
			cs := CheckStatus{Status: "ok", Latency: c.Latency.String()}
			if !c.Healthy {
				cs.Status = "error"
				cs.Error = c.Error
			}
			response.Checks[c.Name] = cs
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(response)
	}
}
