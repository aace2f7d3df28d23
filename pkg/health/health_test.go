package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCheck is a simple test implementation of the Check interface.
type mockCheck struct {
	name      string
	err       error
	sleepTime time.Duration
}

func (m *mockCheck) Name() string {
	return m.name
}

func (m *mockCheck) Check(ctx context.Context) error {
	if m.sleepTime > 0 {
		select {
		case <-time.After(m.sleepTime):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.err
}

func TestRunEmpty(t *testing.T) {
	report, err := New().Run(t.Context())
	require.NoError(t, err)
	assert.True(t, report.Healthy)
	assert.Empty(t, report.Checks)
}

func TestRunSortsAndAggregates(t *testing.T) {
	h := New()
	h.Add(
		&mockCheck{name: "words_file"},
		&mockCheck{name: "postgres", err: errors.New("connection refused")},
		NewCheckFunc("candidates", func(context.Context) error { return nil }),
	)
	assert.Equal(t, 3, h.Len())

	report, err := h.Run(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
	assert.False(t, report.Healthy)

	require.Len(t, report.Checks, 3)
	assert.Equal(t, "candidates", report.Checks[0].Name)
	assert.Equal(t, "postgres", report.Checks[1].Name)
	assert.False(t, report.Checks[1].Healthy)
	assert.Equal(t, "connection refused", report.Checks[1].Error)
	assert.True(t, report.Checks[2].Healthy)
}

func TestRunTimeout(t *testing.T) {
	h := New(WithTimeout(20 * time.Millisecond))
	h.Add(&mockCheck{name: "slow", sleepTime: time.Second})

	report, err := h.Run(t.Context())
	require.Error(t, err)
	assert.Equal(t, context.DeadlineExceeded.Error(), report.Checks[0].Error)
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name       string
		checkErr   error
		wantCode   int
		wantStatus string
	}{
		{"healthy", nil, http.StatusOK, "healthy"},
		{"unhealthy", errors.New("down"), http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New()
			h.Add(&mockCheck{name: "s3", err: tt.checkErr})

			rec := httptest.NewRecorder()
			h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp Response
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			require.Contains(t, resp.Checks, "s3")
			if tt.checkErr != nil {
				assert.Equal(t, "error", resp.Checks["s3"].Status)
				assert.Equal(t, "down", resp.Checks["s3"].Error)
			}
		})
	}
}
