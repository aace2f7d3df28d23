package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/safe_local_human/pkg/logger"
)

func TestMetrics_Recording(t *testing.T) {
	m := NewMetrics(logger.NewNopLogger())

	m.TurnProduced()
	m.TurnProduced()
	m.OperatorRejected()
	m.PartnerRejected()
	m.SafetyChecked("string_matcher", true)
	m.SafetyChecked("string_matcher", false)
	m.SafetyChecked("string_matcher", false)
	m.EpisodeEnded("done")
	m.ObserveTranslation(DirectionInbound, 200*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TurnsProduced))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperatorRejections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PartnerRejections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SafetyChecks.WithLabelValues("string_matcher", "true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SafetyChecks.WithLabelValues("string_matcher", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Episodes.WithLabelValues("done")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.TranslationDuration))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.TurnProduced()
		m.OperatorRejected()
		m.PartnerRejected()
		m.SafetyChecked("classifier", false)
		m.EpisodeEnded("exit")
		m.ObserveTranslation(DirectionOutbound, time.Second)
		_ = m.Shutdown(t.Context())
	})
}

func TestMetrics_Router(t *testing.T) {
	m := NewMetrics(logger.NewNopLogger())
	m.AddCustomMetric(prometheus.NewGauge(prometheus.GaugeOpts{Name: "custom_gauge", Help: "custom"}))
	m.TurnProduced()

	srv := httptest.NewServer(m.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "local_human_turns_produced_total 1")
	assert.Contains(t, string(body), "custom_gauge 0")

	resp, err = http.Get(srv.URL + "/health/live")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetrics_RouterReadiness(t *testing.T) {
	m := NewMetrics(logger.NewNopLogger())

	srv := httptest.NewServer(m.Router())
	resp, err := http.Get(srv.URL + "/health/ready")
	require.NoError(t, err)
	_ = resp.Body.Close()
	srv.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	m.SetReadiness(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	srv = httptest.NewServer(m.Router())
	defer srv.Close()

	resp, err = http.Get(srv.URL + "/health/ready")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))
}
