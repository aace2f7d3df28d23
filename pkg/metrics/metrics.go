// Package metrics provides Prometheus metrics collection for the dialogue loop.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lewisedginton/safe_local_human/pkg/httpmiddleware"
	"github.com/lewisedginton/safe_local_human/pkg/logger"
)

const (
	subsystem = "local_human"
)

// Translation directions used as label values.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Metrics holds the dialogue collectors and their registry.
// All recording methods are safe to call on a nil *Metrics.
type Metrics struct {
	reg *prometheus.Registry

	TurnsProduced       prometheus.Counter
	OperatorRejections  prometheus.Counter
	PartnerRejections   prometheus.Counter
	SafetyChecks        *prometheus.CounterVec
	Episodes            *prometheus.CounterVec
	TranslationDuration *prometheus.HistogramVec

	log       logger.Logger
	server    *http.Server
	readiness http.Handler
}

// NewMetrics creates a Metrics instance with every dialogue collector registered.
func NewMetrics(l logger.Logger) *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		log: l,
	}

	m.TurnsProduced = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "turns_produced_total",
		Help:      "Operator turns forwarded to the dialogue partner",
	})
	m.OperatorRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "operator_rejections_total",
		Help:      "Operator inputs rejected as offensive",
	})
	m.PartnerRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "partner_rejections_total",
		Help:      "Partner replies withheld as offensive",
	})
	m.SafetyChecks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "safety_checks_total",
		Help:      "Offensiveness checks by strategy and verdict",
	}, []string{"strategy", "offensive"})
	m.Episodes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "episodes_total",
		Help:      "Completed episodes by end reason",
	}, []string{"reason"})
	m.TranslationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Subsystem: subsystem,
		Name:      "translation_duration_seconds",
		Help:      "Translation call duration in seconds",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1.0, 3.0, 5.0, 10.0},
	}, []string{"direction"})

	m.reg.MustRegister(
		m.TurnsProduced,
		m.OperatorRejections,
		m.PartnerRejections,
		m.SafetyChecks,
		m.Episodes,
		m.TranslationDuration,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// AddCustomMetric registers a custom Prometheus collector.
func (m *Metrics) AddCustomMetric(c prometheus.Collector) {
	m.reg.MustRegister(c)
}

// TurnProduced counts one forwarded operator turn.
func (m *Metrics) TurnProduced() {
	if m == nil {
		return
	}
	m.TurnsProduced.Inc()
}

// OperatorRejected counts one rejected operator input.
func (m *Metrics) OperatorRejected() {
	if m == nil {
		return
	}
	m.OperatorRejections.Inc()
}

// PartnerRejected counts one withheld partner reply.
func (m *Metrics) PartnerRejected() {
	if m == nil {
		return
	}
	m.PartnerRejections.Inc()
}

// SafetyChecked records a strategy verdict.
func (m *Metrics) SafetyChecked(strategy string, offensive bool) {
	if m == nil {
		return
	}
	m.SafetyChecks.WithLabelValues(strategy, fmt.Sprint(offensive)).Inc()
}

// EpisodeEnded counts an episode closed for the given reason.
func (m *Metrics) EpisodeEnded(reason string) {
	if m == nil {
		return
	}
	m.Episodes.WithLabelValues(reason).Inc()
}

// ObserveTranslation records how long a translation took.
func (m *Metrics) ObserveTranslation(direction string, d time.Duration) {
	if m == nil {
		return
	}
	m.TranslationDuration.WithLabelValues(direction).Observe(d.Seconds())
}

// SetReadiness mounts h at /health/ready on routers built afterwards.
func (m *Metrics) SetReadiness(h http.Handler) {
	m.readiness = h
}

// Router returns the status routes: /metrics, /health/live and, when set,
// /health/ready.
func (m *Metrics) Router() http.Handler {
	r := chi.NewRouter()
	httpmiddleware.WithLogger(r, m.log)

	r.Handle("/metrics", promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{DisableCompression: true}))
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if m.readiness != nil {
		r.Handle("/health/ready", m.readiness)
	}
	return r
}

// Listen starts the status server on the specified port. Errors after start-up are logged.
func (m *Metrics) Listen(port int) {
	m.log.Info("Starting metrics listener", logger.IntField("port", port))
	m.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           m.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func(srv *http.Server) {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.log.Error("Metrics listener failed", logger.ErrorField(err))
		}
	}(m.server)
}

// Shutdown stops the status server if it was started.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.server == nil {
		return nil
	}
	m.log.Info("Stopping metrics listener")
	return m.server.Shutdown(ctx)
}
