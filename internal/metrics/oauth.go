package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OAuth flow metrics. These live in a standalone package so that oauthflow,
// integrations and http can record them without importing each other.

var (
	FlowsStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_flows_started_total",
		Help: "Flujos OAuth iniciados por provider y modo",
	}, []string{"provider", "mode"})

	Callbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_callbacks_total",
		Help: "Callbacks OAuth procesados por provider, resultado y código de error",
	}, []string{"provider", "status", "error_code"})

	ExchangeDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "oauth_exchange_duration_seconds",
		Help:    "Latencia del intercambio de code contra el backend",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
	}, []string{"provider", "outcome"})

	SyncsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "integration_syncs_total",
		Help: "Sincronizaciones de integraciones disparadas por resultado",
	}, []string{"provider", "result"})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		FlowsStarted, Callbacks, ExchangeDuration, SyncsTotal,
		HTTPRequestsTotal, HTTPRequestDuration, HTTPInflight, CORSRejectsTotal, RateLimited,
	}
}

// Register registers every service metric on the given registry (or default if nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

// RecordFlowStarted counts a started flow.
func RecordFlowStarted(provider, mode string) {
	FlowsStarted.WithLabelValues(provider, mode).Inc()
}

// RecordCallback counts a terminal callback outcome.
func RecordCallback(provider, status, errorCode string) {
	Callbacks.WithLabelValues(provider, status, errorCode).Inc()
}

// ObserveExchange records the duration of one backend exchange.
// outcome: ok | rejected | transport
func ObserveExchange(provider, outcome string, d time.Duration) {
	ExchangeDuration.WithLabelValues(provider, outcome).Observe(d.Seconds())
}

// RecordSync counts a sync attempt. result: ok | failed
func RecordSync(provider, result string) {
	SyncsTotal.WithLabelValues(provider, result).Inc()
}
