package metrics

import (
	"net/http"

	"github.com/locallibrary/catalog/pkg/mutation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts pipeline and guard outcomes on its own registry, so tests
// can build as many as they like without colliding on the default one.
type Metrics struct {
	registry  *prometheus.Registry
	mutations *prometheus.CounterVec
	deletes   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalog",
			Name:      "mutations_total",
			Help:      "Create and update submissions by entity kind, action and outcome.",
		}, []string{"kind", "action", "status"}),
		deletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalog",
			Name:      "deletes_total",
			Help:      "Delete requests by entity kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
	m.registry.MustRegister(
		m.mutations,
		m.deletes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveMutation(kind mutation.Kind, action mutation.Action, status mutation.Status) {
	m.mutations.WithLabelValues(string(kind), string(action), string(status)).Inc()
}

func (m *Metrics) ObserveDelete(kind mutation.Kind, outcome string) {
	m.deletes.WithLabelValues(string(kind), outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

var _ mutation.Recorder = (*Metrics)(nil)
