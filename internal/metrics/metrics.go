package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resultados de divulgacion usados como etiqueta.
const (
	DisclosureGranted     = "granted"
	DisclosureNotEnrolled = "not-enrolled"
	DisclosureNotFound    = "profile-not-found"
	DisclosureError       = "error"
)

// Metrics expone contadores del directorio. Un *Metrics nil es valido y no registra nada.
type Metrics struct {
	SearchRequests     *prometheus.CounterVec
	SearchResults      prometheus.Histogram
	SearchLatency      prometheus.Histogram
	DisclosureOutcomes *prometheus.CounterVec
}

// New registra las metricas en reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SearchRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_search_requests_total",
			Help: "Total advisor searches by outcome",
		}, []string{"outcome"}), // outcome: "ok", "invalid", "error"

		SearchResults: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "advisor_search_results",
			Help:    "Number of profiles returned per search",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		}),

		SearchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "advisor_search_duration_seconds",
			Help:    "Duration of a search including the profile fetch",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		DisclosureOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_contact_disclosures_total",
			Help: "Contact disclosure requests by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncSearch(outcome string) {
	if m != nil {
		m.SearchRequests.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveSearch(results int, d time.Duration) {
	if m != nil {
		m.SearchResults.Observe(float64(results))
		m.SearchLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncDisclosure(result string) {
	if m != nil {
		m.DisclosureOutcomes.WithLabelValues(result).Inc()
	}
}
