// Package metrics holds the domain Prometheus collectors for the document workflow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Upload results.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

// DocumentMetrics counts upload outcomes, compensating deletes and review decisions.
// A nil *DocumentMetrics is valid and records nothing.
type DocumentMetrics struct {
	uploads       *prometheus.CounterVec
	compensations *prometheus.CounterVec
	reviews       *prometheus.CounterVec
}

// NewDocumentMetrics creates and registers the document collectors on reg.
func NewDocumentMetrics(reg prometheus.Registerer) (*DocumentMetrics, error) {
	m := &DocumentMetrics{
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bms_document_uploads_total",
				Help: "Document uploads by outcome.",
			},
			[]string{"result"},
		),
		compensations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bms_document_compensations_total",
				Help: "Object deletions attempted after a failed metadata insert.",
			},
			[]string{"result"},
		),
		reviews: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bms_document_reviews_total",
				Help: "Review decisions applied by landlords.",
			},
			[]string{"status"},
		),
	}

	for _, c := range []prometheus.Collector{m.uploads, m.compensations, m.reviews} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *DocumentMetrics) Upload(result string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(result).Inc()
}

func (m *DocumentMetrics) Compensation(result string) {
	if m == nil {
		return
	}
	m.compensations.WithLabelValues(result).Inc()
}

func (m *DocumentMetrics) Review(status string) {
	if m == nil {
		return
	}
	m.reviews.WithLabelValues(status).Inc()
}
