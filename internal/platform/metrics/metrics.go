package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the vault.
type Metrics struct {
	ArchivesRegistered prometheus.Counter
	ArchivesSuperseded prometheus.Counter
	Verifications      *prometheus.CounterVec
	CatalogHits        prometheus.Counter
	CatalogMisses      prometheus.Counter
	ExtractDuration    prometheus.Histogram
	PackDuration       prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ArchivesRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kycvault_archives_registered_total",
			Help: "Total number of archives registered in the vault",
		}),
		ArchivesSuperseded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kycvault_archives_superseded_total",
			Help: "Total number of archives replaced by a newer version",
		}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kycvault_verifications_total",
			Help: "Total number of integrity checks by outcome",
		}, []string{"outcome"}),
		CatalogHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kycvault_catalog_hits_total",
			Help: "Total catalog cache hits",
		}),
		CatalogMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kycvault_catalog_misses_total",
			Help: "Total catalog cache misses",
		}),
		ExtractDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kycvault_extract_duration_seconds",
			Help:    "Archive extraction duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		PackDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kycvault_pack_duration_seconds",
			Help:    "Archive re-packaging duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// IncVerification records one integrity-check outcome ("match" or "mismatch").
func (m *Metrics) IncVerification(outcome string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(outcome).Inc()
}
