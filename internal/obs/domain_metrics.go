package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// DocumentComputeTotal counts fiscal document computations by
	// document type and outcome.
	DocumentComputeTotal *prometheus.CounterVec
	// AccessKeyTotal counts access key generations by environment and
	// outcome.
	AccessKeyTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		DocumentComputeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_compute_total",
			Help:      "Count of fiscal document computations by outcome.",
		}, []string{"document_type", "result"})
		AccessKeyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_key_total",
			Help:      "Count of access key generations by outcome.",
		}, []string{"environment", "result"})

		mustRegisterCollector(reg, DocumentComputeTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DocumentComputeTotal = v
			}
		})
		mustRegisterCollector(reg, AccessKeyTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				AccessKeyTotal = v
			}
		})
	})
}

// ObserveDocumentCompute records the outcome of one pipeline run. A no-op
// until the collectors are registered.
func ObserveDocumentCompute(documentType string, err error) {
	if DocumentComputeTotal == nil {
		return
	}
	DocumentComputeTotal.WithLabelValues(documentType, resultLabel(err)).Inc()
}

// ObserveAccessKey records the outcome of one key generation.
func ObserveAccessKey(environment string, err error) {
	if AccessKeyTotal == nil {
		return
	}
	AccessKeyTotal.WithLabelValues(environment, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
