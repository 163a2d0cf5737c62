package metrics

import (
	"context"
	"fmt"

	"github.com/fraudguard/fraud-pipeline/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type runRegistryCollector struct {
	store        store.Store
	totalRuns    *prometheus.Desc
	totalByState *prometheus.Desc
}

// NewRunRegistryCollector exposes the content of the run registry. It is
// registered by the caller since the registry is optional.
func NewRunRegistryCollector(s store.Store) prometheus.Collector {
	fqName := func(name string) string {
		return fmt.Sprintf("%s_registry_%s", fraudPipeline, name)
	}

	return &runRegistryCollector{
		store: s,
		totalRuns: prometheus.NewDesc(
			fqName("runs"),
			"Total number of recorded runs.",
			nil,
			prometheus.Labels{},
		),
		totalByState: prometheus.NewDesc(
			fqName("runs_by_state"),
			"Recorded runs by state",
			[]string{runStateLabel},
			prometheus.Labels{},
		),
	}
}

func (c *runRegistryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalRuns
	ch <- c.totalByState
}

// Collect implements Collector.
func (c *runRegistryCollector) Collect(ch chan<- prometheus.Metric) {
	counts, err := c.store.Run().CountByState(context.Background())
	if err != nil {
		zap.S().Named("registry_collector").Errorf("failed to collect run registry statistics: %s", err)
		return
	}

	total := 0
	for state, n := range counts {
		total += n
		ch <- prometheus.MustNewConstMetric(c.totalByState, prometheus.GaugeValue, float64(n), state)
	}
	ch <- prometheus.MustNewConstMetric(c.totalRuns, prometheus.GaugeValue, float64(total))
}

// RegisterRunRegistryCollector adds the registry collector to the default
// registerer so that it is part of WriteTextfile.
func RegisterRunRegistryCollector(s store.Store) error {
	return prometheus.Register(NewRunRegistryCollector(s))
}
