package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	fraudPipeline = "fraud_pipeline"

	// Run metrics
	runsTotal            = "runs_total"
	stageDurationSeconds = "stage_duration_seconds"

	// Dataset metrics
	datasetRows      = "dataset_rows"
	validationIssues = "validation_issues"

	// Labels
	runStateLabel  = "state"
	stageLabel     = "stage"
	partitionLabel = "partition"
)

const (
	PartitionRaw   = "raw"
	PartitionTrain = "train"
	PartitionTest  = "test"
)

var runsTotalLabels = []string{
	runStateLabel,
}

var stageDurationLabels = []string{
	stageLabel,
}

var datasetRowsLabels = []string{
	partitionLabel,
}

/**
* Metrics definition
**/
var runsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: fraudPipeline,
		Name:      runsTotal,
		Help:      "number of pipeline runs by final state",
	},
	runsTotalLabels,
)

var stageDurationMetric = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Subsystem: fraudPipeline,
		Name:      stageDurationSeconds,
		Help:      "duration of the last execution of each stage",
	},
	stageDurationLabels,
)

var datasetRowsMetric = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Subsystem: fraudPipeline,
		Name:      datasetRows,
		Help:      "number of rows in the last exported dataset and its partitions",
	},
	datasetRowsLabels,
)

var validationIssuesMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: fraudPipeline,
		Name:      validationIssues,
		Help:      "number of schema issues found by the last validation",
	},
)

func IncreaseRunsTotalMetric(state string) {
	labels := prometheus.Labels{
		runStateLabel: state,
	}
	runsTotalMetric.With(labels).Inc()
}

func UpdateStageDurationMetric(stage string, d time.Duration) {
	labels := prometheus.Labels{
		stageLabel: stage,
	}
	stageDurationMetric.With(labels).Set(d.Seconds())
}

func UpdateDatasetRowsMetric(partition string, rows int) {
	labels := prometheus.Labels{
		partitionLabel: partition,
	}
	datasetRowsMetric.With(labels).Set(float64(rows))
}

func UpdateValidationIssuesMetric(count int) {
	validationIssuesMetric.Set(float64(count))
}

// WriteTextfile dumps every registered metric in the node-exporter textfile
// format. The file is replaced atomically.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(runsTotalMetric)
	prometheus.MustRegister(stageDurationMetric)
	prometheus.MustRegister(datasetRowsMetric)
	prometheus.MustRegister(validationIssuesMetric)
}
