package pipeline

import (
	"context"
	"time"

	"github.com/fraudguard/fraud-pipeline/pkg/metrics"
	"go.uber.org/zap"
)

// Listener observes transitions. An error is logged by the pipeline and
// does not change the outcome of the run.
type Listener interface {
	Name() string
	OnTransition(ctx context.Context, t Transition) error
}

type LogListener struct {
	log *zap.SugaredLogger
}

func NewLogListener() *LogListener {
	return &LogListener{log: zap.S().Named("pipeline_transition")}
}

func (l *LogListener) Name() string {
	return "log"
}

func (l *LogListener) OnTransition(_ context.Context, t Transition) error {
	switch t.To {
	case Failed:
		l.log.Errorw("transition", "run_id", t.RunID, "from", t.From, "to", t.To, "stage", t.Stage, "error", t.Err)
	case Validating:
		l.log.Infow("transition", "run_id", t.RunID, "from", t.From, "to", t.To, "ingestion", t.Ingestion.String())
	case Succeeded:
		l.log.Infow("transition", "run_id", t.RunID, "from", t.From, "to", t.To, "drift_report", t.Validation.DriftReportPath)
	default:
		l.log.Infow("transition", "run_id", t.RunID, "from", t.From, "to", t.To)
	}
	return nil
}

// MetricsListener records stage durations and final states.
type MetricsListener struct {
	last time.Time
}

func NewMetricsListener() *MetricsListener {
	return &MetricsListener{}
}

func (m *MetricsListener) Name() string {
	return "metrics"
}

func (m *MetricsListener) OnTransition(_ context.Context, t Transition) error {
	if t.Stage != "" && !m.last.IsZero() {
		metrics.UpdateStageDurationMetric(t.Stage, t.At.Sub(m.last))
	}
	m.last = t.At

	if t.To.Terminal() {
		metrics.IncreaseRunsTotalMetric(t.To.String())
	}
	return nil
}
