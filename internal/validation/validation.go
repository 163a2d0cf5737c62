package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/fraudguard/fraud-pipeline/internal/artifact"
	"github.com/fraudguard/fraud-pipeline/pkg/dataset"
	"github.com/fraudguard/fraud-pipeline/pkg/metrics"
	"go.uber.org/zap"
)

// Config is fixed when the stage is built.
type Config struct {
	SchemaFilePath            string
	DriftReportFilePath       string
	DriftAlpha                float64
	CategoricalDriftThreshold float64
	FailOnDrift               bool
}

// NewConfig places the drift report in the run layout.
func NewConfig(schemaFile string, alpha, categoricalThreshold float64, failOnDrift bool, layout artifact.Layout) Config {
	return Config{
		SchemaFilePath:            schemaFile,
		DriftReportFilePath:       layout.DriftReportFile(),
		DriftAlpha:                alpha,
		CategoricalDriftThreshold: categoricalThreshold,
		FailOnDrift:               failOnDrift,
	}
}

type Stage struct {
	cfg Config
	log *zap.SugaredLogger
}

func NewStage(cfg Config) *Stage {
	return &Stage{
		cfg: cfg,
		log: zap.S().Named(StageName),
	}
}

func (s *Stage) Name() string {
	return StageName
}

// Run checks both ingested files against the schema and, when they conform,
// writes the drift report. A mismatch is reported in the returned artifact;
// an error means the validation could not be carried out.
func (s *Stage) Run(ctx context.Context, in artifact.Ingestion) (artifact.Validation, error) {
	if err := ctx.Err(); err != nil {
		return artifact.Validation{}, err
	}

	if err := in.Verify(); err != nil {
		return artifact.Validation{}, NewErrValidationInfra(err, "ingestion artifact is not usable")
	}

	schema, err := LoadSchema(s.cfg.SchemaFilePath)
	if err != nil {
		return artifact.Validation{}, NewErrValidationInfra(err, "failed to load schema")
	}

	train, err := dataset.ReadCSV(in.TrainedFilePath)
	if err != nil {
		return artifact.Validation{}, NewErrValidationInfra(err, "failed to read train file")
	}
	test, err := dataset.ReadCSV(in.TestFilePath)
	if err != nil {
		return artifact.Validation{}, NewErrValidationInfra(err, "failed to read test file")
	}

	var result Result
	result.CheckSchema(schema, DatasetTrain, train)
	result.CheckSchema(schema, DatasetTest, test)
	metrics.UpdateValidationIssuesMetric(len(result.Issues))

	if !result.IsValid() {
		s.log.Warnw("schema validation failed", "issues", len(result.Issues))
		for _, i := range result.Issues {
			s.log.Debugw("schema issue", "code", i.Code, "dataset", i.Dataset, "column", i.Column)
		}
		return artifact.FailedValidation(result.Message(), ""), nil
	}
	s.log.Infow("schema validation passed", "columns", len(schema.Columns))

	report := NewDriftReport(in.TrainedFilePath, in.TestFilePath, DetectDrift(schema, train, test, s.cfg.DriftAlpha, s.cfg.CategoricalDriftThreshold))
	if err := report.Write(s.cfg.DriftReportFilePath); err != nil {
		return artifact.Validation{}, NewErrValidationInfra(err, "failed to write drift report")
	}
	s.log.Infow("drift report written", "path", s.cfg.DriftReportFilePath, "drift_detected", report.DriftDetected)

	if report.DriftDetected && s.cfg.FailOnDrift {
		msg := fmt.Sprintf("[%s] drift detected in columns: %s", CodeDatasetDrift, strings.Join(report.Drifted(), ", "))
		return artifact.FailedValidation(msg, s.cfg.DriftReportFilePath), nil
	}

	return artifact.PassedValidation("", s.cfg.DriftReportFilePath), nil
}
