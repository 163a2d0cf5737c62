package artifact

import (
	"path/filepath"
	"time"
)

const (
	// TimestampLayout names a run directory, e.g. 10_16_2026_14_03_59.
	TimestampLayout = "01_02_2006_15_04_05"

	DataIngestionDir     = "data_ingestion"
	FeatureStoreDir      = "feature_store"
	IngestedDir          = "ingested"
	FeatureStoreFileName = "raw_data.csv"
	TrainFileName        = "train.csv"
	TestFileName         = "test.csv"

	DataValidationDir   = "data_validation"
	DriftReportDir      = "drift_report"
	DriftReportFileName = "report.yaml"
)

// Layout resolves the files of a single pipeline run under
// <artifact dir>/<run timestamp>.
type Layout struct {
	root      string
	timestamp string
}

func NewLayout(artifactDir string, startedAt time.Time) Layout {
	ts := startedAt.Format(TimestampLayout)
	return Layout{root: filepath.Join(artifactDir, ts), timestamp: ts}
}

// Root is the run directory.
func (l Layout) Root() string {
	return l.root
}

func (l Layout) Timestamp() string {
	return l.timestamp
}

func (l Layout) FeatureStoreFile() string {
	return filepath.Join(l.root, DataIngestionDir, FeatureStoreDir, FeatureStoreFileName)
}

func (l Layout) TrainFile() string {
	return filepath.Join(l.root, DataIngestionDir, IngestedDir, TrainFileName)
}

func (l Layout) TestFile() string {
	return filepath.Join(l.root, DataIngestionDir, IngestedDir, TestFileName)
}

func (l Layout) DriftReportFile() string {
	return filepath.Join(l.root, DataValidationDir, DriftReportDir, DriftReportFileName)
}
