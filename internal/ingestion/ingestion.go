package ingestion

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/fraudguard/fraud-pipeline/internal/artifact"
	"github.com/fraudguard/fraud-pipeline/pkg/dataset"
	"github.com/fraudguard/fraud-pipeline/pkg/metrics"
	"go.uber.org/zap"
)

const (
	StepExport       = "export"
	StepFeatureStore = "persist_feature_store"
	StepSplit        = "split"
	StepPersistTrain = "persist_train"
	StepPersistTest  = "persist_test"
)

// TableReader is the source connector used to export a table.
type TableReader interface {
	Scan(ctx context.Context, name string) (*dataset.Dataset, error)
}

// Config is fixed when the stage is built.
type Config struct {
	TableName            string
	FeatureStoreFilePath string
	TrainingFilePath     string
	TestingFilePath      string
	TestRatio            float64
	MissingSentinels     []string
}

// NewConfig places the stage files in the run layout.
func NewConfig(table string, ratio float64, sentinels []string, layout artifact.Layout) Config {
	return Config{
		TableName:            table,
		FeatureStoreFilePath: layout.FeatureStoreFile(),
		TrainingFilePath:     layout.TrainFile(),
		TestingFilePath:      layout.TestFile(),
		TestRatio:            ratio,
		MissingSentinels:     append([]string(nil), sentinels...),
	}
}

type Option func(s *Stage)

// WithSeed fixes the seed of the train/test split.
func WithSeed(seed int64) Option {
	return func(s *Stage) {
		s.seed = seed
	}
}

type Stage struct {
	cfg    Config
	source TableReader
	seed   int64
	rng    *rand.Rand
	log    *zap.SugaredLogger
}

func NewStage(cfg Config, source TableReader, opts ...Option) *Stage {
	s := &Stage{
		cfg:    cfg,
		source: source,
		seed:   time.Now().UnixNano(),
		log:    zap.S().Named(StageName),
	}
	for _, o := range opts {
		o(s)
	}
	s.rng = dataset.NewRand(s.seed)
	return s
}

func (s *Stage) Name() string {
	return StageName
}

// Seed returns the seed used by Split.
func (s *Stage) Seed() int64 {
	return s.seed
}

// Export reads the whole configured table and replaces sentinel markers with
// missing values.
func (s *Stage) Export(ctx context.Context) (*dataset.Dataset, error) {
	s.log.Infow("exporting table", "table", s.cfg.TableName)

	ds, err := s.source.Scan(ctx, s.cfg.TableName)
	if err != nil {
		return nil, err
	}
	if ds.Empty() {
		return nil, NewErrEmptyResult(s.cfg.TableName)
	}

	replaced := ds.NormalizeMissing(s.cfg.MissingSentinels...)
	s.log.Infow("table exported", "table", s.cfg.TableName, "rows", ds.Len(), "columns", len(ds.Columns), "missing_markers_replaced", replaced)

	return ds, nil
}

// PersistFeatureStore writes the dataset to path, replacing any previous file.
func (s *Stage) PersistFeatureStore(ds *dataset.Dataset, path string) error {
	s.log.Infow("saving dataset", "path", path, "rows", ds.Len())
	return ds.WriteCSV(path)
}

// Split partitions the dataset; ratio is the test fraction.
func (s *Stage) Split(ds *dataset.Dataset, ratio float64) (train, test *dataset.Dataset, err error) {
	train, test, err = dataset.Split(ds, ratio, s.rng)
	if err != nil {
		return nil, nil, err
	}
	s.log.Infow("performed train test split", "ratio", ratio, "seed", s.seed, "train_rows", train.Len(), "test_rows", test.Len())
	return train, test, nil
}

// Run exports the table, stores it in the feature store and writes the
// train and test files. It stops at the first failing step.
func (s *Stage) Run(ctx context.Context) (artifact.Ingestion, error) {
	ds, err := s.Export(ctx)
	if err != nil {
		return artifact.Ingestion{}, NewIngestionError(StepExport, err)
	}
	metrics.UpdateDatasetRowsMetric(metrics.PartitionRaw, ds.Len())

	if err := s.PersistFeatureStore(ds, s.cfg.FeatureStoreFilePath); err != nil {
		return artifact.Ingestion{}, NewIngestionError(StepFeatureStore, err)
	}

	train, test, err := s.Split(ds, s.cfg.TestRatio)
	if err != nil {
		return artifact.Ingestion{}, NewIngestionError(StepSplit, err)
	}
	metrics.UpdateDatasetRowsMetric(metrics.PartitionTrain, train.Len())
	metrics.UpdateDatasetRowsMetric(metrics.PartitionTest, test.Len())

	if err := s.PersistFeatureStore(train, s.cfg.TrainingFilePath); err != nil {
		return artifact.Ingestion{}, NewIngestionError(StepPersistTrain, err)
	}
	if err := s.PersistFeatureStore(test, s.cfg.TestingFilePath); err != nil {
		return artifact.Ingestion{}, NewIngestionError(StepPersistTest, err)
	}

	a := artifact.Ingestion{
		TrainedFilePath: s.cfg.TrainingFilePath,
		TestFilePath:    s.cfg.TestingFilePath,
	}
	s.log.Infow("ingestion completed", "artifact", a.String())

	return a, nil
}
