package cli

import (
	"encoding/json"
	"fmt"

	"github.com/fraudguard/fraud-pipeline/internal/artifact"
	"github.com/fraudguard/fraud-pipeline/internal/config"
	"github.com/fraudguard/fraud-pipeline/internal/ingestion"
	"github.com/fraudguard/fraud-pipeline/internal/store"
	"github.com/fraudguard/fraud-pipeline/internal/validation"
	"github.com/fraudguard/fraud-pipeline/pkg/metrics"
	"go.uber.org/zap"
	"sigs.k8s.io/yaml"
)

const (
	jsonFormat  = "json"
	yamlFormat  = "yaml"
	tableFormat = "table"
)

var (
	legalOutputTypes = []string{jsonFormat, yamlFormat}
)

func openRegistry(cfg *config.Config) (store.Store, error) {
	db, err := store.InitRegistry(cfg.RunRegistryPath())
	if err != nil {
		return nil, fmt.Errorf("opening run registry %s: %w", cfg.RunRegistryPath(), err)
	}
	return store.NewStore(db), nil
}

func newIngestionStage(cfg *config.Config, layout artifact.Layout, source ingestion.TableReader) *ingestion.Stage {
	var opts []ingestion.Option
	if cfg.Pipeline.SplitSeed != nil {
		opts = append(opts, ingestion.WithSeed(*cfg.Pipeline.SplitSeed))
	}
	return ingestion.NewStage(
		ingestion.NewConfig(cfg.Pipeline.TableName, cfg.Pipeline.SplitRatio, cfg.Pipeline.MissingSentinels, layout),
		source,
		opts...,
	)
}

func newValidationConfig(cfg *config.Config, layout artifact.Layout) validation.Config {
	return validation.NewConfig(
		cfg.Pipeline.SchemaFile,
		cfg.Pipeline.DriftAlpha,
		cfg.Pipeline.CategoricalDriftThreshold,
		cfg.Pipeline.FailOnDrift,
		layout,
	)
}

// writeMetrics dumps the metrics when a textfile is configured. A failure
// is logged only since the run outcome is already known.
func writeMetrics(cfg *config.Config) {
	if cfg.Service.MetricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(cfg.Service.MetricsFile); err != nil {
		zap.S().Named("cli").Errorw("failed to write metrics", "path", cfg.Service.MetricsFile, "error", err)
	}
}

func printObject(v any, output string) error {
	switch output {
	case jsonFormat:
		marshalled, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshalling %T: %w", v, err)
		}
		fmt.Printf("%s\n", string(marshalled))
	default:
		marshalled, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshalling %T: %w", v, err)
		}
		fmt.Printf("%s", string(marshalled))
	}
	return nil
}
