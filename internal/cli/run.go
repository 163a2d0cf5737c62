package cli

import (
	"context"
	"fmt"

	"github.com/fraudguard/fraud-pipeline/internal/artifact"
	"github.com/fraudguard/fraud-pipeline/internal/pipeline"
	"github.com/fraudguard/fraud-pipeline/internal/publisher"
	"github.com/fraudguard/fraud-pipeline/internal/store"
	"github.com/fraudguard/fraud-pipeline/internal/validation"
	"github.com/fraudguard/fraud-pipeline/pkg/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type RunOptions struct {
	GlobalOptions
}

func DefaultRunOptions() *RunOptions {
	return &RunOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdRun() *cobra.Command {
	o := DefaultRunOptions()
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the training pipeline: ingestion, validation and publishing.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			defer o.Close()
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *RunOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
}

func (o *RunOptions) Complete(cmd *cobra.Command, args []string) error {
	return o.GlobalOptions.Complete(cmd, args)
}

func (o *RunOptions) Validate(args []string) error {
	return o.GlobalOptions.Validate(args)
}

func (o *RunOptions) Run(ctx context.Context, args []string) error {
	cfg := o.Config
	log := zap.S().Named("cli")
	log.Infow("starting pipeline", "pipeline", cfg.Pipeline.Name, "config", cfg.String())

	layout := artifact.NewLayout(cfg.Pipeline.ArtifactDir, o.StartedAt)

	registry, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer registry.Close()
	if err := metrics.RegisterRunRegistryCollector(registry); err != nil {
		log.Warnw("run registry metrics disabled", "error", err)
	}

	// connecting is part of the export step
	source := store.NewSource(cfg)
	defer source.Close()

	ingester := newIngestionStage(cfg, layout, source)
	validator := validation.NewStage(newValidationConfig(cfg, layout))

	opts := []pipeline.Option{
		pipeline.WithListener(pipeline.NewLogListener()),
		pipeline.WithListener(pipeline.NewMetricsListener()),
		pipeline.WithListener(pipeline.NewRunRecorder(registry.Run(), cfg.Pipeline.Name, layout.Root(), ingester.Seed())),
	}

	if cfg.PublishEnabled() {
		pub, err := publisher.NewMinioPublisher(layout,
			publisher.WithEndpoint(cfg.S3.Endpoint),
			publisher.WithBucket(cfg.S3.Bucket),
			publisher.WithAccessKey(cfg.S3.AccessKey),
			publisher.WithSecretKey(cfg.S3.SecretKey),
			publisher.WithSSL(cfg.S3.UseSSL),
			publisher.WithPrefix(cfg.Pipeline.Name),
		)
		if err != nil {
			return fmt.Errorf("creating artifact publisher: %w", err)
		}
		opts = append(opts, pipeline.WithDownstream(pub))
	}

	p := pipeline.New(ingester, validator, opts...)
	runErr := p.Run(ctx)
	writeMetrics(cfg)

	if runErr != nil {
		return runErr
	}

	fmt.Printf("run %s succeeded\n", p.ID())
	fmt.Printf("artifacts: %s\n", layout.Root())
	return nil
}
