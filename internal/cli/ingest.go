package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fraudguard/fraud-pipeline/internal/artifact"
	"github.com/fraudguard/fraud-pipeline/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
)

type IngestOptions struct {
	GlobalOptions
	Output string
}

func DefaultIngestOptions() *IngestOptions {
	return &IngestOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Output:        yamlFormat,
	}
}

func NewCmdIngest() *cobra.Command {
	o := DefaultIngestOptions()
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Export the source table and write the train and test files.",
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

func (o *IngestOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
}

func (o *IngestOptions) Complete(cmd *cobra.Command, args []string) error {
	return o.GlobalOptions.Complete(cmd, args)
}

func (o *IngestOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if !funk.Contains(legalOutputTypes, o.Output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
	}
	return nil
}

func (o *IngestOptions) Run(ctx context.Context, args []string) error {
	layout := artifact.NewLayout(o.Config.Pipeline.ArtifactDir, o.StartedAt)

	source := store.NewSource(o.Config)
	defer source.Close()

	result, err := newIngestionStage(o.Config, layout, source).Run(ctx)
	writeMetrics(o.Config)
	if err != nil {
		return err
	}

	return printObject(result, o.Output)
}
