package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fraudguard/fraud-pipeline/internal/artifact"
	"github.com/fraudguard/fraud-pipeline/internal/validation"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
)

type ValidateOptions struct {
	GlobalOptions
	TrainFile  string
	TestFile   string
	ReportFile string
	Output     string
}

func DefaultValidateOptions() *ValidateOptions {
	o := &ValidateOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Output:        yamlFormat,
	}
	o.requireSource = false
	return o
}

func NewCmdValidate() *cobra.Command {
	o := DefaultValidateOptions()
	cmd := &cobra.Command{
		Use:   "validate --train PATH --test PATH",
		Short: "Validate train and test files against the schema.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(args); err != nil {
				return err
			}
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			defer o.Close()
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *ValidateOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.StringVar(&o.TrainFile, "train", o.TrainFile, "Path of the train file")
	fs.StringVar(&o.TestFile, "test", o.TestFile, "Path of the test file")
	fs.StringVar(&o.ReportFile, "report", o.ReportFile, "Path of the drift report (default: under the artifact directory)")
	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
}

func (o *ValidateOptions) Complete(cmd *cobra.Command, args []string) error {
	return o.GlobalOptions.Complete(cmd, args)
}

func (o *ValidateOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if o.TrainFile == "" || o.TestFile == "" {
		return errors.New("both --train and --test are required")
	}
	if !funk.Contains(legalOutputTypes, o.Output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
	}
	return nil
}

func (o *ValidateOptions) Run(ctx context.Context, args []string) error {
	cfg := newValidationConfig(o.Config, artifact.NewLayout(o.Config.Pipeline.ArtifactDir, o.StartedAt))
	if o.ReportFile != "" {
		cfg.DriftReportFilePath = o.ReportFile
	}

	result, err := validation.NewStage(cfg).Run(ctx, artifact.Ingestion{
		TrainedFilePath: o.TrainFile,
		TestFilePath:    o.TestFile,
	})
	writeMetrics(o.Config)
	if err != nil {
		return err
	}

	if err := printObject(result, o.Output); err != nil {
		return err
	}
	if !result.ValidationStatus {
		return errors.New("validation failed")
	}
	return nil
}
