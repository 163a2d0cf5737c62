package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fraudguard/fraud-pipeline/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
	"sigs.k8s.io/yaml"
)

type VersionOptions struct {
	Output string
}

func DefaultVersionOptions() *VersionOptions {
	return &VersionOptions{
		Output: "",
	}
}

func NewCmdVersion() *cobra.Command {
	o := DefaultVersionOptions()
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print fraud-pipeline version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *VersionOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
}

func (o *VersionOptions) Validate() error {
	if len(o.Output) > 0 && !funk.Contains(legalOutputTypes, o.Output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
	}
	return nil
}

func (o *VersionOptions) Run(ctx context.Context, args []string) error {
	versionInfo := version.Get()

	switch o.Output {
	case jsonFormat:
		marshalled, err := json.Marshal(versionInfo)
		if err != nil {
			return fmt.Errorf("marshalling version: %w", err)
		}
		fmt.Printf("%s\n", string(marshalled))
	case yamlFormat:
		marshalled, err := yaml.Marshal(versionInfo)
		if err != nil {
			return fmt.Errorf("marshalling version: %w", err)
		}
		fmt.Printf("%s", string(marshalled))
	default:
		fmt.Printf("fraud-pipeline Version: %s\n", versionInfo.String())
		if versionInfo.GitCommit != "" {
			fmt.Printf("Git Commit: %s\n", versionInfo.GitCommit)
		}
	}
	return nil
}
