package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fraudguard/fraud-pipeline/internal/pipeline"
	"github.com/fraudguard/fraud-pipeline/internal/store"
	"github.com/fraudguard/fraud-pipeline/internal/store/model"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
)

var (
	legalHistoryOutputTypes = []string{tableFormat, jsonFormat, yamlFormat}
)

type HistoryOptions struct {
	GlobalOptions
	State  string
	Limit  int
	Output string
}

func DefaultHistoryOptions() *HistoryOptions {
	o := &HistoryOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Limit:         20,
		Output:        tableFormat,
	}
	o.requireSource = false
	return o
}

func NewCmdHistory() *cobra.Command {
	o := DefaultHistoryOptions()
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the recorded pipeline runs, most recent first.",
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

func (o *HistoryOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.StringVar(&o.State, "state", o.State, "Only list runs in this state")
	fs.IntVar(&o.Limit, "limit", o.Limit, "Maximum number of runs to list, 0 for all")
	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalHistoryOutputTypes, ", ")))
}

func (o *HistoryOptions) Complete(cmd *cobra.Command, args []string) error {
	return o.GlobalOptions.Complete(cmd, args)
}

func (o *HistoryOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if o.State != "" {
		if _, ok := pipeline.ParseState(o.State); !ok {
			return fmt.Errorf("unknown state %q", o.State)
		}
	}
	if o.Limit < 0 {
		return errors.New("limit must not be negative")
	}
	if !funk.Contains(legalHistoryOutputTypes, o.Output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalHistoryOutputTypes, ", "))
	}
	return nil
}

func (o *HistoryOptions) Run(ctx context.Context, args []string) error {
	registry, err := openRegistry(o.Config)
	if err != nil {
		return err
	}
	defer registry.Close()

	filter := store.NewRunQueryFilter().ByPipeline(o.Config.Pipeline.Name)
	if o.State != "" {
		filter = filter.ByState(o.State)
	}
	if o.Limit > 0 {
		filter = filter.WithLimit(o.Limit)
	}

	runs, err := registry.Run().List(ctx, filter)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}

	if o.Output == tableFormat {
		printRunsTable(runs)
		return nil
	}
	return printObject(runs, o.Output)
}

func printRunsTable(runs model.RunList) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 1, '\t', 0)
	fmt.Fprintln(w, "ID\tSTATE\tSTARTED\tFINISHED\tSEED\tMESSAGE")
	for _, r := range runs {
		finished := "-"
		if r.FinishedAt != nil {
			finished = r.FinishedAt.Format(time.RFC3339)
		}
		message, _, _ := strings.Cut(r.Message, "\n")
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n", r.ID, r.State, r.CreatedAt.Format(time.RFC3339), finished, r.Seed, message)
	}
	w.Flush()
}
