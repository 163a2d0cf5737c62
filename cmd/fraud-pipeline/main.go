package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fraudguard/fraud-pipeline/internal/cli"
	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	command := NewFraudPipelineCommand()
	if err := command.ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

func NewFraudPipelineCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fraud-pipeline [flags] [options]",
		Short: "fraud-pipeline prepares and validates the insurance fraud training data.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdRun())
	cmd.AddCommand(cli.NewCmdIngest())
	cmd.AddCommand(cli.NewCmdValidate())
	cmd.AddCommand(cli.NewCmdHistory())
	cmd.AddCommand(cli.NewCmdVersion())

	return cmd
}
