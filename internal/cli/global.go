package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fraudguard/fraud-pipeline/internal/config"
	"github.com/fraudguard/fraud-pipeline/pkg/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type GlobalOptions struct {
	EnvFile string

	// Set by Complete
	Config    *config.Config
	StartedAt time.Time

	requireSource bool
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		EnvFile:       ".env",
		requireSource: true,
	}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.EnvFile, "env-file", o.EnvFile, "File with environment variables, skipped when it does not exist")
}

// Complete loads the environment file and the configuration, then installs
// the global logger.
func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	o.StartedAt = time.Now()

	if err := loadEnvFile(o.EnvFile); err != nil {
		return err
	}

	var err error
	if o.requireSource {
		o.Config, err = config.New()
	} else {
		o.Config, err = config.NewWithoutSource()
	}
	if err != nil {
		return err
	}

	var outputs []string
	if o.Config.Service.LogDir != "" {
		logFile, err := log.RunLogFile(o.Config.Service.LogDir, o.StartedAt)
		if err != nil {
			return err
		}
		outputs = append(outputs, logFile)
	}
	logger := log.InitLog(log.ParseLevel(o.Config.Service.LogLevel), outputs...)
	zap.ReplaceGlobals(logger)

	return nil
}

func (o *GlobalOptions) Validate(args []string) error {
	return nil
}

// Close flushes the logger.
func (o *GlobalOptions) Close() {
	_ = zap.L().Sync()
}

// loadEnvFile does not override variables already set in the environment.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}
