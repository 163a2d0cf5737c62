package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

const (
	DbTypeMySQL  = "mysql"
	DbTypePgSQL  = "pgsql"
	DbTypeSQLite = "sqlite"

	defaultRunRegistryFile = "runs.db"
)

type Config struct {
	Database *DatabaseConfig
	Pipeline *PipelineConfig
	Service  *ServiceConfig
	S3       *S3Config
}

type DatabaseConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"mysql" validate:"oneof=mysql pgsql sqlite"`
	Hostname string `envconfig:"HOST" validate:"required_unless=Type sqlite"`
	Port     string `envconfig:"DB_PORT" default:""`
	Name     string `envconfig:"DATABASE_NAME" validate:"required"`
	User     string `envconfig:"USER" validate:"required_unless=Type sqlite"`
	Password string `envconfig:"PASSWORD" validate:"required_unless=Type sqlite"`
}

type PipelineConfig struct {
	Name                      string   `envconfig:"PIPELINE_NAME" default:"insuranceFraudDetection" validate:"required"`
	ArtifactDir               string   `envconfig:"ARTIFACT_DIR" default:"artifacts" validate:"required"`
	TableName                 string   `envconfig:"TABLE_NAME" default:"insurancefraud_dataset" validate:"required"`
	SplitRatio                float64  `envconfig:"SPLIT_RATIO" default:"0.25" validate:"gt=0,lt=1"`
	SplitSeed                 *int64   `envconfig:"SPLIT_SEED"`
	MissingSentinels          []string `envconfig:"MISSING_SENTINELS" default:"?"`
	SchemaFile                string   `envconfig:"SCHEMA_FILE" default:"config/schema.yaml" validate:"required"`
	DriftAlpha                float64  `envconfig:"DRIFT_ALPHA" default:"0.05" validate:"gt=0,lt=1"`
	CategoricalDriftThreshold float64  `envconfig:"DRIFT_CATEGORICAL_THRESHOLD" default:"0.1" validate:"gt=0,lte=1"`
	FailOnDrift               bool     `envconfig:"FAIL_ON_DRIFT" default:"false"`
	RunRegistry               string   `envconfig:"RUN_REGISTRY_DB" default:""`
}

type ServiceConfig struct {
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogDir      string `envconfig:"LOG_DIR" default:""`
	MetricsFile string `envconfig:"METRICS_FILE" default:""`
}

type S3Config struct {
	Endpoint  string `envconfig:"S3_ENDPOINT" default:""`
	Bucket    string `envconfig:"S3_BUCKET" default:""`
	AccessKey string `envconfig:"S3_ACCESS_KEY" default:""`
	SecretKey string `envconfig:"S3_SECRET_KEY" default:""`
	UseSSL    bool   `envconfig:"S3_USE_SSL" default:"false"`
}

type ErrConfiguration struct {
	error
}

func NewErrConfiguration(reason string) *ErrConfiguration {
	return &ErrConfiguration{fmt.Errorf("invalid configuration: %s", reason)}
}

// New reads the configuration from the environment and validates it.
func New() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewWithoutSource is New for commands that never open the source database:
// the database variables are read but not checked.
func NewWithoutSource() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(cfg.Pipeline, cfg.S3); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, NewErrConfiguration(err.Error())
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	return c.validate(c.Database, c.Pipeline, c.S3)
}

func (c *Config) validate(sections ...any) error {
	v := validator.New(validator.WithRequiredStructEnabled())

	var problems []string
	for _, s := range sections {
		err := v.Struct(s)
		if err == nil {
			continue
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return NewErrConfiguration(err.Error())
		}
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("%s failed on %q", envName(s, fe.StructField()), fe.Tag()))
		}
	}

	if len(problems) > 0 {
		return NewErrConfiguration(strings.Join(problems, ", "))
	}
	return nil
}

// RunRegistryPath is the sqlite file holding the run history.
func (c *Config) RunRegistryPath() string {
	if c.Pipeline.RunRegistry != "" {
		return c.Pipeline.RunRegistry
	}
	return filepath.Join(c.Pipeline.ArtifactDir, defaultRunRegistryFile)
}

// PublishEnabled is true when artifacts should be uploaded to object storage.
func (c *Config) PublishEnabled() bool {
	return c.S3 != nil && c.S3.Endpoint != "" && c.S3.Bucket != ""
}

func (c *Config) String() string {
	return fmt.Sprintf("db=%s host=%s name=%s table=%s artifacts=%s ratio=%v schema=%s",
		c.Database.Type, c.Database.Hostname, c.Database.Name,
		c.Pipeline.TableName, c.Pipeline.ArtifactDir, c.Pipeline.SplitRatio, c.Pipeline.SchemaFile)
}
