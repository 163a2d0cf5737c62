package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fraudguard/fraud-pipeline/internal/config"
	"github.com/fraudguard/fraud-pipeline/pkg/migrations"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	defaultMySQLPort = "3306"
	defaultPgSQLPort = "5432"
	pingTimeout      = 10 * time.Second
)

// InitDB opens the session to the source database and checks it is reachable.
// The caller owns the returned session and must close it.
func InitDB(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	var dia gorm.Dialector

	switch cfg.Database.Type {
	case config.DbTypeMySQL:
		port := cfg.Database.Port
		if port == "" {
			port = defaultMySQLPort
		}
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Hostname,
			port,
			cfg.Database.Name,
		)
		dia = mysql.Open(dsn)
	case config.DbTypePgSQL:
		port := cfg.Database.Port
		if port == "" {
			port = defaultPgSQLPort
		}
		dsn := fmt.Sprintf("host=%s user=%s password=%s port=%s",
			cfg.Database.Hostname,
			cfg.Database.User,
			cfg.Database.Password,
			port,
		)
		if cfg.Database.Name != "" {
			dsn = fmt.Sprintf("%s dbname=%s", dsn, cfg.Database.Name)
		}
		dia = postgres.Open(dsn)
	case config.DbTypeSQLite:
		// mode=rw keeps a mistyped path from creating an empty database
		dia = sqlite.Open(fmt.Sprintf("file:%s?mode=rw", cfg.Database.Name))
	default:
		return nil, config.NewErrConfiguration(fmt.Sprintf("unsupported database type %q", cfg.Database.Type))
	}

	db, err := openDB(dia)
	if err != nil {
		return nil, NewErrSourceUnavailable(sourceName(cfg), err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := ping(pingCtx, db); err != nil {
		closeDB(db)
		return nil, NewErrSourceUnavailable(sourceName(cfg), err)
	}

	zap.S().Named("gorm").Infow("connected to source database", "type", cfg.Database.Type, "host", cfg.Database.Hostname, "database", cfg.Database.Name)

	return db, nil
}

// InitRegistry opens the sqlite run registry at path and migrates its schema.
func InitRegistry(path string) (*gorm.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating run registry directory: %w", err)
	}

	db, err := openDB(sqlite.Open(path))
	if err != nil {
		return nil, fmt.Errorf("opening run registry %s: %w", path, err)
	}

	if err := migrations.MigrateRegistry(db); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("migrating run registry: %w", err)
	}

	return db, nil
}

// sourceName identifies the database in errors: the host, or the file for sqlite.
func sourceName(cfg *config.Config) string {
	if cfg.Database.Type == config.DbTypeSQLite {
		return cfg.Database.Name
	}
	return cfg.Database.Hostname
}

func openDB(dia gorm.Dialector) (*gorm.DB, error) {
	newLogger := logger.New(
		logrus.New(),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			ParameterizedQueries:      true,        // Don't include params in the SQL log
			Colorful:                  false,       // Disable color
		},
	)

	newDB, err := gorm.Open(dia, &gorm.Config{Logger: newLogger, TranslateError: true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := newDB.DB()
	if err != nil {
		return nil, err
	}
	// one logical connection per session
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	return newDB, nil
}

func ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
