package migrations

import (
	"embed"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed sql/*.sql
var registryMigrations embed.FS

const registryDialect = "sqlite3"

// MigrateRegistry brings the run registry schema up to date.
func MigrateRegistry(db *gorm.DB) error {
	goose.SetLogger(&logger{})
	goose.SetBaseFS(registryMigrations)

	if err := goose.SetDialect(registryDialect); err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return goose.Up(sqlDB, "sql")
}

// RegistryVersion returns the version of the last applied migration.
func RegistryVersion(db *gorm.DB) (int64, error) {
	goose.SetBaseFS(registryMigrations)
	if err := goose.SetDialect(registryDialect); err != nil {
		return 0, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return 0, err
	}
	return goose.GetDBVersion(sqlDB)
}

/*
logger implements goose.Logger interface

	type Logger interface {
		Fatalf(format string, v ...interface{})
		Printf(format string, v ...interface{})
	}
*/
type logger struct{}

func (m *logger) Printf(format string, v ...interface{}) {
	zap.S().Named("migrations").Debugf(format, v...)
}
func (m *logger) Fatalf(format string, v ...interface{}) {
	zap.S().Named("migrations").Fatalf(format, v...)
}
