package store

import (
	"fmt"
	"time"

	"github.com/pvetools/backup-tracker/internal/config"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqliteBusyTimeout caps how long a contended sqlite write busy-waits before
// the driver reports a storage failure.
const sqliteBusyTimeout = 5 * time.Second

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	var dia gorm.Dialector

	if cfg.Database.Type == "pgsql" {
		dsn := fmt.Sprintf("host=%s user=%s password=%s port=%s",
			cfg.Database.Hostname,
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Port,
		)
		if cfg.Database.Name != "" {
			dsn = fmt.Sprintf("%s dbname=%s", dsn, cfg.Database.Name)
		}
		registerMetricsDriver()
		dia = postgres.New(postgres.Config{DriverName: metricsDriverName, DSN: dsn})
	} else {
		dsn := fmt.Sprintf("file:%s?_foreign_keys=1&_busy_timeout=%d",
			cfg.Database.Name,
			sqliteBusyTimeout.Milliseconds(),
		)
		dia = sqlite.Open(dsn)
	}

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
		zap.S().Named("gorm").Errorf("failed to connect database: %v", err)
		return nil, err
	}

	sqlDB, err := newDB.DB()
	if err != nil {
		zap.S().Named("gorm").Errorf("failed to configure connections: %v", err)
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	if cfg.Database.Type == "pgsql" {
		var minorVersion string
		if result := newDB.Raw("SELECT version()").Scan(&minorVersion); result.Error != nil {
			zap.S().Named("gorm").Infoln(result.Error.Error())
			return nil, result.Error
		}

		zap.S().Named("gorm").Infof("PostgreSQL information: '%s'", minorVersion)
	} else {
		if err := configureSQLite(newDB); err != nil {
			return nil, err
		}
	}

	return newDB, nil
}

// configureSQLite runs the process-wide connection-configuration step. A
// replica opened read-only rejects the journal switch; that is expected
// during maintenance windows, so the error is logged and swallowed here and
// only here. Any other failure propagates.
func configureSQLite(db *gorm.DB) error {
	var mode string
	if err := db.Raw("PRAGMA journal_mode=WAL").Scan(&mode).Error; err != nil {
		if IsReadOnlyError(err) {
			zap.S().Named("gorm").Warnw("write-ahead log setup skipped, storage is read-only", "error", err)
			return nil
		}
		return err
	}

	zap.S().Named("gorm").Debugf("sqlite journal mode: %s", mode)
	return nil
}
