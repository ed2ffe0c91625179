package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"brickfund/config"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Database struct {
	db     *gorm.DB
	driver string
}

// NewDatabase opens the configured store and applies pool settings.
func NewDatabase(cfg *config.Config, logger *logrus.Logger) (*Database, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	gormCfg := &gorm.Config{
		Logger:         NewGormLogger(logger),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	driver := strings.ToLower(cfg.Database.Driver)
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dir := filepath.Dir(cfg.Database.Path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dialector = sqlite.Open(sqliteDSN(cfg.Database.Path))
	case DriverPostgres:
		if cfg.Database.DSN == "" {
			return nil, errors.New("DB_DSN is required for the postgres driver")
		}
		dialector = postgres.Open(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if driver == DriverSQLite {
		// SQLite has a single writer; one connection serialises units of work
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	}

	logger.WithField("driver", driver).Info("Database connection established")
	return &Database{db: db, driver: driver}, nil
}

// Wrap adapts an already opened gorm handle.
func Wrap(db *gorm.DB) *Database {
	return &Database{db: db, driver: db.Dialector.Name()}
}

func sqliteDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
}

func (d *Database) GetDB() *gorm.DB {
	return d.db
}

func (d *Database) Driver() string {
	return d.driver
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsTransient reports whether err is a lock or serialization failure that may
// succeed if the whole unit of work is run again.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// serialization_failure, deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}

	return false
}
