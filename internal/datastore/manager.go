// Package datastore provides the fishclub persistence layer: database managers for
// SQLite and MySQL, the GORM schema migration and the repositories used by services.
package datastore

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/labstack/gommon/bytes"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nabos/fishclub/internal/conf"
	"github.com/nabos/fishclub/internal/datastore/entities"
	"github.com/nabos/fishclub/internal/errors"
	"github.com/nabos/fishclub/internal/logger"
)

// defaultSlowThreshold is used when the settings do not specify one.
const defaultSlowThreshold = 200 * time.Millisecond

// lowDiskSpace is the free space below which opening SQLite logs a warning.
const lowDiskSpace = 100 << 20

// Manager owns a database connection and its schema.
type Manager interface {
	// Initialize creates or updates the schema.
	Initialize() error
	// DB returns the underlying GORM database.
	DB() *gorm.DB
	// Path returns the database location (file path for SQLite, host:port/database for MySQL).
	Path() string
	// Ping checks that the database is reachable.
	Ping(ctx context.Context) error
	// Close closes the database connection.
	Close() error
	// IsMySQL returns true if this is a MySQL manager.
	IsMySQL() bool
}

// SQLiteConfig holds configuration for the SQLite manager.
type SQLiteConfig struct {
	Path          string
	SlowThreshold time.Duration
	Logger        logger.Logger
}

// MySQLConfig holds configuration for the MySQL manager.
type MySQLConfig struct {
	Host          string
	Port          string
	Username      string
	Password      string
	Database      string
	SlowThreshold time.Duration
	Logger        logger.Logger
}

// baseManager implements everything except construction.
type baseManager struct {
	db       *gorm.DB
	location string
	mysql    bool
}

// Open creates the manager selected by the database settings and initializes the schema.
func Open(settings *conf.Settings) (Manager, error) {
	log := logger.Global().Module("datastore")

	var (
		mgr Manager
		err error
	)
	switch settings.Database.Type {
	case conf.DatabaseMySQL:
		mgr, err = NewMySQLManager(&MySQLConfig{
			Host:          settings.Database.MySQL.Host,
			Port:          settings.Database.MySQL.Port,
			Username:      settings.Database.MySQL.Username,
			Password:      settings.Database.MySQL.Password,
			Database:      settings.Database.MySQL.Database,
			SlowThreshold: settings.Database.SlowThreshold,
			Logger:        log,
		})
	default:
		mgr, err = NewSQLiteManager(SQLiteConfig{
			Path:          settings.Database.SQLite.Path,
			SlowThreshold: settings.Database.SlowThreshold,
			Logger:        log,
		})
	}
	if err != nil {
		return nil, err
	}

	if err := mgr.Initialize(); err != nil {
		_ = mgr.Close()
		return nil, err
	}

	if free, ok, err := FreeSpace(mgr); ok && err == nil && free < lowDiskSpace {
		log.Warn("database volume is low on space",
			logger.String("location", mgr.Path()),
			logger.String("free", bytes.Format(int64(free))))
	}

	log.Info("database ready",
		logger.String("location", mgr.Path()),
		logger.Bool("mysql", mgr.IsMySQL()))
	return mgr, nil
}

// NewSQLiteManager opens (creating if needed) the SQLite database file.
func NewSQLiteManager(cfg SQLiteConfig) (Manager, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.New(err).
				Component("datastore").
				Category(errors.CategorySystem).
				Context("operation", "create-database-directory").
				Context("path", dir).
				Build()
		}
	}

	// Build DSN with recommended SQLite pragmas
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", cfg.Path)

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(cfg.Logger, cfg.SlowThreshold))
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "open-sqlite").
			Build()
	}

	return &baseManager{db: db, location: cfg.Path}, nil
}

// NewMySQLManager connects to a MySQL server.
func NewMySQLManager(cfg *MySQLConfig) (Manager, error) {
	db, err := gorm.Open(mysql.Open(mysqlDSN(cfg)), gormConfig(cfg.Logger, cfg.SlowThreshold))
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "open-mysql").
			Context("host", cfg.Host).
			Build()
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &baseManager{
		db:       db,
		location: net.JoinHostPort(cfg.Host, cfg.Port) + "/" + cfg.Database,
		mysql:    true,
	}, nil
}

func mysqlDSN(cfg *MySQLConfig) string {
	dsn := mysqldriver.NewConfig()
	dsn.User = cfg.Username
	dsn.Passwd = cfg.Password
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
	dsn.DBName = cfg.Database
	dsn.ParseTime = true
	dsn.Loc = time.UTC
	dsn.Params = map[string]string{"charset": "utf8mb4"}
	return dsn.FormatDSN()
}

// FreeSpace returns the bytes available on the volume holding a SQLite
// database. ok is false for MySQL, whose storage is not local.
func FreeSpace(m Manager) (free uint64, ok bool, err error) {
	if m.IsMySQL() {
		return 0, false, nil
	}
	free, err = getDiskFreeSpace(filepath.Dir(m.Path()))
	if err != nil {
		return 0, true, errors.New(err).
			Component("datastore").
			Category(errors.CategorySystem).
			Context("operation", "disk-free-space").
			Context("path", m.Path()).
			Build()
	}
	return free, true, nil
}

func gormConfig(log logger.Logger, slowThreshold time.Duration) *gorm.Config {
	if log == nil {
		log = logger.Global().Module("datastore")
	}
	if slowThreshold <= 0 {
		slowThreshold = defaultSlowThreshold
	}
	return &gorm.Config{
		Logger:         logger.NewGormLoggerAdapter(log, slowThreshold),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Initialize runs GORM auto-migrations for all entities.
func (m *baseManager) Initialize() error {
	err := m.db.AutoMigrate(
		&entities.Member{},
		&entities.Species{},
		&entities.SpeciesPhoto{},
		&entities.SpeciesBaitIdea{},
		&entities.Catch{},
		&entities.Spot{},
		&entities.ForecastHour{},
		&entities.RequestLog{},
		&entities.Supporter{},
	)
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "auto-migrate").
			Build()
	}
	return nil
}

// DB returns the underlying GORM database.
func (m *baseManager) DB() *gorm.DB {
	return m.db
}

// Path returns the database location.
func (m *baseManager) Path() string {
	return m.location
}

// IsMySQL returns true if this is a MySQL manager.
func (m *baseManager) IsMySQL() bool {
	return m.mysql
}

// Ping checks that the database is reachable.
func (m *baseManager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (m *baseManager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.Close()
}
