package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	_ "github.com/jackc/pgx/v5/stdlib"  // registers the "pgx" database/sql driver
	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" database/sql driver
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mssqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bitechdev/BreadSpec/pkg/common"
	"github.com/bitechdev/BreadSpec/pkg/config"
	"github.com/bitechdev/BreadSpec/pkg/logger"
)

// Open connects to the configured database and wraps it in the configured ORM adapter.
// The returned close function releases the underlying connection pool.
func Open(cfg config.DatabaseConfig) (common.Database, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	switch strings.ToLower(cfg.ORM) {
	case "gorm":
		db, err := OpenGorm(cfg)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to access gorm connection pool: %w", err)
		}
		return NewGormAdapter(db).InstrumentQueries(cfg.Debug), sqlDB.Close, nil
	default:
		db, err := OpenBun(cfg)
		if err != nil {
			return nil, nil, err
		}
		return NewBunAdapter(db).InstrumentQueries(cfg.Debug), db.Close, nil
	}
}

// OpenBun opens a *bun.DB for the configured driver
func OpenBun(cfg config.DatabaseConfig) (*bun.DB, error) {
	dsn, err := cfg.BuildDSN()
	if err != nil {
		return nil, err
	}

	var sqlDB *sql.DB
	var db *bun.DB
	switch cfg.NormalizedDriver() {
	case "sqlite":
		sqlDB, err = sql.Open(sqlite.DriverName, dsn)
		if err == nil {
			db = bun.NewDB(sqlDB, sqlitedialect.New())
		}
	case "postgres":
		sqlDB, err = sql.Open("pgx", dsn)
		if err == nil {
			db = bun.NewDB(sqlDB, pgdialect.New())
		}
	case "mssql":
		sqlDB, err = sql.Open("sqlserver", dsn)
		if err == nil {
			db = bun.NewDB(sqlDB, mssqldialect.New())
		}
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.NormalizedDriver(), err)
	}

	applyPoolSettings(sqlDB, cfg)
	logger.Info("Opened %s database with bun", cfg.NormalizedDriver())
	return db, nil
}

// OpenGorm opens a *gorm.DB for the configured driver
func OpenGorm(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn, err := cfg.BuildDSN()
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch cfg.NormalizedDriver() {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mssql":
		dialector = sqlserver.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.NormalizedDriver(), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	applyPoolSettings(sqlDB, cfg)
	logger.Info("Opened %s database with gorm", cfg.NormalizedDriver())
	return db, nil
}

func applyPoolSettings(db *sql.DB, cfg config.DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}
