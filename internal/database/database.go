package database

import (
	"fmt"
	"time"

	"github.com/zaplinker/backend/internal/config"
	"github.com/zaplinker/backend/internal/logger"
	"github.com/zaplinker/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize creates and configures the database connection
func Initialize(cfg config.DatabaseConfig, verbose bool) error {
	gormLogger := gormlogger.Default.LogMode(gormlogger.Warn)
	if verbose {
		gormLogger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	db, err := Open(cfg.Driver, cfg.DSN(), gormLogger)
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// SQLite serializes writers; one connection avoids "database is locked".
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	DB = db
	logger.Log.Info("✅ Database connected successfully", zap.String("driver", cfg.Driver))

	return nil
}

// Open opens a gorm connection for the given driver without touching the global.
func Open(driver, dsn string, gormLogger gormlogger.Interface) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate runs auto-migration for all models
func Migrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	err := db.AutoMigrate(
		&models.User{},
		&models.Workspace{},
		&models.WhatsappNumber{},
		&models.Visitor{},
		&models.AccessEvent{},
		&models.NumberAccess{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if db.Dialector.Name() == "postgres" {
		if err := createPostgresIndexes(db); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}

	logger.Log.Info("✅ Database migrations completed")
	return nil
}

// createPostgresIndexes adds indexes gorm tags cannot express
func createPostgresIndexes(db *gorm.DB) error {
	statements := []string{
		// Stats queries read the newest events of one workspace first
		"CREATE INDEX IF NOT EXISTS idx_access_events_workspace_ts_desc ON access_events (workspace_id, occurred_at DESC)",
		// Only active numbers are read on the redirect path
		"CREATE INDEX IF NOT EXISTS idx_numbers_active_only ON whatsapp_numbers (workspace_id) WHERE is_active",
		"CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))",
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}
