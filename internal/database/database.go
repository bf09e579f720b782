package database

import (
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/lib/pq"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/sdpublication/internal/config"
	"github.com/example/sdpublication/internal/models"
)

var db *gorm.DB

// Connect initializes the database connection and runs migrations.
func Connect(cfg *config.Config) *gorm.DB {
	if db != nil {
		return db
	}

	level := logger.Info
	if cfg.IsProduction() {
		level = logger.Warn
	}

	conn, err := Open(cfg.DatabaseDriver, cfg.DatabaseURL, level)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := Migrate(conn); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	db = conn
	return db
}

// DB exposes the initialized gorm.DB instance.
func DB() *gorm.DB {
	return db
}

// Open dials the configured dialect without migrating.
func Open(driver, dsn string, level logger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		if err := ensureDatabase(dsn); err != nil {
			return nil, fmt.Errorf("ensure database: %w", err)
		}
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	return gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,

		// References stay plain columns: deleting an ebook leaves cart,
		// wishlist and order rows behind.
		DisableForeignKeyConstraintWhenMigrating: true,
	})
}

// Migrate creates or updates every table, including the composite unique
// indexes the upserts rely on.
func Migrate(conn *gorm.DB) error {
	migrations := []interface{}{
		&models.User{},
		&models.Notification{},
		&models.PasswordResetToken{},
		&models.EbookCategory{},
		&models.Ebook{},
		&models.Review{},
		&models.Quote{},
		&models.CartItem{},
		&models.WishlistItem{},
		&models.Address{},
		&models.Order{},
		&models.Transaction{},
		&models.Purchase{},
		&models.ReadProgress{},
		&models.MockTestCategory{},
		&models.MockTestSection{},
		&models.TestCategory{},
		&models.Test{},
		&models.Question{},
		&models.TestGiven{},
		&models.TestTiming{},
		&models.Banner{},
		&models.Blog{},
		&models.Video{},
		&models.FooterLink{},
	}

	for _, migration := range migrations {
		if err := conn.AutoMigrate(migration); err != nil {
			return err
		}
	}

	return nil
}

func ensureDatabase(dsn string) error {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return err
	}

	dbName := strings.TrimPrefix(parsed.Path, "/")
	if dbName == "" {
		return nil
	}

	parsed.Path = "/postgres"
	masterDSN := parsed.String()

	sqlDB, err := sql.Open("postgres", masterDSN)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return err
	}

	var exists bool
	if err := sqlDB.QueryRow("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists); err != nil {
		return err
	}

	if exists {
		return nil
	}

	_, err = sqlDB.Exec("CREATE DATABASE " + pq.QuoteIdentifier(dbName))
	return err
}
