// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/alucqrd/license-for-all-smart-contract/internal/config"
	"github.com/alucqrd/license-for-all-smart-contract/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	// Enable UUID extension
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.Participant{},
		&models.Account{},
		&models.Deposit{},
		&models.Event{},
		&models.Notification{},
		&models.AuditLog{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Participant indexes
		"CREATE INDEX IF NOT EXISTS idx_participants_email ON participants(email)",
		"CREATE INDEX IF NOT EXISTS idx_participants_address ON participants(address)",
		"CREATE INDEX IF NOT EXISTS idx_participants_role_status ON participants(role, status)",

		// Account and deposit indexes
		"CREATE INDEX IF NOT EXISTS idx_accounts_address ON accounts(address)",
		"CREATE INDEX IF NOT EXISTS idx_deposits_address ON deposits(address)",
		"CREATE INDEX IF NOT EXISTS idx_deposits_status ON deposits(status, created_at DESC)",

		// Event journal indexes
		"CREATE INDEX IF NOT EXISTS idx_events_sequence ON events(sequence)",
		"CREATE INDEX IF NOT EXISTS idx_events_name ON events(name, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_events_license ON events(license_id)",
		"CREATE INDEX IF NOT EXISTS idx_events_addresses ON events USING GIN(addresses)",

		// Notification indexes
		"CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_address, status)",
		"CREATE INDEX IF NOT EXISTS idx_notifications_type ON notifications(type, created_at DESC)",

		// Audit log indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_caller_action ON audit_logs(caller_address, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Seed initial data
func SeedInitialData(db *gorm.DB, cfg *config.Config) error {
	log.Println("Seeding initial data...")

	adminAddress := strings.ToLower(cfg.Registry.AdminAddress)

	var adminCount int64
	db.Model(&models.Participant{}).Where("role = ?", models.RoleAdmin).Count(&adminCount)

	if adminCount == 0 {
		if cfg.Registry.AdminPassword == "" {
			return fmt.Errorf("REGISTRY_ADMIN_PASSWORD is required to seed the administrator")
		}

		admin := &models.Participant{
			Username: "admin",
			Email:    cfg.Registry.AdminEmail,
			Address:  adminAddress,
			Role:     models.RoleAdmin,
			Status:   models.ParticipantStatusActive,
		}

		if err := admin.SetPassword(cfg.Registry.AdminPassword); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}

		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin participant: %w", err)
		}

		log.Println("Administrator participant created successfully")
	}

	// The administrator starts with an empty account row so settlement joins
	// never have to special-case a missing admin account.
	var accountCount int64
	db.Model(&models.Account{}).Where("address = ?", adminAddress).Count(&accountCount)
	if accountCount == 0 {
		account := &models.Account{Address: adminAddress}
		if err := db.Create(account).Error; err != nil {
			return fmt.Errorf("failed to create admin account: %w", err)
		}
	}

	log.Println("Initial data seeding completed")
	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
