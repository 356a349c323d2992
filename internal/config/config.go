// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Registry    RegistryConfig
	Payment     PaymentConfig
	Logging     LoggingConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  int // in hours
	RefreshTokenTTL int // in hours
}

// RegistryConfig fixes the registry's identities at deployment. The admin
// address is the deployer's; the registry address is the identity licenses
// and funds can never be sent to.
type RegistryConfig struct {
	AdminAddress    string
	RegistryAddress string
	AdminEmail      string
	AdminPassword   string
}

type PaymentConfig struct {
	StripeSecretKey      string
	StripePublishableKey string
	// UnitsPerCent converts a Stripe charge (cents) into registry base
	// units credited to the depositor's account.
	UnitsPerCent    int64
	MinDepositCents int64
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "license_registry"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		JWT: JWTConfig{
			SecretKey:       getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL:  getEnvAsInt("JWT_ACCESS_TTL", 24),   // 24 hours
			RefreshTokenTTL: getEnvAsInt("JWT_REFRESH_TTL", 168), // 7 days
		},
		Registry: RegistryConfig{
			AdminAddress:    getEnv("REGISTRY_ADMIN_ADDRESS", ""),
			RegistryAddress: getEnv("REGISTRY_ADDRESS", ""),
			AdminEmail:      getEnv("REGISTRY_ADMIN_EMAIL", "admin@license-for-all.local"),
			AdminPassword:   getEnv("REGISTRY_ADMIN_PASSWORD", ""),
		},
		Payment: PaymentConfig{
			StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
			StripePublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
			UnitsPerCent:         getEnvAsInt64("PAYMENT_UNITS_PER_CENT", 10_000_000_000_000_000),
			MinDepositCents:      getEnvAsInt64("PAYMENT_MIN_DEPOSIT_CENTS", 100),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if !common.IsHexAddress(c.Registry.AdminAddress) {
		return fmt.Errorf("REGISTRY_ADMIN_ADDRESS must be a valid hex address")
	}

	if !common.IsHexAddress(c.Registry.RegistryAddress) {
		return fmt.Errorf("REGISTRY_ADDRESS must be a valid hex address")
	}

	if strings.EqualFold(c.Registry.AdminAddress, c.Registry.RegistryAddress) {
		return fmt.Errorf("admin address and registry address must differ")
	}

	if c.Payment.UnitsPerCent <= 0 {
		return fmt.Errorf("PAYMENT_UNITS_PER_CENT must be positive")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
