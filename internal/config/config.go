package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Auth      AuthConfig
	Billing   BillingConfig
	Locale    LocaleConfig
	Messaging MessagingConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	Name       string
	User       string
	Password   string
	SSLMode    string
	PoolMin    int
	PoolMax    int
	SQLitePath string
}

// CORSConfig holds CORS configuration. An Origins entry of "*" allows every origin.
type CORSConfig struct {
	Origins          []string
	Methods          []string
	Headers          []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// AuthConfig holds bearer token verification settings.
// When Required is false, requests without a token are served as anonymous.
type AuthConfig struct {
	JWTSecret string
	Required  bool
}

// BillingConfig holds tax and billing parameters.
type BillingConfig struct {
	VATRate float64
	WHTRate float64
	VATBase []models.Component
	DueDay  int
}

// LocaleConfig selects display language and region.
type LocaleConfig struct {
	Language string
	Region   string
}

// MessagingConfig configures the outbound message sender.
// An empty WebhookURL selects the log sender.
type MessagingConfig struct {
	WebhookURL string
}

// SchedulerConfig configures background jobs.
type SchedulerConfig struct {
	Enabled     bool
	OverdueSpec string
}

// Load reads configuration from an optional .env file and environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	// A missing .env file is not an error
	_ = godotenv.Load()

	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "mwangaza")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("DB_SQLITE_PATH", "mwangaza.db")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("CORS_METHODS", "GET,POST,PATCH,DELETE,OPTIONS")
	v.SetDefault("CORS_HEADERS", "Origin,Content-Type,Accept,Authorization,X-Request-ID")
	v.SetDefault("CORS_ALLOW_CREDENTIALS", true)
	v.SetDefault("CORS_MAX_AGE", "12h")
	v.SetDefault("AUTH_REQUIRED", false)
	v.SetDefault("BILLING_VAT_RATE", 0.16)
	v.SetDefault("BILLING_WHT_RATE", 0.10)
	v.SetDefault("BILLING_VAT_BASE", "")
	v.SetDefault("BILLING_DUE_DAY", 5)
	v.SetDefault("LOCALE_LANGUAGE", "en")
	v.SetDefault("LOCALE_REGION", "en-KE")
	v.SetDefault("SCHEDULER_ENABLED", false)
	v.SetDefault("SCHEDULER_OVERDUE_SPEC", "0 6 * * *")

	// Bind environment variables
	v.AutomaticEnv()

	vatBase, err := models.ParseComponents(v.GetString("BILLING_VAT_BASE"))
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: BILLING_VAT_BASE: %w", err)
	}

	// Build configuration
	cfg := &Config{
		Server: ServerConfig{
			Port:     v.GetString("PORT"),
			Env:      v.GetString("ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(v.GetString("DB_DRIVER")),
			Host:       v.GetString("DB_HOST"),
			Port:       v.GetString("DB_PORT"),
			Name:       v.GetString("DB_NAME"),
			User:       v.GetString("DB_USER"),
			Password:   v.GetString("DB_PASSWORD"),
			SSLMode:    v.GetString("DB_SSLMODE"),
			PoolMin:    v.GetInt("DB_POOL_MIN"),
			PoolMax:    v.GetInt("DB_POOL_MAX"),
			SQLitePath: v.GetString("DB_SQLITE_PATH"),
		},
		CORS: CORSConfig{
			Origins:          splitList(v.GetString("CORS_ORIGINS")),
			Methods:          splitList(strings.ToUpper(v.GetString("CORS_METHODS"))),
			Headers:          splitList(v.GetString("CORS_HEADERS")),
			AllowCredentials: v.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           v.GetDuration("CORS_MAX_AGE"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("AUTH_JWT_SECRET"),
			Required:  v.GetBool("AUTH_REQUIRED"),
		},
		Billing: BillingConfig{
			VATRate: v.GetFloat64("BILLING_VAT_RATE"),
			WHTRate: v.GetFloat64("BILLING_WHT_RATE"),
			VATBase: vatBase,
			DueDay:  v.GetInt("BILLING_DUE_DAY"),
		},
		Locale: LocaleConfig{
			Language: v.GetString("LOCALE_LANGUAGE"),
			Region:   v.GetString("LOCALE_REGION"),
		},
		Messaging: MessagingConfig{
			WebhookURL: v.GetString("MESSAGING_WEBHOOK_URL"),
		},
		Scheduler: SchedulerConfig{
			Enabled:     v.GetBool("SCHEDULER_ENABLED"),
			OverdueSpec: v.GetString("SCHEDULER_OVERDUE_SPEC"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if err := c.Database.Validate(); err != nil {
		return err
	}

	if err := c.CORS.Validate(); err != nil {
		return err
	}

	if c.Auth.Required && c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required when AUTH_REQUIRED is set")
	}

	if c.Billing.VATRate < 0 || c.Billing.VATRate >= 1 {
		return fmt.Errorf("BILLING_VAT_RATE must be in [0, 1)")
	}
	if c.Billing.WHTRate < 0 || c.Billing.WHTRate >= 1 {
		return fmt.Errorf("BILLING_WHT_RATE must be in [0, 1)")
	}
	if c.Billing.DueDay < 1 || c.Billing.DueDay > 28 {
		return fmt.Errorf("BILLING_DUE_DAY must be between 1 and 28")
	}

	if c.Scheduler.Enabled {
		if _, err := cron.ParseStandard(c.Scheduler.OverdueSpec); err != nil {
			return fmt.Errorf("SCHEDULER_OVERDUE_SPEC is invalid: %w", err)
		}
	}

	return nil
}

// Validate checks the settings needed by the selected driver.
func (d DatabaseConfig) Validate() error {
	switch d.Driver {
	case DriverSQLite:
		if d.SQLitePath == "" {
			return fmt.Errorf("DB_SQLITE_PATH is required for the sqlite driver")
		}
		return nil
	case DriverPostgres:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, d.Driver)
	}

	if d.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if d.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if d.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if d.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if d.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if d.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if d.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if d.PoolMin > d.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}
	return nil
}

// Validate checks the origins and the wildcard rules of the CORS settings.
func (c CORSConfig) Validate() error {
	if len(c.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}
	for _, origin := range c.Origins {
		if origin == "*" {
			if len(c.Origins) > 1 {
				return fmt.Errorf("CORS_ORIGINS cannot mix \"*\" with explicit origins")
			}
			if c.AllowCredentials {
				return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be combined with CORS_ORIGINS=*")
			}
			continue
		}
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("CORS_ORIGINS entry %q must start with http:// or https://", origin)
		}
	}
	if len(c.Methods) == 0 {
		return fmt.Errorf("CORS_METHODS is required")
	}
	if c.MaxAge < 0 {
		return fmt.Errorf("CORS_MAX_AGE must be non-negative")
	}
	return nil
}

// AllowsAnyOrigin reports whether the origin list is the wildcard.
func (c CORSConfig) AllowsAnyOrigin() bool {
	return len(c.Origins) == 1 && c.Origins[0] == "*"
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// splitList splits a comma-separated setting into its trimmed, non-empty entries.
func splitList(value string) []string {
	if value == "" {
		return []string{}
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
