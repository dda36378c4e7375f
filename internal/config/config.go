package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config is built once at startup and handed by pointer to the components
// that need it. Nothing mutates it after Load returns.
type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	Auth     AuthConfig
	Server   ServerConfig
	CORS     CORSConfig
	Log      LogConfig
}

type DatabaseConfig struct {
	Driver           string
	DSN              string
	Host             string
	Port             string
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxIdleConns     int
	MaxOpenConns     int
	ConnMaxLifetime  time.Duration
	StatementTimeout time.Duration
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

type AuthConfig struct {
	RegisterSecret string
	BcryptCost     int
}

type ServerConfig struct {
	Port            string
	GinMode         string
	ShutdownTimeout time.Duration
	// TrustedProxies may set X-Forwarded-For; empty trusts none.
	TrustedProxies  []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level string
	File  string
}

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Load reads configuration from the environment, after loading a .env file
// if one exists, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			Driver:           strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
			DSN:              getEnv("DATABASE_URL", ""),
			Host:             getEnv("DB_HOST", "localhost"),
			Port:             getEnv("DB_PORT", "5432"),
			User:             getEnv("DB_USER", "postgres"),
			Password:         getEnv("DB_PASSWORD", ""),
			Database:         getEnv("DB_NAME", "health"),
			SSLMode:          getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 60*time.Second),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "change-me-in-production"),
			Expiry: time.Duration(getEnvAsInt("JWT_EXPIRE_HOURS", 8)) * time.Hour,
		},
		Auth: AuthConfig{
			RegisterSecret: getEnv("REGISTER_SECRET", "change-me-bootstrap-secret"),
			BcryptCost:     getEnvAsInt("BCRYPT_COST", 12),
		},
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			GinMode:         getEnv("GIN_MODE", "debug"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			TrustedProxies:  parseList(getEnv("TRUSTED_PROXIES", "")),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:3000")),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.JWT.Expiry <= 0 {
		return errors.New("JWT_EXPIRE_HOURS must be positive")
	}
	if c.Auth.RegisterSecret == "" {
		return errors.New("REGISTER_SECRET must not be empty")
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	for _, origin := range c.CORS.AllowedOrigins {
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("ALLOWED_ORIGINS entry %q must start with http:// or https://", origin)
		}
	}
	return nil
}

// IsRelease reports whether the server runs in gin release mode.
func (c *Config) IsRelease() bool {
	return c.Server.GinMode == "release"
}

// DataSourceName returns the driver-specific DSN. DATABASE_URL wins when set.
func (d DatabaseConfig) DataSourceName() string {
	if d.DSN != "" {
		if d.Driver == DriverPostgres {
			return withStatementTimeout(d.DSN, d.StatementTimeout)
		}
		return d.DSN
	}

	if d.Driver == DriverMySQL {
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.User, d.Password, d.Host, d.Port, d.Database)
	}

	// Unknown keys are sent by pgx as runtime parameters.
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s statement_timeout=%d",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode, d.StatementTimeout.Milliseconds())
}

// withStatementTimeout adds statement_timeout to a postgres DSN in either URL
// or keyword/value form, unless the DSN already sets one.
func withStatementTimeout(dsn string, timeout time.Duration) string {
	if timeout <= 0 || strings.Contains(dsn, "statement_timeout") {
		return dsn
	}
	ms := strconv.FormatInt(timeout.Milliseconds(), 10)

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return dsn
		}
		q := u.Query()
		q.Set("statement_timeout", ms)
		u.RawQuery = q.Encode()
		return u.String()
	}
	return dsn + " statement_timeout=" + ms
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func parseList(s string) []string {
	items := []string{}
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
