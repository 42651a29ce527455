package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMongo    = "mongo"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Security SecurityConfig `mapstructure:"security"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Breaker  BreakerConfig  `mapstructure:"breaker"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	Host           string        `mapstructure:"host"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// StoreConfig selects the document store. Endpoint is the backend address
// (Mongo URI for the mongo backend); ProjectID and DatabaseID scope every
// document the service reads or writes.
type StoreConfig struct {
	Backend    string `mapstructure:"backend"`
	Endpoint   string `mapstructure:"endpoint"`
	ProjectID  string `mapstructure:"project_id"`
	DatabaseID string `mapstructure:"database_id"`
	// Bootstrap creates the collections on startup when they are missing.
	Bootstrap bool `mapstructure:"bootstrap"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// SQLiteConfig holds configuration for the embedded sqlite backend
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// MongoConfig holds Mongo client configuration
type MongoConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	MaxPoolSize    uint64        `mapstructure:"max_pool_size"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret    string        `mapstructure:"secret"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
	Issuer    string        `mapstructure:"issuer"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
	RateLimitRequests  int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
	BcryptCost         int           `mapstructure:"bcrypt_cost"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// BreakerConfig configures the circuit breaker in front of the document store
type BreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

// Load loads configuration from various sources
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Scrumban")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)

	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "30s")

	// Store defaults
	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("store.endpoint", "mongodb://localhost:27017")
	v.SetDefault("store.project_id", "scrumban")
	v.SetDefault("store.database_id", "scrumban")
	v.SetDefault("store.bootstrap", true)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "scrumban")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.conn_max_idle_time", "30s")

	v.SetDefault("sqlite.path", "scrumban.db")

	v.SetDefault("mongo.connect_timeout", "10s")
	v.SetDefault("mongo.max_pool_size", 50)

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// JWT defaults
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expires_in", "24h")
	v.SetDefault("jwt.issuer", "scrumban-api")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")

	// Security defaults
	v.SetDefault("security.cors_allowed_origins", "*")
	v.SetDefault("security.rate_limit_requests", 100)
	v.SetDefault("security.rate_limit_window", "1m")
	v.SetDefault("security.bcrypt_cost", 10)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Breaker defaults
	v.SetDefault("breaker.enabled", true)
	v.SetDefault("breaker.max_requests", 1)
	v.SetDefault("breaker.interval", "0s")
	v.SetDefault("breaker.timeout", "30s")
	v.SetDefault("breaker.failure_threshold", 5)
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "APP_NAME")
	v.BindEnv("app.version", "APP_VERSION")
	v.BindEnv("app.environment", "APP_ENVIRONMENT")
	v.BindEnv("app.debug", "APP_DEBUG")

	// Server
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.host", "SERVER_HOST")
	v.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	v.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")
	v.BindEnv("server.idle_timeout", "SERVER_IDLE_TIMEOUT")
	v.BindEnv("server.request_timeout", "SERVER_REQUEST_TIMEOUT")

	// Store
	v.BindEnv("store.backend", "STORE_BACKEND")
	v.BindEnv("store.endpoint", "STORE_ENDPOINT")
	v.BindEnv("store.project_id", "STORE_PROJECT_ID")
	v.BindEnv("store.database_id", "STORE_DATABASE_ID")
	v.BindEnv("store.bootstrap", "STORE_BOOTSTRAP")

	// Database
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.name", "DB_NAME")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.ssl_mode", "DB_SSL_MODE")
	v.BindEnv("database.max_open_conns", "DB_MAX_OPEN_CONNS")
	v.BindEnv("database.max_idle_conns", "DB_MAX_IDLE_CONNS")
	v.BindEnv("database.conn_max_lifetime", "DB_CONN_MAX_LIFETIME")
	v.BindEnv("database.conn_max_idle_time", "DB_CONN_MAX_IDLE_TIME")

	v.BindEnv("sqlite.path", "SQLITE_PATH")

	v.BindEnv("mongo.connect_timeout", "MONGO_CONNECT_TIMEOUT")
	v.BindEnv("mongo.max_pool_size", "MONGO_MAX_POOL_SIZE")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("jwt.expires_in", "JWT_EXPIRES_IN")
	v.BindEnv("jwt.issuer", "JWT_ISSUER")

	// Logger
	v.BindEnv("logger.level", "LOG_LEVEL")
	v.BindEnv("logger.format", "LOG_FORMAT")
	v.BindEnv("logger.output", "LOG_OUTPUT")
	v.BindEnv("logger.filename", "LOG_FILENAME")

	// Security
	v.BindEnv("security.cors_allowed_origins", "CORS_ALLOWED_ORIGINS")
	v.BindEnv("security.rate_limit_requests", "RATE_LIMIT_REQUESTS")
	v.BindEnv("security.rate_limit_window", "RATE_LIMIT_WINDOW")
	v.BindEnv("security.bcrypt_cost", "BCRYPT_COST")

	// Metrics
	v.BindEnv("metrics.enabled", "ENABLE_METRICS")
	v.BindEnv("metrics.path", "METRICS_PATH")

	// Breaker
	v.BindEnv("breaker.enabled", "BREAKER_ENABLED")
	v.BindEnv("breaker.max_requests", "BREAKER_MAX_REQUESTS")
	v.BindEnv("breaker.interval", "BREAKER_INTERVAL")
	v.BindEnv("breaker.timeout", "BREAKER_TIMEOUT")
	v.BindEnv("breaker.failure_threshold", "BREAKER_FAILURE_THRESHOLD")
}

func validateConfig(cfg *Config) error {
	switch cfg.Store.Backend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if cfg.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if cfg.Database.Name == "" {
			return fmt.Errorf("database name is required")
		}
	case BackendMongo:
		if cfg.Store.Endpoint == "" {
			return fmt.Errorf("store endpoint is required for the mongo backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	if cfg.Store.DatabaseID == "" {
		return fmt.Errorf("store database id is required")
	}

	if cfg.JWT.Secret == "" {
		return fmt.Errorf("JWT secret must be set")
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	return nil
}

// GetDSN returns the postgres connection string
func (cfg *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
}

// GetURL returns the postgres URL form used by golang-migrate
func (cfg *DatabaseConfig) GetURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode)
}

// GetAddr returns the Redis address
func (cfg *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// IsDevelopment returns true if the environment is development
func (cfg *AppConfig) IsDevelopment() bool {
	return cfg.Environment == "development"
}

// IsProduction returns true if the environment is production
func (cfg *AppConfig) IsProduction() bool {
	return cfg.Environment == "production"
}
