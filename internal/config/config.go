package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	ListenAddr  string

	// AuthEnforcementDisabled substitutes a sentinel principal for real
	// credential checks. Development convenience only; Load refuses to
	// start a production process with it set.
	AuthEnforcementDisabled bool

	TokenSecret   string
	TokenLifespan int // seconds

	RateLimitEnabled bool
	RateLimitRate    float64 // tokens per second
	RateLimitBurst   int
	RedisAddr        string
	RedisPassword    string
	RedisDB          int

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
}

var Module = fx.Module("config",
	fx.Provide(Load),
)

// ErrAuthBypassInProduction is the configuration contract around the auth
// escape hatch: it can never ride into a production profile.
var ErrAuthBypassInProduction = errors.New("config: auth enforcement cannot be disabled in production")

// Load loads configuration from environment variables and .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "gramwave"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: environment,
		ListenAddr:  getenv("LISTEN_ADDR", ":8080"),

		AuthEnforcementDisabled: getenvBool("AUTH_ENFORCEMENT_DISABLED", false),

		TokenSecret:   strings.TrimSpace(getenv("TOKEN_SECRET", "")),
		TokenLifespan: getenvInt("TOKEN_LIFESPAN", 3600),

		RateLimitEnabled: getenvBool("RATE_LIMIT_ENABLED", false),
		RateLimitRate:    getenvFloat("RATE_LIMIT_RATE", 10),
		RateLimitBurst:   getenvInt("RATE_LIMIT_BURST", 20),
		RedisAddr:        getenv("REDIS_ADDR", ""),
		RedisPassword:    getenv("REDIS_PASSWORD", ""),
		RedisDB:          getenvInt("REDIS_DB", 0),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "gramwave"),
		DBUser:            getenv("DATABASE_USER", "gramwave"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate enforces the configuration contracts that must hold before the
// process is allowed to serve traffic.
func (c Config) Validate() error {
	if c.IsProduction() && c.AuthEnforcementDisabled {
		return ErrAuthBypassInProduction
	}
	if !c.AuthEnforcementDisabled && c.TokenSecret == "" {
		return errors.New("config: TOKEN_SECRET is required when auth enforcement is on")
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
