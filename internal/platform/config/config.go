package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable name read by Load.
const EnvPrefix = "SPORTCLUB_"

// Config is the full process configuration.
type Config struct {
	Server    Server          `envPrefix:"SERVER_"`
	Rules     Rules           `envPrefix:"RULES_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Postgres  PostgresConfig  `envPrefix:"POSTGRES_"`
	Kafka     KafkaConfig     `envPrefix:"KAFKA_"`
	Bootstrap BootstrapConfig `envPrefix:"BOOTSTRAP_"`
	RateLimit RateLimit       `envPrefix:"RATELIMIT_"`
	LogLevel  string          `env:"LOG_LEVEL" envDefault:"info"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	JWTSigningKey   string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer       string        `env:"JWT_ISSUER" envDefault:"sportclub"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"1h"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Rules holds the club policy values that vary per deployment.
type Rules struct {
	MinRegistrationAge   int    `env:"MIN_REGISTRATION_AGE" envDefault:"10"`
	MinDirectiveAge      int    `env:"MIN_DIRECTIVE_AGE" envDefault:"18"`
	MinSelfEnrollmentAge int    `env:"MIN_SELF_ENROLLMENT_AGE" envDefault:"18"`
	PassportMinLen       int    `env:"PASSPORT_MIN_LEN" envDefault:"6"`
	PassportMaxLen       int    `env:"PASSPORT_MAX_LEN" envDefault:"20"`
	MobileCallingCode    string `env:"MOBILE_CALLING_CODE" envDefault:"56"`
	MobilePrefix         string `env:"MOBILE_PREFIX" envDefault:"9"`
	MobileDigits         int    `env:"MOBILE_DIGITS" envDefault:"9"`
}

// RedisConfig configures the slate draft store. An empty URL keeps drafts in memory.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
	DraftTTL     time.Duration `env:"DRAFT_TTL" envDefault:"24h"`
}

// PostgresConfig configures persistence. An empty DSN keeps stores in memory.
type PostgresConfig struct {
	DSN          string        `env:"DSN"`
	MaxOpenConns int           `env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLife  time.Duration `env:"CONN_MAX_LIFE" envDefault:"30m"`
	Migrate      bool          `env:"MIGRATE" envDefault:"true"`
}

// KafkaConfig configures the audit publisher. No brokers means audit events go to the log.
type KafkaConfig struct {
	Brokers    []string `env:"BROKERS" envSeparator:","`
	AuditTopic string   `env:"AUDIT_TOPIC" envDefault:"sportclub.audit"`
	Partitions int32    `env:"PARTITIONS" envDefault:"3"`
}

// RateLimit throttles the public register and login endpoints per client IP.
// The window is shared through Redis when it is configured.
type RateLimit struct {
	Disabled       bool          `env:"DISABLED" envDefault:"false"`
	PublicRequests int           `env:"PUBLIC_REQUESTS" envDefault:"20"`
	Window         time.Duration `env:"WINDOW" envDefault:"1m"`
}

// BootstrapConfig seeds the first administrator. Leaving AdminEmail empty
// skips seeding.
type BootstrapConfig struct {
	AdminEmail     string `env:"ADMIN_EMAIL"`
	AdminPassword  string `env:"ADMIN_PASSWORD"`
	AdminName      string `env:"ADMIN_NAME" envDefault:"Administrador"`
	AdminBirthDate string `env:"ADMIN_BIRTH_DATE" envDefault:"1980-01-01"`
}

// ParseEnv loads configuration from environment variables using EnvPrefix.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads an optional dotenv file into the process environment, then
// parses and validates the configuration. A missing dotenv file is ignored.
func Load(dotenvPath string) (Config, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the rule packages would refuse at startup.
func (c Config) Validate() error {
	r := c.Rules
	if r.MinRegistrationAge < 0 || r.MinDirectiveAge < 0 || r.MinSelfEnrollmentAge < 0 {
		return fmt.Errorf("age thresholds must not be negative")
	}
	if r.PassportMinLen < 1 || r.PassportMaxLen < r.PassportMinLen {
		return fmt.Errorf("invalid passport bounds [%d,%d]", r.PassportMinLen, r.PassportMaxLen)
	}
	if c.Server.JWTSigningKey == "" {
		return fmt.Errorf("jwt signing key is required")
	}
	if !c.RateLimit.Disabled && (c.RateLimit.PublicRequests < 1 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("rate limit needs a positive request count and window")
	}
	if c.Bootstrap.AdminEmail != "" && len(c.Bootstrap.AdminPassword) < 8 {
		return fmt.Errorf("bootstrap admin password must have at least 8 characters")
	}
	return nil
}

// DotenvPath returns the dotenv file named by SPORTCLUB_DOTENV, or ".env".
func DotenvPath() string {
	if p := os.Getenv(EnvPrefix + "DOTENV"); p != "" {
		return p
	}
	return ".env"
}
