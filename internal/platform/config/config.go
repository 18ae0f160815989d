// Package config loads process configuration from the environment once at
// startup. The resulting Config is passed by value to constructors and never
// mutated afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devSigningKey = "dev-secret-key-change-in-production"

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Config is the full process configuration.
type Config struct {
	Env      string
	LogLevel string
	Server   Server
	Auth     Auth
	Store    Store
	Redis    RedisConfig
	Mail     Mail
	Links    Links
	Upload   Upload
	Kafka    Kafka
	Limits   Limits
	CORS     CORS
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	// TrustProxy makes the server take the client address from
	// X-Forwarded-For / X-Real-IP. Enable only behind a proxy that sets them.
	TrustProxy bool
}

type Auth struct {
	JWTSigningKey    string
	JWTIssuer        string
	UserTokenTTL     time.Duration
	BusinessTokenTTL time.Duration
	BcryptCost       int
	ResetOTPTTL      time.Duration
	VerifyOTPTTL     time.Duration
}

type Store struct {
	Backend       string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
}

// RedisConfig holds the optional OTP backing store connection settings.
// An empty URL keeps OTPs in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Mail struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type Links struct {
	AppBaseURL   string
	ReferralBase string
}

type Upload struct {
	Dir      string
	MaxBytes int64
}

type Kafka struct {
	Brokers []string
	Topic   string
}

type Limits struct {
	RPS   float64
	Burst int
}

type CORS struct {
	Origins []string
}

// IsDev reports whether the process runs in development mode.
func (c Config) IsDev() bool { return c.Env == "" || c.Env == "dev" || c.Env == "development" }

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	p := &parser{}
	cfg := Config{
		Env:      getEnv("ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Server: Server{
			Addr:              getEnv("ADDR", ":8080"),
			ReadHeaderTimeout: p.duration("READ_HEADER_TIMEOUT", 5*time.Second),
			ShutdownTimeout:   p.duration("SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustProxy:        p.bool("TRUST_PROXY", false),
		},
		Auth: Auth{
			JWTSigningKey:    os.Getenv("JWT_SIGNING_KEY"),
			JWTIssuer:        getEnv("JWT_ISSUER", "refeera"),
			UserTokenTTL:     p.duration("USER_TOKEN_TTL", 15*24*time.Hour),
			BusinessTokenTTL: p.duration("BUSINESS_TOKEN_TTL", 30*24*time.Hour),
			BcryptCost:       p.int("BCRYPT_COST", 10),
			ResetOTPTTL:      p.duration("OTP_RESET_TTL", 10*time.Minute),
			VerifyOTPTTL:     p.duration("OTP_VERIFY_TTL", 24*time.Hour),
		},
		Store: Store{
			Backend:       strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
			DatabaseURL:   os.Getenv("DATABASE_URL"),
			MongoURI:      os.Getenv("MONGO_URI"),
			MongoDatabase: getEnv("MONGO_DATABASE", "refeera"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     p.int("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Mail: Mail{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     p.int("SMTP_PORT", 465),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     os.Getenv("MAIL_FROM"),
		},
		Links: Links{
			AppBaseURL:   getEnv("APP_BASE_URL", "http://localhost:8080"),
			ReferralBase: getEnv("REFERRAL_LINK_BASE", "https://refeera.vercel.app/form"),
		},
		Upload: Upload{
			Dir:      getEnv("UPLOAD_DIR", "uploads"),
			MaxBytes: int64(p.int("UPLOAD_MAX_BYTES", 5<<20)),
		},
		Kafka: Kafka{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "refeera.audit"),
		},
		Limits: Limits{
			RPS:   p.float("RATE_LIMIT_RPS", 20),
			Burst: p.int("RATE_LIMIT_BURST", 40),
		},
		CORS: CORS{
			Origins: splitList(getEnv("CORS_ORIGINS", "*")),
		},
	}
	if cfg.Mail.From == "" {
		cfg.Mail.From = cfg.Mail.User
	}
	if p.err != nil {
		return Config{}, p.err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.JWTSigningKey == "" {
		if !c.IsDev() {
			return errors.New("JWT_SIGNING_KEY is required outside development")
		}
		c.Auth.JWTSigningKey = devSigningKey
	}
	switch c.Store.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store backend")
		}
	case BackendMongo:
		if c.Store.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo store backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.Auth.BcryptCost)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parser records the first malformed value so FromEnv can report it once.
type parser struct {
	err error
}

func (p *parser) fail(key, raw string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s=%q: %w", key, raw, err)
	}
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	// Accept "15d" as well as Go durations.
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			p.fail(key, raw, err)
			return fallback
		}
		return time.Duration(n) * 24 * time.Hour
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return d
}

func (p *parser) int(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return n
}

func (p *parser) float(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return f
}

func (p *parser) bool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return b
}
