package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       string
	AppBaseURL string

	DatabaseURL string

	JWTSecret []byte
	JWTMaxAge time.Duration

	BcryptCost           int
	VerificationTokenTTL time.Duration
	ResetTokenTTL        time.Duration
	RequireVerifiedLogin bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	MailQueueName string

	LogFormat string
	LogLevel  string
}

// Load reads configuration from the environment, after loading a .env file if present.
func Load() (*Config, error) {
	loadDotEnv()
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	p := &parser{}

	cfg := &Config{
		Port:       getEnv("PORT", "8000"),
		AppBaseURL: getEnv("APP_BASE_URL", "http://localhost:8000"),

		DatabaseURL: p.required("DATABASE_URL"),

		JWTSecret: []byte(p.required("JWT_SECRET_KEY")),
		JWTMaxAge: p.seconds("JWT_MAXAGE", 3600),

		BcryptCost:           p.integer("BCRYPT_COST", 0),
		VerificationTokenTTL: p.seconds("VERIFICATION_TOKEN_TTL_SECONDS", 24*60*60),
		ResetTokenTTL:        p.seconds("RESET_TOKEN_TTL_SECONDS", 60*60),
		RequireVerifiedLogin: p.boolean("REQUIRE_VERIFIED_LOGIN", false),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       p.integer("REDIS_DB", 0),
		MailQueueName: getEnv("MAIL_QUEUE_NAME", "account_mail_queue"),

		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
	}

	if cfg.JWTMaxAge <= 0 {
		p.errs = append(p.errs, errors.New("JWT_MAXAGE must be positive"))
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadDatabaseURL returns DATABASE_URL alone, for commands that only touch the schema.
func LoadDatabaseURL() (string, error) {
	loadDotEnv()
	p := &parser{}
	url := p.required("DATABASE_URL")
	if err := errors.Join(p.errs...); err != nil {
		return "", fmt.Errorf("invalid configuration: %w", err)
	}
	return url, nil
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, relying on environment variables")
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// parser collects every configuration problem instead of stopping at the first.
type parser struct {
	errs []error
}

func (p *parser) required(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		p.errs = append(p.errs, fmt.Errorf("%s must be set", key))
	}
	return value
}

func (p *parser) integer(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return value
}

func (p *parser) seconds(key string, fallback int) time.Duration {
	return time.Duration(p.integer(key, fallback)) * time.Second
}

func (p *parser) boolean(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return value
}
