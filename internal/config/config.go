package config

import (
	"errors"
	"fmt"
	"log"
	"net/mail"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrInvalidIntervals = errors.New("invalid REVISION_INTERVALS")

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"GO_ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	FrontendURL string `mapstructure:"FRONTEND_URL"`

	// OAuth
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `mapstructure:"GOOGLE_CALLBACK_URL"`

	// Redis (revocation list + feed relay). Empty address disables both.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// Scheduling
	RevisionIntervals      string        `mapstructure:"REVISION_INTERVALS"` // comma separated day offsets
	UndoWindow             time.Duration `mapstructure:"UNDO_WINDOW"`
	Timezone               string        `mapstructure:"TIMEZONE"`
	RefreshOriginalOnSolve bool          `mapstructure:"REFRESH_ORIGINAL_ON_SOLVE"`
	DigestSchedule         string        `mapstructure:"DIGEST_SCHEDULE"` // cron spec, empty disables
	StoreIdleTimeout       time.Duration `mapstructure:"STORE_IDLE_TIMEOUT"`

	// Mail
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`
}

var AppConfig *Config

var defaults = map[string]interface{}{
	"PORT":                      "8080",
	"GO_ENV":                    "development",
	"LOG_LEVEL":                 "info",
	"DATABASE_URL":              "",
	"JWT_SECRET":                "",
	"FRONTEND_URL":              "http://localhost:5173",
	"GOOGLE_CLIENT_ID":          "",
	"GOOGLE_CLIENT_SECRET":      "",
	"GOOGLE_CALLBACK_URL":       "",
	"REDIS_ADDR":                "",
	"REDIS_PASSWORD":            "",
	"REVISION_INTERVALS":        "1,3,7,15,30",
	"UNDO_WINDOW":               "5m",
	"TIMEZONE":                  "UTC",
	"REFRESH_ORIGINAL_ON_SOLVE": false,
	"DIGEST_SCHEDULE":           "0 8 * * *",
	"STORE_IDLE_TIMEOUT":        "30m",
	"SMTP_HOST":                 "",
	"SMTP_PORT":                 587,
	"SMTP_USERNAME":             "",
	"SMTP_PASSWORD":             "",
	"MAIL_FROM":                 "Revision Mania <no-reply@revision-mania.app>",
}

// LoadConfig populates AppConfig from .env, an optional config.yaml and the
// environment, in increasing order of precedence.
func LoadConfig() {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Unable to load config: %v", err)
	}
	AppConfig = cfg
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if _, err := cfg.Intervals(); err != nil {
		return nil, err
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	if _, err := mail.ParseAddress(cfg.MailFrom); err != nil {
		return nil, fmt.Errorf("invalid MAIL_FROM %q: %w", cfg.MailFrom, err)
	}

	return &cfg, nil
}

// Intervals parses RevisionIntervals into ascending, distinct day offsets.
func (c *Config) Intervals() ([]int, error) {
	return ParseIntervals(c.RevisionIntervals)
}

// Location returns the configured calendar location, UTC when unset.
func (c *Config) Location() *time.Location {
	if c == nil || c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func ParseIntervals(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	days := make([]int, 0, len(parts))
	seen := make(map[int]bool, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("%w: %q is not a day offset", ErrInvalidIntervals, part)
		}
		// Two tiers on the same day would both match the same problem.
		if seen[d] {
			return nil, fmt.Errorf("%w: day %d listed twice", ErrInvalidIntervals, d)
		}
		seen[d] = true
		days = append(days, d)
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("%w: no intervals configured", ErrInvalidIntervals)
	}
	sort.Ints(days)
	return days, nil
}
