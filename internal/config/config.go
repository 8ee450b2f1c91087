package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/Kerhoff/fastclub/internal/calendar"
)

// Config holds all configuration for the application
type Config struct {
	DatabaseURL    string
	MigrationsPath string
	TelegramToken  string

	LogLevel       string
	LogFile        string
	LogMaxSizeMB   int
	LogMaxBackups  int
	LogMaxAgeDays  int
	Port           string
	PrometheusPort string

	MeetingHorizonMonths int
	AnnualFeeAmount      decimal.Decimal
	SweepInterval        time.Duration
	Timezone             *time.Location
}

// Load reads the configuration from environment variables. A .env file in
// the working directory is loaded first when present; variables already set
// in the environment take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function. Every invalid value is
// reported, not only the first one.
func FromEnv(getenv func(string) string) (*Config, error) {
	p := parser{getenv: getenv}

	cfg := &Config{
		DatabaseURL:    getenv("DATABASE_URL"),
		MigrationsPath: p.str("MIGRATIONS_PATH", "migrations"),
		TelegramToken:  getenv("TELEGRAM_TOKEN"),

		LogLevel:       p.str("LOG_LEVEL", "info"),
		LogFile:        getenv("LOG_FILE"),
		LogMaxSizeMB:   p.integer("LOG_MAX_SIZE_MB", 50),
		LogMaxBackups:  p.integer("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays:  p.integer("LOG_MAX_AGE_DAYS", 28),
		Port:           p.str("PORT", "8080"),
		PrometheusPort: p.str("PROMETHEUS_PORT", "9090"),

		MeetingHorizonMonths: p.integer("MEETING_HORIZON_MONTHS", 6),
		AnnualFeeAmount:      p.amount("ANNUAL_FEE_AMOUNT"),
		SweepInterval:        p.duration("SWEEP_INTERVAL", time.Hour),
		Timezone:             p.location("TIMEZONE"),
	}

	if cfg.DatabaseURL == "" {
		p.fail(errors.New("DATABASE_URL environment variable is required"))
	}
	if cfg.MeetingHorizonMonths < 0 || cfg.MeetingHorizonMonths > calendar.MaxMonthsAhead {
		p.fail(fmt.Errorf("MEETING_HORIZON_MONTHS must be between 0 and %d", calendar.MaxMonthsAhead))
	}
	if cfg.AnnualFeeAmount.IsNegative() {
		p.fail(errors.New("ANNUAL_FEE_AMOUNT must not be negative"))
	}
	if cfg.SweepInterval <= 0 {
		p.fail(errors.New("SWEEP_INTERVAL must be positive"))
	}

	if err := p.errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BotEnabled reports whether a Telegram token was configured.
func (c *Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

type parser struct {
	getenv func(string) string
	errs   *multierror.Error
}

func (p *parser) fail(err error) {
	p.errs = multierror.Append(p.errs, err)
}

func (p *parser) str(key, def string) string {
	if v := p.getenv(key); v != "" {
		return v
	}
	return def
}

func (p *parser) integer(key string, def int) int {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func (p *parser) amount(key string) decimal.Decimal {
	v := p.getenv(key)
	if v == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		p.fail(fmt.Errorf("%s: invalid amount %q", key, v))
		return decimal.Zero
	}
	return d
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}

func (p *parser) location(key string) *time.Location {
	v := p.getenv(key)
	if v == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(v)
	if err != nil {
		p.fail(fmt.Errorf("%s: unknown time zone %q", key, v))
		return time.Local
	}
	return loc
}
