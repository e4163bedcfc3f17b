package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"crontab/internal/console"
)

// Source backends for job definitions.
const (
	SourceFile     = "file"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

// Config holds application configuration values.
type Config struct {
	Env  string `validate:"required,oneof=dev prod"`
	Cron struct {
		Source       string        `validate:"required,oneof=file sqlite postgres"`
		File         string        `validate:"required_if=Source file"`
		SQLitePath   string        `validate:"required_if=Source sqlite"`
		PostgresDSN  string        `validate:"required_if=Source postgres"`
		AutoMigrate  bool
		TickInterval time.Duration `validate:"min=1000000000"`
		Shell        string        `validate:"required"`
		Concurrency  int           `validate:"min=1,max=64"`
		Verbosity    console.Verbosity
	}
	HTTP struct {
		Addr string // empty disables the status server
	}
	Telegram struct {
		Token       string
		AlertChatID int64 `validate:"required_with=Token"`
	}
	Log struct {
		ConsoleLevel string `validate:"required,oneof=debug info warn error"`
		FileLevel    string `validate:"required,oneof=debug info warn error"`
		File         string
	}
}

var validate = validator.New()

// Load reads configuration from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	var c Config
	var errs []error

	c.Env = getenv("ENV", "prod")

	c.Cron.Source = strings.ToLower(getenv("CRON_SOURCE", SourceFile))
	c.Cron.File = getenv("CRON_FILE", "crontab.yaml")
	c.Cron.SQLitePath = getenv("CRON_SQLITE_PATH", "data/crontab.sqlite")
	c.Cron.PostgresDSN = os.Getenv("CRON_POSTGRES_DSN")
	c.Cron.Shell = getenv("CRON_SHELL", "/bin/sh")

	var err error
	if c.Cron.AutoMigrate, err = strconv.ParseBool(getenv("CRON_AUTO_MIGRATE", "true")); err != nil {
		errs = append(errs, fmt.Errorf("CRON_AUTO_MIGRATE: %w", err))
	}
	if c.Cron.TickInterval, err = time.ParseDuration(getenv("CRON_TICK_INTERVAL", "60s")); err != nil {
		errs = append(errs, fmt.Errorf("CRON_TICK_INTERVAL: %w", err))
	}
	if c.Cron.Concurrency, err = strconv.Atoi(getenv("CRON_CONCURRENCY", "1")); err != nil {
		errs = append(errs, fmt.Errorf("CRON_CONCURRENCY: %w", err))
	}
	if c.Cron.Verbosity, err = console.ParseVerbosity(os.Getenv("CRON_VERBOSITY")); err != nil {
		errs = append(errs, fmt.Errorf("CRON_VERBOSITY: %w", err))
	}

	c.HTTP.Addr = os.Getenv("HTTP_ADDR")

	c.Telegram.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	if v := os.Getenv("TELEGRAM_ALERT_CHAT_ID"); v != "" {
		if c.Telegram.AlertChatID, err = strconv.ParseInt(v, 10, 64); err != nil {
			errs = append(errs, fmt.Errorf("TELEGRAM_ALERT_CHAT_ID: %w", err))
		}
	}

	c.Log.ConsoleLevel = strings.ToLower(getenv("LOG_CONSOLE_LEVEL", "info"))
	c.Log.FileLevel = strings.ToLower(getenv("LOG_FILE_LEVEL", "debug"))
	c.Log.File = os.Getenv("LOG_FILE")

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	if err := validate.Struct(c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// AlertsEnabled reports whether failed jobs should be sent to Telegram.
func (c Config) AlertsEnabled() bool {
	return c.Telegram.Token != "" && c.Telegram.AlertChatID != 0
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
