package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/dukerupert/mom/internal/backup"
	"github.com/dukerupert/mom/internal/push"
	"github.com/dukerupert/mom/internal/reminder"
	"github.com/joho/godotenv"
)

// Prefix is prepended to every environment variable name.
const Prefix = "MOM_"

type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	DBPath    string `env:"DB_PATH" envDefault:"mom.db"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	VAPIDPublicKey  string `env:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `env:"VAPID_PRIVATE_KEY"`
	VAPIDSubscriber string `env:"VAPID_SUBSCRIBER" envDefault:"reminders@localhost"`

	PollIntervalMs         int64         `env:"POLL_INTERVAL_MS" envDefault:"30000"`
	MedicationWindowMs     int64         `env:"MEDICATION_WINDOW_MS" envDefault:"40000"`
	AppointmentLookaheadMs int64         `env:"APPOINTMENT_LOOKAHEAD_MS" envDefault:"600000"`
	DisplayWindow          time.Duration `env:"DISPLAY_WINDOW" envDefault:"6s"`

	S3 S3 `envPrefix:"S3_"`
}

type S3 struct {
	Endpoint  string `env:"ENDPOINT"`
	Bucket    string `env:"BUCKET"`
	Region    string `env:"REGION" envDefault:"us-east-1"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
}

// Load reads a .env file from the working directory when present and then
// parses the process environment.
func Load(logger *slog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	} else {
		logger.Info("loaded environment from .env")
	}
	return parse(env.Options{Prefix: Prefix})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port == "" {
		return errors.New("MOM_PORT must not be empty")
	}
	if c.DBPath == "" {
		return errors.New("MOM_DB_PATH must not be empty")
	}
	if (c.VAPIDPublicKey == "") != (c.VAPIDPrivateKey == "") {
		return errors.New("MOM_VAPID_PUBLIC_KEY and MOM_VAPID_PRIVATE_KEY must be set together")
	}
	if c.DisplayWindow < 0 {
		return fmt.Errorf("MOM_DISPLAY_WINDOW must not be negative, got %s", c.DisplayWindow)
	}
	return nil
}

// Reminder returns the scheduler configuration. Non-positive values fall
// back to the defaults.
func (c *Config) Reminder() reminder.Config {
	return reminder.Options{
		PollIntervalMs:         c.PollIntervalMs,
		MedicationWindowMs:     c.MedicationWindowMs,
		AppointmentLookaheadMs: c.AppointmentLookaheadMs,
	}.Config()
}

func (c *Config) Push() push.Config {
	return push.Config{
		VAPIDPublicKey:  c.VAPIDPublicKey,
		VAPIDPrivateKey: c.VAPIDPrivateKey,
		Subscriber:      c.VAPIDSubscriber,
	}
}

func (c *Config) Backup() backup.S3Config {
	return backup.S3Config{
		Endpoint:  c.S3.Endpoint,
		Bucket:    c.S3.Bucket,
		Region:    c.S3.Region,
		AccessKey: c.S3.AccessKey,
		SecretKey: c.S3.SecretKey,
	}
}
