package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Config struct {
	Env          string `env:"ENVIRONMENT" envDefault:"development"`
	ServerPort   int    `env:"SERVER_PORT" envDefault:"8080"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"seatwatch.sqlite"`

	Scraper struct {
		Timezone        string `env:"TIMEZONE" envDefault:"US/Pacific"`
		StartTime       string `env:"SCRAPER_START_TIME" envDefault:"04:35"`
		EndTime         string `env:"SCRAPER_END_TIME" envDefault:"19:35"`
		IntervalMinutes int    `env:"SCRAPER_INTERVAL_MINUTES" envDefault:"60"`
		NotifyTrigger   string `env:"NOTIFY_TRIGGER" envDefault:"edge"`
	}
	Catalog struct {
		URL           string `env:"CATALOG_URL" envDefault:"https://app.testudo.umd.edu/soc/search"`
		TermID        string `env:"CATALOG_TERM_ID" envDefault:"202408"`
		TimeoutSecs   int    `env:"CATALOG_TIMEOUT_SECS" envDefault:"10"`
		FetchAttempts uint   `env:"CATALOG_FETCH_ATTEMPTS" envDefault:"1"`
	}
	Mail struct {
		Transport   string `env:"MAIL_TRANSPORT" envDefault:"log"`
		SenderFrom  string `env:"NOTIFICATION_EMAIL" envDefault:"seatwatch@localhost"`
		TimeoutSecs int    `env:"MAIL_TIMEOUT_SECS" envDefault:"15"`
	}
	Mailgun struct {
		Domain  string `env:"MAILGUN_DOMAIN"`
		APIKey  string `env:"MAILGUN_API_KEY"`
		APIBase string `env:"MAILGUN_API_BASE"`
	}
	SMTP struct {
		Host     string `env:"SMTP_HOST"`
		Port     int    `env:"SMTP_PORT" envDefault:"587"`
		Username string `env:"SMTP_USERNAME"`
		Password string `env:"SMTP_PASSWORD"`
	}
}

func NewConfig(lc fx.Lifecycle, log *zap.Logger) (*Config, error) {
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	log.Sugar().Infow("Config loaded",
		"environment", cfg.Env,
		"timezone", cfg.Scraper.Timezone,
		"window", cfg.Scraper.StartTime+"-"+cfg.Scraper.EndTime,
		"interval_minutes", cfg.Scraper.IntervalMinutes,
		"mail_transport", cfg.Mail.Transport,
	)
	return cfg, nil
}

// Parse reads the environment and validates the parts that can be checked without I/O.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	var errs []error
	if cfg.Scraper.IntervalMinutes < 1 {
		errs = append(errs, errors.New("SCRAPER_INTERVAL_MINUTES must be at least 1"))
	}
	if cfg.Catalog.TimeoutSecs < 1 {
		errs = append(errs, errors.New("CATALOG_TIMEOUT_SECS must be at least 1"))
	}
	switch cfg.Mail.Transport {
	case "mailgun":
		if cfg.Mailgun.Domain == "" || cfg.Mailgun.APIKey == "" {
			errs = append(errs, errors.New("MAILGUN_DOMAIN and MAILGUN_API_KEY are required for the mailgun transport"))
		}
	case "smtp":
		if cfg.SMTP.Host == "" {
			errs = append(errs, errors.New("SMTP_HOST is required for the smtp transport"))
		}
	}
	return errors.Join(errs...)
}

func (cfg *Config) Interval() time.Duration {
	return time.Duration(cfg.Scraper.IntervalMinutes) * time.Minute
}

func (cfg *Config) CatalogTimeout() time.Duration {
	return time.Duration(cfg.Catalog.TimeoutSecs) * time.Second
}

func (cfg *Config) MailTimeout() time.Duration {
	return time.Duration(cfg.Mail.TimeoutSecs) * time.Second
}
