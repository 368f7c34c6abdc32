package config

import (
	"fmt"
	"log"
	"log/slog"
	"time"

	"insurance_platform/dashboard/notify"
	"insurance_platform/dashboard/storage"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	// Postgres connection string. When empty the server falls back to a
	// local sqlite file under ShareDir.
	DatabaseUri string `env:"DATABASE_URI"`

	JwtSecretKey string `env:"JWT_SECRET_KEY" envDefault:"medicare-dashboard-secret-change-me"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Local state root: datasets, model artifacts, logs, outbox.
	ShareDir string `env:"SHARE_DIR" envDefault:"."`

	GmailEmail       string `env:"GMAIL_EMAIL"`
	GmailAppPassword string `env:"GMAIL_APP_PASSWORD"`
	SendgridApiKey   string `env:"SENDGRID_API_KEY"`

	EmailTimeout time.Duration `env:"EMAIL_TIMEOUT" envDefault:"60s"`

	// Optional extra admin account created at startup.
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

func Load(envFile string) (Config, error) {
	if envFile != "" {
		slog.Info(fmt.Sprintf("loading env from file %v", envFile))
		if err := godotenv.Load(envFile); err != nil {
			log.Fatalf("error loading .env file '%v': %v", envFile, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing environment: %w", err)
	}
	return cfg, nil
}

// Mailer picks the delivery backend from the configured credentials:
// SendGrid when an api key is set, otherwise the Gmail relay, otherwise a
// local outbox sink.
func (c *Config) Mailer(store storage.Storage) notify.Mailer {
	if c.SendgridApiKey != "" {
		sender := c.GmailEmail
		if sender == "" {
			sender = "noreply@medicare-dashboard.local"
		}
		slog.Info("using sendgrid mailer", "sender", sender)
		return notify.NewSendGridMailer(sender, c.SendgridApiKey)
	}
	if c.GmailEmail != "" && c.GmailAppPassword != "" {
		slog.Info("using gmail smtp mailer", "sender", c.GmailEmail)
		return notify.NewSmtpMailer(c.GmailEmail, c.GmailAppPassword)
	}
	slog.Info("no mail credentials configured, using outbox file sink")
	return notify.NewFileSink(store)
}
