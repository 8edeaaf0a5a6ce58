package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"memoflow.db"`

	OpenAIAPIKey  string        `envconfig:"OPENAI_API_KEY"`
	OpenAIModel   string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAITimeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"60s"`

	TimezoneName string `envconfig:"LOCAL_TIMEZONE" default:"Local"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	CORSOrigins  string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`

	SchedulerEnabled bool `envconfig:"SCHEDULER_ENABLED" default:"false"`

	TwilioAccountSID     string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken      string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioWhatsAppNumber string `envconfig:"TWILIO_WHATSAPP_NUMBER"`
	TwilioWebhookURL     string `envconfig:"TWILIO_WEBHOOK_URL"`
	NotifyWhatsAppTo     string `envconfig:"NOTIFY_WHATSAPP_TO"`

	LocalTimezone *time.Location `ignored:"true"`
}

// Load reads .env (if present) and the environment, and prepares defaults.
func Load(log zerolog.Logger) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	location, err := time.LoadLocation(cfg.TimezoneName)
	if err != nil {
		log.Warn().Err(err).Str("timezone", cfg.TimezoneName).Msg("config: invalid LOCAL_TIMEZONE, defaulting to system local")
		location = time.Local
	}
	cfg.LocalTimezone = location
	return &cfg, nil
}

// Origins splits CORSOrigins on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// TwilioEnabled reports whether WhatsApp credentials are present.
func (c *Config) TwilioEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioWhatsAppNumber != ""
}

// Level parses LogLevel, falling back to info.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
