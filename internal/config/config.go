package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is read once at startup and passed by value into each component.
// Nothing reads the environment after FromEnv returns.
type Config struct {
	RabbitMQURL          string `env:"NUQ_RABBITMQ_URL,required"`
	SupabaseURL          string `env:"SUPABASE_URL,required"`
	SupabaseServiceToken string `env:"SUPABASE_SERVICE_TOKEN,required"`

	RetryDelayMS  int `env:"WEBHOOK_RETRY_DELAY_MS" envDefault:"60000"`
	MaxRetries    int `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`
	PrefetchCount int `env:"WEBHOOK_PREFETCH_COUNT" envDefault:"100"`

	QueueName    string `env:"WEBHOOK_QUEUE_NAME" envDefault:"webhook_queue"`
	HTTPPort     string `env:"HTTP_PORT" envDefault:":8082"`
	SentryDSN    string `env:"SENTRY_DSN"`
	Environment  string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// FromEnv loads configuration from the environment. A .env file in the
// working directory is applied first when present. Missing required
// variables are a fatal startup error.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// RetryDelay returns the fixed wait between delivery attempts.
func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}
