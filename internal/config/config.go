// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Templates TemplatesConfig `yaml:"templates"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Queue     QueueConfig     `yaml:"queue"`

	// EnvFileLoaded reports whether a .env file was found and read
	EnvFileLoaded bool `yaml:"-"`
}

type HTTPConfig struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read-timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write-timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout" env:"SHUTDOWN_TIMEOUT" env-default:"15s"`
	MaxBodyBytes    int64         `yaml:"max-body-bytes" env:"MAX_BODY_BYTES" env-default:"1048576"`
	// StrictStatus answers request errors with 4xx instead of 200
	StrictStatus bool `yaml:"strict-status" env:"STRICT_STATUS" env-default:"false"`
}

type TemplatesConfig struct {
	// Paths maps a logical template name to its HTML file
	Paths     map[string]string `yaml:"paths" env:"TEMPLATES" env-default:"order-email:templates/email_template.html"`
	Default   string            `yaml:"default" env:"DEFAULT_TEMPLATE" env-default:"order-email"`
	RowField  string            `yaml:"row-field" env:"ROW_FIELD" env-default:"collect"`
	RowMarker string            `yaml:"row-marker" env:"ROW_MARKER" env-default:"<to_replace>"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

type DatabaseConfig struct {
	// URL is a postgres DSN; empty keeps rendered email history in memory
	URL string `yaml:"url" env:"DATABASE_URL"`
	// HistoryMaxEntries bounds the in-memory history used without a database
	HistoryMaxEntries int `yaml:"history-max-entries" env:"HISTORY_MAX_ENTRIES" env-default:"1000"`
}

type QueueConfig struct {
	// AMQPURL selects RabbitMQ; empty uses the in-process queue
	AMQPURL       string `yaml:"amqp-url" env:"AMQP_URL"`
	RenderedTopic string `yaml:"rendered-topic" env:"RENDERED_QUEUE" env-default:"email_rendered"`
}

// Load reads .env, then the YAML file named by CONFIG_PATH if any, then the environment.
func Load() (*Config, error) {
	envErr := godotenv.Load()

	var cfg Config
	var err error
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg.EnvFileLoaded = envErr == nil

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) Validate() error {
	if len(c.Templates.Paths) == 0 {
		return fmt.Errorf("config: no templates configured")
	}
	if _, ok := c.Templates.Paths[c.Templates.Default]; !ok {
		return fmt.Errorf("config: default template %q has no path", c.Templates.Default)
	}
	if c.Templates.RowField == "" || c.Templates.RowMarker == "" {
		return fmt.Errorf("config: row field and row marker must be set")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("config: max body bytes must be positive")
	}
	if c.Database.HistoryMaxEntries <= 0 {
		return fmt.Errorf("config: history max entries must be positive")
	}
	return nil
}
