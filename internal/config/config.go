// Package config loads service configuration from an optional YAML file and DOMPET_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. DOMPET_SERVER_PORT=9000.
const EnvPrefix = "DOMPET"

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	APIVersion string `mapstructure:"api_version"`
	// Project and Location select the Vertex AI backend when set.
	Project  string        `mapstructure:"project"`
	Location string        `mapstructure:"location"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type BigQueryConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Dataset   string `mapstructure:"dataset"`
}

// Enabled reports whether a BigQuery project is configured.
func (c BigQueryConfig) Enabled() bool {
	return c.ProjectID != ""
}

type StorageConfig struct {
	ReceiptBucket string `mapstructure:"receipt_bucket"`
}

type ScanConfig struct {
	DescriptionPlaceholder string `mapstructure:"description_placeholder"`
	// Timezone decides what "today" is for receipts without a readable date.
	Timezone string `mapstructure:"timezone"`
}

// Location resolves Timezone, defaulting to UTC.
func (c ScanConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scan timezone: %w", err)
	}
	return loc, nil
}

type JobsConfig struct {
	Workers    int `mapstructure:"workers"`
	Buffer     int `mapstructure:"buffer"`
	MaxRetries int `mapstructure:"max_retries"`
}

type NotionConfig struct {
	Token      string `mapstructure:"token"`
	DatabaseID string `mapstructure:"database_id"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	BigQuery BigQueryConfig `mapstructure:"bigquery"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Notion   NotionConfig   `mapstructure:"notion"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.api_version", "v1beta")
	v.SetDefault("gemini.project", "")
	v.SetDefault("gemini.location", "")
	v.SetDefault("gemini.timeout", 45*time.Second)

	v.SetDefault("bigquery.project_id", "")
	v.SetDefault("bigquery.dataset", "dompet")

	v.SetDefault("storage.receipt_bucket", "")

	v.SetDefault("scan.description_placeholder", "Scanned receipt")
	v.SetDefault("scan.timezone", "Asia/Jakarta")

	v.SetDefault("jobs.workers", 2)
	v.SetDefault("jobs.buffer", 100)
	v.SetDefault("jobs.max_retries", 2)

	v.SetDefault("notion.token", "")
	v.SetDefault("notion.database_id", "")
}

// Load reads configuration. With an empty path it looks for config.yaml in the working
// directory and carries on with defaults if there is none; an explicit path must exist.
// Environment variables override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Gemini.Model == "" {
		return errors.New("gemini.model is required")
	}
	if c.Gemini.Timeout <= 0 {
		return errors.New("gemini.timeout must be positive")
	}
	if c.BigQuery.Enabled() && c.BigQuery.Dataset == "" {
		return errors.New("bigquery.dataset is required when bigquery.project_id is set")
	}
	if c.Jobs.Workers <= 0 {
		return errors.New("jobs.workers must be positive")
	}
	if _, err := c.Scan.Location(); err != nil {
		return err
	}
	return nil
}
