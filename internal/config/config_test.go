package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, 45*time.Second, cfg.Gemini.Timeout)
	assert.Equal(t, "Scanned receipt", cfg.Scan.DescriptionPlaceholder)
	assert.False(t, cfg.BigQuery.Enabled())
	assert.Equal(t, 2, cfg.Jobs.Workers)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DOMPET_SERVER_PORT", "9090")
	t.Setenv("DOMPET_GEMINI_TIMEOUT", "10s")
	t.Setenv("DOMPET_BIGQUERY_PROJECT_ID", "my-project")
	t.Setenv("DOMPET_STORAGE_RECEIPT_BUCKET", "receipts")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Gemini.Timeout)
	assert.True(t, cfg.BigQuery.Enabled())
	assert.Equal(t, "dompet", cfg.BigQuery.Dataset)
	assert.Equal(t, "receipts", cfg.Storage.ReceiptBucket)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dompet.yaml")
	content := []byte(`
server:
  port: 7000
gemini:
  model: gemini-2.0-flash
scan:
  description_placeholder: Struk belanja
  timezone: UTC
jobs:
  workers: 4
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.Equal(t, "Struk belanja", cfg.Scan.DescriptionPlaceholder)
	assert.Equal(t, 4, cfg.Jobs.Workers)

	loc, err := cfg.Scan.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Port: 8080},
			Gemini: GeminiConfig{Model: "m", Timeout: time.Second},
			Jobs:   JobsConfig{Workers: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "no model", mutate: func(c *Config) { c.Gemini.Model = "" }, wantErr: true},
		{name: "no timeout", mutate: func(c *Config) { c.Gemini.Timeout = 0 }, wantErr: true},
		{name: "project without dataset", mutate: func(c *Config) { c.BigQuery.ProjectID = "p" }, wantErr: true},
		{name: "no workers", mutate: func(c *Config) { c.Jobs.Workers = 0 }, wantErr: true},
		{name: "bad timezone", mutate: func(c *Config) { c.Scan.Timezone = "Mars/Olympus" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
