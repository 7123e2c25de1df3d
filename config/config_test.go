package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Source.BaseURL, cfg.Source.BaseURL)
	assert.Equal(t, 3, cfg.Backfill.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.Source.WaitTimeout)
	assert.Equal(t, "Atlantic/Canary", cfg.Backfill.Timezone)
	assert.Equal(t, "monitoring_ree_la_gomera", cfg.Storage.Database)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
source:
  engine: colly
  wait_timeout: 3s
backfill:
  start: "2024-02-01"
  end: "2024-02-03"
  max_attempts: 5
  retry_pause: 250ms
storage:
  database: gomera_test
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "colly", cfg.Source.Engine)
	assert.Equal(t, 3*time.Second, cfg.Source.WaitTimeout)
	assert.Equal(t, 5, cfg.Backfill.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Backfill.RetryPause)
	assert.Equal(t, "gomera_test", cfg.Storage.Database)
	// untouched keys keep their defaults
	assert.Equal(t, "div.tabla-evolucion-content", cfg.Source.TableSelector)

	start, end, err := cfg.DateRange()
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", start.Format("2006-01-02"))
	assert.Equal(t, "2024-02-03", end.Format("2006-01-02"))
	assert.Equal(t, "Atlantic/Canary", start.Location().String())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("REE_BASE_URL", "http://localhost:8080/tablas")
	t.Setenv("REE_START", "2024-03-01")
	t.Setenv("REE_END", "2024-03-02")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")
	t.Setenv("TELEGRAM_CHAT_ID", "12345")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/tablas", cfg.Source.BaseURL)
	assert.Equal(t, "2024-03-01", cfg.Backfill.Start)
	assert.Equal(t, "postgres://u:p@localhost/db", cfg.Storage.DSN)
	assert.Equal(t, int64(12345), cfg.Notify.TelegramChatID)
}

func TestLoadConfig_BadChatID(t *testing.T) {
	t.Setenv("TELEGRAM_CHAT_ID", "abc")

	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"end before start", func(c *Config) { c.Backfill.Start, c.Backfill.End = "2024-02-02", "2024-02-01" }},
		{"bad start", func(c *Config) { c.Backfill.Start = "01/02/2024" }},
		{"zero attempts", func(c *Config) { c.Backfill.MaxAttempts = 0 }},
		{"unknown engine", func(c *Config) { c.Source.Engine = "selenium" }},
		{"unknown timezone", func(c *Config) { c.Backfill.Timezone = "Atlantic/Nowhere" }},
		{"no base url", func(c *Config) { c.Source.BaseURL = "" }},
		{"no database", func(c *Config) { c.Storage.Database = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestLogFile(t *testing.T) {
	cfg := Default()
	cfg.Workdir = "/srv/ree"
	assert.Equal(t, "/srv/ree/logs/historical/historical.log", cfg.LogFile("historical"))

	cfg.Log.Dir = "/var/log/ree"
	assert.Equal(t, "/var/log/ree/current.log", cfg.LogFile("current"))
}

func TestSheetsCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"service_account"}`), 0600))

	fromFile, err := SheetsConfig{CredentialsPath: path, CredentialsJSON: `{"ignored":true}`}.Credentials()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"service_account"}`, string(fromFile))

	inline, err := SheetsConfig{CredentialsJSON: ` {"type":"service_account"} `}.Credentials()
	require.NoError(t, err)
	assert.Equal(t, `{"type":"service_account"}`, string(inline))

	_, err = SheetsConfig{}.Credentials()
	assert.Error(t, err)

	_, err = SheetsConfig{CredentialsPath: filepath.Join(t.TempDir(), "missing.json")}.Credentials()
	assert.Error(t, err)
}

func TestLoadConfig_InlineSheetsCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_CREDENTIALS", `{"type":"service_account"}`)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, `{"type":"service_account"}`, cfg.Sheets.CredentialsJSON)
}
