package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything the scraper commands need
type Config struct {
	Workdir  string         `yaml:"workdir"`
	Source   SourceConfig   `yaml:"source"`
	Backfill BackfillConfig `yaml:"backfill"`
	Storage  StorageConfig  `yaml:"storage"`
	Sheets   SheetsConfig   `yaml:"sheets"`
	Notify   NotifyConfig   `yaml:"notify"`
	Log      LogConfig      `yaml:"log"`
}

// SourceConfig describes where and how the dashboard tables are read
type SourceConfig struct {
	BaseURL       string        `yaml:"base_url"`
	Engine        string        `yaml:"engine"` // "rod" or "colly"
	TableSelector string        `yaml:"table_selector"`
	WaitTimeout   time.Duration `yaml:"wait_timeout"`
	ChromeBin     string        `yaml:"chrome_bin"`
	UserDataDir   string        `yaml:"user_data_dir"`
}

// BackfillConfig controls the date range and retry policy
type BackfillConfig struct {
	Start       string        `yaml:"start"` // YYYY-MM-DD
	End         string        `yaml:"end"`   // YYYY-MM-DD, inclusive
	Timezone    string        `yaml:"timezone"`
	MaxAttempts int           `yaml:"max_attempts"`
	RetryPause  time.Duration `yaml:"retry_pause"`
	DatePause   time.Duration `yaml:"date_pause"`
}

// StorageConfig points at the time-series database
type StorageConfig struct {
	Database string `yaml:"database"`
	DSN      string `yaml:"dsn"`
}

// SheetsConfig enables the optional Google Sheets mirror
type SheetsConfig struct {
	SpreadsheetURL  string `yaml:"spreadsheet_url"`
	CredentialsPath string `yaml:"credentials_path"`
	// CredentialsJSON holds the service account key inline, used when no path is set
	CredentialsJSON string `yaml:"credentials_json"`
}

// Credentials returns the service account key from CredentialsPath or CredentialsJSON
func (s SheetsConfig) Credentials() ([]byte, error) {
	if s.CredentialsPath != "" {
		data, err := os.ReadFile(s.CredentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheets credentials: %w", err)
		}
		return data, nil
	}
	if inline := strings.TrimSpace(s.CredentialsJSON); inline != "" {
		return []byte(inline), nil
	}
	return nil, errors.New("sheets credentials missing: set sheets.credentials_path or GOOGLE_SHEETS_CREDENTIALS")
}

// NotifyConfig enables Telegram notification of fatal errors
type NotifyConfig struct {
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`
}

// LogConfig controls the rotated log file
type LogConfig struct {
	Dir        string `yaml:"dir"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

const dateLayout = "2006-01-02"

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Workdir: ".",
		Source: SourceConfig{
			BaseURL:       "https://demanda.ree.es/visiona/canarias/la_gomera5m/tablas/",
			Engine:        "rod",
			TableSelector: "div.tabla-evolucion-content",
			WaitTimeout:   10 * time.Second,
		},
		Backfill: BackfillConfig{
			Start:       "2024-01-01",
			End:         "2024-12-31",
			Timezone:    "Atlantic/Canary",
			MaxAttempts: 3,
			RetryPause:  500 * time.Millisecond,
			DatePause:   500 * time.Millisecond,
		},
		Storage: StorageConfig{
			Database: "monitoring_ree_la_gomera",
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 7,
			MaxAgeDays: 1,
		},
	}
}

// LoadConfig reads path on top of the defaults, then .env and environment overrides.
// A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
			log.Printf("Config file %s not found. Using default configuration.\n", path)
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: Failed to load .env file: %v\n", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Workdir, "WORKDIR")
	setString(&c.Source.BaseURL, "REE_BASE_URL")
	setString(&c.Source.Engine, "REE_ENGINE")
	setString(&c.Source.ChromeBin, "CHROME_BIN")
	setString(&c.Source.UserDataDir, "BOT_DATA_DIR")
	setString(&c.Backfill.Start, "REE_START")
	setString(&c.Backfill.End, "REE_END")
	setString(&c.Backfill.Timezone, "REE_TIMEZONE")
	setString(&c.Storage.Database, "REE_DATABASE")
	setString(&c.Storage.DSN, "DATABASE_URL")
	setString(&c.Sheets.SpreadsheetURL, "GOOGLE_SHEETS_URL")
	setString(&c.Sheets.CredentialsPath, "GOOGLE_SHEETS_CREDENTIALS_PATH")
	setString(&c.Sheets.CredentialsJSON, "GOOGLE_SHEETS_CREDENTIALS")
	setString(&c.Notify.TelegramToken, "TELEGRAM_BOT_TOKEN")

	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", v, err)
		}
		c.Notify.TelegramChatID = id
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks the fields every command relies on
func (c *Config) Validate() error {
	if c.Source.BaseURL == "" {
		return errors.New("source.base_url is required")
	}
	if c.Source.Engine != "rod" && c.Source.Engine != "colly" {
		return fmt.Errorf("source.engine must be rod or colly, got %q", c.Source.Engine)
	}
	if c.Storage.Database == "" {
		return errors.New("storage.database is required")
	}
	if c.Backfill.MaxAttempts < 1 {
		return fmt.Errorf("backfill.max_attempts must be at least 1, got %d", c.Backfill.MaxAttempts)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	start, end, err := c.DateRange()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("backfill.end %s is before backfill.start %s", c.Backfill.End, c.Backfill.Start)
	}
	return nil
}

// Location loads the configured timezone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Backfill.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid backfill.timezone %q: %w", c.Backfill.Timezone, err)
	}
	return loc, nil
}

// DateRange parses the inclusive backfill bounds in the configured timezone
func (c *Config) DateRange() (time.Time, time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, err := time.ParseInLocation(dateLayout, c.Backfill.Start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid backfill.start: %w", err)
	}
	end, err := time.ParseInLocation(dateLayout, c.Backfill.End, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid backfill.end: %w", err)
	}
	return start, end, nil
}

// LogFile returns the log path for the named command
func (c *Config) LogFile(name string) string {
	dir := c.Log.Dir
	if dir == "" {
		dir = filepath.Join(c.Workdir, "logs", name)
	}
	return filepath.Join(dir, name+".log")
}
