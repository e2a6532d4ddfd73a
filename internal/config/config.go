package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	CheckSheet CheckSheetConfig
	Inspection InspectionConfig
	Sessions   SessionConfig
	Sheets     SheetsConfig
	MongoDB    MongoDBConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig controls the zap logger level.
type LogConfig struct {
	Level string
}

// CheckSheetConfig points at the remote record store API.
type CheckSheetConfig struct {
	BaseURL string
	Timeout time.Duration
}

// InspectionConfig tunes the check workflow.
type InspectionConfig struct {
	SaveDebounceWindow time.Duration
	ScanTerminator     rune
}

// SessionConfig holds the idle eviction policy for worker sessions.
type SessionConfig struct {
	IdleTTL       time.Duration
	SweepSchedule string
}

// SheetsConfig contains configuration required to export summaries to Google Sheets.
// Export is disabled when CredentialsPath is empty.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the Sheets export is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// MongoDBConfig holds settings for the evaluation archive.
// The archive is disabled when URI is empty.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Enabled reports whether the archive is configured.
func (c MongoDBConfig) Enabled() bool {
	return c.URI != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// missing .env is fine, the environment may already be populated
		_ = godotenv.Load()
	}

	timeout, err := getDuration("CHECKSHEETS_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	debounce, err := getDuration("SAVE_DEBOUNCE_WINDOW", 300*time.Millisecond)
	if err != nil {
		return nil, err
	}
	idleTTL, err := getDuration("SESSION_IDLE_TTL", 2*time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		CheckSheet: CheckSheetConfig{
			BaseURL: os.Getenv("CHECKSHEETS_BASE_URL"),
			Timeout: timeout,
		},
		Inspection: InspectionConfig{
			SaveDebounceWindow: debounce,
			ScanTerminator:     parseTerminator(getenvWithDefault("SCAN_TERMINATOR", `\n`)),
		},
		Sessions: SessionConfig{
			IdleTTL:       idleTTL,
			SweepSchedule: getenvWithDefault("SESSION_SWEEP_SCHEDULE", "@every 10m"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_SUMMARY_ID"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "checksheet"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.CheckSheet.BaseURL == "":
		return errors.New("CHECKSHEETS_BASE_URL must be provided")
	case c.CheckSheet.Timeout <= 0:
		return errors.New("CHECKSHEETS_TIMEOUT must be positive")
	}

	if c.Inspection.SaveDebounceWindow < 0 {
		return errors.New("SAVE_DEBOUNCE_WINDOW must not be negative")
	}
	if c.Inspection.ScanTerminator == 0 {
		return errors.New("SCAN_TERMINATOR must not be empty")
	}

	if c.Sessions.IdleTTL <= 0 {
		return errors.New("SESSION_IDLE_TTL must be positive")
	}
	if c.Sessions.SweepSchedule == "" {
		return errors.New("SESSION_SWEEP_SCHEDULE must be provided")
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_SUMMARY_ID must be set together")
	}

	if c.MongoDB.Enabled() && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must not be empty")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

// parseTerminator accepts a literal character or one of the escapes \n, \r, \t.
func parseTerminator(raw string) rune {
	switch raw {
	case `\n`:
		return '\n'
	case `\r`:
		return '\r'
	case `\t`:
		return '\t'
	}
	for _, r := range raw {
		return r
	}
	return 0
}
