package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/cesargomez89/lavender/internal/constants"
)

// Config holds all application configuration
type Config struct {
	Port            string
	DBPath          string
	MusicDir        string
	MusicBrainzURL  string
	AnalysisCommand string
	AnalysisScript  string
	FpcalcPath      string
	LogLevel        string
	LogFormat       string
}

// Load loads configuration from the environment with defaults. A .env file in
// the working directory is read first when present.
func Load() *Config {
	_ = godotenv.Load()

	home, _ := os.UserHomeDir()
	defaultMusic := filepath.Join(home, "Music")

	return &Config{
		Port:            getEnv("PORT", constants.DefaultPort),
		DBPath:          getEnv("DB_PATH", defaultDBPath()),
		MusicDir:        getEnv("MUSIC_DIR", defaultMusic),
		MusicBrainzURL:  getEnv("MUSICBRAINZ_URL", constants.DefaultMusicBrainzURL),
		AnalysisCommand: getEnv("ANALYSIS_COMMAND", constants.DefaultAnalysisCommand),
		AnalysisScript:  getEnv("ANALYSIS_SCRIPT", constants.DefaultAnalysisScript),
		FpcalcPath:      getEnv("FPCALC_PATH", constants.DefaultFpcalcPath),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
	}
}

// defaultDBPath places the catalog in the per-user config directory, falling
// back to the working directory when none is available.
func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return constants.DefaultDBFileName
	}
	return filepath.Join(dir, constants.DefaultAppDirName, constants.DefaultDBFileName)
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	if c.MusicDir == "" {
		errors = append(errors, "MUSIC_DIR cannot be empty")
	}

	if c.MusicBrainzURL == "" {
		errors = append(errors, "MUSICBRAINZ_URL cannot be empty")
	} else {
		if _, err := url.Parse(c.MusicBrainzURL); err != nil {
			errors = append(errors, fmt.Sprintf("MUSICBRAINZ_URL is not a valid URL: %s", c.MusicBrainzURL))
		}
	}

	if c.AnalysisCommand == "" {
		errors = append(errors, "ANALYSIS_COMMAND cannot be empty")
	}

	if c.AnalysisScript == "" {
		errors = append(errors, "ANALYSIS_SCRIPT cannot be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
