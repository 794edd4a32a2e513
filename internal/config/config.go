package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// External sheet sources and write endpoint
	Sources SourcesConfig

	// Selection window and catalog settings
	Selection SelectionConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// SourcesConfig holds the external sheet endpoints. The two CSV URLs feed the
// read path; WriteEndpoint is the script endpoint that accepts write intents.
type SourcesConfig struct {
	ScriptsURL    string
	UsersURL      string
	WriteEndpoint string
	FetchTimeout  time.Duration
}

// SelectionConfig holds selection window and catalog settings
type SelectionConfig struct {
	Window       time.Duration
	SampleSize   int
	DefaultQuota int
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// sourcesFile mirrors the optional YAML sources file. Environment variables
// override anything set here.
type sourcesFile struct {
	ScriptsSource string `yaml:"scriptsSource"`
	RosterSource  string `yaml:"rosterSource"`
	WriteEndpoint string `yaml:"writeEndpoint"`
}

// Load reads configuration from an optional sources file and environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Sources: SourcesConfig{
			FetchTimeout: getDurationEnv("SOURCES_FETCH_TIMEOUT", 30*time.Second),
		},
		Selection: SelectionConfig{
			Window:       getDurationEnv("SELECTION_WINDOW", 24*time.Hour),
			SampleSize:   getIntEnv("LIBRARY_SAMPLE_SIZE", 15),
			DefaultQuota: getIntEnv("DEFAULT_QUOTA", 10),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := loadSourcesFile(&cfg.Sources, getEnv("SOURCES_FILE", "./sources.yaml")); err != nil {
		return nil, err
	}

	// Environment overrides win over the file
	if v := os.Getenv("SCRIPTS_URL"); v != "" {
		cfg.Sources.ScriptsURL = v
	}
	if v := os.Getenv("USERS_URL"); v != "" {
		cfg.Sources.UsersURL = v
	}
	if v := os.Getenv("WRITE_ENDPOINT"); v != "" {
		cfg.Sources.WriteEndpoint = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadSourcesFile merges the YAML sources file into the config if it exists
func loadSourcesFile(sources *SourcesConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read sources file: %w", err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse sources file %s: %w", path, err)
	}

	sources.ScriptsURL = file.ScriptsSource
	sources.UsersURL = file.RosterSource
	sources.WriteEndpoint = file.WriteEndpoint
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if (c.Sources.ScriptsURL == "") != (c.Sources.UsersURL == "") {
		return fmt.Errorf("SCRIPTS_URL and USERS_URL must be set together")
	}
	if c.Selection.Window <= 0 {
		return fmt.Errorf("SELECTION_WINDOW must be positive")
	}
	if c.Selection.DefaultQuota <= 0 {
		return fmt.Errorf("DEFAULT_QUOTA must be positive")
	}
	return nil
}

// Configured reports whether the read-path CSV sources are set
func (s *SourcesConfig) Configured() bool {
	return s.ScriptsURL != "" && s.UsersURL != ""
}

// ReadOnly reports whether the system lacks a write endpoint. Without one,
// every save degrades to a local-only change.
func (s *SourcesConfig) ReadOnly() bool {
	return s.WriteEndpoint == ""
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
