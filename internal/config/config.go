// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package config loads the CleanDoc service configuration from YAML,
// environment variables (CLEANDOC_ prefix) and CLI flags.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the full service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Cleaning CleaningConfig `mapstructure:"cleaning"`
	Watch    WatchConfig    `mapstructure:"watch"`
	LogFile  string         `mapstructure:"log_file"`
	Database DatabaseConfig `mapstructure:"database"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	MaxUploadMB int    `mapstructure:"max_upload_mb"`
	MaxFiles    int    `mapstructure:"max_files"`
	TemplateDir string `mapstructure:"template_dir"`
	StaticDir   string `mapstructure:"static_dir"`
}

// CleaningConfig holds the cleaning rule set.
type CleaningConfig struct {
	Phrases      []string `mapstructure:"phrases"`
	Trigger      string   `mapstructure:"trigger"`
	OutputPrefix string   `mapstructure:"output_prefix"`
}

// WatchConfig holds the watch-folder settings for cleandoc-watch.
type WatchConfig struct {
	InputDirs []string `mapstructure:"input_dirs"`
	OutputDir string   `mapstructure:"output_dir"`
	Notify    bool     `mapstructure:"notify"`
}

// DatabaseConfig holds the job log database settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigType("yaml")
	viper.SetConfigName("config")

	viper.SetDefault("server.port", 4085)
	viper.SetDefault("server.max_upload_mb", 50)
	viper.SetDefault("server.max_files", 20)
	viper.SetDefault("server.template_dir", "frontend/template")
	viper.SetDefault("server.static_dir", "frontend/static")
	viper.SetDefault("cleaning.phrases", []string{
		"ÓRGANO DE FISCALIZACIÓN SUPERIOR",
		"DIRECCIÓN DE AUDITORÍA A ENTES ESTATALES",
	})
	viper.SetDefault("cleaning.trigger", "Elaboró")
	viper.SetDefault("cleaning.output_prefix", "limpia_")
	viper.SetDefault("watch.input_dirs", []string{"./entrada"})
	viper.SetDefault("watch.output_dir", "./limpios")
	viper.SetDefault("watch.notify", true)
	viper.SetDefault("log_file", "cleandoc.log")
	viper.SetDefault("database.path", "cleandoc.db")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir := filepath.Join(home, ".cleandoc")
		configFile := filepath.Join(configDir, "config.yaml")

		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			if err := generateDefaultConfig(configFile); err != nil {
				return nil, fmt.Errorf("failed to generate default config: %w", err)
			}
		}

		viper.SetConfigFile(configFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("No config file found, using defaults")
		} else if os.IsNotExist(err) {
			log.Printf("No config file found, using defaults")
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	viper.SetEnvPrefix("CLEANDOC")
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Server.Port <= 0 {
		config.Server.Port = 4085
	}
	if config.Server.MaxUploadMB <= 0 {
		config.Server.MaxUploadMB = 50
	}
	if config.Cleaning.Trigger == "" {
		config.Cleaning.Trigger = "Elaboró"
	}

	return &config, nil
}

// generateDefaultConfig creates a default configuration file.
func generateDefaultConfig(configFile string) error {
	defaultConfig := `# CleanDoc Service Configuration

server:
  port: 4085            # HTTP listen port
  max_upload_mb: 50     # Per-file upload size limit
  max_files: 20         # Per-request file count limit
  template_dir: "frontend/template"
  static_dir: "frontend/static"

cleaning:
  phrases:              # Institutional boilerplate to remove
    - "ÓRGANO DE FISCALIZACIÓN SUPERIOR"
    - "DIRECCIÓN DE AUDITORÍA A ENTES ESTATALES"
  trigger: "Elaboró"    # First word of the signature section
  output_prefix: "limpia_"

watch:                  # cleandoc-watch folder settings
  input_dirs:
    - "./entrada"
  output_dir: "./limpios"
  notify: true          # Desktop notification per cleaned file

log_file: "cleandoc.log"

database:
  path: "cleandoc.db"   # Job log (SQLite)
`

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return err
	}

	return os.WriteFile(configFile, []byte(defaultConfig), 0644)
}

// ApplyCLIFlags applies command-line flags to override config values.
func ApplyCLIFlags(config *Config, port int, dbPath string, logFile string) {
	if port > 0 {
		config.Server.Port = port
	}
	if dbPath != "" {
		config.Database.Path = dbPath
	}
	if logFile != "" {
		config.LogFile = logFile
	}
}
