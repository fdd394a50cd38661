// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	// Point at an explicit, empty config file so the loader never touches
	// the real home directory.
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != 4085 {
		t.Errorf("Default port = %d, want 4085", cfg.Server.Port)
	}
	if cfg.Server.MaxUploadMB != 50 {
		t.Errorf("Default upload limit = %d, want 50", cfg.Server.MaxUploadMB)
	}
	if len(cfg.Cleaning.Phrases) != 2 {
		t.Errorf("Expected 2 default phrases, got %d", len(cfg.Cleaning.Phrases))
	}
	if cfg.Cleaning.Trigger != "Elaboró" {
		t.Errorf("Default trigger = %q", cfg.Cleaning.Trigger)
	}
	if cfg.Cleaning.OutputPrefix != "limpia_" {
		t.Errorf("Default output prefix = %q", cfg.Cleaning.OutputPrefix)
	}
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9000
  max_upload_mb: 10
cleaning:
  trigger: "Reviso"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Server.MaxUploadMB != 10 {
		t.Errorf("MaxUploadMB = %d, want 10", cfg.Server.MaxUploadMB)
	}
	if cfg.Cleaning.Trigger != "Reviso" {
		t.Errorf("Trigger = %q, want Reviso", cfg.Cleaning.Trigger)
	}
}

func TestMaxUploadBytes(t *testing.T) {
	cfg := &Config{Server: ServerConfig{MaxUploadMB: 50}}
	if got := cfg.MaxUploadBytes(); got != 50<<20 {
		t.Errorf("MaxUploadBytes = %d, want %d", got, 50<<20)
	}
}

func TestApplyCLIFlags(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Port: 4085},
		Database: DatabaseConfig{Path: "cleandoc.db"},
		LogFile:  "cleandoc.log",
	}

	ApplyCLIFlags(cfg, 8088, "/tmp/jobs.db", "")

	if cfg.Server.Port != 8088 {
		t.Errorf("Port = %d, want 8088", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/jobs.db" {
		t.Errorf("Database path = %q", cfg.Database.Path)
	}
	if cfg.LogFile != "cleandoc.log" {
		t.Errorf("Unset flag must not override, got %q", cfg.LogFile)
	}
}
