// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cleandoc/internal/cleaner"
	"github.com/cleandoc/internal/config"
	"github.com/cleandoc/internal/logger"
	"github.com/cleandoc/internal/watcher"
)

var (
	configPath = flag.String("config", "", "Path to config file (default: ~/.cleandoc/config.yaml)")
	watchDirs  = flag.String("watch-dirs", "", "Comma-separated list of directories to watch (overrides config)")
	outputDir  = flag.String("output-dir", "", "Directory for cleaned files (overrides config)")
	noNotify   = flag.Bool("no-notify", false, "Disable desktop notifications")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *watchDirs != "" {
		var dirs []string
		for _, dir := range strings.Split(*watchDirs, ",") {
			dir = strings.TrimSpace(dir)
			if dir != "" {
				dirs = append(dirs, dir)
			}
		}
		if len(dirs) > 0 {
			cfg.Watch.InputDirs = dirs
		}
	}
	if *outputDir != "" {
		cfg.Watch.OutputDir = *outputDir
	}
	if *noNotify {
		cfg.Watch.Notify = false
	}

	if _, err := logger.Init(cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	logger.Printf("Loaded configuration:")
	logger.Printf("  Watch paths: %v", cfg.Watch.InputDirs)
	logger.Printf("  Output dir: %s", cfg.Watch.OutputDir)
	logger.Printf("  Notifications: %t", cfg.Watch.Notify)

	docCleaner, err := cleaner.New(cfg.Cleaning.Phrases, cfg.Cleaning.Trigger)
	if err != nil {
		logger.Fatalf("Failed to build cleaner: %v", err)
	}

	watcherMgr, err := watcher.NewManager(cfg.Watch.InputDirs, cfg.Watch.OutputDir, docCleaner, cfg.Watch.Notify)
	if err != nil {
		logger.Fatalf("Failed to initialize watcher manager: %v", err)
	}

	if err := watcherMgr.Start(); err != nil {
		logger.Fatalf("Failed to start watcher: %v", err)
	}
	defer watcherMgr.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Printf("CleanDoc watch running. Press Ctrl+C to stop.")
	<-sigChan

	logger.Println("Shutting down...")
}
