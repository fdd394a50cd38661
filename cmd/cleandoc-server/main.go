// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"

	"github.com/cleandoc/internal/cleaner"
	"github.com/cleandoc/internal/config"
	"github.com/cleandoc/internal/database"
	"github.com/cleandoc/internal/logger"
	"github.com/cleandoc/internal/server"
	"github.com/cleandoc/internal/server/middleware"
)

var (
	configPath = flag.String("config", "", "Path to config file (default: ~/.cleandoc/config.yaml)")
	httpPort   = flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath     = flag.String("db-path", "", "SQLite database path (overrides config)")
	logFile    = flag.String("log-file", "", "Log file path (overrides config)")
)

func main() {
	flag.Parse()

	// .env is optional; environment variables override the config file.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	config.ApplyCLIFlags(cfg, *httpPort, *dbPath, *logFile)

	if _, err := logger.Init(cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	logger.Printf("Loaded configuration:")
	logger.Printf("  Port: %d", cfg.Server.Port)
	logger.Printf("  Upload limit: %d MB (%d files max)", cfg.Server.MaxUploadMB, cfg.Server.MaxFiles)
	logger.Printf("  Phrases: %d configured", len(cfg.Cleaning.Phrases))
	logger.Printf("  Trigger: %s", cfg.Cleaning.Trigger)
	logger.Printf("  Database: %s", cfg.Database.Path)

	docCleaner, err := cleaner.New(cfg.Cleaning.Phrases, cfg.Cleaning.Trigger)
	if err != nil {
		logger.Fatalf("Failed to build cleaner: %v", err)
	}

	db, err := sql.Open("sqlite3", cfg.Database.Path)
	if err != nil {
		logger.Fatalf("Failed to open sqlite database: %v", err)
	}
	defer db.Close()

	jobStore, err := database.NewJobLogStore(db)
	if err != nil {
		logger.Fatalf("Failed to initialize job log store: %v", err)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: routes(cfg, docCleaner, jobStore),
	}

	go func() {
		logger.Printf("HTTP server listening on %d", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server error: %v", err)
		}
	}()

	waitForShutdown(httpServer)
}

func routes(cfg *config.Config, docCleaner *cleaner.Cleaner, jobStore *database.JobLogStore) http.Handler {
	mux := http.NewServeMux()

	staticPath, _ := filepath.Abs(cfg.Server.StaticDir)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticPath))))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(cfg.Server.TemplateDir, "index.html"))
	})

	mux.Handle("/limpiar_cedula", server.NewCleanHandler(docCleaner, jobStore, cfg.MaxUploadBytes(), cfg.Server.MaxFiles))
	mux.HandleFunc("/health", server.HandleHealth)
	mux.Handle("/api/v1/jobs", server.NewJobsHandler(jobStore))
	mux.HandleFunc("/ws/logs", server.HandleLogSocket)

	return middleware.TrafficLogger(mux)
}

func waitForShutdown(httpServer *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Println("Shutting down server...")

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("HTTP shutdown error: %v", err)
	}
}
