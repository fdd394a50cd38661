// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package watcher runs the hands-off cleaning mode: it watches input
// folders for DOCX files and writes cleaned copies to the output folder.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gen2brain/beeep"

	"github.com/cleandoc/internal/archive"
	"github.com/cleandoc/internal/cleaner"
	"github.com/cleandoc/internal/logger"
)

const debounceDelay = 500 * time.Millisecond

// Manager watches input directories and cleans every DOCX dropped into
// them.
type Manager struct {
	watchPaths []string
	outputDir  string
	notify     bool
	cleaner    *cleaner.Cleaner
	watchers   map[string]*fsnotify.Watcher
	debouncer  *Debouncer
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// Status reports which paths are currently being watched.
type Status struct {
	WatchingPaths []string `json:"watching_paths"`
	OutputDir     string   `json:"output_dir"`
}

// NewManager creates a watcher manager writing cleaned files to outputDir.
func NewManager(watchPaths []string, outputDir string, c *cleaner.Cleaner, notify bool) (*Manager, error) {
	if len(watchPaths) == 0 {
		return nil, fmt.Errorf("at least one watch path is required")
	}
	if outputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}

	absOutput, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}
	if err := os.MkdirAll(absOutput, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	mgr := &Manager{
		watchPaths: watchPaths,
		outputDir:  absOutput,
		notify:     notify,
		cleaner:    c,
		watchers:   make(map[string]*fsnotify.Watcher),
		debouncer:  NewDebouncer(debounceDelay, nil),
		ctx:        ctx,
		cancel:     cancel,
	}

	return mgr, nil
}

// Start starts watching all configured paths.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.debouncer.Callback = func(filePath string) {
		go m.processFile(filePath)
	}

	for _, path := range m.watchPaths {
		if err := m.addWatchPath(path); err != nil {
			logger.Errorf("[WATCH] failed to watch path %s: %v", path, err)
			continue
		}
	}

	if len(m.watchers) == 0 {
		return fmt.Errorf("no watchable directories")
	}

	for path, watcher := range m.watchers {
		m.wg.Add(1)
		go m.processEvents(path, watcher)
	}

	return nil
}

// Stop stops all watchers and waits for in-flight work.
func (m *Manager) Stop() {
	m.cancel()
	m.debouncer.Stop()
	m.mu.Lock()
	defer m.mu.Unlock()

	for path, watcher := range m.watchers {
		if err := watcher.Close(); err != nil {
			logger.Warnf("[WATCH] error closing watcher for %s: %v", path, err)
		}
		delete(m.watchers, path)
	}

	m.wg.Wait()
}

// Status returns the current watcher status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := make([]string, 0, len(m.watchers))
	for path := range m.watchers {
		paths = append(paths, path)
	}

	return Status{WatchingPaths: paths, OutputDir: m.outputDir}
}

// addWatchPath adds a directory to watch, recursively.
func (m *Manager) addWatchPath(rootPath string) error {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	if _, exists := m.watchers[absPath]; exists {
		return nil
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		if err := os.MkdirAll(absPath, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logger.Printf("[WATCH] created watch directory: %s", absPath)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := filepath.Walk(absPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if err := watcher.Add(path); err != nil {
				logger.Warnf("[WATCH] failed to watch %s: %v", path, err)
			}
		}
		return nil
	}); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to walk directory: %w", err)
	}

	m.watchers[absPath] = watcher
	logger.Printf("[WATCH] watching directory (recursive): %s", absPath)

	go m.processExistingFiles(absPath)

	return nil
}

// processEvents handles file system events for one watch root.
func (m *Manager) processEvents(path string, watcher *fsnotify.Watcher) {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if event.Op&fsnotify.Create == fsnotify.Create {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						logger.Warnf("[WATCH] failed to watch new directory %s: %v", event.Name, err)
					} else {
						logger.Printf("[WATCH] added new directory to watch: %s", event.Name)
					}
					continue
				}
			}

			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if ShouldProcess(event.Name) {
					m.debouncer.Trigger(event.Name)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Errorf("[WATCH] watcher error for %s: %v", path, err)
		}
	}
}

// processExistingFiles queues files that were already in the directory at
// startup. The debouncer spreads the initial burst.
func (m *Manager) processExistingFiles(dir string) {
	logger.Printf("[WATCH] scanning existing files in %s", dir)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && ShouldProcess(path) {
			m.debouncer.Trigger(path)
		}
		return nil
	})

	if err != nil {
		logger.Errorf("[WATCH] error scanning directory %s: %v", dir, err)
	}
}

// processFile cleans one document and writes the result to the output
// directory.
func (m *Manager) processFile(filePath string) {
	name := filepath.Base(filePath)

	data, err := os.ReadFile(filePath)
	if err != nil {
		logger.Errorf("[WATCH] failed to read %s: %v", filePath, err)
		return
	}

	cleaned, stats, err := m.cleaner.Clean(data, name)
	if err != nil {
		logger.Errorf("[WATCH] failed to clean %s: %v", filePath, err)
		m.notifyUser("CleanDoc", fmt.Sprintf("Error al limpiar %s", name))
		return
	}

	outPath := filepath.Join(m.outputDir, archive.CleanedName(name))
	if err := os.WriteFile(outPath, cleaned, 0644); err != nil {
		logger.Errorf("[WATCH] failed to write %s: %v", outPath, err)
		return
	}

	logger.Printf("[WATCH] cleaned %s -> %s (images=%d paragraphs=%d textboxes=%d signature=%t)",
		filePath, outPath, stats.ImagesRemoved, stats.ParagraphsCleaned,
		stats.TextboxesCleaned, stats.SignatureRemoved)

	m.notifyUser("CleanDoc", fmt.Sprintf("Documento limpio: %s", filepath.Base(outPath)))
}

func (m *Manager) notifyUser(title, message string) {
	if !m.notify {
		return
	}
	if err := beeep.Notify(title, message, ""); err != nil {
		logger.Debugf("[WATCH] desktop notification failed: %v", err)
	}
}

// ShouldProcess reports whether a path is a DOCX the watcher should
// clean. Office lock files, temp files and our own output are skipped.
func ShouldProcess(path string) bool {
	name := filepath.Base(path)

	if !strings.EqualFold(filepath.Ext(name), ".docx") {
		return false
	}
	if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
		return false
	}
	if strings.HasPrefix(name, archive.CleanedPrefix) {
		return false
	}
	return true
}
