package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the YAML config file when it changes and notifies
// registered callbacks with the new configuration
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	current  *Config
	mu       sync.RWMutex
	onChange []func(*Config)
	logger   *zap.Logger
	debounce time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher watches cfg.ConfigFile. The directory is watched too so
// editors that save by rename are picked up.
func NewWatcher(cfg *Config, logger *zap.Logger) (*Watcher, error) {
	if cfg.ConfigFile == "" {
		return nil, fmt.Errorf("no config file to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(cfg.ConfigFile)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return &Watcher{
		path:     cfg.ConfigFile,
		watcher:  watcher,
		current:  cfg,
		logger:   logger,
		debounce: 100 * time.Millisecond,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching for configuration changes
func (w *Watcher) Start() {
	go w.watchLoop()
	w.logger.Info("Configuration watcher started", zap.String("path", w.path))
}

// Stop stops watching for configuration changes
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
		w.logger.Info("Configuration watcher stopped")
	})
}

// OnChange registers a callback for configuration changes
func (w *Watcher) OnChange(handler func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, handler)
}

// Current returns the latest valid configuration
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *Watcher) watchLoop() {
	var debounceTimer *time.Timer
	base := filepath.Base(w.path)

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	next, err := Reload(w.path)
	if err != nil {
		w.logger.Error("Invalid configuration, keeping current", zap.Error(err))
		return
	}

	w.mu.Lock()
	prev := w.current
	w.current = next
	handlers := append([]func(*Config){}, w.onChange...)
	w.mu.Unlock()

	if prev.LogLevel != next.LogLevel {
		w.logger.Info("Configuration changes detected",
			zap.String("log_level", prev.LogLevel+" -> "+next.LogLevel),
		)
	}
	for _, handler := range handlers {
		handler(next)
	}
	w.logger.Info("Configuration reloaded", zap.String("path", w.path))
}
