package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"claws/internal/logger"
)

// Watcher reloads the configuration when the primary file changes on disk
// and hands each new snapshot to the registered listener. A reload that
// fails to parse or validate keeps the previous snapshot in place.
type Watcher struct {
	mu       sync.RWMutex
	path     string
	current  *Config
	onChange func(*Config)
}

// Watch starts watching path. cfg is the snapshot already loaded from that
// path at startup; nothing is re-read until the file actually changes.
func Watch(path string, cfg *Config, onChange func(*Config)) (*Watcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	w := &Watcher{path: path, current: cfg, onChange: onChange}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		next, err := Load(w.path)
		if err != nil {
			logger.Errorf("config reload failed (%s): %v", evt.Name, err)
			return
		}
		w.mu.Lock()
		w.current = next
		cb := w.onChange
		w.mu.Unlock()
		logger.Infof("config reloaded from %s", evt.Name)
		if cb != nil {
			cb(next)
		}
	})
	v.WatchConfig()
	return w, nil
}

// Current returns the latest valid snapshot.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}
