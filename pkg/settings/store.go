// Package settings persists the browser's view configuration: condensed
// mode and whether zero-count nodes are shown. The configuration lives in
// a single JSON file; a malformed or missing file is treated as absent and
// replaced by defaults at read time.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileName is the persisted view-settings key.
const FileName = "ontology-browser-view.json"

// ViewConfig is the process-wide view configuration read by the tree
// renderer's visibility policy and the condensed-viewport calculation.
type ViewConfig struct {
	Condensed          bool `json:"isCondensed"`
	IncludeEmptyCounts bool `json:"includeEmptyCounts"`
}

// DefaultViewConfig returns the configuration used on first load and
// whenever the stored value cannot be read.
func DefaultViewConfig() ViewConfig {
	return ViewConfig{Condensed: true, IncludeEmptyCounts: false}
}

// Store reads and writes the ViewConfig file.
type Store struct {
	path string
	log  *zap.Logger
}

// DefaultPath returns the per-user settings file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "ontoview", FileName), nil
}

// NewStore creates a store at path. An empty path falls back to
// DefaultPath; if that fails too, the store is read-only and always
// returns defaults.
func NewStore(path string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			log.Warn("view settings unavailable", zap.Error(err))
		}
		path = p
	}
	return &Store{path: path, log: log}
}

// Path returns the settings file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted ViewConfig. Missing or malformed content
// yields the defaults; the stored file is only rewritten by the next Save.
func (s *Store) Load() ViewConfig {
	if s.path == "" {
		return DefaultViewConfig()
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return DefaultViewConfig()
	}
	var cfg ViewConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		s.log.Warn("malformed view settings, using defaults",
			zap.String("path", s.path), zap.Error(err))
		return DefaultViewConfig()
	}
	return cfg
}

// Save writes cfg atomically (temp file plus rename) so a concurrent Load
// never observes a partial write.
func (s *Store) Save(cfg ViewConfig) error {
	if s.path == "" {
		return fmt.Errorf("no settings path configured")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

// Watch reloads the settings file when it changes on disk and calls
// onChange with the fresh configuration. Events are debounced because
// editors and atomic saves emit bursts. Watching stops when ctx is done.
func (s *Store) Watch(ctx context.Context, onChange func(ViewConfig)) error {
	if s.path == "" {
		return fmt.Errorf("no settings path configured")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create settings watcher: %w", err)
	}

	// Watch the directory, not the file: atomic renames replace the inode
	// and would silently drop a file-level watch.
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		watcher.Close()
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch settings dir: %w", err)
	}

	base := filepath.Base(s.path)
	debouncer := NewDebouncer(0)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != base {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				debouncer.Trigger(func() {
					onChange(s.Load())
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn("settings watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
