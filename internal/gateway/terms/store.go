// Package terms holds an optional medical terminology glossary. Entries
// bias the translate prompt toward the clinic's preferred renderings.
package terms

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/carebridge/carebridge/pkg/core/logging"
)

// Entry is one glossary term with per-language preferred renderings
type Entry struct {
	Term       string            `yaml:"term"`
	Renderings map[string]string `yaml:"renderings"`
}

type glossaryFile struct {
	Terms []Entry `yaml:"terms"`
}

// Store holds the loaded glossary and reloads it when the file changes
type Store struct {
	mu      sync.RWMutex
	entries []Entry
	path    string
	watcher *fsnotify.Watcher
	logger  *logging.Logger
	stopCh  chan struct{}
}

// NewStore creates an empty glossary store
func NewStore() *Store {
	return &Store{
		logger: logging.New("terms"),
		stopCh: make(chan struct{}),
	}
}

// Load reads the glossary file. A missing file leaves the store empty.
func (s *Store) Load(path string) error {
	if path == "" {
		return nil
	}
	s.mu.Lock()
	s.path = path
	s.mu.Unlock()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s.logger.Info("no glossary file, translate hints disabled", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read glossary: %w", err)
	}

	var file glossaryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse glossary: %w", err)
	}

	entries := make([]Entry, 0, len(file.Terms))
	for _, e := range file.Terms {
		if strings.TrimSpace(e.Term) == "" || len(e.Renderings) == 0 {
			continue
		}
		entries = append(entries, e)
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	s.logger.Info("glossary loaded", "path", path, "terms", len(entries))
	return nil
}

// Watch reloads the glossary whenever its file changes
func (s *Store) Watch() error {
	s.mu.RLock()
	path := s.path
	s.mu.RUnlock()
	if path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory: editors replace files on save
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch glossary dir: %w", err)
	}
	s.watcher = watcher

	go func() {
		for {
			select {
			case <-s.stopCh:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := s.Load(path); err != nil {
					s.logger.Warn("glossary reload failed", "error", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("glossary watcher error", "error", err)
			}
		}
	}()

	return nil
}

// Close stops the watcher
func (s *Store) Close() error {
	close(s.stopCh)
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// Len returns the number of loaded terms
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Hints returns prompt hint lines for glossary terms that occur in the
// text and have a rendering for the target language.
func (s *Store) Hints(targetLang, text string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 || text == "" {
		return nil
	}

	lower := strings.ToLower(text)
	var hints []string
	for _, e := range s.entries {
		rendering, ok := e.Renderings[targetLang]
		if !ok || rendering == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(e.Term)) {
			hints = append(hints, fmt.Sprintf("%q must be rendered as %q", e.Term, rendering))
		}
	}
	return hints
}
