package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Store persists the credential pair between process runs. Load returns zero
// credentials (not an error) when nothing is stored.
type Store interface {
	Load() (Credentials, error)
	Save(Credentials) error
	Clear() error
}

// MemoryStore keeps credentials in process memory only.
type MemoryStore struct {
	mu    sync.Mutex
	creds Credentials
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored pair.
func (s *MemoryStore) Load() (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds, nil
}

// Save replaces the stored pair.
func (s *MemoryStore) Save(creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	return nil
}

// Clear drops both tokens.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{}
	return nil
}

// FileStore persists the pair as a small JSON document under a fixed path,
// the durable equivalent of the two browser storage keys. Writes go through
// a temp file and rename so a crash never leaves a half-written pair.
type FileStore struct {
	mu   sync.Mutex
	path string
	log  *zap.Logger
}

// NewFileStore creates the parent directory and returns a store rooted at
// path.
func NewFileStore(path string, log *zap.Logger) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("session: token store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("session: mkdir token store dir: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FileStore{path: path, log: log}, nil
}

// Path returns the backing file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the stored pair. A missing file yields zero credentials; a pair
// with exactly one token set is treated as corrupt and dropped, preserving
// the both-or-neither invariant.
func (s *FileStore) Load() (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *FileStore) loadLocked() (Credentials, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Credentials{}, nil
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("session: read token store: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return Credentials{}, fmt.Errorf("session: parse token store: %w", err)
	}
	if !creds.Valid() && !creds.Empty() {
		s.log.Warn("token store held a partial credential pair, dropping it",
			zap.String("path", s.path))
		_ = os.Remove(s.path)
		return Credentials{}, nil
	}
	return creds, nil
}

// Save writes both tokens atomically.
func (s *FileStore) Save(creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("session: encode token store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return fmt.Errorf("session: write token store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("session: replace token store: %w", err)
	}
	return nil
}

// Clear removes the backing file.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("session: clear token store: %w", err)
	}
	return nil
}

// Watch reports external writes to the backing file until stop is called.
// Another process sharing the store (the analogue of a second browser tab)
// can rotate the pair; onChange receives the freshly loaded credentials.
func (s *FileStore) Watch(onChange func(Credentials)) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("session: start store watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("session: watch token store dir: %w", err)
	}
	done := make(chan struct{})
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
					continue
				}
				creds, err := s.Load()
				if err != nil {
					s.log.Warn("reload token store after change failed", zap.Error(err))
					continue
				}
				onChange(creds)
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn("token store watcher error", zap.Error(werr))
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			_ = watcher.Close()
		})
	}, nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
)
