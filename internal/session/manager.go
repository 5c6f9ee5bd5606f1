package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/langreg"
	"github.com/starford/quire/internal/snapshot"
	"github.com/starford/quire/internal/storage"
)

// Manager tracks open sessions by id and by note path. A note has at most
// one session.
type Manager struct {
	store  storage.Provider
	snaps  snapshot.Store
	langs  *langreg.Registry
	notify Notifier
	logger *slog.Logger
	cfg    Config

	mu     sync.RWMutex
	byID   map[string]*Session
	byPath map[string]*Session
}

// Option configures a Manager.
type Option func(*Manager)

// WithNotifier sets the receiver of session events.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		m.notify = n
	}
}

// WithSnapshots enables automatic snapshots on close.
func WithSnapshots(s snapshot.Store) Option {
	return func(m *Manager) {
		m.snaps = s
	}
}

// NewManager creates a session manager over a vault.
func NewManager(store storage.Provider, langs *langreg.Registry, logger *slog.Logger, cfg Config, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		langs:  langs,
		logger: logger,
		cfg:    cfg,
		byID:   make(map[string]*Session),
		byPath: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open returns the session for path, creating it from the vault if the note
// is not open yet. created reports whether a new session was made.
func (m *Manager) Open(ctx context.Context, path string) (s *Session, created bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.byPath[path]; ok {
		return s, false, nil
	}

	data, err := m.store.Read(path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, false, fmt.Errorf("note %s: %w", path, apperr.ErrNotFound)
		case errors.Is(err, storage.ErrNotNote):
			return nil, false, fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
		}
		return nil, false, fmt.Errorf("session: open %s: %w", path, err)
	}

	var lang *langreg.Language
	if id, ok := m.langs.ForPath(path); ok {
		lang, err = m.langs.Load(ctx, id)
		if err != nil {
			return nil, false, fmt.Errorf("session: load language %s: %w", id, err)
		}
	}

	id := uuid.NewString()
	s, err = newSession(id, path, string(data), lang, deps{
		store:  m.store,
		snaps:  m.snaps,
		notify: m.notify,
		logger: m.logger,
	}, m.cfg)
	if err != nil {
		return nil, false, err
	}
	m.byID[id] = s
	m.byPath[path] = s

	m.logger.Info("session opened", slog.String("session", id), slog.String("path", path))
	s.publish(EventOpened, nil)
	return s, true, nil
}

// Get returns an open session by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// ByPath returns the session editing path, if any.
func (m *Manager) ByPath(path string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byPath[path]
	return s, ok
}

// List returns the open sessions ordered by path.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.byID))
	for _, s := range m.byID {
		out = append(out, s)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Path() < out[j].Path() })
	return out
}

// Close closes a session by id.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.byID[id]
	if ok {
		delete(m.byID, id)
		delete(m.byPath, s.Path())
	}
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	m.logger.Info("session closed", slog.String("session", id), slog.String("path", s.Path()))
	return s.Close()
}

// CloseAll closes every session, flushing pending writes.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.byID))
	for _, s := range m.byID {
		all = append(all, s)
	}
	m.byID = make(map[string]*Session)
	m.byPath = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		if err := s.Close(); err != nil && !errors.Is(err, ErrClosed) {
			m.logger.Error("close session failed", slog.String("session", s.id), slog.String("error", err.Error()))
		}
	}
}

// ExternalChange reloads the session for path when the vault content no
// longer matches what the session last wrote or loaded. It reports whether
// a reload happened.
func (m *Manager) ExternalChange(path, sum string) (bool, error) {
	s, ok := m.ByPath(path)
	if !ok || sum == "" || s.PersistedChecksum() == sum {
		return false, nil
	}
	data, err := m.store.Read(path)
	if err != nil {
		return false, fmt.Errorf("session: reload %s: %w", path, err)
	}
	reloaded, err := s.Reload(string(data))
	if err != nil {
		return false, err
	}
	if reloaded {
		m.logger.Info("session reloaded from vault", slog.String("session", s.id), slog.String("path", path))
	}
	return reloaded, nil
}

// Rename moves an open session to a new path after the note was moved.
func (m *Manager) Rename(oldPath, newPath string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byPath[oldPath]
	if !ok {
		return
	}
	delete(m.byPath, oldPath)
	s.rename(newPath)
	m.byPath[newPath] = s
}
