// Package session binds the editing behaviors to one open note: an in-memory
// editor model with the Markdown intent rules, completed-task decorations,
// the placeholder, and debounced persistence back to the vault.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/starford/quire/internal/appearance"
	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/checksum"
	"github.com/starford/quire/internal/convert"
	"github.com/starford/quire/internal/debounce"
	"github.com/starford/quire/internal/decoration"
	"github.com/starford/quire/internal/editor"
	"github.com/starford/quire/internal/intent"
	"github.com/starford/quire/internal/langreg"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/parser"
	"github.com/starford/quire/internal/snapshot"
	"github.com/starford/quire/internal/storage"
	"github.com/starford/quire/internal/tasklist"
	"github.com/starford/quire/internal/workspace"
)

// Edit sources recorded on content changes made through a session.
const (
	SourceAPI    = "api"
	SourceToggle = "toggle-task"
	SourceAppend = "append-task"
	sourceReload = "setValue"
)

var (
	ErrSessionNotFound = fmt.Errorf("session %w", apperr.ErrNotFound)
	ErrClosed          = errors.New("session: closed")
	ErrNotTask         = fmt.Errorf("line is not a task: %w", apperr.ErrInvalidInput)
	ErrLineOutOfRange  = fmt.Errorf("line out of range: %w", apperr.ErrInvalidInput)
)

// Config tunes the behaviors of every session a Manager opens.
type Config struct {
	Debounce          time.Duration
	CheckboxTolerance int
	Theme             appearance.Mode
	SnapshotLimit     int
	HistoryLimit      int
}

// State is a point-in-time view of a session in host coordinates.
type State struct {
	ID                 string                   `json:"id"`
	Path               string                   `json:"path"`
	Language           string                   `json:"language"`
	Text               string                   `json:"text"`
	Version            uint64                   `json:"version"`
	EOL                editor.EndOfLineSequence `json:"eol"`
	Position           editor.Position          `json:"position"`
	Selections         []editor.Selection       `json:"selections"`
	CompletedLines     []int                    `json:"completed_lines"`
	Tasks              []models.Task            `json:"tasks"`
	Summary            models.TaskSummary       `json:"summary"`
	Placeholder        string                   `json:"placeholder"`
	PlaceholderVisible bool                     `json:"placeholder_visible"`
	Theme              string                   `json:"theme"`
	Dirty              bool                     `json:"dirty"`
	CanUndo            bool                     `json:"can_undo"`
	CanRedo            bool                     `json:"can_redo"`
}

// Session is one note open for editing. All methods are safe for concurrent
// use; each operation runs to completion before the next starts.
type Session struct {
	id   string
	lang *langreg.Language

	store  storage.Provider
	snaps  snapshot.Store
	notify Notifier
	logger *slog.Logger
	limit  int

	mu          sync.Mutex
	model       *editor.Model
	intents     *intent.Dispatcher
	decos       *decoration.Synchronizer
	placeholder *appearance.Placeholder
	theme       string
	subs        editor.Disposable
	lastRule    string
	closed      bool
	openedSum   string

	persist *debounce.Debouncer[string]

	path string // guarded by pmu

	// pmu guards path and the checksum of the content last written to or
	// loaded from the vault.
	pmu       sync.Mutex
	persisted string
}

type deps struct {
	store  storage.Provider
	snaps  snapshot.Store
	notify Notifier
	logger *slog.Logger
}

func newSession(id, path, text string, lang *langreg.Language, d deps, cfg Config) (*Session, error) {
	s := &Session{
		id:     id,
		path:   path,
		lang:   lang,
		store:  d.store,
		snaps:  d.snaps,
		notify: d.notify,
		logger: d.logger.With(slog.String("session", id), slog.String("path", path)),
		limit:  cfg.SnapshotLimit,
	}
	langID := ""
	if lang != nil {
		langID = lang.ID
	}
	s.model = editor.New(text, editor.Options{
		HistoryLimit: cfg.HistoryLimit,
		LanguageID:   langID,
		Logger:       s.logger,
	})

	theme, err := appearance.Install(s.model, cfg.Theme)
	if err != nil {
		return nil, fmt.Errorf("session: install theme: %w", err)
	}
	s.theme = theme

	s.intents = intent.New(s.model,
		intent.WithLogger(s.logger),
		intent.WithCheckboxTolerance(cfg.CheckboxTolerance))
	s.decos = decoration.New(s.model, decoration.WithLogger(s.logger))
	s.placeholder = appearance.NewPlaceholder()
	s.placeholder.Update(text)
	s.persist = debounce.New(cfg.Debounce, s.write)

	sum := checksum.String(s.model.Value())
	s.openedSum = sum
	s.persisted = sum

	// Decorations resync before the session reacts to a change.
	s.subs = editor.Disposables{
		s.model.OnKeyDown(func(ev *editor.KeyEvent) { s.lastRule = s.intents.HandleKey(ev) }),
		s.model.OnMouseDown(func(ev *editor.MouseEvent) { s.lastRule = s.intents.HandleMouse(ev) }),
		s.decos.Attach(s.model),
		s.model.OnDidChangeContent(s.changed),
		s.model.OnUnexpectedError(func(e *editor.UnexpectedError) {
			s.publish(EventError, map[string]any{"listener": e.Listener, "error": fmt.Sprint(e.Value)})
		}),
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Path() string {
	s.pmu.Lock()
	defer s.pmu.Unlock()
	return s.path
}

func (s *Session) rename(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pmu.Lock()
	s.path = path
	s.pmu.Unlock()
}

// PersistedChecksum is the checksum of the content this session last wrote
// or loaded.
func (s *Session) PersistedChecksum() string {
	s.pmu.Lock()
	defer s.pmu.Unlock()
	return s.persisted
}

func (s *Session) setPersisted(sum string) {
	s.pmu.Lock()
	s.persisted = sum
	s.pmu.Unlock()
}

// changed runs on every content change while s.mu is held.
func (s *Session) changed(ev editor.ContentChangedEvent) {
	text := s.model.Value()
	if s.placeholder.Update(text) {
		s.logger.Debug("placeholder visibility changed", slog.Bool("shown", s.placeholder.Shown()))
	}
	if ev.Source != sourceReload {
		s.persist.Call(text)
	}
	s.publish(EventChanged, map[string]any{
		"version": ev.VersionID,
		"source":  ev.Source,
		"undo":    ev.IsUndoing,
		"redo":    ev.IsRedoing,
	})
}

// write is the debounced persistence callback.
// The checksum is recorded before the write so that a watcher reporting
// the write back never mistakes it for an external change.
func (s *Session) write(text string) {
	sum := checksum.String(text)
	prev := s.PersistedChecksum()
	s.setPersisted(sum)
	if err := s.store.Write(s.Path(), []byte(text)); err != nil {
		s.setPersisted(prev)
		s.logger.Error("persist failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Debug("persisted", slog.Int("chars", utf8.RuneCountInString(text)))
	s.publish(EventPersisted, map[string]any{"checksum": sum})
}

func (s *Session) publish(kind string, data map[string]any) {
	if s.notify == nil {
		return
	}
	s.notify.Notify(Event{Type: kind, SessionID: s.id, Path: s.Path(), Data: data})
}

// lock acquires the session and fails once it is closed.
func (s *Session) lock() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	return nil
}

// Key dispatches a key press and returns the intent rule that handled it,
// or "" when the editor's default handling ran.
func (s *Session) Key(ev editor.KeyEvent) (string, error) {
	if err := s.lock(); err != nil {
		return "", err
	}
	defer s.mu.Unlock()

	s.lastRule = ""
	s.model.DispatchKey(&ev)
	return s.lastRule, nil
}

// Click dispatches a pointer press at p and returns the applied intent rule.
func (s *Session) Click(p editor.Position, button editor.MouseButton) (string, error) {
	if err := s.lock(); err != nil {
		return "", err
	}
	defer s.mu.Unlock()

	s.lastRule = ""
	ev := editor.MouseEvent{Button: button, Target: s.model.HitTest(p)}
	s.model.DispatchMouse(&ev)
	return s.lastRule, nil
}

// ApplyWorkspaceEdit applies the edits addressed to this session's note as
// one undoable step.
func (s *Session) ApplyWorkspaceEdit(w *workspace.WorkspaceEdit) (bool, error) {
	ops, err := convert.WorkspaceEditFrom(w, s.Path())
	if err != nil {
		return false, fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
	}
	if err := s.lock(); err != nil {
		return false, err
	}
	defer s.mu.Unlock()

	if len(ops) == 0 {
		return false, nil
	}
	return s.model.ExecuteEdits(SourceAPI, ops), nil
}

// SetSelections replaces the selections; the first one is primary.
func (s *Session) SetSelections(sels []editor.Selection) error {
	if len(sels) == 0 {
		return fmt.Errorf("no selections: %w", apperr.ErrInvalidInput)
	}
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	s.model.SetSelections(sels)
	return nil
}

// SetEOL switches the line terminator used when the note is written. The
// change is persisted like any other edit. It reports whether the
// terminator changed.
func (s *Session) SetEOL(eol editor.EndOfLineSequence) (bool, error) {
	if eol.Sequence() == "" {
		return false, fmt.Errorf("unknown end of line %v: %w", eol, apperr.ErrInvalidInput)
	}
	if err := s.lock(); err != nil {
		return false, err
	}
	defer s.mu.Unlock()

	return s.model.SetEOL(eol), nil
}

// ToggleTask flips the checkbox on a 1-based line.
func (s *Session) ToggleTask(line int) (bool, error) {
	if err := s.lock(); err != nil {
		return false, err
	}
	defer s.mu.Unlock()

	if line < 1 || line > s.model.LineCount() {
		return false, ErrLineOutOfRange
	}
	content := s.model.LineContent(line)
	col, ok := tasklist.CheckboxStateColumn(content)
	if !ok {
		return false, ErrNotTask
	}
	toggled, _ := tasklist.ToggleCheckbox(content)
	state := string([]rune(toggled)[col-1])
	r := editor.NewRange(
		editor.Position{LineNumber: line, Column: col},
		editor.Position{LineNumber: line, Column: col + 1},
	)
	s.model.ExecuteEdits(SourceToggle, []editor.EditOperation{{Range: r, Text: state}})
	return tasklist.IsCheckedTask(s.model.LineContent(line)), nil
}

// AppendTask adds an unchecked task at the end of the note and returns its
// 1-based line.
func (s *Session) AppendTask(text string) (int, error) {
	if err := s.lock(); err != nil {
		return 0, err
	}
	defer s.mu.Unlock()

	last := s.model.LineCount()
	end := editor.Position{LineNumber: last, Column: s.model.LineMaxColumn(last)}
	item := "- [ ] " + text
	line := last
	if s.model.LineContent(last) != "" {
		item = "\n" + item
		line++
	}
	s.model.ExecuteEdits(SourceAppend, []editor.EditOperation{{Range: editor.NewRange(end, end), Text: item}})
	return line, nil
}

func (s *Session) Undo() (bool, error) {
	if err := s.lock(); err != nil {
		return false, err
	}
	defer s.mu.Unlock()
	return s.model.Undo(), nil
}

func (s *Session) Redo() (bool, error) {
	if err := s.lock(); err != nil {
		return false, err
	}
	defer s.mu.Unlock()
	return s.model.Redo(), nil
}

// Reload replaces the buffer with text read from the vault. A pending
// debounced write is dropped; the external content wins.
func (s *Session) Reload(text string) (bool, error) {
	if err := s.lock(); err != nil {
		return false, err
	}
	defer s.mu.Unlock()

	sum := checksum.String(text)
	if text == s.model.Value() {
		s.setPersisted(sum)
		return false, nil
	}
	if s.persist.Cancel() {
		s.logger.Warn("external change dropped pending edits")
	}
	s.model.SetValue(text)
	s.setPersisted(sum)
	s.publish(EventReloaded, map[string]any{"checksum": sum})
	return true, nil
}

// Flush writes pending content immediately.
func (s *Session) Flush() bool {
	return s.persist.Flush()
}

// State returns a view of the session.
func (s *Session) State() (State, error) {
	if err := s.lock(); err != nil {
		return State{}, err
	}
	defer s.mu.Unlock()
	return s.state(), nil
}

func (s *Session) state() State {
	text := s.model.Value()
	res, _ := parser.Parse([]byte(text))
	var tasks []models.Task
	if res != nil {
		tasks = res.Tasks
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	lines := s.decos.Lines()
	if lines == nil {
		lines = []int{}
	}
	langID := ""
	if s.lang != nil {
		langID = s.lang.ID
	}
	return State{
		ID:                 s.id,
		Path:               s.Path(),
		Language:           langID,
		Text:               text,
		Version:            s.model.Version(),
		EOL:                s.model.EOL(),
		Position:           s.model.Position(),
		Selections:         s.model.Selections(),
		CompletedLines:     lines,
		Tasks:              tasks,
		Summary:            models.Summarize(tasks),
		Placeholder:        s.placeholder.Text(),
		PlaceholderVisible: s.placeholder.Shown(),
		Theme:              s.theme,
		Dirty:              s.persist.Pending(),
		CanUndo:            s.model.CanUndo(),
		CanRedo:            s.model.CanRedo(),
	}
}

// Close flushes pending content, detaches the behaviors and records an
// automatic snapshot when the note changed while open.
func (s *Session) Close() error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	s.persist.Flush()
	s.persist.Stop()
	s.subs.Dispose()
	s.closed = true

	text := s.model.Value()
	path := s.Path()
	if s.snaps != nil && checksum.String(text) != s.openedSum {
		_, err := s.snaps.CreateAuto(models.Snapshot{
			NotePath:    path,
			Title:       parser.DeriveTitle(text, path),
			Description: "Auto-saved on close",
			Content:     text,
		}, s.limit)
		if err != nil {
			s.logger.Error("auto snapshot failed", slog.String("error", err.Error()))
		}
	}
	s.publish(EventClosed, nil)
	return nil
}
