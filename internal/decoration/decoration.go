// Package decoration keeps completed-task highlighting in step with the
// buffer.
package decoration

import (
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/starford/quire/internal/editor"
	"github.com/starford/quire/internal/tasklist"
)

// CompletedTaskClass is the inline class applied to checked task lines.
const CompletedTaskClass = "task-completed-line"

// Host is what the synchronizer reads and decorates.
type Host interface {
	editor.TextModel
	editor.Decorator
}

// Synchronizer recomputes completed-task decorations from scratch.
type Synchronizer struct {
	host   Host
	logger *slog.Logger
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the logger for failed syncs.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) { s.logger = l }
}

func New(host Host, opts ...Option) *Synchronizer {
	s := &Synchronizer{host: host, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach performs an initial sync and resyncs on every content change.
func (s *Synchronizer) Attach(src editor.EventSource) editor.Disposable {
	s.Sync()
	return src.OnDidChangeContent(func(editor.ContentChangedEvent) { s.Sync() })
}

// Sync replaces every completed-task decoration with one per checked task
// line in a single DeltaDecorations call. Decorations of other classes are
// left alone. A failing host leaves the previous decorations in place and
// reports false.
func (s *Synchronizer) Sync() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			s.logger.Error("decoration sync failed", slog.String("error", fmt.Sprint(r)))
		}
	}()

	var old []string
	for _, d := range s.host.AllDecorations() {
		if d.Options.InlineClassName == CompletedTaskClass {
			old = append(old, d.ID)
		}
	}

	var specs []editor.DecorationSpec
	n := s.host.LineCount()
	for line := 1; line <= n; line++ {
		content := s.host.LineContent(line)
		if !tasklist.IsCheckedTask(content) {
			continue
		}
		specs = append(specs, editor.DecorationSpec{
			Range: editor.NewRange(
				editor.Position{LineNumber: line, Column: 1},
				editor.Position{LineNumber: line, Column: utf8.RuneCountInString(content) + 1},
			),
			Options: editor.DecorationOptions{
				InlineClassName: CompletedTaskClass,
				IsWholeLine:     true,
				Stickiness:      editor.StickinessGrowsOnlyWhenTypingBefore,
			},
		})
	}

	s.host.DeltaDecorations(old, specs)
	return true
}

// Lines returns the 1-based line numbers currently decorated as completed.
func (s *Synchronizer) Lines() []int {
	var out []int
	for _, r := range s.Ranges() {
		out = append(out, r.StartLineNumber)
	}
	return out
}

// Ranges returns the tracked ranges of the completed-task decorations in
// document order.
func (s *Synchronizer) Ranges() []editor.Range {
	var out []editor.Range
	for _, d := range s.host.AllDecorations() {
		if d.Options.InlineClassName == CompletedTaskClass {
			out = append(out, d.Range)
		}
	}
	return out
}
